package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cashmoo/internal/core"
)

// Ledger handles the user-facing commands: creating, updating and deleting
// incomes, expenses and cards. It computes recurrence-derived next dates
// before writing, so the scheduler never has to second-guess what the user
// asked for.
type Ledger struct {
	store Store
	clock func() time.Time
}

func NewLedger(store Store, clock func() time.Time) *Ledger {
	if clock == nil {
		clock = time.Now
	}
	return &Ledger{store: store, clock: clock}
}

func (l *Ledger) AddIncome(ctx context.Context, in core.Income) (core.Income, error) {
	in.Active = true
	if in.Status == "" {
		in.Status = core.IncomePending
	}
	if err := in.Validate(); err != nil {
		return core.Income{}, err
	}
	in.NextDate = l.nextFor(in.StartDate, in.Recurrence)
	created, err := l.store.CreateIncome(ctx, in)
	if err != nil {
		return core.Income{}, fmt.Errorf("add income: %w", err)
	}
	slog.InfoContext(ctx, "income created", "id", created.ID, "name", created.Name)
	return created, nil
}

func (l *Ledger) UpdateIncome(ctx context.Context, in core.Income) (core.Income, error) {
	current, err := l.store.GetIncome(ctx, in.ID)
	if err != nil {
		return core.Income{}, err
	}
	in.StartDate = current.StartDate
	in.Active = current.Active
	if in.Status == "" {
		in.Status = current.Status
	}
	if err := in.Validate(); err != nil {
		return core.Income{}, err
	}
	in.NextDate = l.nextFor(in.StartDate, in.Recurrence)
	if err := l.store.UpdateIncome(ctx, in); err != nil {
		return core.Income{}, fmt.Errorf("update income: %w", err)
	}
	return l.store.GetIncome(ctx, in.ID)
}

func (l *Ledger) DeleteIncome(ctx context.Context, id int64) error {
	if err := l.store.DeleteNotificationsFor(ctx, core.KindIncome, id); err != nil {
		return err
	}
	return l.store.DeleteIncome(ctx, id)
}

func (l *Ledger) SetIncomeStatus(ctx context.Context, id int64, status core.IncomeStatus) error {
	switch status {
	case core.IncomePending, core.IncomeConfirmed:
	default:
		return core.ErrInvalidStatus
	}
	return l.store.SetIncomeStatus(ctx, id, status)
}

// AddExpense validates and stores an expense. firstDue is the user-entered
// due date for single expenses; for recurring rules the next date is computed
// from the rule.
func (l *Ledger) AddExpense(ctx context.Context, e core.Expense, firstDue core.Date) (core.Expense, error) {
	e.Active = true
	if e.Status == "" {
		e.Status = core.ExpenseUnpaid
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	if e.Method == core.PayCard {
		if _, err := l.store.GetCard(ctx, e.CardID); err != nil {
			return core.Expense{}, err
		}
	}
	e.NextDate = l.nextFor(firstDue, e.Recurrence)
	created, err := l.store.CreateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("add expense: %w", err)
	}
	slog.InfoContext(ctx, "expense created",
		"id", created.ID,
		"name", created.Name,
		"amount_cents", created.Amount.Cents,
		"method", string(created.Method))
	return created, nil
}

func (l *Ledger) UpdateExpense(ctx context.Context, e core.Expense, firstDue core.Date) (core.Expense, error) {
	current, err := l.store.GetExpense(ctx, e.ID)
	if err != nil {
		return core.Expense{}, err
	}
	e.Active = current.Active
	e.PaidAt = current.PaidAt
	if e.Status == "" {
		e.Status = current.Status
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	if e.Method == core.PayCard {
		if _, err := l.store.GetCard(ctx, e.CardID); err != nil {
			return core.Expense{}, err
		}
	}
	if firstDue.IsZero() {
		firstDue = current.NextDate
	}
	e.NextDate = l.nextFor(firstDue, e.Recurrence)
	if err := l.store.UpdateExpense(ctx, e); err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}
	return l.store.GetExpense(ctx, e.ID)
}

func (l *Ledger) DeleteExpense(ctx context.Context, id int64) error {
	if err := l.store.DeleteNotificationsFor(ctx, core.KindExpense, id); err != nil {
		return err
	}
	return l.store.DeleteExpense(ctx, id)
}

func (l *Ledger) SetExpenseStatus(ctx context.Context, id int64, status core.ExpenseStatus) error {
	switch status {
	case core.ExpenseUnpaid, core.ExpensePaid:
	default:
		return core.ErrInvalidStatus
	}
	if status == core.ExpensePaid {
		return l.store.MarkExpensePaid(ctx, id, l.clock())
	}
	return l.store.SetExpenseStatus(ctx, id, status)
}

func (l *Ledger) AddCard(ctx context.Context, c core.Card) (core.Card, error) {
	if err := c.Validate(); err != nil {
		return core.Card{}, err
	}
	if c.PaymentDay <= c.ClosingDay {
		return core.Card{}, core.ErrPaymentDayNotAfterClosing
	}
	if _, err := l.store.FindCardByName(ctx, c.Name); err == nil {
		return core.Card{}, core.ErrDuplicateCardName
	} else if !errors.Is(err, core.ErrNotFound) {
		return core.Card{}, err
	}
	created, err := l.store.CreateCard(ctx, c)
	if err != nil {
		return core.Card{}, fmt.Errorf("add card: %w", err)
	}
	slog.InfoContext(ctx, "card created", "id", created.ID, "name", created.Name)
	return created, nil
}

func (l *Ledger) UpdateCard(ctx context.Context, c core.Card) (core.Card, error) {
	if err := c.Validate(); err != nil {
		return core.Card{}, err
	}
	if c.PaymentDay <= c.ClosingDay {
		return core.Card{}, core.ErrPaymentDayNotAfterClosing
	}
	if existing, err := l.store.FindCardByName(ctx, c.Name); err == nil && existing.ID != c.ID {
		return core.Card{}, core.ErrDuplicateCardName
	} else if err != nil && !errors.Is(err, core.ErrNotFound) {
		return core.Card{}, err
	}
	if err := l.store.UpdateCard(ctx, c); err != nil {
		return core.Card{}, err
	}
	return l.store.GetCard(ctx, c.ID)
}

// DeleteCard refuses while expenses still reference the card; otherwise the
// store cascades over invoices and their notifications and detaches the
// expenses.
func (l *Ledger) DeleteCard(ctx context.Context, id int64) error {
	n, err := l.store.CountCardExpenses(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return core.ErrCardHasExpenses
	}
	return l.store.DeleteCard(ctx, id)
}

func (l *Ledger) nextFor(anchor core.Date, rule core.Recurrence) core.Date {
	next, ok := NextOccurrence(anchor, rule, core.DateOf(l.clock()))
	if !ok {
		return core.Date{}
	}
	return next
}
