package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cashmoo/internal/core"
)

// InvoiceCycleManager keeps exactly one invoice per card per billing period
// and keeps invoice totals in sync with the card expenses that fall inside
// the period.
type InvoiceCycleManager struct {
	store Store
}

func NewInvoiceCycleManager(store Store) *InvoiceCycleManager {
	return &InvoiceCycleManager{store: store}
}

// EnsureCycle lazily creates the current billing period's invoice for every
// card, then recomputes every invoice total from scratch. Creation goes
// through an insert-if-absent, so re-running within the same period is a
// no-op.
func (m *InvoiceCycleManager) EnsureCycle(ctx context.Context, now time.Time) error {
	today := core.DateOf(now)
	year, month := today.Year(), today.Month()

	cards, err := m.store.ListCards(ctx)
	if err != nil {
		return fmt.Errorf("list cards: %w", err)
	}

	for _, c := range cards {
		inv := core.Invoice{
			CardID:      c.ID,
			Year:        year,
			Month:       month,
			ClosingDate: core.NewDate(year, month, core.ClampDay(year, month, c.ClosingDay)),
			DueDate:     core.NewDate(year, month, core.ClampDay(year, month, c.PaymentDay)),
		}
		if err := m.store.UpsertInvoiceIfAbsent(ctx, inv); err != nil {
			return fmt.Errorf("ensure invoice for card %d: %w", c.ID, err)
		}
	}

	return m.refreshTotals(ctx)
}

// refreshTotals fully replaces each invoice total with the sum of active card
// expenses due between the first of the billing month and the closing date.
// A full recomputation means expense edits and deletions show up on the next
// tick without incremental bookkeeping.
func (m *InvoiceCycleManager) refreshTotals(ctx context.Context) error {
	invoices, err := m.store.ListInvoices(ctx)
	if err != nil {
		return fmt.Errorf("list invoices: %w", err)
	}

	for _, inv := range invoices {
		from := core.NewDate(inv.Year, inv.Month, 1)
		sum, err := m.store.SumCardExpensesDue(ctx, inv.CardID, from, inv.ClosingDate)
		if err != nil {
			return fmt.Errorf("sum expenses for invoice %d: %w", inv.ID, err)
		}
		if sum == inv.Total.Cents {
			continue
		}
		if err := m.store.UpdateInvoiceTotal(ctx, inv.ID, core.Money{Cents: sum}); err != nil {
			return fmt.Errorf("update total for invoice %d: %w", inv.ID, err)
		}
		slog.DebugContext(ctx, "invoice total refreshed",
			"invoice_id", inv.ID,
			"card_id", inv.CardID,
			"total_cents", sum)
	}
	return nil
}

// PayInvoice settles an invoice. The linked expenses keep their own paid
// state; invoice and expense are independent ledgers.
func (m *InvoiceCycleManager) PayInvoice(ctx context.Context, id int64, now time.Time) (core.Invoice, error) {
	if err := m.store.MarkInvoicePaid(ctx, id, now); err != nil {
		return core.Invoice{}, err
	}
	inv, err := m.store.GetInvoice(ctx, id)
	if err != nil {
		return core.Invoice{}, err
	}
	slog.InfoContext(ctx, "invoice paid",
		"invoice_id", inv.ID,
		"card_id", inv.CardID,
		"total_cents", inv.Total.Cents)
	return inv, nil
}
