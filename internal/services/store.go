package services

import (
	"context"
	"time"

	"cashmoo/internal/core"
)

// Store is the narrow persistence contract the services depend on. The SQLite
// repository implements it; tests use an in-memory implementation. Each write
// is atomic at the store level; the services never require a cross-call
// transaction.
type Store interface {
	GetProfile(ctx context.Context) (core.Profile, error)
	UpdateProfile(ctx context.Context, p core.Profile) error

	CreateIncome(ctx context.Context, in core.Income) (core.Income, error)
	UpdateIncome(ctx context.Context, in core.Income) error
	DeleteIncome(ctx context.Context, id int64) error
	GetIncome(ctx context.Context, id int64) (core.Income, error)
	ListIncomes(ctx context.Context) ([]core.Income, error)
	ListActiveIncomes(ctx context.Context) ([]core.Income, error)
	SetIncomeStatus(ctx context.Context, id int64, status core.IncomeStatus) error

	CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
	UpdateExpense(ctx context.Context, e core.Expense) error
	DeleteExpense(ctx context.Context, id int64) error
	GetExpense(ctx context.Context, id int64) (core.Expense, error)
	ListExpenses(ctx context.Context) ([]core.Expense, error)
	ListActiveExpenses(ctx context.Context) ([]core.Expense, error)
	SetExpenseStatus(ctx context.Context, id int64, status core.ExpenseStatus) error
	MarkExpensePaid(ctx context.Context, id int64, paidAt time.Time) error
	SettleExpense(ctx context.Context, id int64, paidAt time.Time) error
	CountCardExpenses(ctx context.Context, cardID int64) (int, error)
	SumCardExpensesDue(ctx context.Context, cardID int64, from, to core.Date) (int64, error)

	CreateCard(ctx context.Context, c core.Card) (core.Card, error)
	UpdateCard(ctx context.Context, c core.Card) error
	DeleteCard(ctx context.Context, id int64) error
	GetCard(ctx context.Context, id int64) (core.Card, error)
	FindCardByName(ctx context.Context, name string) (core.Card, error)
	ListCards(ctx context.Context) ([]core.Card, error)

	UpsertInvoiceIfAbsent(ctx context.Context, inv core.Invoice) error
	GetInvoice(ctx context.Context, id int64) (core.Invoice, error)
	ListInvoices(ctx context.Context) ([]core.Invoice, error)
	ListCardInvoices(ctx context.Context, cardID int64) ([]core.Invoice, error)
	ListUnpaidInvoices(ctx context.Context) ([]core.Invoice, error)
	UpdateInvoiceTotal(ctx context.Context, id int64, total core.Money) error
	MarkInvoicePaid(ctx context.Context, id int64, paidAt time.Time) error

	InsertNotificationIfAbsent(ctx context.Context, n core.Notification) (bool, error)
	ListNotifications(ctx context.Context) ([]core.Notification, error)
	ListUnreadNotifications(ctx context.Context, limit int) ([]core.Notification, error)
	MarkNotificationRead(ctx context.Context, id int64) error
	DeleteNotificationsFor(ctx context.Context, kind core.NotificationKind, refID int64) error
}
