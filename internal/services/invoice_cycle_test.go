package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cashmoo/internal/core"
)

func TestEnsureCycleClampsShortMonths(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	mgr := NewInvoiceCycleManager(store)

	_, err := store.CreateCard(ctx, core.Card{
		Name:       "Late cycle",
		Limit:      core.Money{Cents: 50_000},
		ClosingDay: 30,
		PaymentDay: 31,
	})
	require.NoError(t, err)

	require.NoError(t, mgr.EnsureCycle(ctx, time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)))

	invoices, _ := store.ListInvoices(ctx)
	require.Len(t, invoices, 1)
	assert.Equal(t, "2025-02-28", invoices[0].ClosingDate.ISO())
	assert.Equal(t, "2025-02-28", invoices[0].DueDate.ISO())
}

func TestEnsureCycleRefreshesTotalsOnEveryRun(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	mgr := NewInvoiceCycleManager(store)
	now := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	card, err := store.CreateCard(ctx, core.Card{
		Name:       "Main card",
		Limit:      core.Money{Cents: 100_000},
		ClosingDay: 10,
		PaymentDay: 20,
	})
	require.NoError(t, err)

	e, err := store.CreateExpense(ctx, core.Expense{
		Name:       "Groceries",
		Amount:     core.Money{Cents: 12_000},
		Recurrence: core.Recurrence{Kind: core.Monthly, Day: 4},
		Method:     core.PayCard,
		CardID:     card.ID,
		NextDate:   core.NewDate(2025, 6, 4),
		Active:     true,
		Status:     core.ExpenseUnpaid,
	})
	require.NoError(t, err)

	require.NoError(t, mgr.EnsureCycle(ctx, now))
	invoices, _ := store.ListInvoices(ctx)
	require.Len(t, invoices, 1)
	assert.Equal(t, int64(12_000), invoices[0].Total.Cents)

	// The total is replaced, not accumulated, when the expense changes.
	e.Amount = core.Money{Cents: 20_000}
	require.NoError(t, store.UpdateExpense(ctx, e))
	require.NoError(t, mgr.EnsureCycle(ctx, now))
	invoices, _ = store.ListInvoices(ctx)
	require.Len(t, invoices, 1)
	assert.Equal(t, int64(20_000), invoices[0].Total.Cents)

	// Deleting the expense zeroes the total on the next run.
	require.NoError(t, store.DeleteExpense(ctx, e.ID))
	require.NoError(t, mgr.EnsureCycle(ctx, now))
	invoices, _ = store.ListInvoices(ctx)
	assert.Zero(t, invoices[0].Total.Cents)
}

func TestEnsureCycleExcludesExpensesOutsideWindow(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	mgr := NewInvoiceCycleManager(store)
	now := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	card, err := store.CreateCard(ctx, core.Card{
		Name:       "Main card",
		Limit:      core.Money{Cents: 100_000},
		ClosingDay: 10,
		PaymentDay: 20,
	})
	require.NoError(t, err)

	// Due after the closing date: belongs to a later cycle.
	_, err = store.CreateExpense(ctx, core.Expense{
		Name:       "After closing",
		Amount:     core.Money{Cents: 9_000},
		Recurrence: core.Recurrence{Kind: core.Monthly, Day: 15},
		Method:     core.PayCard,
		CardID:     card.ID,
		NextDate:   core.NewDate(2025, 6, 15),
		Active:     true,
		Status:     core.ExpenseUnpaid,
	})
	require.NoError(t, err)

	// On the closing date itself: included, the window is inclusive.
	_, err = store.CreateExpense(ctx, core.Expense{
		Name:       "On closing day",
		Amount:     core.Money{Cents: 4_000},
		Recurrence: core.Recurrence{Kind: core.Monthly, Day: 10},
		Method:     core.PayCard,
		CardID:     card.ID,
		NextDate:   core.NewDate(2025, 6, 10),
		Active:     true,
		Status:     core.ExpenseUnpaid,
	})
	require.NoError(t, err)

	require.NoError(t, mgr.EnsureCycle(ctx, now))
	invoices, _ := store.ListInvoices(ctx)
	require.Len(t, invoices, 1)
	assert.Equal(t, int64(4_000), invoices[0].Total.Cents)
}

func TestPayInvoiceUnknownID(t *testing.T) {
	mgr := NewInvoiceCycleManager(newMemStore())
	_, err := mgr.PayInvoice(context.Background(), 42, time.Now())
	assert.ErrorIs(t, err, core.ErrNotFound)
}
