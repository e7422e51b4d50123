package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"cashmoo/internal/core"
)

func testRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	if err := RunMigrations(dbPath); err != nil {
		t.Fatalf("first run: %v", err)
	}
	// A second run finds the schema current and is a no-op.
	if err := RunMigrations(dbPath); err != nil {
		t.Fatalf("second run: %v", err)
	}
}

func TestProfileSeededOnMigration(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	p, err := repo.GetProfile(ctx)
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if p.Name != "User" {
		t.Errorf("seeded name = %q", p.Name)
	}
	if !p.NotificationsEnabled {
		t.Error("notifications should default on")
	}
	if p.IncomeReminders {
		t.Error("income reminders should default off")
	}

	p.Name = "Alex"
	p.IncomeReminders = true
	if err := repo.UpdateProfile(ctx, p); err != nil {
		t.Fatalf("update profile: %v", err)
	}
	got, _ := repo.GetProfile(ctx)
	if got.Name != "Alex" || !got.IncomeReminders {
		t.Errorf("profile after update = %+v", got)
	}
}

func TestIncomeRoundTrip(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	in := core.Income{
		Name:       "Salary",
		Company:    "Acme",
		Amount:     core.Money{Cents: 250_000},
		Recurrence: core.Recurrence{Kind: core.Monthly, Day: 27},
		StartDate:  core.NewDate(2025, 1, 27),
		NextDate:   core.NewDate(2025, 6, 27),
		Active:     true,
		Status:     core.IncomePending,
	}

	created, err := repo.CreateIncome(ctx, in)
	if err != nil {
		t.Fatalf("create income: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("expected an id")
	}

	got, err := repo.GetIncome(ctx, created.ID)
	if err != nil {
		t.Fatalf("get income: %v", err)
	}
	if got.Name != in.Name || got.Amount != in.Amount || got.Recurrence != in.Recurrence {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if !got.EndDate.IsZero() {
		t.Errorf("open-ended income came back with end date %s", got.EndDate.ISO())
	}
	if got.NextDate.ISO() != "2025-06-27" {
		t.Errorf("next date = %s", got.NextDate.ISO())
	}

	if err := repo.SetIncomeStatus(ctx, created.ID, core.IncomeConfirmed); err != nil {
		t.Fatalf("set status: %v", err)
	}
	got, _ = repo.GetIncome(ctx, created.ID)
	if got.Status != core.IncomeConfirmed {
		t.Errorf("status = %s", got.Status)
	}

	if err := repo.DeleteIncome(ctx, created.ID); err != nil {
		t.Fatalf("delete income: %v", err)
	}
	if _, err := repo.GetIncome(ctx, created.ID); err == nil {
		t.Error("expected not found after delete")
	}
}

func TestSumCardExpensesDue(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	card, err := repo.CreateCard(ctx, core.Card{
		Name: "Main card", Limit: core.Money{Cents: 100_000}, ClosingDay: 10, PaymentDay: 20,
	})
	if err != nil {
		t.Fatalf("create card: %v", err)
	}

	mk := func(cents int64, due core.Date, active bool) {
		t.Helper()
		_, err := repo.CreateExpense(ctx, core.Expense{
			Name:       "E",
			Amount:     core.Money{Cents: cents},
			Recurrence: core.Recurrence{Kind: core.Monthly, Day: due.Day()},
			Method:     core.PayCard,
			CardID:     card.ID,
			NextDate:   due,
			Active:     active,
			Status:     core.ExpenseUnpaid,
		})
		if err != nil {
			t.Fatalf("create expense: %v", err)
		}
	}

	// Both window edges are inclusive; the one past the closing date, the
	// inactive one and the previous cycle's are all excluded.
	mk(10_000, core.NewDate(2025, 6, 1), true)
	mk(5_000, core.NewDate(2025, 6, 10), true)
	mk(7_000, core.NewDate(2025, 6, 11), true)
	mk(3_000, core.NewDate(2025, 6, 5), false)
	mk(9_000, core.NewDate(2025, 5, 31), true)

	sum, err := repo.SumCardExpensesDue(ctx, card.ID, core.NewDate(2025, 6, 1), core.NewDate(2025, 6, 10))
	if err != nil {
		t.Fatalf("sum: %v", err)
	}
	if sum != 15_000 {
		t.Errorf("sum = %d, want 15000", sum)
	}
}

func TestInvoiceCycleUniqueness(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	card, _ := repo.CreateCard(ctx, core.Card{
		Name: "Main card", Limit: core.Money{Cents: 100_000}, ClosingDay: 10, PaymentDay: 20,
	})

	inv := core.Invoice{
		CardID:      card.ID,
		Year:        2025,
		Month:       6,
		ClosingDate: core.NewDate(2025, 6, 10),
		DueDate:     core.NewDate(2025, 6, 20),
	}
	if err := repo.UpsertInvoiceIfAbsent(ctx, inv); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if err := repo.UpsertInvoiceIfAbsent(ctx, inv); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	invoices, err := repo.ListCardInvoices(ctx, card.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(invoices) != 1 {
		t.Fatalf("invoices = %d, want 1", len(invoices))
	}

	paidAt := time.Date(2025, 6, 20, 10, 0, 0, 0, time.UTC)
	if err := repo.MarkInvoicePaid(ctx, invoices[0].ID, paidAt); err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	got, _ := repo.GetInvoice(ctx, invoices[0].ID)
	if !got.Paid || !got.PaidAt.Equal(paidAt) {
		t.Errorf("after payment: paid=%v paidAt=%v", got.Paid, got.PaidAt)
	}

	unpaid, _ := repo.ListUnpaidInvoices(ctx)
	if len(unpaid) != 0 {
		t.Errorf("unpaid = %d, want 0", len(unpaid))
	}
}

func TestNotificationDedupAndFlushOrder(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	n := core.Notification{
		Kind:      core.KindExpense,
		RefID:     1,
		Title:     "Rent",
		DueDate:   core.NewDate(2025, 6, 5),
		CreatedAt: time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC),
	}

	inserted, err := repo.InsertNotificationIfAbsent(ctx, n)
	if err != nil || !inserted {
		t.Fatalf("first insert = (%v, %v), want (true, nil)", inserted, err)
	}
	inserted, err = repo.InsertNotificationIfAbsent(ctx, n)
	if err != nil || inserted {
		t.Fatalf("duplicate insert = (%v, %v), want (false, nil)", inserted, err)
	}

	later := n
	later.DueDate = core.NewDate(2025, 7, 5)
	later.CreatedAt = n.CreatedAt.Add(time.Hour)
	if _, err := repo.InsertNotificationIfAbsent(ctx, later); err != nil {
		t.Fatalf("insert later: %v", err)
	}

	unread, err := repo.ListUnreadNotifications(ctx, 10)
	if err != nil {
		t.Fatalf("list unread: %v", err)
	}
	if len(unread) != 2 {
		t.Fatalf("unread = %d, want 2", len(unread))
	}
	if unread[0].DueDate.ISO() != "2025-07-05" {
		t.Errorf("newest first: got %s", unread[0].DueDate.ISO())
	}

	if err := repo.MarkNotificationRead(ctx, unread[0].ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	unread, _ = repo.ListUnreadNotifications(ctx, 10)
	if len(unread) != 1 {
		t.Errorf("unread after read = %d, want 1", len(unread))
	}

	if err := repo.DeleteNotificationsFor(ctx, core.KindExpense, 1); err != nil {
		t.Fatalf("delete for: %v", err)
	}
	all, _ := repo.ListNotifications(ctx)
	if len(all) != 0 {
		t.Errorf("notifications after delete = %d, want 0", len(all))
	}
}

func TestDeleteCardCascade(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	card, _ := repo.CreateCard(ctx, core.Card{
		Name: "Main card", Limit: core.Money{Cents: 100_000}, ClosingDay: 10, PaymentDay: 20,
	})

	expense, err := repo.CreateExpense(ctx, core.Expense{
		Name:       "Subscription",
		Amount:     core.Money{Cents: 1_500},
		Recurrence: core.Recurrence{Kind: core.Monthly, Day: 5},
		Method:     core.PayCard,
		CardID:     card.ID,
		NextDate:   core.NewDate(2025, 6, 5),
		Active:     true,
		Status:     core.ExpenseUnpaid,
	})
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}

	if err := repo.UpsertInvoiceIfAbsent(ctx, core.Invoice{
		CardID: card.ID, Year: 2025, Month: 6,
		ClosingDate: core.NewDate(2025, 6, 10), DueDate: core.NewDate(2025, 6, 20),
	}); err != nil {
		t.Fatalf("upsert invoice: %v", err)
	}
	invoices, _ := repo.ListCardInvoices(ctx, card.ID)
	if _, err := repo.InsertNotificationIfAbsent(ctx, core.Notification{
		Kind: core.KindInvoice, RefID: invoices[0].ID, Title: "Card invoice",
		DueDate: core.NewDate(2025, 6, 20), CreatedAt: time.Now(),
	}); err != nil {
		t.Fatalf("insert notification: %v", err)
	}

	if err := repo.DeleteCard(ctx, card.ID); err != nil {
		t.Fatalf("delete card: %v", err)
	}

	if _, err := repo.GetCard(ctx, card.ID); err == nil {
		t.Error("card should be gone")
	}
	invoices, _ = repo.ListCardInvoices(ctx, card.ID)
	if len(invoices) != 0 {
		t.Errorf("invoices = %d, want 0", len(invoices))
	}
	notifications, _ := repo.ListNotifications(ctx)
	if len(notifications) != 0 {
		t.Errorf("notifications = %d, want 0", len(notifications))
	}

	// The expense survives, detached and back on manual payment.
	got, err := repo.GetExpense(ctx, expense.ID)
	if err != nil {
		t.Fatalf("get expense: %v", err)
	}
	if got.Method != core.PayManual || got.CardID != 0 {
		t.Errorf("expense after cascade: method=%s cardID=%d", got.Method, got.CardID)
	}
}

func TestCardNameUniqueIndex(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	if _, err := repo.CreateCard(ctx, core.Card{
		Name: "Main card", Limit: core.Money{Cents: 100_000}, ClosingDay: 10, PaymentDay: 20,
	}); err != nil {
		t.Fatalf("create card: %v", err)
	}
	if _, err := repo.CreateCard(ctx, core.Card{
		Name: "MAIN CARD", Limit: core.Money{Cents: 50_000}, ClosingDay: 5, PaymentDay: 15,
	}); err == nil {
		t.Error("case-insensitive duplicate should hit the unique index")
	}

	found, err := repo.FindCardByName(ctx, "main CARD")
	if err != nil {
		t.Fatalf("find by name: %v", err)
	}
	if found.Name != "Main card" {
		t.Errorf("found = %q", found.Name)
	}
}
