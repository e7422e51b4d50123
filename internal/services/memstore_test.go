package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"cashmoo/internal/core"
)

// memStore is an in-memory Store for the service tests. It mirrors the SQLite
// repository's semantics: conditional inserts on the dedup keys, inclusive
// date-range sums, cascade on card deletion.
type memStore struct {
	mu            sync.Mutex
	profile       core.Profile
	incomes       map[int64]core.Income
	expenses      map[int64]core.Expense
	cards         map[int64]core.Card
	invoices      map[int64]core.Invoice
	notifications map[int64]core.Notification
	nextID        int64
}

func newMemStore() *memStore {
	return &memStore{
		profile: core.Profile{
			Name:                 "User",
			Currency:             "EUR",
			DateFormat:           "YYYY-MM-DD",
			NotificationsEnabled: true,
		},
		incomes:       map[int64]core.Income{},
		expenses:      map[int64]core.Expense{},
		cards:         map[int64]core.Card{},
		invoices:      map[int64]core.Invoice{},
		notifications: map[int64]core.Notification{},
	}
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *memStore) GetProfile(ctx context.Context) (core.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile, nil
}

func (s *memStore) UpdateProfile(ctx context.Context, p core.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = p
	return nil
}

func (s *memStore) CreateIncome(ctx context.Context, in core.Income) (core.Income, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	in.ID = s.id()
	s.incomes[in.ID] = in
	return in, nil
}

func (s *memStore) UpdateIncome(ctx context.Context, in core.Income) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.incomes[in.ID]; !ok {
		return core.ErrNotFound
	}
	s.incomes[in.ID] = in
	return nil
}

func (s *memStore) DeleteIncome(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.incomes[id]; !ok {
		return core.ErrNotFound
	}
	delete(s.incomes, id)
	return nil
}

func (s *memStore) GetIncome(ctx context.Context, id int64) (core.Income, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	in, ok := s.incomes[id]
	if !ok {
		return core.Income{}, core.ErrNotFound
	}
	return in, nil
}

func (s *memStore) ListIncomes(ctx context.Context) ([]core.Income, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Income, 0, len(s.incomes))
	for _, in := range s.incomes {
		out = append(out, in)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) ListActiveIncomes(ctx context.Context) ([]core.Income, error) {
	all, _ := s.ListIncomes(ctx)
	out := all[:0]
	for _, in := range all {
		if in.Active {
			out = append(out, in)
		}
	}
	return out, nil
}

func (s *memStore) SetIncomeStatus(ctx context.Context, id int64, status core.IncomeStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	in, ok := s.incomes[id]
	if !ok {
		return core.ErrNotFound
	}
	in.Status = status
	s.incomes[id] = in
	return nil
}

func (s *memStore) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = s.id()
	s.expenses[e.ID] = e
	return e, nil
}

func (s *memStore) UpdateExpense(ctx context.Context, e core.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.expenses[e.ID]; !ok {
		return core.ErrNotFound
	}
	s.expenses[e.ID] = e
	return nil
}

func (s *memStore) DeleteExpense(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.expenses[id]; !ok {
		return core.ErrNotFound
	}
	delete(s.expenses, id)
	return nil
}

func (s *memStore) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.expenses[id]
	if !ok {
		return core.Expense{}, core.ErrNotFound
	}
	return e, nil
}

func (s *memStore) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Expense, 0, len(s.expenses))
	for _, e := range s.expenses {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) ListActiveExpenses(ctx context.Context) ([]core.Expense, error) {
	all, _ := s.ListExpenses(ctx)
	out := all[:0]
	for _, e := range all {
		if e.Active {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *memStore) SetExpenseStatus(ctx context.Context, id int64, status core.ExpenseStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.expenses[id]
	if !ok {
		return core.ErrNotFound
	}
	e.Status = status
	if status == core.ExpenseUnpaid {
		e.PaidAt = time.Time{}
	}
	s.expenses[id] = e
	return nil
}

func (s *memStore) MarkExpensePaid(ctx context.Context, id int64, paidAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.expenses[id]
	if !ok {
		return core.ErrNotFound
	}
	e.Status = core.ExpensePaid
	e.PaidAt = paidAt
	s.expenses[id] = e
	return nil
}

func (s *memStore) SettleExpense(ctx context.Context, id int64, paidAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.expenses[id]
	if !ok {
		return core.ErrNotFound
	}
	e.Status = core.ExpensePaid
	e.PaidAt = paidAt
	e.Active = false
	s.expenses[id] = e
	return nil
}

func (s *memStore) CountCardExpenses(ctx context.Context, cardID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.expenses {
		if e.CardID == cardID {
			n++
		}
	}
	return n, nil
}

func (s *memStore) SumCardExpensesDue(ctx context.Context, cardID int64, from, to core.Date) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum int64
	for _, e := range s.expenses {
		if e.Method != core.PayCard || e.CardID != cardID || !e.Active || e.NextDate.IsZero() {
			continue
		}
		if e.NextDate.Before(from.Time) || e.NextDate.After(to.Time) {
			continue
		}
		sum += e.Amount.Cents
	}
	return sum, nil
}

func (s *memStore) CreateCard(ctx context.Context, c core.Card) (core.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.id()
	s.cards[c.ID] = c
	return c, nil
}

func (s *memStore) UpdateCard(ctx context.Context, c core.Card) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cards[c.ID]; !ok {
		return core.ErrNotFound
	}
	s.cards[c.ID] = c
	return nil
}

func (s *memStore) DeleteCard(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cards[id]; !ok {
		return core.ErrNotFound
	}
	for invID, inv := range s.invoices {
		if inv.CardID != id {
			continue
		}
		for nID, n := range s.notifications {
			if n.Kind == core.KindInvoice && n.RefID == invID {
				delete(s.notifications, nID)
			}
		}
		delete(s.invoices, invID)
	}
	for eID, e := range s.expenses {
		if e.CardID == id {
			e.Method = core.PayManual
			e.CardID = 0
			s.expenses[eID] = e
		}
	}
	delete(s.cards, id)
	return nil
}

func (s *memStore) GetCard(ctx context.Context, id int64) (core.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cards[id]
	if !ok {
		return core.Card{}, core.ErrNotFound
	}
	return c, nil
}

func (s *memStore) FindCardByName(ctx context.Context, name string) (core.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.cards {
		if strings.EqualFold(c.Name, name) {
			return c, nil
		}
	}
	return core.Card{}, core.ErrNotFound
}

func (s *memStore) ListCards(ctx context.Context) ([]core.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Card, 0, len(s.cards))
	for _, c := range s.cards {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) UpsertInvoiceIfAbsent(ctx context.Context, inv core.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.invoices {
		if existing.CardID == inv.CardID && existing.Year == inv.Year && existing.Month == inv.Month {
			return nil
		}
	}
	inv.ID = s.id()
	s.invoices[inv.ID] = inv
	return nil
}

func (s *memStore) GetInvoice(ctx context.Context, id int64) (core.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invoices[id]
	if !ok {
		return core.Invoice{}, core.ErrNotFound
	}
	return inv, nil
}

func (s *memStore) ListInvoices(ctx context.Context) ([]core.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Invoice, 0, len(s.invoices))
	for _, inv := range s.invoices {
		out = append(out, inv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) ListCardInvoices(ctx context.Context, cardID int64) ([]core.Invoice, error) {
	all, _ := s.ListInvoices(ctx)
	out := all[:0]
	for _, inv := range all {
		if inv.CardID == cardID {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (s *memStore) ListUnpaidInvoices(ctx context.Context) ([]core.Invoice, error) {
	all, _ := s.ListInvoices(ctx)
	out := all[:0]
	for _, inv := range all {
		if !inv.Paid {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (s *memStore) UpdateInvoiceTotal(ctx context.Context, id int64, total core.Money) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invoices[id]
	if !ok {
		return core.ErrNotFound
	}
	inv.Total = total
	s.invoices[id] = inv
	return nil
}

func (s *memStore) MarkInvoicePaid(ctx context.Context, id int64, paidAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invoices[id]
	if !ok {
		return core.ErrNotFound
	}
	inv.Paid = true
	inv.PaidAt = paidAt
	s.invoices[id] = inv
	return nil
}

func (s *memStore) InsertNotificationIfAbsent(ctx context.Context, n core.Notification) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.notifications {
		if existing.Kind == n.Kind && existing.RefID == n.RefID && existing.DueDate.Equal(n.DueDate.Time) {
			return false, nil
		}
	}
	n.ID = s.id()
	s.notifications[n.ID] = n
	return true, nil
}

func (s *memStore) ListNotifications(ctx context.Context) ([]core.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *memStore) ListUnreadNotifications(ctx context.Context, limit int) ([]core.Notification, error) {
	all, _ := s.ListNotifications(ctx)
	out := make([]core.Notification, 0, limit)
	for _, n := range all {
		if n.Read {
			continue
		}
		out = append(out, n)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *memStore) MarkNotificationRead(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[id]
	if !ok {
		return core.ErrNotFound
	}
	n.Read = true
	s.notifications[id] = n
	return nil
}

func (s *memStore) DeleteNotificationsFor(ctx context.Context, kind core.NotificationKind, refID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, n := range s.notifications {
		if n.Kind == kind && n.RefID == refID {
			delete(s.notifications, id)
		}
	}
	return nil
}

// recordingNotifier captures delivered alerts for assertions.
type recordingNotifier struct {
	mu     sync.Mutex
	shown  []string
	failAt int // 1-based index of the delivery to fail, 0 for never
	calls  int
}

func (n *recordingNotifier) Show(ctx context.Context, title, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls++
	if n.failAt != 0 && n.calls == n.failAt {
		return errShowFailed
	}
	n.shown = append(n.shown, title)
	return nil
}

var errShowFailed = &notifierError{}

type notifierError struct{}

func (*notifierError) Error() string { return "display channel unavailable" }
