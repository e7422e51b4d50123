package http

import (
	"net/http"
	"strconv"

	"cashmoo/internal/core"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	snap, err := s.dashboard.Snapshot(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

func (s *Server) handleRunTick(w http.ResponseWriter, r *http.Request) {
	if err := s.scheduler.RunTick(r.Context()); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleListIncomes(w http.ResponseWriter, r *http.Request) {
	incomes, err := s.store.ListIncomes(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	out := make([]incomeResponse, 0, len(incomes))
	for _, in := range incomes {
		out = append(out, incomeFromCore(in))
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateIncome(w http.ResponseWriter, r *http.Request) {
	in, err := s.parseIncome(r, 0)
	if err != nil {
		respondError(w, err)
		return
	}
	created, err := s.ledger.AddIncome(r.Context(), in)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, incomeFromCore(created))
}

func (s *Server) handleUpdateIncome(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, err)
		return
	}
	in, err := s.parseIncome(r, id)
	if err != nil {
		respondError(w, err)
		return
	}
	updated, err := s.ledger.UpdateIncome(r.Context(), in)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, incomeFromCore(updated))
}

func (s *Server) handleDeleteIncome(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, err)
		return
	}
	if err := s.ledger.DeleteIncome(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleIncomeStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, err)
		return
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := decodeBody(r, &body); err != nil {
		respondError(w, core.ErrInvalidStatus)
		return
	}
	if err := s.ledger.SetIncomeStatus(r.Context(), id, core.IncomeStatus(body.Status)); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := s.store.ListExpenses(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	out := make([]expenseResponse, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, expenseFromCore(e))
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	e, firstDue, err := s.parseExpense(r, 0)
	if err != nil {
		respondError(w, err)
		return
	}
	created, err := s.ledger.AddExpense(r.Context(), e, firstDue)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, expenseFromCore(created))
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, err)
		return
	}
	e, firstDue, err := s.parseExpense(r, id)
	if err != nil {
		respondError(w, err)
		return
	}
	updated, err := s.ledger.UpdateExpense(r.Context(), e, firstDue)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, expenseFromCore(updated))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, err)
		return
	}
	if err := s.ledger.DeleteExpense(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleExpenseStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, err)
		return
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := decodeBody(r, &body); err != nil {
		respondError(w, core.ErrInvalidStatus)
		return
	}
	if err := s.ledger.SetExpenseStatus(r.Context(), id, core.ExpenseStatus(body.Status)); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	cards, err := s.store.ListCards(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	out := make([]cardResponse, 0, len(cards))
	for _, c := range cards {
		out = append(out, cardFromCore(c))
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	c, err := parseCard(r, 0)
	if err != nil {
		respondError(w, err)
		return
	}
	created, err := s.ledger.AddCard(r.Context(), c)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, cardFromCore(created))
}

func (s *Server) handleUpdateCard(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, err)
		return
	}
	c, err := parseCard(r, id)
	if err != nil {
		respondError(w, err)
		return
	}
	updated, err := s.ledger.UpdateCard(r.Context(), c)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cardFromCore(updated))
}

func (s *Server) handleDeleteCard(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, err)
		return
	}
	if err := s.ledger.DeleteCard(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleListInvoices(w http.ResponseWriter, r *http.Request) {
	var (
		invoices []core.Invoice
		err      error
	)
	if raw := r.URL.Query().Get("cardId"); raw != "" {
		cardID, perr := strconv.ParseInt(raw, 10, 64)
		if perr != nil {
			respondError(w, core.ErrNotFound)
			return
		}
		invoices, err = s.store.ListCardInvoices(r.Context(), cardID)
	} else {
		invoices, err = s.store.ListInvoices(r.Context())
	}
	if err != nil {
		respondError(w, err)
		return
	}
	out := make([]invoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		out = append(out, invoiceFromCore(inv))
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handlePayInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, err)
		return
	}
	inv, err := s.scheduler.PayInvoice(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, invoiceFromCore(inv))
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	notifications, err := s.store.ListNotifications(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	out := make([]notificationResponse, 0, len(notifications))
	for _, n := range notifications {
		out = append(out, notificationFromCore(n))
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.GetProfile(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var body profileRequest
	if err := decodeBody(r, &body); err != nil {
		respondError(w, core.ErrInvalidStatus)
		return
	}
	if body.Name == "" || len(body.Name) > 30 {
		respondError(w, core.ErrEmptyName)
		return
	}
	p := core.Profile{
		Name:                 body.Name,
		Currency:             body.Currency,
		DateFormat:           body.DateFormat,
		NotificationsEnabled: body.NotificationsEnabled,
		IncomeReminders:      body.IncomeReminders,
	}
	if err := s.store.UpdateProfile(r.Context(), p); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (s *Server) parseIncome(r *http.Request, id int64) (core.Income, error) {
	var body incomeRequest
	if err := decodeBody(r, &body); err != nil {
		return core.Income{}, core.ErrInvalidRecurrence
	}
	amount, err := core.ParseMoney(body.Amount)
	if err != nil {
		return core.Income{}, err
	}
	in := core.Income{
		ID:         id,
		Name:       body.Name,
		Company:    body.Company,
		Amount:     amount,
		Recurrence: body.Recurrence.toCore(),
	}
	if body.StartDate != "" {
		if in.StartDate, err = core.ParseDate(body.StartDate); err != nil {
			return core.Income{}, core.ErrMissingDate
		}
	}
	if body.EndDate != "" {
		if in.EndDate, err = core.ParseDate(body.EndDate); err != nil {
			return core.Income{}, core.ErrMissingDate
		}
	}
	return in, nil
}

func (s *Server) parseExpense(r *http.Request, id int64) (core.Expense, core.Date, error) {
	var body expenseRequest
	if err := decodeBody(r, &body); err != nil {
		return core.Expense{}, core.Date{}, core.ErrInvalidRecurrence
	}
	amount, err := core.ParseMoney(body.Amount)
	if err != nil {
		return core.Expense{}, core.Date{}, err
	}
	e := core.Expense{
		ID:          id,
		Name:        body.Name,
		Description: body.Description,
		Amount:      amount,
		Recurrence:  body.Recurrence.toCore(),
		Method:      core.PaymentMethod(body.Method),
		CardID:      body.CardID,
	}
	var firstDue core.Date
	if body.FirstDueDate != "" {
		if firstDue, err = core.ParseDate(body.FirstDueDate); err != nil {
			return core.Expense{}, core.Date{}, core.ErrMissingDate
		}
	}
	return e, firstDue, nil
}

func parseCard(r *http.Request, id int64) (core.Card, error) {
	var body cardRequest
	if err := decodeBody(r, &body); err != nil {
		return core.Card{}, core.ErrInvalidDay
	}
	limit, err := core.ParseMoney(body.Limit)
	if err != nil {
		return core.Card{}, err
	}
	return core.Card{
		ID:         id,
		Name:       body.Name,
		Limit:      limit,
		ClosingDay: body.ClosingDay,
		PaymentDay: body.PaymentDay,
	}, nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, core.ErrNotFound
	}
	return id, nil
}
