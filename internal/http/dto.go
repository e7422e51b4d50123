package http

import (
	"cashmoo/internal/core"
)

type recurrenceDTO struct {
	Type    string `json:"type"`
	Weekday int    `json:"weekday,omitempty"`
	Day     int    `json:"day,omitempty"`
	Month   int    `json:"month,omitempty"`
}

func (r recurrenceDTO) toCore() core.Recurrence {
	return core.Recurrence{
		Kind:    core.RecurrenceKind(r.Type),
		Weekday: r.Weekday,
		Day:     r.Day,
		Month:   r.Month,
	}
}

func recurrenceFromCore(r core.Recurrence) recurrenceDTO {
	return recurrenceDTO{
		Type:    string(r.Kind),
		Weekday: r.Weekday,
		Day:     r.Day,
		Month:   r.Month,
	}
}

type incomeRequest struct {
	Name       string        `json:"name"`
	Company    string        `json:"company"`
	Amount     string        `json:"amount"`
	Recurrence recurrenceDTO `json:"recurrence"`
	StartDate  string        `json:"startDate"`
	EndDate    string        `json:"endDate"`
}

type incomeResponse struct {
	ID         int64         `json:"id"`
	Name       string        `json:"name"`
	Company    string        `json:"company,omitempty"`
	Amount     string        `json:"amount"`
	Recurrence recurrenceDTO `json:"recurrence"`
	StartDate  string        `json:"startDate"`
	EndDate    string        `json:"endDate,omitempty"`
	NextDate   string        `json:"nextDate,omitempty"`
	Active     bool          `json:"active"`
	Status     string        `json:"status"`
}

func incomeFromCore(in core.Income) incomeResponse {
	resp := incomeResponse{
		ID:         in.ID,
		Name:       in.Name,
		Company:    in.Company,
		Amount:     in.Amount.String(),
		Recurrence: recurrenceFromCore(in.Recurrence),
		StartDate:  in.StartDate.ISO(),
		Active:     in.Active,
		Status:     string(in.Status),
	}
	if !in.EndDate.IsZero() {
		resp.EndDate = in.EndDate.ISO()
	}
	if !in.NextDate.IsZero() {
		resp.NextDate = in.NextDate.ISO()
	}
	return resp
}

type expenseRequest struct {
	Name         string        `json:"name"`
	Description  string        `json:"description"`
	Amount       string        `json:"amount"`
	Recurrence   recurrenceDTO `json:"recurrence"`
	Method       string        `json:"method"`
	CardID       int64         `json:"cardId"`
	FirstDueDate string        `json:"firstDueDate"`
}

type expenseResponse struct {
	ID          int64         `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Amount      string        `json:"amount"`
	Recurrence  recurrenceDTO `json:"recurrence"`
	Method      string        `json:"method"`
	CardID      int64         `json:"cardId,omitempty"`
	NextDate    string        `json:"nextDate,omitempty"`
	Active      bool          `json:"active"`
	PaidAt      string        `json:"paidAt,omitempty"`
	Status      string        `json:"status"`
}

func expenseFromCore(e core.Expense) expenseResponse {
	resp := expenseResponse{
		ID:          e.ID,
		Name:        e.Name,
		Description: e.Description,
		Amount:      e.Amount.String(),
		Recurrence:  recurrenceFromCore(e.Recurrence),
		Method:      string(e.Method),
		CardID:      e.CardID,
		Active:      e.Active,
		Status:      string(e.Status),
	}
	if !e.NextDate.IsZero() {
		resp.NextDate = e.NextDate.ISO()
	}
	if !e.PaidAt.IsZero() {
		resp.PaidAt = e.PaidAt.Format("2006-01-02")
	}
	return resp
}

type cardRequest struct {
	Name       string `json:"name"`
	Limit      string `json:"limit"`
	ClosingDay int    `json:"closingDay"`
	PaymentDay int    `json:"paymentDay"`
}

type cardResponse struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Limit      string `json:"limit"`
	ClosingDay int    `json:"closingDay"`
	PaymentDay int    `json:"paymentDay"`
}

func cardFromCore(c core.Card) cardResponse {
	return cardResponse{
		ID:         c.ID,
		Name:       c.Name,
		Limit:      c.Limit.String(),
		ClosingDay: c.ClosingDay,
		PaymentDay: c.PaymentDay,
	}
}

type invoiceResponse struct {
	ID          int64  `json:"id"`
	CardID      int64  `json:"cardId"`
	Year        int    `json:"year"`
	Month       int    `json:"month"`
	ClosingDate string `json:"closingDate"`
	DueDate     string `json:"dueDate"`
	Total       string `json:"total"`
	Paid        bool   `json:"paid"`
	PaidAt      string `json:"paidAt,omitempty"`
}

func invoiceFromCore(inv core.Invoice) invoiceResponse {
	resp := invoiceResponse{
		ID:          inv.ID,
		CardID:      inv.CardID,
		Year:        inv.Year,
		Month:       inv.Month,
		ClosingDate: inv.ClosingDate.ISO(),
		DueDate:     inv.DueDate.ISO(),
		Total:       inv.Total.String(),
		Paid:        inv.Paid,
	}
	if !inv.PaidAt.IsZero() {
		resp.PaidAt = inv.PaidAt.Format("2006-01-02")
	}
	return resp
}

type notificationResponse struct {
	ID        int64  `json:"id"`
	Kind      string `json:"kind"`
	RefID     int64  `json:"refId"`
	Title     string `json:"title"`
	DueDate   string `json:"dueDate"`
	CreatedAt string `json:"createdAt"`
	Read      bool   `json:"read"`
}

func notificationFromCore(n core.Notification) notificationResponse {
	return notificationResponse{
		ID:        n.ID,
		Kind:      string(n.Kind),
		RefID:     n.RefID,
		Title:     n.Title,
		DueDate:   n.DueDate.ISO(),
		CreatedAt: n.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		Read:      n.Read,
	}
}

type profileRequest struct {
	Name                 string `json:"name"`
	Currency             string `json:"currency"`
	DateFormat           string `json:"dateFormat"`
	NotificationsEnabled bool   `json:"notificationsEnabled"`
	IncomeReminders      bool   `json:"incomeReminders"`
}
