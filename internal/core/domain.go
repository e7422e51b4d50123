package core

import (
	"strings"
	"time"
)

const (
	IncomePending   IncomeStatus = "pending"
	IncomeConfirmed IncomeStatus = "confirmed"

	ExpenseUnpaid ExpenseStatus = "unpaid"
	ExpensePaid   ExpenseStatus = "paid"

	PayManual    PaymentMethod = "manual"
	PayAutoDebit PaymentMethod = "auto-debit"
	PayCard      PaymentMethod = "card"

	KindIncome  NotificationKind = "income"
	KindExpense NotificationKind = "expense"
	KindInvoice NotificationKind = "invoice"
)

type (
	IncomeStatus     string
	ExpenseStatus    string
	PaymentMethod    string
	NotificationKind string

	// Income is a recurring or one-off inflow. NextDate is derived from the
	// recurrence rule by command handlers before the record is written.
	Income struct {
		ID         int64
		Name       string
		Company    string
		Amount     Money
		Recurrence Recurrence
		StartDate  Date
		// EndDate is informational: it is validated against StartDate and
		// shown to the user, but occurrence calculation and reminders keep
		// running past it until the income is deactivated.
		EndDate  Date // zero when open-ended
		NextDate Date // zero when no occurrence is known
		Active   bool
		Status   IncomeStatus
	}

	// Expense is an obligation. CardID is set iff Method is PayCard.
	Expense struct {
		ID          int64
		Name        string
		Description string
		Amount      Money
		Recurrence  Recurrence
		Method      PaymentMethod
		CardID      int64 // 0 unless Method == PayCard
		NextDate    Date  // next due date, zero when unknown
		Active      bool
		PaidAt      time.Time // zero until settled
		Status      ExpenseStatus
	}

	// Card names are unique case-insensitively. PaymentDay must be strictly
	// greater than ClosingDay; that cross-field rule is enforced by the card
	// service together with the name uniqueness check.
	Card struct {
		ID         int64
		Name       string
		Limit      Money
		ClosingDay int // 1..31
		PaymentDay int // 1..31
	}

	// Invoice is one billing cycle of a card. At most one exists per
	// (CardID, Year, Month); Total is recomputed from linked expenses on
	// every tick and is never user-editable.
	Invoice struct {
		ID          int64
		CardID      int64
		Year        int
		Month       int // 1..12
		ClosingDate Date
		DueDate     Date
		Total       Money
		Paid        bool
		PaidAt      time.Time
	}

	// Notification is a queued due-date alert. (Kind, RefID, DueDate) is the
	// dedup key: at most one record, read or unread, exists per tuple.
	Notification struct {
		ID        int64
		Kind      NotificationKind
		RefID     int64
		Title     string
		DueDate   Date
		CreatedAt time.Time
		Read      bool
	}

	// Profile is the single local user row.
	Profile struct {
		Name                 string
		Currency             string
		DateFormat           string
		NotificationsEnabled bool
		IncomeReminders      bool
	}
)

const (
	maxNameLen        = 50
	maxCompanyLen     = 50
	maxDescriptionLen = 200
	maxCardNameLen    = 30
)

func (i Income) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return ErrEmptyName
	}
	if len(i.Name) > maxNameLen {
		return ErrNameTooLong
	}
	if len(i.Company) > maxCompanyLen {
		return ErrNameTooLong
	}
	if err := i.Amount.Validate(); err != nil {
		return err
	}
	if err := i.Recurrence.Validate(); err != nil {
		return err
	}
	if i.StartDate.IsZero() {
		return ErrMissingDate
	}
	if !i.EndDate.IsZero() && i.EndDate.Before(i.StartDate.Time) {
		return ErrEndBeforeStart
	}
	switch i.Status {
	case IncomePending, IncomeConfirmed:
	default:
		return ErrInvalidStatus
	}
	return nil
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return ErrEmptyName
	}
	if len(e.Name) > maxNameLen {
		return ErrNameTooLong
	}
	if len(e.Description) > maxDescriptionLen {
		return ErrDescriptionTooLong
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if err := e.Recurrence.Validate(); err != nil {
		return err
	}
	switch e.Method {
	case PayManual, PayAutoDebit, PayCard:
	default:
		return ErrInvalidPaymentMethod
	}
	// cardId is set if and only if the payment method is card
	if e.Method == PayCard && e.CardID == 0 {
		return ErrCardRequired
	}
	if e.Method != PayCard && e.CardID != 0 {
		return ErrCardNotAllowed
	}
	switch e.Status {
	case ExpenseUnpaid, ExpensePaid:
	default:
		return ErrInvalidStatus
	}
	return nil
}

func (c Card) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if len(c.Name) > maxCardNameLen {
		return ErrNameTooLong
	}
	if err := c.Limit.Validate(); err != nil {
		return err
	}
	if c.ClosingDay < 1 || c.ClosingDay > 31 {
		return ErrInvalidDay
	}
	if c.PaymentDay < 1 || c.PaymentDay > 31 {
		return ErrInvalidDay
	}
	return nil
}

func (k NotificationKind) Valid() bool {
	switch k {
	case KindIncome, KindExpense, KindInvoice:
		return true
	}
	return false
}
