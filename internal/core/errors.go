package core

import "errors"

// Validation errors are returned to the caller before anything reaches the
// scheduler; constraint errors come back from command handlers; ErrNotFound
// from operations on unknown ids. None of them are retried.
var (
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrInvalidDay           = errors.New("invalid day of month")
	ErrInvalidMonth         = errors.New("invalid month")
	ErrInvalidWeekday       = errors.New("invalid weekday")
	ErrInvalidRecurrence    = errors.New("invalid recurrence type")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrInvalidStatus        = errors.New("invalid status")
	ErrEmptyName            = errors.New("empty name")
	ErrNameTooLong          = errors.New("name too long")
	ErrDescriptionTooLong   = errors.New("description too long (max 200 characters)")
	ErrMissingDate          = errors.New("missing date")
	ErrEndBeforeStart       = errors.New("end date must be after start date")
	ErrCardRequired         = errors.New("card reference required for card expenses")
	ErrCardNotAllowed       = errors.New("card reference only allowed for card expenses")

	ErrNotFound                  = errors.New("not found")
	ErrDuplicateCardName         = errors.New("card name must be unique")
	ErrCardHasExpenses           = errors.New("card has linked expenses")
	ErrPaymentDayNotAfterClosing = errors.New("payment day must be after closing day")
)
