package core

const (
	Single  RecurrenceKind = "single"
	Weekly  RecurrenceKind = "weekly"
	Monthly RecurrenceKind = "monthly"
	Annual  RecurrenceKind = "annual"
)

type RecurrenceKind string

// Recurrence is a closed tagged variant. Which fields are meaningful depends
// on Kind: Weekday for weekly (1=Monday .. 7=Sunday), Day for monthly and
// annual, Month for annual. Validate rejects anything outside the closed set
// so recurrence-specific code never has to re-check field presence.
type Recurrence struct {
	Kind    RecurrenceKind
	Weekday int
	Day     int
	Month   int
}

func (r Recurrence) Validate() error {
	switch r.Kind {
	case Single:
		return nil
	case Weekly:
		if r.Weekday < 1 || r.Weekday > 7 {
			return ErrInvalidWeekday
		}
		return nil
	case Monthly:
		if r.Day < 1 || r.Day > 31 {
			return ErrInvalidDay
		}
		return nil
	case Annual:
		if r.Day < 1 || r.Day > 31 {
			return ErrInvalidDay
		}
		if r.Month < 1 || r.Month > 12 {
			return ErrInvalidMonth
		}
		return nil
	default:
		return ErrInvalidRecurrence
	}
}
