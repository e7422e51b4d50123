package core

import "time"

// Date is a calendar day. The system never needs precision below one day, so
// all dates are midnight UTC.
type Date struct {
	time.Time
}

func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a timestamp to its calendar day.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

func (d Date) Year() int  { return d.Time.Year() }
func (d Date) Month() int { return int(d.Time.Month()) }
func (d Date) Day() int   { return d.Time.Day() }

// ISO renders the date as YYYY-MM-DD, the storage format.
func (d Date) ISO() string {
	return d.Time.Format("2006-01-02")
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ClampDay reduces a day-of-month to the last valid day of the target month,
// e.g. day 31 in February becomes 28 or 29.
func ClampDay(year, month, day int) int {
	if last := DaysInMonth(year, month); day > last {
		return last
	}
	return day
}
