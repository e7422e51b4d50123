// Package services holds the business logic: occurrence calculation, the
// invoice cycle, the notification queue, auto settlement, the dashboard
// aggregator and the scheduler driving them.
package services

import (
	"fmt"

	"cashmoo/internal/core"
)

// OccurrenceStrategy computes the next occurrence of a recurrence rule.
// Implementations are pure: the same (anchor, rule, today) always yields the
// same result. The bool is false when no occurrence exists.
type OccurrenceStrategy interface {
	Next(anchor core.Date, rule core.Recurrence, today core.Date) (core.Date, bool)
}

// SingleStrategy returns the stored date unchanged; a one-off obligation has
// no computed occurrence beyond the date the user entered.
type SingleStrategy struct{}

func (SingleStrategy) Next(anchor core.Date, _ core.Recurrence, _ core.Date) (core.Date, bool) {
	if anchor.IsZero() {
		return core.Date{}, false
	}
	return anchor, true
}

// WeeklyStrategy returns the soonest strictly-future date matching the target
// weekday. When today already matches, it advances a full week; "today" is
// never an upcoming occurrence.
type WeeklyStrategy struct{}

func (WeeklyStrategy) Next(_ core.Date, rule core.Recurrence, today core.Date) (core.Date, bool) {
	delta := rule.Weekday - isoWeekday(today)
	if delta <= 0 {
		delta += 7
	}
	return today.AddDays(delta), true
}

// MonthlyStrategy returns this month's target day, clamped to the month
// length; once that has passed it rolls to the next month and clamps again.
type MonthlyStrategy struct{}

func (MonthlyStrategy) Next(_ core.Date, rule core.Recurrence, today core.Date) (core.Date, bool) {
	year, month := today.Year(), today.Month()
	candidate := core.NewDate(year, month, core.ClampDay(year, month, rule.Day))
	if candidate.After(today.Time) {
		return candidate, true
	}
	month++
	if month > 12 {
		month = 1
		year++
	}
	return core.NewDate(year, month, core.ClampDay(year, month, rule.Day)), true
}

// AnnualStrategy applies the same clamping to a fixed month/day and rolls to
// next year once this year's date has passed.
type AnnualStrategy struct{}

func (AnnualStrategy) Next(_ core.Date, rule core.Recurrence, today core.Date) (core.Date, bool) {
	year := today.Year()
	candidate := core.NewDate(year, rule.Month, core.ClampDay(year, rule.Month, rule.Day))
	if candidate.After(today.Time) {
		return candidate, true
	}
	year++
	return core.NewDate(year, rule.Month, core.ClampDay(year, rule.Month, rule.Day)), true
}

// occurrenceStrategies maps recurrence kinds to their strategies.
var occurrenceStrategies = map[core.RecurrenceKind]OccurrenceStrategy{
	core.Single:  SingleStrategy{},
	core.Weekly:  WeeklyStrategy{},
	core.Monthly: MonthlyStrategy{},
	core.Annual:  AnnualStrategy{},
}

// GetOccurrenceStrategy returns the strategy for a recurrence kind.
func GetOccurrenceStrategy(kind core.RecurrenceKind) (OccurrenceStrategy, error) {
	s, ok := occurrenceStrategies[kind]
	if !ok {
		return nil, fmt.Errorf("unknown recurrence kind: %s", kind)
	}
	return s, nil
}

// NextOccurrence computes the next occurrence of a rule on or after today.
// The returned bool is false for a single rule with no stored date or for a
// rule outside the closed set.
func NextOccurrence(anchor core.Date, rule core.Recurrence, today core.Date) (core.Date, bool) {
	s, err := GetOccurrenceStrategy(rule.Kind)
	if err != nil {
		return core.Date{}, false
	}
	return s.Next(anchor, rule, today)
}

// isoWeekday maps time.Weekday (Sunday=0) to ISO numbering (Monday=1,
// Sunday=7).
func isoWeekday(d core.Date) int {
	wd := int(d.Time.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}
