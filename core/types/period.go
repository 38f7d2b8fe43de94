// Package types - Calendar periods and dates
package types

import (
	"fmt"
	"time"

	"finops-forecast/internal/errors"
)

// UnknownCohort is the cohort key for customers without a signup period
const UnknownCohort = "unknown"

const (
	periodLayout = "2006-01"
	dateLayout   = "2006-01-02"
)

// Period is a calendar month
type Period struct {
	Year  int
	Month time.Month
}

// ParsePeriod parses a "YYYY-MM" string
func ParsePeriod(s string) (Period, error) {
	t, err := time.Parse(periodLayout, s)
	if err != nil || t.Format(periodLayout) != s {
		return Period{}, errors.InvalidArgument("period", "expected YYYY-MM, got %q", s).WithContext("value", s)
	}
	return Period{Year: t.Year(), Month: t.Month()}, nil
}

// PeriodOf returns the calendar month containing t
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

// String formats the period as "YYYY-MM"
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// AddMonths returns the period n months later (n may be negative)
func (p Period) AddMonths(n int) Period {
	t := time.Date(p.Year, p.Month+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	return PeriodOf(t)
}

// Start returns midnight UTC on the first day of the period
func (p Period) Start() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// MonthsBetween returns the whole calendar months from a to b
func MonthsBetween(a, b Period) int {
	return (b.Year-a.Year)*12 + int(b.Month) - int(a.Month)
}

// ParseDate parses a "YYYY-MM-DD" string into midnight UTC
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, errors.InvalidArgument("date", "expected YYYY-MM-DD, got %q", s).WithContext("value", s)
	}
	return t, nil
}

// FormatDate formats t as "YYYY-MM-DD"
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// AddMonthsClamped moves t by n calendar months, keeping the day of month
// where it exists and using the target month's last day otherwise:
// Jan 31 plus one month is Feb 29 in a leap year, not Mar 2
func AddMonthsClamped(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := first.AddDate(0, 1, -1).Day(); d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}

// Day truncates t to midnight in its own location
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SameDay reports whether a and b fall on the same calendar date
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
