package utils

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire format for business dates ("2023-01-31").
const DateLayout = "2006-01-02"

// StartOfDay truncates t to midnight UTC, keeping the calendar date of t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Date builds a UTC midnight date.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a business date in DateLayout.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// FormatDate renders a business date in DateLayout.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// DaysBetween returns the number of calendar days from start to end (negative if end is earlier).
func DaysBetween(start, end time.Time) int {
	return int(math.Round(StartOfDay(end).Sub(StartOfDay(start)).Hours() / 24))
}

// Days360 counts days between two dates on a 30E/360 basis.
func Days360(start, end time.Time) int {
	y1, m1, d1 := start.Date()
	y2, m2, d2 := end.Date()
	if d1 == 31 {
		d1 = 30
	}
	if d2 == 31 {
		d2 = 30
	}
	return (y2-y1)*360 + (int(m2)-int(m1))*30 + (d2 - d1)
}

// DaysInYear returns 365 or 366.
func DaysInYear(year int) int {
	if time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC).YearDay() == 366 {
		return 366
	}
	return 365
}

// AddMonths adds months, clamping to the last day of the target month
// (Jan 31 + 1 month = Feb 28/29).
func AddMonths(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, time.UTC)
	lastDay := first.AddDate(0, 1, -1).Day()
	if d > lastDay {
		d = lastDay
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, time.UTC)
}

// MinDate returns the earlier date.
func MinDate(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

// MaxDate returns the later date.
func MaxDate(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

// IsDateOverdue checks if a due date lies strictly before the business date.
func IsDateOverdue(dueDate time.Time, businessDate time.Time) bool {
	return StartOfDay(businessDate).After(StartOfDay(dueDate))
}

// DecimalFromString converts string to decimal.Decimal
func DecimalFromString(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}
