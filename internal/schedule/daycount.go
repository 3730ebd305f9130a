package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/segyhp/loan-engine/pkg/utils"
)

// DaysInYearType is the denominator of the year fraction.
type DaysInYearType string

const (
	DaysInYearActual DaysInYearType = "ACTUAL"
	DaysInYear360    DaysInYearType = "DAYS_360"
	DaysInYear364    DaysInYearType = "DAYS_364"
	DaysInYear365    DaysInYearType = "DAYS_365"
)

// DaysInMonthType decides how days between two dates are counted.
type DaysInMonthType string

const (
	DaysInMonthActual DaysInMonthType = "ACTUAL"
	DaysInMonth30     DaysInMonthType = "DAYS_30"
)

func ParseDaysInYear(s string) (DaysInYearType, error) {
	switch t := DaysInYearType(strings.ToUpper(s)); t {
	case DaysInYearActual, DaysInYear360, DaysInYear364, DaysInYear365:
		return t, nil
	}
	return "", fmt.Errorf("unknown days in year type %q", s)
}

func ParseDaysInMonth(s string) (DaysInMonthType, error) {
	switch t := DaysInMonthType(strings.ToUpper(s)); t {
	case DaysInMonthActual, DaysInMonth30:
		return t, nil
	}
	return "", fmt.Errorf("unknown days in month type %q", s)
}

const fractionScale = 20

var hundred = decimal.NewFromInt(100)

// DayCount turns a date range into a fraction of a year.
type DayCount struct {
	DaysInYear  DaysInYearType
	DaysInMonth DaysInMonthType
}

func (dc DayCount) fixedYearLength() int64 {
	switch dc.DaysInYear {
	case DaysInYear364:
		return 364
	case DaysInYear365:
		return 365
	default:
		return 360
	}
}

// YearFraction returns the share of a year between from and to, zero for an empty
// or inverted range. Thirty-day months always count against a 360-day year unless a
// fixed year length is configured.
func (dc DayCount) YearFraction(from, to time.Time) decimal.Decimal {
	if !to.After(from) {
		return decimal.Zero
	}
	if dc.DaysInMonth == DaysInMonth30 {
		days := decimal.NewFromInt(int64(utils.Days360(from, to)))
		return days.DivRound(decimal.NewFromInt(dc.fixedYearLength()), fractionScale)
	}
	if dc.DaysInYear != DaysInYearActual {
		days := decimal.NewFromInt(int64(utils.DaysBetween(from, to)))
		return days.DivRound(decimal.NewFromInt(dc.fixedYearLength()), fractionScale)
	}

	// actual/actual: every calendar year is weighted by its own length
	fraction := decimal.Zero
	for cursor := from; cursor.Before(to); {
		nextYear := utils.Date(cursor.Year()+1, time.January, 1)
		end := utils.MinDate(nextYear, to)
		days := decimal.NewFromInt(int64(utils.DaysBetween(cursor, end)))
		yearLength := decimal.NewFromInt(int64(utils.DaysInYear(cursor.Year())))
		fraction = fraction.Add(days.DivRound(yearLength, fractionScale))
		cursor = end
	}
	return fraction
}

// RateFactor is the period rate for an annual nominal rate given in percent.
func (dc DayCount) RateFactor(annualRatePercent decimal.Decimal, from, to time.Time) decimal.Decimal {
	if annualRatePercent.IsZero() {
		return decimal.Zero
	}
	rate := annualRatePercent.DivRound(hundred, fractionScale)
	return rate.Mul(dc.YearFraction(from, to)).Round(fractionScale)
}
