package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// RoundingMode mirrors the rounding modes a loan product can be configured with.
type RoundingMode int

const (
	HalfEven RoundingMode = iota
	HalfUp
	HalfDown
	Up
	Down
	Ceiling
	Floor
)

var roundingModeNames = map[RoundingMode]string{
	HalfEven: "HALF_EVEN",
	HalfUp:   "HALF_UP",
	HalfDown: "HALF_DOWN",
	Up:       "UP",
	Down:     "DOWN",
	Ceiling:  "CEILING",
	Floor:    "FLOOR",
}

func (r RoundingMode) String() string {
	if name, ok := roundingModeNames[r]; ok {
		return name
	}
	return fmt.Sprintf("RoundingMode(%d)", int(r))
}

// ParseRoundingMode converts a configuration value such as "HALF_UP" to a RoundingMode.
func ParseRoundingMode(s string) (RoundingMode, error) {
	for mode, name := range roundingModeNames {
		if strings.EqualFold(name, s) {
			return mode, nil
		}
	}
	return HalfEven, fmt.Errorf("unknown rounding mode %q", s)
}

var half = decimal.NewFromFloat(0.5)

// MathContext holds the precision used for intermediate rate arithmetic and the
// rounding mode applied whenever an amount is brought back to currency scale.
type MathContext struct {
	Precision int32
	Rounding  RoundingMode
}

// DefaultMathContext matches a DECIMAL64 context with banker's rounding.
var DefaultMathContext = MathContext{Precision: 19, Rounding: HalfEven}

// Round rounds d to the given number of decimal places using the context rounding mode.
func (mc MathContext) Round(d decimal.Decimal, places int32) decimal.Decimal {
	switch mc.Rounding {
	case HalfUp:
		return d.Round(places)
	case HalfDown:
		shifted := d.Shift(places)
		if shifted.Sub(shifted.Truncate(0)).Abs().Equal(half) {
			return d.RoundDown(places)
		}
		return d.Round(places)
	case Up:
		return d.RoundUp(places)
	case Down:
		return d.RoundDown(places)
	case Ceiling:
		return d.RoundCeil(places)
	case Floor:
		return d.RoundFloor(places)
	default:
		return d.RoundBank(places)
	}
}

// Div divides with the context precision, then applies the rounding mode.
func (mc MathContext) Div(a, b decimal.Decimal) decimal.Decimal {
	precision := mc.Precision
	if precision <= 0 {
		precision = DefaultMathContext.Precision
	}
	return mc.Round(a.DivRound(b, precision+2), precision)
}

// Currency describes an ISO 4217 currency as used by a loan product.
type Currency struct {
	Code          string `json:"code"`
	Digits        int32  `json:"digits"`
	InMultiplesOf int64  `json:"in_multiples_of,omitempty"`
}

// NewCurrency validates the code and digits of a currency.
func NewCurrency(code string, digits int32, inMultiplesOf int64) (Currency, error) {
	if len(code) != 3 || strings.ToUpper(code) != code {
		return Currency{}, fmt.Errorf("invalid currency code %q: must be exactly 3 uppercase letters", code)
	}
	if digits < 0 {
		return Currency{}, fmt.Errorf("invalid currency digits %d", digits)
	}
	return Currency{Code: code, Digits: digits, InMultiplesOf: inMultiplesOf}, nil
}

// Common currencies.
var (
	USD = Currency{Code: "USD", Digits: 2}
	EUR = Currency{Code: "EUR", Digits: 2}
	IDR = Currency{Code: "IDR", Digits: 2}
)

// Money is an immutable amount in a currency. Every operation brings its result back
// to the currency scale with the money's math context, so values compare exactly.
// Operands are assumed to share a currency.
type Money struct {
	amount   decimal.Decimal
	currency Currency
	mc       MathContext
}

// Of creates a Money value rounded to the currency digits.
func Of(currency Currency, amount decimal.Decimal, mc MathContext) Money {
	return Money{amount: mc.Round(amount, currency.Digits), currency: currency, mc: mc}
}

// OfInt is a convenience constructor for whole amounts.
func OfInt(currency Currency, amount int64, mc MathContext) Money {
	return Of(currency, decimal.NewFromInt(amount), mc)
}

// Parse parses a decimal string into Money.
func Parse(currency Currency, amount string, mc MathContext) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	return Of(currency, d, mc), nil
}

// Zero returns a zero amount in the given currency.
func Zero(currency Currency, mc MathContext) Money {
	return Money{amount: decimal.Zero, currency: currency, mc: mc}
}

// Zero returns a zero amount in the same currency and context as m.
func (m Money) Zero() Money {
	return Money{amount: decimal.Zero, currency: m.currency, mc: m.mc}
}

// Amount returns the decimal amount.
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// Currency returns the currency.
func (m Money) Currency() Currency {
	return m.currency
}

// MathContext returns the context used for rounding.
func (m Money) MathContext() MathContext {
	return m.mc
}

// IsSet reports whether m carries a currency; the zero Money value acts as "no amount".
func (m Money) IsSet() bool {
	return m.currency.Code != ""
}

func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

func (m Money) IsPositive() bool {
	return m.amount.IsPositive()
}

func (m Money) IsNegative() bool {
	return m.amount.IsNegative()
}

func (m Money) with(amount decimal.Decimal) Money {
	return Money{amount: m.mc.Round(amount, m.currency.Digits), currency: m.currency, mc: m.mc}
}

// Plus returns m + other.
func (m Money) Plus(other Money) Money {
	if !m.IsSet() {
		return other
	}
	return m.with(m.amount.Add(other.amount))
}

// PlusAmount adds a raw decimal amount.
func (m Money) PlusAmount(amount decimal.Decimal) Money {
	return m.with(m.amount.Add(amount))
}

// Minus returns m - other.
func (m Money) Minus(other Money) Money {
	if !m.IsSet() {
		return other.Negated()
	}
	return m.with(m.amount.Sub(other.amount))
}

// Negated flips the sign.
func (m Money) Negated() Money {
	return Money{amount: m.amount.Neg(), currency: m.currency, mc: m.mc}
}

// Abs returns the absolute value.
func (m Money) Abs() Money {
	return Money{amount: m.amount.Abs(), currency: m.currency, mc: m.mc}
}

// MultipliedBy multiplies by a factor and rounds back to currency scale.
func (m Money) MultipliedBy(factor decimal.Decimal) Money {
	return m.with(m.amount.Mul(factor))
}

// DividedBy divides by a divisor and rounds back to currency scale.
func (m Money) DividedBy(divisor decimal.Decimal) Money {
	return m.with(m.mc.Div(m.amount, divisor))
}

// RoundToMultiplesOf rounds half-up to the nearest multiple, for installment amounts
// configured in multiples of e.g. 10 or 1000. A non-positive multiple is a no-op.
func (m Money) RoundToMultiplesOf(multiple int64) Money {
	if multiple <= 0 {
		return m
	}
	step := decimal.NewFromInt(multiple)
	units := m.amount.DivRound(step, 8).Round(0)
	return m.with(units.Mul(step))
}

// CompareTo returns -1, 0 or 1.
func (m Money) CompareTo(other Money) int {
	return m.amount.Cmp(other.amount)
}

func (m Money) IsGreaterThan(other Money) bool {
	return m.amount.GreaterThan(other.amount)
}

func (m Money) IsGreaterThanOrEqual(other Money) bool {
	return m.amount.GreaterThanOrEqual(other.amount)
}

func (m Money) IsLessThan(other Money) bool {
	return m.amount.LessThan(other.amount)
}

// Equal compares currency and amount.
func (m Money) Equal(other Money) bool {
	return m.currency.Code == other.currency.Code && m.amount.Equal(other.amount)
}

// String formats the value as "<amount> <currency>", for example "100.00 USD".
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.amount.StringFixed(m.currency.Digits), m.currency.Code)
}

// MarshalJSON renders the amount as a fixed-scale JSON number string.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.amount.StringFixed(m.currency.Digits) + `"`), nil
}
