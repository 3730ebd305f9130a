package schedule

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/segyhp/loan-engine/pkg/money"
)

// InterestPeriod is a contiguous sub-range [FromDate, DueDate) of interest accrual
// inside a repayment period. A new one is split off whenever a disbursement or a
// balance correction lands in the middle of an existing sub-range.
type InterestPeriod struct {
	repaymentPeriod *RepaymentPeriod

	fromDate time.Time
	dueDate  time.Time

	// rateFactor is the compounding factor of the sub-range minus one.
	rateFactor decimal.Decimal

	disbursedAmount  money.Money
	correctionAmount money.Money
	interestDue      money.Money

	// outstandingLoanBalance is the principal balance at fromDate, before this
	// sub-range's own disbursements and corrections.
	outstandingLoanBalance money.Money
}

// NewInterestPeriod creates a detached interest period. fromDate <= dueDate is
// trusted, not checked.
func NewInterestPeriod(fromDate, dueDate time.Time, rateFactorMinus1 decimal.Decimal,
	disbursedAmount, correctionAmount, interestDue money.Money) *InterestPeriod {
	return &InterestPeriod{
		fromDate:               fromDate,
		dueDate:                dueDate,
		rateFactor:             rateFactorMinus1,
		disbursedAmount:        disbursedAmount,
		correctionAmount:       correctionAmount,
		interestDue:            interestDue,
		outstandingLoanBalance: disbursedAmount.Zero(),
	}
}

func (ip *InterestPeriod) cloneFor(owner *RepaymentPeriod) *InterestPeriod {
	clone := *ip
	clone.repaymentPeriod = owner
	return &clone
}

func (ip *InterestPeriod) FromDate() time.Time {
	return ip.fromDate
}

func (ip *InterestPeriod) DueDate() time.Time {
	return ip.dueDate
}

// RateFactor returns the compounding factor of the sub-range minus one.
func (ip *InterestPeriod) RateFactor() decimal.Decimal {
	return ip.rateFactor
}

// SetRateFactor replaces the rate factor; the owning schedule must be re-walked afterwards.
func (ip *InterestPeriod) SetRateFactor(rateFactorMinus1 decimal.Decimal) {
	ip.rateFactor = rateFactorMinus1
}

func (ip *InterestPeriod) DisbursedAmount() money.Money {
	return ip.disbursedAmount
}

func (ip *InterestPeriod) CorrectionAmount() money.Money {
	return ip.correctionAmount
}

func (ip *InterestPeriod) OutstandingLoanBalance() money.Money {
	return ip.outstandingLoanBalance
}

// CalculatedDueInterest is the interest on the sub-range's principal base as of the
// last balance walk.
func (ip *InterestPeriod) CalculatedDueInterest() money.Money {
	return ip.interestDue
}

// RepaymentPeriod returns the owning installment, nil for a detached period.
func (ip *InterestPeriod) RepaymentPeriod() *RepaymentPeriod {
	return ip.repaymentPeriod
}

// RepaymentPeriodDueDate returns the owner's due date, if attached.
func (ip *InterestPeriod) RepaymentPeriodDueDate() (time.Time, bool) {
	if ip.repaymentPeriod == nil {
		return time.Time{}, false
	}
	return ip.repaymentPeriod.DueDate(), true
}

// AddDisbursedAmount adds a disbursement. Unset and zero amounts are ignored.
func (ip *InterestPeriod) AddDisbursedAmount(amount money.Money) {
	if amount.IsSet() && !amount.IsZero() {
		ip.disbursedAmount = ip.disbursedAmount.Plus(amount)
	}
}

// AddCorrectionAmount adds a balance correction. Unset and zero amounts are ignored.
func (ip *InterestPeriod) AddCorrectionAmount(amount money.Money) {
	if amount.IsSet() && !amount.IsZero() {
		ip.correctionAmount = ip.correctionAmount.Plus(amount)
	}
}

// IsAssignedOwnRepaymentPeriod reports whether fromDate falls within the owner's span.
// The last repayment period also owns sub-ranges starting on its due date.
func (ip *InterestPeriod) IsAssignedOwnRepaymentPeriod() bool {
	rp := ip.repaymentPeriod
	return rp != nil && !ip.fromDate.Before(rp.FromDate()) &&
		(rp.IsLastPeriod() || ip.fromDate.Before(rp.DueDate()))
}

// Compare orders interest periods by due date, then by from date.
func (ip *InterestPeriod) Compare(other *InterestPeriod) int {
	if c := ip.dueDate.Compare(other.dueDate); c != 0 {
		return c
	}
	return ip.fromDate.Compare(other.fromDate)
}

// principalBase is the balance interest accrues on during the sub-range.
func (ip *InterestPeriod) principalBase() money.Money {
	return ip.outstandingLoanBalance.Plus(ip.disbursedAmount).Plus(ip.correctionAmount)
}

// updateOutstandingLoanBalance carries the balance over from the preceding interest
// period of the same installment, or from the previous installment for the first one.
func (ip *InterestPeriod) updateOutstandingLoanBalance(previous *InterestPeriod) {
	rp := ip.repaymentPeriod
	switch {
	case previous != nil:
		ip.outstandingLoanBalance = previous.outstandingLoanBalance.
			Plus(previous.disbursedAmount).
			Plus(previous.correctionAmount)
	default:
		prevPeriod, ok := rp.Previous()
		if !ok {
			ip.outstandingLoanBalance = ip.disbursedAmount.Zero()
			return
		}
		last := prevPeriod.lastInterestPeriod()
		ip.outstandingLoanBalance = last.outstandingLoanBalance.
			Plus(last.disbursedAmount).
			Plus(last.correctionAmount).
			Minus(prevPeriod.DuePrincipal()).
			Plus(prevPeriod.PaidPrincipal())
	}
}

func (ip *InterestPeriod) refreshInterestDue() {
	ip.interestDue = ip.principalBase().MultipliedBy(ip.rateFactor)
}
