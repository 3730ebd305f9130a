package schedule

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/segyhp/loan-engine/pkg/money"
)

// PeriodStatus is derived from paid and due amounts on every call; it is never stored.
type PeriodStatus string

const (
	PeriodStatusScheduled     PeriodStatus = "SCHEDULED"
	PeriodStatusPartiallyPaid PeriodStatus = "PARTIALLY_PAID"
	PeriodStatusFullyPaid     PeriodStatus = "FULLY_PAID"
)

// RepaymentPeriod is one installment. It aggregates its interest periods into the
// due/paid/outstanding view used by schedule printing, delinquency and accounting.
//
// Neighbours are resolved by index through the owning Schedule; a period created
// with NewRepaymentPeriod has none and is both first and last.
type RepaymentPeriod struct {
	schedule *Schedule
	index    int

	fromDate        time.Time
	dueDate         time.Time
	interestPeriods []*InterestPeriod

	emi           money.Money
	paidPrincipal money.Money
	paidInterest  money.Money
}

// NewRepaymentPeriod creates a standalone period with one default interest period
// spanning the whole range.
func NewRepaymentPeriod(fromDate, dueDate time.Time, emi money.Money) *RepaymentPeriod {
	rp := &RepaymentPeriod{
		fromDate:      fromDate,
		dueDate:       dueDate,
		emi:           emi,
		paidPrincipal: emi.Zero(),
		paidInterest:  emi.Zero(),
	}
	zero := emi.Zero()
	rp.interestPeriods = []*InterestPeriod{{
		repaymentPeriod:        rp,
		fromDate:               fromDate,
		dueDate:                dueDate,
		rateFactor:             decimal.Zero,
		disbursedAmount:        zero,
		correctionAmount:       zero,
		interestDue:            zero,
		outstandingLoanBalance: zero,
	}}
	return rp
}

// cloneRepaymentPeriod deep-copies interest periods and paid accumulators.
func cloneRepaymentPeriod(src *RepaymentPeriod) *RepaymentPeriod {
	rp := &RepaymentPeriod{
		fromDate:      src.fromDate,
		dueDate:       src.dueDate,
		emi:           src.emi,
		paidPrincipal: src.paidPrincipal,
		paidInterest:  src.paidInterest,
	}
	rp.interestPeriods = make([]*InterestPeriod, 0, len(src.interestPeriods))
	for _, ip := range src.interestPeriods {
		rp.interestPeriods = append(rp.interestPeriods, ip.cloneFor(rp))
	}
	return rp
}

func (p *RepaymentPeriod) FromDate() time.Time {
	return p.fromDate
}

func (p *RepaymentPeriod) DueDate() time.Time {
	return p.dueDate
}

// InterestPeriods returns the interest periods sorted by due date.
func (p *RepaymentPeriod) InterestPeriods() []*InterestPeriod {
	out := make([]*InterestPeriod, len(p.interestPeriods))
	copy(out, p.interestPeriods)
	return out
}

func (p *RepaymentPeriod) EMI() money.Money {
	return p.emi
}

// SetEMI overrides the equal installment, used by EMI recalculation.
func (p *RepaymentPeriod) SetEMI(emi money.Money) {
	p.emi = emi
}

func (p *RepaymentPeriod) PaidPrincipal() money.Money {
	return p.paidPrincipal
}

func (p *RepaymentPeriod) PaidInterest() money.Money {
	return p.paidInterest
}

// Number is the 1-based installment number within the owning schedule.
func (p *RepaymentPeriod) Number() int {
	return p.index + 1
}

// Previous returns the preceding installment, if any.
func (p *RepaymentPeriod) Previous() (*RepaymentPeriod, bool) {
	if p.schedule == nil || p.index == 0 {
		return nil, false
	}
	return p.schedule.periods[p.index-1], true
}

// Next returns the following installment, if any.
func (p *RepaymentPeriod) Next() (*RepaymentPeriod, bool) {
	if p.schedule == nil || p.index+1 >= len(p.schedule.periods) {
		return nil, false
	}
	return p.schedule.periods[p.index+1], true
}

func (p *RepaymentPeriod) IsLastPeriod() bool {
	_, ok := p.Next()
	return !ok
}

// AddInterestPeriod attaches an interest period and keeps the list sorted by due date.
func (p *RepaymentPeriod) AddInterestPeriod(ip *InterestPeriod) {
	ip.repaymentPeriod = p
	p.interestPeriods = append(p.interestPeriods, ip)
	sort.SliceStable(p.interestPeriods, func(i, j int) bool {
		return p.interestPeriods[i].Compare(p.interestPeriods[j]) < 0
	})
}

func (p *RepaymentPeriod) lastInterestPeriod() *InterestPeriod {
	return p.interestPeriods[len(p.interestPeriods)-1]
}

// RateFactorPlus1 is 1 plus the rate factors of all interest periods.
func (p *RepaymentPeriod) RateFactorPlus1() decimal.Decimal {
	total := decimal.NewFromInt(1)
	for _, ip := range p.interestPeriods {
		total = total.Add(ip.rateFactor)
	}
	return total
}

// CalculatedDueInterest sums the interest periods and adds the interest the previous
// installment could not recognise.
func (p *RepaymentPeriod) CalculatedDueInterest() money.Money {
	calculated := p.emi.Zero()
	for _, ip := range p.interestPeriods {
		calculated = calculated.Plus(ip.CalculatedDueInterest())
	}
	if prev, ok := p.Previous(); ok {
		calculated = calculated.Plus(prev.UnrecognizedInterest())
	}
	return calculated
}

// CalculatedDuePrincipal is whatever is left of the EMI after calculated interest.
func (p *RepaymentPeriod) CalculatedDuePrincipal() money.Money {
	return p.emi.Minus(p.CalculatedDueInterest())
}

// DueInterest applies the maximum-paid floor: once more principal was paid than
// calculated (pay-off, early repayment) the due interest is what was actually paid.
func (p *RepaymentPeriod) DueInterest() money.Money {
	return p.dueInterest(p.CalculatedDueInterest())
}

func (p *RepaymentPeriod) dueInterest(calculatedDueInterest money.Money) money.Money {
	candidate := calculatedDueInterest
	if p.paidPrincipal.IsGreaterThan(p.emi.Minus(calculatedDueInterest)) {
		candidate = p.paidInterest
	}
	return money.Max(candidate, p.paidInterest, false)
}

// DuePrincipal is the EMI minus due interest, never below what was paid.
func (p *RepaymentPeriod) DuePrincipal() money.Money {
	return money.Max(p.emi.Minus(p.DueInterest()), p.paidPrincipal, false)
}

// owePrincipal sets the EMI so the installment owes principal on top of the interest
// it owes. principal must not be below the paid principal.
func (p *RepaymentPeriod) owePrincipal(principal money.Money) {
	interest := money.Max(p.CalculatedDueInterest(), p.paidInterest, false)
	p.emi = interest.Plus(principal)
}

// UnrecognizedInterest is carried forward into the next installment.
func (p *RepaymentPeriod) UnrecognizedInterest() money.Money {
	calculated := p.CalculatedDueInterest()
	return calculated.Minus(p.dueInterest(calculated))
}

// OutstandingLoanBalance is the principal balance after this installment, never negative.
func (p *RepaymentPeriod) OutstandingLoanBalance() money.Money {
	return money.NegativeToZero(p.outstandingBalance())
}

func (p *RepaymentPeriod) outstandingBalance() money.Money {
	last := p.lastInterestPeriod()
	return last.outstandingLoanBalance.
		Plus(last.correctionAmount).
		Plus(last.disbursedAmount).
		Minus(p.DuePrincipal()).
		Plus(p.paidPrincipal)
}

// IsFullyPaid holds iff EMI equals paid principal plus paid interest, exactly.
func (p *RepaymentPeriod) IsFullyPaid() bool {
	return p.emi.CompareTo(p.paidPrincipal.Plus(p.paidInterest)) == 0
}

// Status derives the installment state from paid versus EMI.
func (p *RepaymentPeriod) Status() PeriodStatus {
	switch {
	case p.IsFullyPaid():
		return PeriodStatusFullyPaid
	case p.paidPrincipal.IsZero() && p.paidInterest.IsZero():
		return PeriodStatusScheduled
	default:
		return PeriodStatusPartiallyPaid
	}
}

// OutstandingPrincipal is due minus paid principal.
func (p *RepaymentPeriod) OutstandingPrincipal() money.Money {
	return money.NegativeToZero(p.DuePrincipal().Minus(p.paidPrincipal))
}

// OutstandingInterest is due minus paid interest.
func (p *RepaymentPeriod) OutstandingInterest() money.Money {
	return money.NegativeToZero(p.DueInterest().Minus(p.paidInterest))
}

func (p *RepaymentPeriod) AddPaidPrincipalAmount(amount money.Money) {
	p.paidPrincipal = money.Plus(p.paidPrincipal, amount)
}

func (p *RepaymentPeriod) AddPaidInterestAmount(amount money.Money) {
	p.paidInterest = money.Plus(p.paidInterest, amount)
}

// TotalDisbursedAmount sums disbursements booked into this installment.
func (p *RepaymentPeriod) TotalDisbursedAmount() money.Money {
	total := p.emi.Zero()
	for _, ip := range p.interestPeriods {
		total = total.Plus(ip.disbursedAmount)
	}
	return total
}

// InitialBalanceForEmiRecalculation seeds EMI recalculation: the previous
// installment's outstanding balance plus this installment's disbursements.
func (p *RepaymentPeriod) InitialBalanceForEmiRecalculation() money.Money {
	initial := p.emi.Zero()
	if prev, ok := p.Previous(); ok {
		initial = prev.OutstandingLoanBalance()
	}
	return initial.Plus(p.TotalDisbursedAmount())
}

// covers reports whether date belongs to the installment: [from, due), with the due
// date itself included for the last installment.
func (p *RepaymentPeriod) covers(date time.Time) bool {
	if date.Before(p.fromDate) {
		return false
	}
	return date.Before(p.dueDate) || (p.IsLastPeriod() && date.Equal(p.dueDate))
}

func (p *RepaymentPeriod) String() string {
	return fmt.Sprintf("RepaymentPeriod{#%d %s..%s emi=%s paidPrincipal=%s paidInterest=%s}",
		p.Number(), p.fromDate.Format("2006-01-02"), p.dueDate.Format("2006-01-02"),
		p.emi, p.paidPrincipal, p.paidInterest)
}
