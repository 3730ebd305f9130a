package schedule

import (
	"time"

	"github.com/segyhp/loan-engine/pkg/money"
)

// Schedule owns the repayment periods of one loan. Periods reach their neighbours by
// index through the schedule, so there is no pointer chain to keep in sync.
//
// A Schedule is not safe for concurrent use. Callers build a fresh copy, apply the
// change and swap it in as a whole.
type Schedule struct {
	zero    money.Money
	periods []*RepaymentPeriod

	interestStopDate time.Time
	interestStopped  bool
}

// New returns an empty schedule. zero fixes the currency and math context of every
// amount the schedule produces.
func New(zero money.Money) *Schedule {
	return &Schedule{zero: zero.Zero()}
}

// Zero returns a zero amount in the schedule currency.
func (s *Schedule) Zero() money.Money {
	return s.zero
}

// AppendPeriod adds a period with a single interest period covering its whole range.
func (s *Schedule) AppendPeriod(fromDate, dueDate time.Time, emi money.Money) *RepaymentPeriod {
	if !emi.IsSet() {
		emi = s.zero
	}
	rp := NewRepaymentPeriod(fromDate, dueDate, emi)
	s.attach(rp)
	return rp
}

// AppendClone adds a deep copy of src: interest periods, EMI and paid amounts.
func (s *Schedule) AppendClone(src *RepaymentPeriod) *RepaymentPeriod {
	rp := cloneRepaymentPeriod(src)
	s.attach(rp)
	return rp
}

func (s *Schedule) attach(rp *RepaymentPeriod) {
	rp.schedule = s
	rp.index = len(s.periods)
	s.periods = append(s.periods, rp)
}

// Periods returns the periods in due date order.
func (s *Schedule) Periods() []*RepaymentPeriod {
	out := make([]*RepaymentPeriod, len(s.periods))
	copy(out, s.periods)
	return out
}

func (s *Schedule) Len() int {
	return len(s.periods)
}

// FirstPeriod returns nil for an empty schedule.
func (s *Schedule) FirstPeriod() *RepaymentPeriod {
	if len(s.periods) == 0 {
		return nil
	}
	return s.periods[0]
}

// LastPeriod returns nil for an empty schedule.
func (s *Schedule) LastPeriod() *RepaymentPeriod {
	if len(s.periods) == 0 {
		return nil
	}
	return s.periods[len(s.periods)-1]
}

// MaturityDate is the due date of the last period.
func (s *Schedule) MaturityDate() time.Time {
	if last := s.LastPeriod(); last != nil {
		return last.dueDate
	}
	return time.Time{}
}

// Copy deep-clones the schedule.
func (s *Schedule) Copy() *Schedule {
	out := &Schedule{
		zero:             s.zero,
		periods:          make([]*RepaymentPeriod, 0, len(s.periods)),
		interestStopDate: s.interestStopDate,
		interestStopped:  s.interestStopped,
	}
	for _, rp := range s.periods {
		out.AppendClone(rp)
	}
	return out
}

// InterestStopDate reports from when interest no longer accrues, if it was stopped.
func (s *Schedule) InterestStopDate() (time.Time, bool) {
	return s.interestStopDate, s.interestStopped
}

// PeriodByDueDate finds the period with exactly the given due date.
func (s *Schedule) PeriodByDueDate(dueDate time.Time) (*RepaymentPeriod, bool) {
	for _, rp := range s.periods {
		if rp.dueDate.Equal(dueDate) {
			return rp, true
		}
	}
	return nil, false
}

// FindPeriodFor returns the period whose [from, due) range holds date. The due date
// of the last period belongs to the last period.
func (s *Schedule) FindPeriodFor(date time.Time) (*RepaymentPeriod, bool) {
	for _, rp := range s.periods {
		if rp.covers(date) {
			return rp, true
		}
	}
	return nil, false
}

// FindInterestPeriodFor returns the interest period starting at date, splitting the
// covering one when date falls inside it. Dates outside the schedule are clamped to
// its first from date and last due date. Rate factors of split periods are stale
// until the calculator refreshes them.
func (s *Schedule) FindInterestPeriodFor(date time.Time) *InterestPeriod {
	first, last := s.FirstPeriod(), s.LastPeriod()
	if date.Before(first.fromDate) {
		date = first.fromDate
	}
	if date.After(last.dueDate) {
		date = last.dueDate
	}

	rp, ok := s.FindPeriodFor(date)
	if !ok {
		rp = last
	}
	for _, ip := range rp.interestPeriods {
		if date.Before(ip.fromDate) || !date.Before(ip.dueDate) {
			continue
		}
		if date.Equal(ip.fromDate) {
			return ip
		}
		return splitInterestPeriod(rp, ip, date)
	}

	// date is the due date of the last period
	lastIP := rp.lastInterestPeriod()
	if lastIP.fromDate.Equal(date) {
		return lastIP
	}
	return splitInterestPeriod(rp, lastIP, date)
}

func splitInterestPeriod(rp *RepaymentPeriod, ip *InterestPeriod, date time.Time) *InterestPeriod {
	zero := rp.emi.Zero()
	tail := &InterestPeriod{
		fromDate:               date,
		dueDate:                ip.dueDate,
		rateFactor:             ip.rateFactor,
		disbursedAmount:        zero,
		correctionAmount:       zero,
		interestDue:            zero,
		outstandingLoanBalance: zero,
	}
	ip.dueDate = date
	rp.AddInterestPeriod(tail)
	return tail
}

// RecalculateBalances walks the schedule in order and refreshes every interest
// period's starting balance and interest due.
func (s *Schedule) RecalculateBalances() {
	for _, rp := range s.periods {
		var previous *InterestPeriod
		for _, ip := range rp.interestPeriods {
			ip.updateOutstandingLoanBalance(previous)
			ip.refreshInterestDue()
			previous = ip
		}
	}
}

func (s *Schedule) eachInterestPeriod(fn func(ip *InterestPeriod)) {
	for _, rp := range s.periods {
		for _, ip := range rp.interestPeriods {
			fn(ip)
		}
	}
}

func (s *Schedule) TotalDisbursed() money.Money {
	total := s.zero
	s.eachInterestPeriod(func(ip *InterestPeriod) {
		total = total.Plus(ip.disbursedAmount)
	})
	return total
}

func (s *Schedule) TotalCorrections() money.Money {
	total := s.zero
	s.eachInterestPeriod(func(ip *InterestPeriod) {
		total = total.Plus(ip.correctionAmount)
	})
	return total
}

// OutstandingPrincipal is disbursed principal plus all balance corrections.
func (s *Schedule) OutstandingPrincipal() money.Money {
	return s.TotalDisbursed().Plus(s.TotalCorrections())
}

func (s *Schedule) TotalPaidPrincipal() money.Money {
	total := s.zero
	for _, rp := range s.periods {
		total = total.Plus(rp.paidPrincipal)
	}
	return total
}

func (s *Schedule) TotalPaidInterest() money.Money {
	total := s.zero
	for _, rp := range s.periods {
		total = total.Plus(rp.paidInterest)
	}
	return total
}

func (s *Schedule) TotalDueInterest() money.Money {
	total := s.zero
	for _, rp := range s.periods {
		total = total.Plus(rp.DueInterest())
	}
	return total
}

func (s *Schedule) TotalDuePrincipal() money.Money {
	total := s.zero
	for _, rp := range s.periods {
		total = total.Plus(rp.DuePrincipal())
	}
	return total
}
