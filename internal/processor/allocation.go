package processor

import (
	"time"

	"github.com/segyhp/loan-engine/internal/domain"
	"github.com/segyhp/loan-engine/pkg/money"
)

type allocation struct {
	installment *Installment
	component   string
	amount      money.Money
}

// allocate spreads a repayment-like amount over the installments and books it. What
// cannot be allocated becomes overpayment.
func (r *Result) allocate(date time.Time, amount money.Money) (split, error) {
	plan, leftover := r.allocationPlan(date, amount)

	s := newSplit(r.zero)
	for _, a := range plan {
		if err := r.pay(a, date); err != nil {
			return s, err
		}
		s.add(a.component, a.amount)
	}
	if leftover.IsPositive() {
		r.overpayment = r.overpayment.Plus(leftover)
		s.overpayment = leftover
	}
	return s, nil
}

// allocationPlan decides every portion up front so payments booked on one installment
// do not move the limits of the next. Due installments are served first, horizontally
// or vertically per the terms; then the current installment up to the interest
// accrued on date; then future installments without interest. Principal never
// exceeds what the loan still owes.
func (r *Result) allocationPlan(date time.Time, amount money.Money) ([]allocation, money.Money) {
	remaining := amount
	principalLeft := r.PrincipalOutstanding()
	var plan []allocation
	take := func(inst *Installment, component string, limit money.Money) {
		if component == domain.ComponentPrincipal {
			limit = money.Min(limit, principalLeft)
		}
		if !remaining.IsPositive() || !limit.IsPositive() {
			return
		}
		portion := money.Min(remaining, limit)
		plan = append(plan, allocation{installment: inst, component: component, amount: portion})
		remaining = remaining.Minus(portion)
		if component == domain.ComponentPrincipal {
			principalLeft = principalLeft.Minus(portion)
		}
	}

	due, current, future := r.partition(date)
	order := r.terms.AllocationOrder
	if len(order) == 0 {
		order = domain.DefaultAllocationOrder
	}

	if r.terms.AllocationStrategy == domain.AllocationVertical {
		for _, component := range order {
			for _, inst := range due {
				take(inst, component, inst.Outstanding(component))
			}
		}
	} else {
		for _, inst := range due {
			for _, component := range order {
				take(inst, component, inst.Outstanding(component))
			}
		}
	}

	if current != nil {
		for _, component := range order {
			limit := current.Outstanding(component)
			if component == domain.ComponentInterest {
				accrued := r.calc.InterestAccruedTill(r.model, current.period, date)
				limit = money.NegativeToZero(accrued.Minus(current.InterestPaid()))
			}
			take(current, component, limit)
		}
	}

	for _, inst := range future {
		for _, component := range order {
			if component == domain.ComponentInterest {
				continue
			}
			take(inst, component, inst.Outstanding(component))
		}
	}
	return plan, remaining
}

// partition splits installments into due on or before date, the one running on date,
// and those starting after it.
func (r *Result) partition(date time.Time) (due []*Installment, current *Installment, future []*Installment) {
	for _, inst := range r.installments {
		switch {
		case !inst.DueDate().After(date):
			due = append(due, inst)
		case current == nil && !inst.FromDate().After(date):
			current = inst
		default:
			future = append(future, inst)
		}
	}
	return due, current, future
}

func (r *Result) pay(a allocation, date time.Time) error {
	switch a.component {
	case domain.ComponentPrincipal:
		return r.calc.PayPrincipal(r.model, a.installment.DueDate(), date, a.amount)
	case domain.ComponentInterest:
		return r.calc.PayInterest(r.model, a.installment.DueDate(), a.amount)
	case domain.ComponentFee:
		a.installment.feePaid = a.installment.feePaid.Plus(a.amount)
	case domain.ComponentPenalty:
		a.installment.penaltyPaid = a.installment.penaltyPaid.Plus(a.amount)
	}
	return nil
}
