package processor

import (
	"time"

	"github.com/segyhp/loan-engine/internal/domain"
	"github.com/segyhp/loan-engine/internal/schedule"
	"github.com/segyhp/loan-engine/pkg/money"
)

// Installment is a repayment period together with the fees and penalties due on it.
type Installment struct {
	period      *schedule.RepaymentPeriod
	feeDue      money.Money
	feePaid     money.Money
	penaltyDue  money.Money
	penaltyPaid money.Money
}

func newInstallment(rp *schedule.RepaymentPeriod, zero money.Money) *Installment {
	return &Installment{
		period:      rp,
		feeDue:      zero,
		feePaid:     zero,
		penaltyDue:  zero,
		penaltyPaid: zero,
	}
}

func (i *Installment) Period() *schedule.RepaymentPeriod { return i.period }
func (i *Installment) Number() int                       { return i.period.Number() }
func (i *Installment) FromDate() time.Time               { return i.period.FromDate() }
func (i *Installment) DueDate() time.Time                { return i.period.DueDate() }

func (i *Installment) PrincipalDue() money.Money  { return i.period.DuePrincipal() }
func (i *Installment) PrincipalPaid() money.Money { return i.period.PaidPrincipal() }
func (i *Installment) InterestDue() money.Money   { return i.period.DueInterest() }
func (i *Installment) InterestPaid() money.Money  { return i.period.PaidInterest() }
func (i *Installment) FeeDue() money.Money        { return i.feeDue }
func (i *Installment) FeePaid() money.Money       { return i.feePaid }
func (i *Installment) PenaltyDue() money.Money    { return i.penaltyDue }
func (i *Installment) PenaltyPaid() money.Money   { return i.penaltyPaid }

func (i *Installment) PrincipalOutstanding() money.Money {
	return money.NegativeToZero(i.PrincipalDue().Minus(i.PrincipalPaid()))
}

func (i *Installment) InterestOutstanding() money.Money {
	return money.NegativeToZero(i.InterestDue().Minus(i.InterestPaid()))
}

func (i *Installment) FeeOutstanding() money.Money {
	return money.NegativeToZero(i.feeDue.Minus(i.feePaid))
}

func (i *Installment) PenaltyOutstanding() money.Money {
	return money.NegativeToZero(i.penaltyDue.Minus(i.penaltyPaid))
}

func (i *Installment) TotalDue() money.Money {
	return i.PrincipalDue().Plus(i.InterestDue()).Plus(i.feeDue).Plus(i.penaltyDue)
}

func (i *Installment) TotalPaid() money.Money {
	return i.PrincipalPaid().Plus(i.InterestPaid()).Plus(i.feePaid).Plus(i.penaltyPaid)
}

func (i *Installment) TotalOutstanding() money.Money {
	return i.PrincipalOutstanding().Plus(i.InterestOutstanding()).Plus(i.FeeOutstanding()).Plus(i.PenaltyOutstanding())
}

// Outstanding returns what is still owed on one allocation component.
func (i *Installment) Outstanding(component string) money.Money {
	switch component {
	case domain.ComponentPrincipal:
		return i.PrincipalOutstanding()
	case domain.ComponentInterest:
		return i.InterestOutstanding()
	case domain.ComponentFee:
		return i.FeeOutstanding()
	default:
		return i.PenaltyOutstanding()
	}
}

// IsOverdue reports whether the installment is past due on businessDate with money owed.
func (i *Installment) IsOverdue(businessDate time.Time) bool {
	return i.DueDate().Before(businessDate) && i.TotalOutstanding().IsPositive()
}

func (i *Installment) Status(businessDate time.Time) string {
	switch {
	case !i.TotalOutstanding().IsPositive():
		return domain.InstallmentStatusFullyPaid
	case i.IsOverdue(businessDate):
		return domain.InstallmentStatusOverdue
	case i.TotalPaid().IsPositive():
		return domain.InstallmentStatusPartiallyPaid
	default:
		return domain.InstallmentStatusScheduled
	}
}

// coversChargeDate: the first installment owns [from, due], later ones (from, due].
func (i *Installment) coversChargeDate(date time.Time) bool {
	if date.After(i.DueDate()) {
		return false
	}
	if i.Number() == 1 {
		return !date.Before(i.FromDate())
	}
	return date.After(i.FromDate())
}

func (i *Installment) addCharge(chargeType domain.ChargeType, amount money.Money) {
	if chargeType == domain.ChargePenalty {
		i.penaltyDue = i.penaltyDue.Plus(amount)
		return
	}
	i.feeDue = i.feeDue.Plus(amount)
}
