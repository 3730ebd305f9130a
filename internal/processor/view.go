package processor

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/segyhp/loan-engine/internal/domain"
	"github.com/segyhp/loan-engine/pkg/money"
	"github.com/segyhp/loan-engine/pkg/utils"
)

// ScheduleView renders the replayed state as schedule rows. Disbursements appear as
// period 0 rows ahead of the installment they fall in.
func ScheduleView(loanID string, state *Result, businessDate time.Time) *domain.RepaymentSchedule {
	view := &domain.RepaymentSchedule{
		LoanID:         loanID,
		Currency:       state.zero.Currency().Code,
		Status:         state.Status(),
		OverpaidAmount: state.overpayment.Amount(),
	}

	var disbursements []*domain.Transaction
	for _, tx := range state.transactions {
		if tx.Type == domain.TxDisbursement {
			disbursements = append(disbursements, tx)
		}
	}

	balance := state.zero
	next := 0
	totals := struct{ principal, interest, fee, penalty, paid, outstanding money.Money }{
		state.zero, state.zero, state.zero, state.zero, state.zero, state.zero,
	}

	for _, inst := range state.installments {
		for next < len(disbursements) && disbursements[next].TransactionDate.Before(inst.DueDate()) {
			d := disbursements[next]
			balance = balance.Plus(state.money(d.Amount))
			view.Periods = append(view.Periods, domain.ScheduleRow{
				Period:             0,
				DueDate:            d.TransactionDate,
				PrincipalDisbursed: d.Amount,
				BalanceOfLoan:      balance.Amount(),
			})
			next++
		}

		balance = money.NegativeToZero(balance.Minus(inst.PrincipalDue()))
		from := inst.FromDate()
		view.Periods = append(view.Periods, domain.ScheduleRow{
			Period:               inst.Number(),
			FromDate:             &from,
			DueDate:              inst.DueDate(),
			DaysInPeriod:         utils.DaysBetween(inst.FromDate(), inst.DueDate()),
			PrincipalDisbursed:   decimal.Zero,
			PrincipalDue:         inst.PrincipalDue().Amount(),
			PrincipalPaid:        inst.PrincipalPaid().Amount(),
			PrincipalOutstanding: inst.PrincipalOutstanding().Amount(),
			InterestDue:          inst.InterestDue().Amount(),
			InterestPaid:         inst.InterestPaid().Amount(),
			InterestOutstanding:  inst.InterestOutstanding().Amount(),
			FeeDue:               inst.FeeDue().Amount(),
			FeePaid:              inst.FeePaid().Amount(),
			PenaltyDue:           inst.PenaltyDue().Amount(),
			PenaltyPaid:          inst.PenaltyPaid().Amount(),
			TotalDue:             inst.TotalDue().Amount(),
			TotalPaid:            inst.TotalPaid().Amount(),
			TotalOutstanding:     inst.TotalOutstanding().Amount(),
			BalanceOfLoan:        balance.Amount(),
			Status:               inst.Status(businessDate),
		})

		totals.principal = totals.principal.Plus(inst.PrincipalDue())
		totals.interest = totals.interest.Plus(inst.InterestDue())
		totals.fee = totals.fee.Plus(inst.FeeDue())
		totals.penalty = totals.penalty.Plus(inst.PenaltyDue())
		totals.paid = totals.paid.Plus(inst.TotalPaid())
		totals.outstanding = totals.outstanding.Plus(inst.TotalOutstanding())
	}

	view.TotalPrincipalDue = totals.principal.Amount()
	view.TotalInterestDue = totals.interest.Amount()
	view.TotalFeeDue = totals.fee.Amount()
	view.TotalPenaltyDue = totals.penalty.Amount()
	view.TotalRepayment = totals.principal.Plus(totals.interest).Plus(totals.fee).Plus(totals.penalty).Amount()
	view.TotalPaid = totals.paid.Amount()
	view.TotalOutstanding = totals.outstanding.Amount()
	return view
}
