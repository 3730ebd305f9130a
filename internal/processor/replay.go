package processor

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/segyhp/loan-engine/internal/domain"
	"github.com/segyhp/loan-engine/internal/schedule"
	pkgerrors "github.com/segyhp/loan-engine/pkg/errors"
	"github.com/segyhp/loan-engine/pkg/money"
	"github.com/segyhp/loan-engine/pkg/utils"
)

// Result is the state of a loan after replaying its transaction feed.
type Result struct {
	calc          *schedule.Calculator
	terms         domain.LoanTerms
	zero          money.Money
	model         *schedule.Schedule
	installments  []*Installment
	transactions  []*domain.Transaction
	overpayment   money.Money
	disbursed     money.Money
	chargedOff    bool
	chargeOffDate time.Time
	chargedBack   map[uuid.UUID]money.Money
}

// Active returns the non-reversed transactions in replay order: date, then type
// priority, then creation time.
func Active(txs []*domain.Transaction) []*domain.Transaction {
	active := make([]*domain.Transaction, 0, len(txs))
	for _, tx := range txs {
		if !tx.Reversed {
			active = append(active, tx)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		a, b := active[i], active[j]
		if !a.TransactionDate.Equal(b.TransactionDate) {
			return a.TransactionDate.Before(b.TransactionDate)
		}
		if a.Type.Priority() != b.Type.Priority() {
			return a.Type.Priority() < b.Type.Priority()
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	return active
}

// Replay regenerates the schedule of loan and applies every non-reversed transaction
// to it. The input transactions are not modified; Result.Transactions holds copies
// carrying the recomputed portions.
func Replay(loan *domain.Loan, txs []*domain.Transaction, charges []*domain.Charge) (*Result, error) {
	calc, err := NewCalculator(loan.Terms)
	if err != nil {
		return nil, pkgerrors.WrapInvalidLoanTerms(err)
	}

	active := Active(txs)
	disbursementDate := loan.ExpectedDisbursementDate
	for _, tx := range active {
		if tx.Type == domain.TxDisbursement {
			disbursementDate = tx.TransactionDate
			break
		}
	}
	plan, err := NewPlan(loan.Terms, disbursementDate, loan.FirstRepaymentDate)
	if err != nil {
		return nil, pkgerrors.WrapInvalidLoanTerms(err)
	}
	model, err := calc.GenerateModel(plan)
	if err != nil {
		return nil, pkgerrors.WrapInvalidLoanTerms(err)
	}

	zero := calc.Zero()
	r := &Result{
		calc:        calc,
		terms:       loan.Terms,
		zero:        zero,
		model:       model,
		overpayment: zero,
		disbursed:   zero,
		chargedBack: make(map[uuid.UUID]money.Money),
	}
	r.syncInstallments()
	for _, c := range charges {
		r.attachCharge(c)
	}

	for _, tx := range active {
		replayed := *tx
		if err := r.apply(&replayed); err != nil {
			return nil, fmt.Errorf("replay %s %s on %s: %w", tx.Type, tx.ID, utils.FormatDate(tx.TransactionDate), err)
		}
		r.transactions = append(r.transactions, &replayed)
	}
	return r, nil
}

// Preview replays a single disbursement of the approved principal on the expected date.
func Preview(loan *domain.Loan) (*Result, error) {
	disbursement := &domain.Transaction{
		ID:              uuid.Nil,
		LoanID:          loan.ID,
		Type:            domain.TxDisbursement,
		TransactionDate: loan.ExpectedDisbursementDate,
		Amount:          loan.Principal,
	}
	return Replay(loan, []*domain.Transaction{disbursement}, nil)
}

func (r *Result) syncInstallments() {
	for _, rp := range r.model.Periods()[len(r.installments):] {
		r.installments = append(r.installments, newInstallment(rp, r.zero))
	}
}

func (r *Result) attachCharge(c *domain.Charge) {
	amount := r.money(c.Amount)
	for _, inst := range r.installments {
		if inst.coversChargeDate(c.DueDate) {
			inst.addCharge(c.Type, amount)
			return
		}
	}
	r.installments[len(r.installments)-1].addCharge(c.Type, amount)
}

func (r *Result) apply(tx *domain.Transaction) error {
	amount := r.money(tx.Amount)
	date := tx.TransactionDate
	s := newSplit(r.zero)

	switch {
	case tx.Type == domain.TxDisbursement:
		if err := r.calc.AddDisbursement(r.model, date, amount); err != nil {
			return err
		}
		r.disbursed = r.disbursed.Plus(amount)
		s.principal = amount

	case tx.Type.IsRepaymentLike():
		allocated, err := r.allocate(date, amount)
		if err != nil {
			return err
		}
		s = allocated

	case tx.Type == domain.TxChargeback:
		fromOverpayment := money.Min(amount, r.overpayment)
		r.overpayment = r.overpayment.Minus(fromOverpayment)
		reopened := amount.Minus(fromOverpayment)
		if err := r.calc.AddChargeback(r.model, date, reopened); err != nil {
			return err
		}
		if tx.OriginalTransactionID != nil {
			id := *tx.OriginalTransactionID
			r.chargedBack[id] = money.Plus(r.chargedBack[id], amount)
		}
		s.principal = reopened
		s.overpayment = fromOverpayment

	case tx.Type == domain.TxCreditBalanceRefund:
		if amount.IsGreaterThan(r.overpayment) {
			return fmt.Errorf("%w: refund %s, overpaid %s", pkgerrors.ErrRefundExceedsOverpaid, amount, r.overpayment)
		}
		r.overpayment = r.overpayment.Minus(amount)
		s.overpayment = amount

	case tx.Type == domain.TxChargeOff:
		if r.chargedOff {
			return pkgerrors.ErrLoanChargedOff
		}
		if err := r.calc.StopInterestAccrual(r.model, date); err != nil {
			return err
		}
		r.chargedOff = true
		r.chargeOffDate = date
		s.principal = r.PrincipalOutstanding()
		s.interest = r.InterestOutstanding()
		s.fee = r.FeeOutstanding()
		s.penalty = r.PenaltyOutstanding()
		tx.Amount = s.total().Amount()

	default:
		return fmt.Errorf("unsupported transaction type %q", tx.Type)
	}

	r.syncInstallments()
	tx.SetSplits(s.toDomain())
	return nil
}

func (r *Result) money(amount decimal.Decimal) money.Money {
	return r.zero.PlusAmount(amount)
}

func (r *Result) Schedule() *schedule.Schedule { return r.model }
func (r *Result) Zero() money.Money             { return r.zero }
func (r *Result) Overpayment() money.Money      { return r.overpayment }
func (r *Result) Disbursed() money.Money        { return r.disbursed }

func (r *Result) Installments() []*Installment {
	return append([]*Installment(nil), r.installments...)
}

// Transactions are the replayed transactions in replay order.
func (r *Result) Transactions() []*domain.Transaction {
	return append([]*domain.Transaction(nil), r.transactions...)
}

// Transaction finds a replayed transaction by id.
func (r *Result) Transaction(id uuid.UUID) (*domain.Transaction, bool) {
	for _, tx := range r.transactions {
		if tx.ID == id {
			return tx, true
		}
	}
	return nil, false
}

func (r *Result) ChargedOff() (time.Time, bool) {
	return r.chargeOffDate, r.chargedOff
}

// ChargedBack is the total already charged back against transaction id.
func (r *Result) ChargedBack(id uuid.UUID) money.Money {
	return money.Plus(r.zero, r.chargedBack[id])
}

func (r *Result) PrincipalOutstanding() money.Money {
	return money.NegativeToZero(r.model.OutstandingPrincipal())
}

func (r *Result) InterestOutstanding() money.Money {
	return r.sum((*Installment).InterestOutstanding)
}

func (r *Result) FeeOutstanding() money.Money {
	return r.sum((*Installment).FeeOutstanding)
}

func (r *Result) PenaltyOutstanding() money.Money {
	return r.sum((*Installment).PenaltyOutstanding)
}

func (r *Result) TotalOutstanding() money.Money {
	return r.PrincipalOutstanding().Plus(r.InterestOutstanding()).Plus(r.FeeOutstanding()).Plus(r.PenaltyOutstanding())
}

// OverdueInstallments are the installments due before businessDate with money owed.
func (r *Result) OverdueInstallments(businessDate time.Time) []*Installment {
	var overdue []*Installment
	for _, inst := range r.installments {
		if inst.IsOverdue(businessDate) {
			overdue = append(overdue, inst)
		}
	}
	return overdue
}

func (r *Result) TotalOverdue(businessDate time.Time) money.Money {
	total := r.zero
	for _, inst := range r.OverdueInstallments(businessDate) {
		total = total.Plus(inst.TotalOutstanding())
	}
	return total
}

// Status derives the loan status from the replayed balances.
func (r *Result) Status() string {
	switch {
	case !r.disbursed.IsPositive():
		return domain.LoanStatusApproved
	case r.overpayment.IsPositive():
		return domain.LoanStatusOverpaid
	case !r.TotalOutstanding().IsPositive():
		return domain.LoanStatusClosedObligationsMet
	default:
		return domain.LoanStatusActive
	}
}

func (r *Result) sum(component func(*Installment) money.Money) money.Money {
	total := r.zero
	for _, inst := range r.installments {
		total = total.Plus(component(inst))
	}
	return total
}

type split struct {
	principal   money.Money
	interest    money.Money
	fee         money.Money
	penalty     money.Money
	overpayment money.Money
}

func newSplit(zero money.Money) split {
	return split{principal: zero, interest: zero, fee: zero, penalty: zero, overpayment: zero}
}

func (s *split) add(component string, amount money.Money) {
	switch component {
	case domain.ComponentPrincipal:
		s.principal = s.principal.Plus(amount)
	case domain.ComponentInterest:
		s.interest = s.interest.Plus(amount)
	case domain.ComponentFee:
		s.fee = s.fee.Plus(amount)
	case domain.ComponentPenalty:
		s.penalty = s.penalty.Plus(amount)
	}
}

func (s split) total() money.Money {
	return s.principal.Plus(s.interest).Plus(s.fee).Plus(s.penalty).Plus(s.overpayment)
}

func (s split) toDomain() domain.Splits {
	return domain.Splits{
		Principal:   s.principal.Amount(),
		Interest:    s.interest.Amount(),
		Fee:         s.fee.Amount(),
		Penalty:     s.penalty.Amount(),
		Overpayment: s.overpayment.Amount(),
	}
}
