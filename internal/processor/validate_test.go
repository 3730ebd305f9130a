package processor

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/loan-engine/internal/domain"
	pkgerrors "github.com/segyhp/loan-engine/pkg/errors"
)

func candidate(txType domain.TransactionType, date time.Time, amount string) *domain.Transaction {
	return &domain.Transaction{ID: uuid.New(), Type: txType, TransactionDate: date, Amount: dec(amount)}
}

func TestValidateLoan(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(l *domain.Loan)
		wantErr error
	}{
		{name: "valid", mutate: func(l *domain.Loan) {}},
		{name: "zero principal", mutate: func(l *domain.Loan) { l.Principal = dec("0") }, wantErr: pkgerrors.ErrInvalidAmount},
		{name: "unknown day count", mutate: func(l *domain.Loan) { l.Terms.DaysInYear = "DAYS_400" }, wantErr: pkgerrors.ErrInvalidLoanTerms},
		{name: "first repayment before disbursement", mutate: func(l *domain.Loan) { l.FirstRepaymentDate = day(time.January, 1) }, wantErr: pkgerrors.ErrInvalidLoanTerms},
		{name: "duplicate allocation component", mutate: func(l *domain.Loan) {
			l.Terms.AllocationOrder = []string{"FEE", "FEE", "INTEREST", "PRINCIPAL"}
		}, wantErr: pkgerrors.ErrInvalidLoanTerms},
		{name: "too close to first repayment", mutate: func(l *domain.Loan) {
			l.Terms.MinDaysBetweenDisbursalAndFirstRepayment = 45
		}, wantErr: pkgerrors.ErrMinDaysBetweenDisbursalAndFirst},
		{name: "exactly the minimum", mutate: func(l *domain.Loan) {
			l.Terms.MinDaysBetweenDisbursalAndFirstRepayment = 31
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loan := testLoan(2)
			tt.mutate(loan)

			err := ValidateLoan(loan)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestValidateTransaction(t *testing.T) {
	businessDate := day(time.March, 10)

	disbursed := func() *feed {
		f := newFeed(testLoan(2))
		f.add(domain.TxDisbursement, day(time.January, 1), "1000")
		return f
	}
	overpaid := func() *feed {
		f := disbursed()
		f.add(domain.TxRepayment, day(time.March, 1), "1035.02")
		return f
	}
	chargedOff := func() *feed {
		f := disbursed()
		f.add(domain.TxChargeOff, day(time.February, 1), "0")
		return f
	}

	tests := []struct {
		name    string
		feed    func() *feed
		tx      *domain.Transaction
		wantErr error
	}{
		{name: "repayment", feed: disbursed, tx: candidate(domain.TxRepayment, day(time.February, 1), "100")},
		{name: "future date", feed: disbursed, tx: candidate(domain.TxRepayment, day(time.March, 11), "100"), wantErr: pkgerrors.ErrTransactionInFuture},
		{name: "zero amount", feed: disbursed, tx: candidate(domain.TxRepayment, day(time.February, 1), "0"), wantErr: pkgerrors.ErrInvalidAmount},
		{name: "repayment before disbursement", feed: func() *feed { return newFeed(testLoan(2)) }, tx: candidate(domain.TxGoodwillCredit, day(time.February, 1), "10"), wantErr: pkgerrors.ErrLoanNotDisbursed},
		{name: "first disbursement", feed: func() *feed { return newFeed(testLoan(2)) }, tx: candidate(domain.TxDisbursement, day(time.January, 1), "600")},
		{name: "disbursement above approved", feed: disbursed, tx: candidate(domain.TxDisbursement, day(time.January, 10), "1"), wantErr: pkgerrors.ErrDisbursementExceedsApproved},
		{name: "credit balance refund on overpaid loan", feed: overpaid, tx: candidate(domain.TxCreditBalanceRefund, day(time.March, 2), "20")},
		{name: "credit balance refund above overpaid", feed: overpaid, tx: candidate(domain.TxCreditBalanceRefund, day(time.March, 2), "20.01"), wantErr: pkgerrors.ErrRefundExceedsOverpaid},
		{name: "credit balance refund without credit", feed: disbursed, tx: candidate(domain.TxCreditBalanceRefund, day(time.March, 2), "1"), wantErr: pkgerrors.ErrLoanNotOverpaid},
		{name: "second charge-off", feed: chargedOff, tx: candidate(domain.TxChargeOff, day(time.March, 1), "0"), wantErr: pkgerrors.ErrLoanChargedOff},
		{name: "repayment before charge-off", feed: chargedOff, tx: candidate(domain.TxRepayment, day(time.January, 20), "10"), wantErr: pkgerrors.ErrBeforeChargeOff},
		{name: "repayment after charge-off", feed: chargedOff, tx: candidate(domain.TxRepayment, day(time.March, 1), "10")},
		{name: "chargeback posted directly", feed: disbursed, tx: candidate(domain.TxChargeback, day(time.March, 1), "10"), wantErr: pkgerrors.ErrChargebackNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := tt.feed()
			state := f.replay(t)

			err := ValidateTransaction(f.loan, state, tt.tx, businessDate)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestValidateChargeback(t *testing.T) {
	businessDate := day(time.March, 10)
	f := newFeed(testLoan(2))
	disbursement := f.add(domain.TxDisbursement, day(time.January, 1), "1000")
	repayment := f.add(domain.TxRepayment, day(time.February, 1), "507.51")
	f.chargeback(repayment, day(time.February, 5), "100")
	state := f.replay(t)

	tests := []struct {
		name     string
		original *domain.Transaction
		tx       *domain.Transaction
		wantErr  error
	}{
		{name: "within remaining amount", original: repayment, tx: candidate(domain.TxChargeback, day(time.February, 10), "407.51")},
		{name: "above remaining amount", original: repayment, tx: candidate(domain.TxChargeback, day(time.February, 10), "407.52"), wantErr: pkgerrors.ErrChargebackExceedsAmount},
		{name: "disbursement", original: disbursement, tx: candidate(domain.TxChargeback, day(time.February, 10), "1"), wantErr: pkgerrors.ErrChargebackNotAllowed},
		{name: "before repayment", original: repayment, tx: candidate(domain.TxChargeback, day(time.January, 31), "1"), wantErr: pkgerrors.ErrChargebackNotAllowed},
		{name: "future", original: repayment, tx: candidate(domain.TxChargeback, day(time.March, 11), "1"), wantErr: pkgerrors.ErrTransactionInFuture},
		{name: "zero", original: repayment, tx: candidate(domain.TxChargeback, day(time.February, 10), "0"), wantErr: pkgerrors.ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateChargeback(state, tt.original, tt.tx, businessDate)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}
