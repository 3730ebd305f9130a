package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/loan-engine/internal/accounting"
	"github.com/segyhp/loan-engine/internal/domain"
	"github.com/segyhp/loan-engine/internal/events"
	"github.com/segyhp/loan-engine/internal/retry"
	pkgerrors "github.com/segyhp/loan-engine/pkg/errors"
)

func createRequest() *domain.CreateLoanRequest {
	return &domain.CreateLoanRequest{
		LoanID:                   "LN-1",
		Principal:                dec("1000"),
		AnnualInterestRate:       dec("12"),
		ExpectedDisbursementDate: "2023-01-01",
		FirstRepaymentDate:       "2023-02-01",
		NumberOfRepayments:       2,
		DaysInYear:               "DAYS_360",
		DaysInMonth:              "DAYS_30",
	}
}

func TestLoanService_CreateLoan(t *testing.T) {
	f := newFixture(t, day(time.January, 1))
	f.loans.On("Create", mock.Anything, mock.MatchedBy(func(loan *domain.Loan) bool {
		return loan.LoanID == "LN-1" &&
			loan.Status == domain.LoanStatusApproved &&
			loan.Version == 1 &&
			loan.Terms.CurrencyCode == "USD" &&
			loan.Terms.AllocationStrategy == domain.AllocationHorizontal
	})).Return(nil)

	resp, err := f.loanService.CreateLoan(context.Background(), createRequest())

	require.NoError(t, err)
	assert.Equal(t, "LN-1", resp.Loan.LoanID)
	require.Len(t, resp.Schedule.Periods, 3)
	assert.Equal(t, 0, resp.Schedule.Periods[0].Period)
	assert.Equal(t, "507.51", resp.Schedule.Periods[1].TotalDue.StringFixed(2))
	assert.Equal(t, "10.00", resp.Schedule.Periods[1].InterestDue.StringFixed(2))
	assert.Equal(t, []events.Type{events.LoanCreated}, f.publisher.Types())
	f.loans.AssertExpectations(t)
}

func TestLoanService_CreateLoan_Errors(t *testing.T) {
	bucketID := uuid.New()

	tests := []struct {
		name     string
		mutate   func(r *domain.CreateLoanRequest)
		setup    func(f *fixture)
		expected error
	}{
		{
			name:     "invalid date",
			mutate:   func(r *domain.CreateLoanRequest) { r.FirstRepaymentDate = "2023-02-30" },
			expected: pkgerrors.ErrInvalidDate,
		},
		{
			name:     "first repayment before disbursement",
			mutate:   func(r *domain.CreateLoanRequest) { r.FirstRepaymentDate = "2022-12-01" },
			expected: pkgerrors.ErrInvalidLoanTerms,
		},
		{
			name: "too close to first repayment",
			mutate: func(r *domain.CreateLoanRequest) {
				r.MinDaysBetweenDisbursalAndFirstRepayment = 45
			},
			expected: pkgerrors.ErrMinDaysBetweenDisbursalAndFirst,
		},
		{
			name:   "unknown bucket",
			mutate: func(r *domain.CreateLoanRequest) { r.DelinquencyBucketID = &bucketID },
			setup: func(f *fixture) {
				f.delinquency.On("GetBucket", mock.Anything, bucketID).Return(nil, pkgerrors.WrapBucketNotFound(bucketID.String()))
			},
			expected: pkgerrors.ErrBucketNotFound,
		},
		{
			name:   "duplicate loan",
			mutate: func(r *domain.CreateLoanRequest) {},
			setup: func(f *fixture) {
				f.loans.On("Create", mock.Anything, mock.Anything).Return(pkgerrors.WrapLoanAlreadyExists("LN-1"))
			},
			expected: pkgerrors.ErrLoanAlreadyExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, day(time.January, 1))
			if tt.setup != nil {
				tt.setup(f)
			}
			req := createRequest()
			tt.mutate(req)

			_, err := f.loanService.CreateLoan(context.Background(), req)

			assert.ErrorIs(t, err, tt.expected)
			f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
		})
	}
}

func TestLoanService_PreviewSchedule(t *testing.T) {
	f := newFixture(t, day(time.January, 1))

	view, err := f.loanService.PreviewSchedule(context.Background(), createRequest())

	require.NoError(t, err)
	assert.Equal(t, domain.LoanStatusActive, view.Status)
	assert.Equal(t, "15.02", view.TotalInterestDue.StringFixed(2))
	f.loans.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestLoanService_PostTransaction(t *testing.T) {
	loan := testLoan()
	fd := &feed{loan: loan}
	fd.add(domain.TxDisbursement, day(time.January, 1), "1000")
	txs, entries := fd.computed(t)

	f := newFixture(t, day(time.February, 1))
	f.allowLock("LN-1")
	f.stored(loan, txs, entries)
	f.allowCommit()

	tx, err := f.loanService.PostTransaction(context.Background(), "LN-1", &domain.PostTransactionRequest{
		Type:            domain.TxRepayment,
		ExternalID:      "rep-1",
		TransactionDate: "2023-02-01",
		Amount:          dec("507.51"),
	})

	require.NoError(t, err)
	assert.Equal(t, "rep-1", tx.ExternalID)
	assert.Equal(t, "497.51", tx.PrincipalPortion.StringFixed(2))
	assert.Equal(t, "10.00", tx.InterestPortion.StringFixed(2))

	f.transactions.AssertCalled(t, "Create", mock.Anything, tx)
	f.transactions.AssertNotCalled(t, "UpdateComputed", mock.Anything, mock.Anything)
	f.loans.AssertCalled(t, "Update", mock.Anything, mock.MatchedBy(func(l *domain.Loan) bool {
		return l.Status == domain.LoanStatusActive && l.TotalOutstanding.StringFixed(2) == "507.51"
	}))

	posted := f.createdEntries()
	require.Len(t, posted, 3)
	assert.True(t, accounting.Balanced(posted))
	for _, e := range posted {
		assert.Equal(t, tx.ID, e.TransactionID)
		assert.False(t, e.Reversal)
	}

	assert.Equal(t, 1, f.releases)
	assert.Equal(t, []events.Type{events.TransactionPosted}, f.publisher.Types())
	assert.Equal(t, 1, f.observer.transactions["REPAYMENT"])
}

func TestLoanService_PostTransaction_Rejected(t *testing.T) {
	loan := testLoan()
	fd := &feed{loan: loan}
	fd.add(domain.TxDisbursement, day(time.January, 1), "1000")
	txs, entries := fd.computed(t)

	tests := []struct {
		name     string
		request  domain.PostTransactionRequest
		expected error
	}{
		{
			name:     "future date",
			request:  domain.PostTransactionRequest{Type: domain.TxRepayment, TransactionDate: "2023-02-02", Amount: dec("10")},
			expected: pkgerrors.ErrTransactionInFuture,
		},
		{
			name:     "refund without credit balance",
			request:  domain.PostTransactionRequest{Type: domain.TxCreditBalanceRefund, TransactionDate: "2023-02-01", Amount: dec("10")},
			expected: pkgerrors.ErrLoanNotOverpaid,
		},
		{
			name:     "disbursement above approved principal",
			request:  domain.PostTransactionRequest{Type: domain.TxDisbursement, TransactionDate: "2023-01-15", Amount: dec("1")},
			expected: pkgerrors.ErrDisbursementExceedsApproved,
		},
		{
			name:     "malformed date",
			request:  domain.PostTransactionRequest{Type: domain.TxRepayment, TransactionDate: "01/02/2023", Amount: dec("10")},
			expected: pkgerrors.ErrInvalidDate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, day(time.February, 1))
			f.allowLock("LN-1")
			f.stored(loan, txs, entries)

			_, err := f.loanService.PostTransaction(context.Background(), "LN-1", &tt.request)

			assert.ErrorIs(t, err, tt.expected)
			f.transactions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			f.loans.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
			f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
		})
	}
}

func TestLoanService_RetriesConcurrentModification(t *testing.T) {
	loan := testLoan()
	fd := &feed{loan: loan}
	fd.add(domain.TxDisbursement, day(time.January, 1), "1000")
	txs, entries := fd.computed(t)

	f := newFixture(t, day(time.February, 1))
	f.allowLock("LN-1")
	f.stored(loan, txs, entries)
	f.loans.On("Update", mock.Anything, mock.Anything).Return(pkgerrors.WrapConcurrentModification("LN-1")).Once()
	f.allowCommit()

	_, err := f.loanService.PostTransaction(context.Background(), "LN-1", &domain.PostTransactionRequest{
		Type: domain.TxRepayment, TransactionDate: "2023-02-01", Amount: dec("100"),
	})

	require.NoError(t, err)
	assert.Equal(t, 2, f.txManager.Calls)
	assert.Equal(t, 2, f.releases)
	f.loans.AssertNumberOfCalls(t, "Update", 2)
	f.publisher.AssertNumberOfCalls(t, "Publish", 1)
}

func TestLoanService_LockContention(t *testing.T) {
	f := newFixture(t, day(time.February, 1))
	f.locker.On("Lock", mock.Anything, "LN-1").Return(nil, fmt.Errorf("%w: LN-1", pkgerrors.ErrLoanLocked))

	_, err := f.loanService.PostTransaction(context.Background(), "LN-1", &domain.PostTransactionRequest{
		Type: domain.TxRepayment, TransactionDate: "2023-02-01", Amount: dec("100"),
	})

	assert.ErrorIs(t, err, pkgerrors.ErrLoanLocked)
	f.locker.AssertNumberOfCalls(t, "Lock", 3)
	assert.Equal(t, 0, f.txManager.Calls)
}

func TestLoanService_Chargeback(t *testing.T) {
	loan := testLoan()
	fd := &feed{loan: loan}
	fd.add(domain.TxDisbursement, day(time.January, 1), "1000")
	repayment := fd.add(domain.TxRepayment, day(time.February, 1), "507.51")
	txs, entries := fd.computed(t)

	t.Run("reopens principal", func(t *testing.T) {
		f := newFixture(t, day(time.February, 10))
		f.allowLock("LN-1")
		f.stored(loan, txs, entries)
		f.allowCommit()

		cb, err := f.loanService.Chargeback(context.Background(), "LN-1", repayment.ID, &domain.ChargebackRequest{
			TransactionDate: "2023-02-10",
			Amount:          dec("100"),
		})

		require.NoError(t, err)
		assert.Equal(t, domain.TxChargeback, cb.Type)
		require.NotNil(t, cb.OriginalTransactionID)
		assert.Equal(t, repayment.ID, *cb.OriginalTransactionID)
		assert.Equal(t, "100.00", cb.PrincipalPortion.StringFixed(2))
		assert.True(t, cb.OverpaymentPortion.IsZero())
		assert.Equal(t, []events.Type{events.ChargebackPosted}, f.publisher.Types())
	})

	tests := []struct {
		name     string
		txID     uuid.UUID
		amount   string
		expected error
	}{
		{name: "unknown transaction", txID: uuid.New(), amount: "10", expected: pkgerrors.ErrTransactionNotFound},
		{name: "more than repaid", txID: repayment.ID, amount: "507.52", expected: pkgerrors.ErrChargebackExceedsAmount},
		{name: "not a repayment", txID: txs[0].ID, amount: "10", expected: pkgerrors.ErrChargebackNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, day(time.February, 10))
			f.allowLock("LN-1")
			f.stored(loan, txs, entries)

			_, err := f.loanService.Chargeback(context.Background(), "LN-1", tt.txID, &domain.ChargebackRequest{
				TransactionDate: "2023-02-10",
				Amount:          dec(tt.amount),
			})

			assert.ErrorIs(t, err, tt.expected)
			f.transactions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestLoanService_ReverseTransaction(t *testing.T) {
	loan := testLoan()
	fd := &feed{loan: loan}
	fd.add(domain.TxDisbursement, day(time.January, 1), "1000")
	repayment := fd.add(domain.TxRepayment, day(time.February, 1), "507.51")
	txs, entries := fd.computed(t)

	f := newFixture(t, day(time.February, 10))
	f.allowLock("LN-1")
	f.stored(loan, txs, entries)
	f.allowCommit()

	reversed, err := f.loanService.ReverseTransaction(context.Background(), "LN-1", repayment.ID)

	require.NoError(t, err)
	assert.True(t, reversed.Reversed)
	f.transactions.AssertCalled(t, "MarkReversed", mock.Anything, repayment.ID, day(time.February, 10))
	f.transactions.AssertNotCalled(t, "UpdateComputed", mock.Anything, mock.Anything)

	// the repayment's three legs are reversed on the business date
	f.journal.AssertCalled(t, "MarkReversed", mock.Anything, mock.MatchedBy(func(ids []uuid.UUID) bool {
		return len(ids) == 3
	}))
	posted := f.createdEntries()
	require.Len(t, posted, 3)
	for _, e := range posted {
		assert.True(t, e.Reversal)
		assert.Equal(t, repayment.ID, e.TransactionID)
		assert.True(t, e.EntryDate.Equal(day(time.February, 10)))
	}
	assert.True(t, accounting.Balanced(posted))
	assert.Equal(t, []events.Type{events.TransactionReversed}, f.publisher.Types())
}

func TestLoanService_ReverseTransaction_Rejected(t *testing.T) {
	loan := testLoan()
	fd := &feed{loan: loan}
	disbursement := fd.add(domain.TxDisbursement, day(time.January, 1), "1000")
	fd.add(domain.TxRepayment, day(time.February, 1), "507.51")
	charged := fd.add(domain.TxRepayment, day(time.February, 5), "20")
	cb := fd.add(domain.TxChargeback, day(time.February, 6), "20")
	cb.OriginalTransactionID = &charged.ID
	old := fd.add(domain.TxRepayment, day(time.February, 7), "5")
	txs, entries := fd.computed(t)
	for _, tx := range txs {
		if tx.ID == old.ID {
			reversedOn := day(time.February, 8)
			tx.Reversed = true
			tx.ReversedOn = &reversedOn
		}
	}

	tests := []struct {
		name     string
		txID     uuid.UUID
		expected error
	}{
		{name: "already reversed", txID: old.ID, expected: pkgerrors.ErrTransactionAlreadyReversed},
		{name: "charged back", txID: charged.ID, expected: pkgerrors.ErrReversalNotAllowed},
		{name: "disbursement with repayments", txID: disbursement.ID, expected: pkgerrors.ErrReversalNotAllowed},
		{name: "unknown", txID: uuid.New(), expected: pkgerrors.ErrTransactionNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, day(time.February, 10))
			f.allowLock("LN-1")
			f.stored(loan, txs, entries)

			_, err := f.loanService.ReverseTransaction(context.Background(), "LN-1", tt.txID)

			assert.ErrorIs(t, err, tt.expected)
			f.transactions.AssertNotCalled(t, "MarkReversed", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestLoanService_ExecuteBatch(t *testing.T) {
	loan := testLoan()
	fd := &feed{loan: loan}
	fd.add(domain.TxDisbursement, day(time.January, 1), "1000")
	txs, entries := fd.computed(t)

	t.Run("posts every transaction under one lock", func(t *testing.T) {
		f := newFixture(t, day(time.March, 1))
		f.allowLock("LN-1")
		f.stored(loan, txs, entries)
		f.allowCommit()

		posted, err := f.loanService.ExecuteBatch(context.Background(), "LN-1", &domain.BatchTransactionRequest{
			Transactions: []domain.PostTransactionRequest{
				{Type: domain.TxRepayment, TransactionDate: "2023-02-01", Amount: dec("507.51")},
				{Type: domain.TxRepayment, TransactionDate: "2023-03-01", Amount: dec("100")},
			},
		})

		require.NoError(t, err)
		assert.Len(t, posted, 2)
		f.locker.AssertNumberOfCalls(t, "Lock", 1)
		assert.Equal(t, 1, f.releases)
		assert.Equal(t, 3, f.txManager.Calls)
		f.publisher.AssertNumberOfCalls(t, "Publish", 1)
		assert.Equal(t, []events.Type{events.TransactionPosted, events.TransactionPosted}, f.publisher.Types())
		assert.Equal(t, 2, f.observer.transactions["REPAYMENT"])
	})

	t.Run("failing command aborts the batch", func(t *testing.T) {
		f := newFixture(t, day(time.March, 1))
		f.allowLock("LN-1")
		f.stored(loan, txs, entries)
		f.allowCommit()

		_, err := f.loanService.ExecuteBatch(context.Background(), "LN-1", &domain.BatchTransactionRequest{
			Transactions: []domain.PostTransactionRequest{
				{Type: domain.TxRepayment, TransactionDate: "2023-02-01", Amount: dec("507.51")},
				{Type: domain.TxRepayment, TransactionDate: "2023-03-05", Amount: dec("100")},
			},
		})

		var batchErr *retry.BatchError
		require.True(t, errors.As(err, &batchErr))
		assert.Equal(t, 1, batchErr.Index)
		assert.ErrorIs(t, err, pkgerrors.ErrTransactionInFuture)
		f.locker.AssertNumberOfCalls(t, "Lock", 1)
		f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})

	t.Run("malformed date fails before locking", func(t *testing.T) {
		f := newFixture(t, day(time.March, 1))

		_, err := f.loanService.ExecuteBatch(context.Background(), "LN-1", &domain.BatchTransactionRequest{
			Transactions: []domain.PostTransactionRequest{
				{Type: domain.TxRepayment, TransactionDate: "2023-02-01", Amount: dec("1")},
				{Type: domain.TxRepayment, TransactionDate: "yesterday", Amount: dec("1")},
			},
		})

		var batchErr *retry.BatchError
		require.True(t, errors.As(err, &batchErr))
		assert.Equal(t, 1, batchErr.Index)
		assert.ErrorIs(t, err, pkgerrors.ErrInvalidDate)
		f.locker.AssertNotCalled(t, "Lock", mock.Anything, mock.Anything)
	})
}

func TestLoanService_AddCharge(t *testing.T) {
	loan := testLoan()
	fd := &feed{loan: loan}
	fd.add(domain.TxDisbursement, day(time.January, 1), "1000")
	txs, entries := fd.computed(t)

	f := newFixture(t, day(time.January, 15))
	f.allowLock("LN-1")
	f.stored(loan, txs, entries)
	f.allowCommit()

	charge, err := f.loanService.AddCharge(context.Background(), "LN-1", &domain.AddChargeRequest{
		Name: "late fee", Type: domain.ChargeFee, Amount: dec("20"), DueDate: "2023-01-20",
	})

	require.NoError(t, err)
	assert.Equal(t, loan.ID, charge.LoanID)
	f.charges.AssertCalled(t, "Create", mock.Anything, charge)
	f.loans.AssertCalled(t, "Update", mock.Anything, mock.MatchedBy(func(l *domain.Loan) bool {
		return l.TotalOutstanding.StringFixed(2) == "1035.02"
	}))
	assert.Equal(t, []events.Type{events.ChargeAdded}, f.publisher.Types())
}

func TestLoanService_SetFraud(t *testing.T) {
	loan := testLoan()
	fd := &feed{loan: loan}
	fd.add(domain.TxDisbursement, day(time.January, 1), "1000")
	chargeOff := fd.add(domain.TxChargeOff, day(time.February, 15), "0")
	txs, entries := fd.computed(t)

	t.Run("moves charge-off to the fraud expense account", func(t *testing.T) {
		f := newFixture(t, day(time.February, 20))
		f.allowLock("LN-1")
		f.stored(loan, txs, entries)
		f.allowCommit()

		updated, err := f.loanService.SetFraud(context.Background(), "LN-1", true)

		require.NoError(t, err)
		assert.True(t, updated.Fraud)
		assert.True(t, updated.ChargedOff)

		posted := f.createdEntries()
		require.Len(t, posted, 4)
		var fraudDebit bool
		for _, e := range posted {
			assert.Equal(t, chargeOff.ID, e.TransactionID)
			if e.Account == domain.AccountChargeOffFraudExpense && e.Type == domain.Debit && !e.Reversal {
				fraudDebit = true
			}
		}
		assert.True(t, fraudDebit)
		assert.Equal(t, []events.Type{events.LoanFraudUpdated}, f.publisher.Types())
	})

	t.Run("closed loan", func(t *testing.T) {
		closed := *loan
		closed.Status = domain.LoanStatusClosedObligationsMet
		f := newFixture(t, day(time.February, 20))
		f.allowLock("LN-1")
		f.stored(&closed, txs, entries)

		_, err := f.loanService.SetFraud(context.Background(), "LN-1", true)

		assert.ErrorIs(t, err, pkgerrors.ErrLoanNotActive)
	})
}

func TestLoanService_GetSchedule(t *testing.T) {
	loan := testLoan()
	fd := &feed{loan: loan}
	fd.add(domain.TxDisbursement, day(time.January, 1), "1000")
	txs, entries := fd.computed(t)
	businessDate := day(time.January, 10)

	t.Run("cache hit", func(t *testing.T) {
		f := newFixture(t, businessDate)
		cached := &domain.RepaymentSchedule{LoanID: "LN-1"}
		f.loans.On("GetByLoanID", mock.Anything, "LN-1").Return(loan, nil)
		f.cache.On("Get", mock.Anything, "LN-1", int64(3), businessDate).Return(cached, nil)

		view, err := f.loanService.GetSchedule(context.Background(), "LN-1")

		require.NoError(t, err)
		assert.Same(t, cached, view)
		f.transactions.AssertNotCalled(t, "ListByLoan", mock.Anything, mock.Anything)
		assert.Equal(t, []bool{true}, f.observer.cacheHits)
	})

	t.Run("cache miss replays and stores", func(t *testing.T) {
		f := newFixture(t, businessDate)
		f.stored(loan, txs, entries)
		f.cache.On("Get", mock.Anything, "LN-1", int64(3), businessDate).Return(nil, nil)
		f.cache.On("Set", mock.Anything, mock.MatchedBy(func(s *domain.RepaymentSchedule) bool {
			return s.LoanID == "LN-1" && len(s.Periods) == 3
		}), int64(3), businessDate).Return(nil)

		view, err := f.loanService.GetSchedule(context.Background(), "LN-1")

		require.NoError(t, err)
		assert.Equal(t, domain.LoanStatusActive, view.Status)
		f.cache.AssertExpectations(t)
		assert.Equal(t, []bool{false}, f.observer.cacheHits)
	})

	t.Run("cache failure is not fatal", func(t *testing.T) {
		f := newFixture(t, businessDate)
		f.stored(loan, txs, entries)
		f.cache.On("Get", mock.Anything, "LN-1", int64(3), businessDate).Return(nil, pkgerrors.WrapCacheError(errors.New("down")))
		f.cache.On("Set", mock.Anything, mock.Anything, int64(3), businessDate).Return(pkgerrors.WrapCacheError(errors.New("down")))

		view, err := f.loanService.GetSchedule(context.Background(), "LN-1")

		require.NoError(t, err)
		assert.Len(t, view.Periods, 3)
	})
}

func TestLoanService_GetLoan(t *testing.T) {
	loan := testLoan()
	fd := &feed{loan: loan}
	fd.add(domain.TxDisbursement, day(time.January, 1), "1000")
	fd.add(domain.TxRepayment, day(time.February, 1), "507.51")
	txs, entries := fd.computed(t)

	f := newFixture(t, day(time.February, 10))
	f.stored(loan, txs, entries)

	summary, err := f.loanService.GetLoan(context.Background(), "LN-1")

	require.NoError(t, err)
	assert.Equal(t, "2023-02-10", summary.BusinessDate)
	assert.Equal(t, "1000.00", summary.PrincipalDisbursed.StringFixed(2))
	assert.Equal(t, "502.49", summary.PrincipalOutstanding.StringFixed(2))
	assert.True(t, summary.TotalOverdue.IsZero())
	assert.True(t, summary.OverpaidAmount.IsZero())
}

func TestLoanService_LoanNotFound(t *testing.T) {
	f := newFixture(t, day(time.February, 10))
	f.loans.On("GetByLoanID", mock.Anything, "missing").Return(nil, pkgerrors.WrapLoanNotFound("missing"))

	_, err := f.loanService.GetLoan(context.Background(), "missing")
	assert.ErrorIs(t, err, pkgerrors.ErrLoanNotFound)

	_, err = f.loanService.ListJournalEntries(context.Background(), "missing")
	assert.ErrorIs(t, err, pkgerrors.ErrLoanNotFound)
}
