package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/loan-engine/internal/accounting"
	"github.com/segyhp/loan-engine/internal/domain"
	"github.com/segyhp/loan-engine/internal/mocks"
	"github.com/segyhp/loan-engine/internal/processor"
	"github.com/segyhp/loan-engine/internal/retry"
	"github.com/segyhp/loan-engine/pkg/utils"
)

var created = time.Date(2023, time.January, 1, 9, 0, 0, 0, time.UTC)

func day(month time.Month, d int) time.Time {
	return utils.Date(2023, month, d)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type recordingObserver struct {
	noopObserver
	transactions map[string]int
	cobFailed    int
	cobCounts    map[string]int
	cacheHits    []bool
}

func (o *recordingObserver) ObserveTransaction(txType string, _ error) {
	o.transactions[txType]++
}

func (o *recordingObserver) ObserveCacheLookup(hit bool) {
	o.cacheHits = append(o.cacheHits, hit)
}

func (o *recordingObserver) ObserveCOB(_ time.Duration, failed int, counts map[string]int) {
	o.cobFailed = failed
	o.cobCounts = counts
}

type fixture struct {
	loans        *mocks.MockLoanRepository
	transactions *mocks.MockTransactionRepository
	charges      *mocks.MockChargeRepository
	journal      *mocks.MockJournalRepository
	delinquency  *mocks.MockDelinquencyRepository
	cache        *mocks.MockScheduleCache
	locker       *mocks.MockLoanLocker
	publisher    *mocks.MockPublisher
	txManager    *mocks.TxManager
	observer     *recordingObserver

	releases           int
	loanService        *LoanService
	delinquencyService *DelinquencyService
}

func newFixture(t *testing.T, businessDate time.Time) *fixture {
	t.Helper()
	f := &fixture{
		loans:        &mocks.MockLoanRepository{},
		transactions: &mocks.MockTransactionRepository{},
		charges:      &mocks.MockChargeRepository{},
		journal:      &mocks.MockJournalRepository{},
		delinquency:  &mocks.MockDelinquencyRepository{},
		cache:        &mocks.MockScheduleCache{},
		locker:       &mocks.MockLoanLocker{},
		publisher:    &mocks.MockPublisher{},
		txManager:    &mocks.TxManager{},
		observer:     &recordingObserver{transactions: make(map[string]int)},
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	deps := Dependencies{
		Loans:        f.loans,
		Transactions: f.transactions,
		Charges:      f.charges,
		Journal:      f.journal,
		Delinquency:  f.delinquency,
		TxManager:    f.txManager,
		Cache:        f.cache,
		Locker:       f.locker,
		Publisher:    f.publisher,
		Retry:        retry.New(retry.Config{MaxAttempts: 3}, logger),
		Observer:     f.observer,
		Clock:        FixedClock(businessDate),
		Currency:     "USD",
		Logger:       logger,
	}
	f.loanService = NewLoanService(deps)
	f.delinquencyService = NewDelinquencyService(deps)

	f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil).Maybe()
	return f
}

// allowLock lets every command take the loan lock and counts the releases.
func (f *fixture) allowLock(loanID string) {
	release := func(context.Context) error {
		f.releases++
		return nil
	}
	f.locker.On("Lock", mock.Anything, loanID).Return(release, nil)
}

// stored makes loan readable with its feed and the journal already posted for it.
func (f *fixture) stored(loan *domain.Loan, txs []*domain.Transaction, entries []*domain.JournalEntry) {
	f.loans.On("GetByLoanID", mock.Anything, loan.LoanID).Return(loan, nil)
	f.transactions.On("ListByLoan", mock.Anything, loan.ID).Return(txs, nil)
	f.charges.On("ListByLoan", mock.Anything, loan.ID).Return([]*domain.Charge{}, nil)
	f.journal.On("ListByLoan", mock.Anything, loan.ID).Return(entries, nil)
}

// allowCommit accepts every write a command may do.
func (f *fixture) allowCommit() {
	f.transactions.On("Create", mock.Anything, mock.Anything).Return(nil).Maybe()
	f.transactions.On("UpdateComputed", mock.Anything, mock.Anything).Return(nil).Maybe()
	f.transactions.On("MarkReversed", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	f.charges.On("Create", mock.Anything, mock.Anything).Return(nil).Maybe()
	f.loans.On("Update", mock.Anything, mock.Anything).Return(nil).Maybe()
	f.journal.On("MarkReversed", mock.Anything, mock.Anything).Return(nil).Maybe()
	f.journal.On("Create", mock.Anything, mock.Anything).Return(nil).Maybe()
}

// createdEntries returns the journal entries of every Create call.
func (f *fixture) createdEntries() []*domain.JournalEntry {
	var entries []*domain.JournalEntry
	for _, call := range f.journal.Calls {
		if call.Method == "Create" {
			entries = append(entries, call.Arguments.Get(1).([]*domain.JournalEntry)...)
		}
	}
	return entries
}

// testLoan is 1000 USD at 12% on 30/360, disbursed Jan 1 and repaid in two monthly
// installments of 507.51 from Feb 1.
func testLoan() *domain.Loan {
	terms := domain.LoanTerms{
		AnnualInterestRate: decimal.NewFromInt(12),
		DaysInYear:         "DAYS_360",
		DaysInMonth:        "DAYS_30",
		NumberOfRepayments: 2,
	}
	terms.ApplyDefaults("USD")
	return &domain.Loan{
		ID:                       uuid.New(),
		LoanID:                   "LN-1",
		Principal:                dec("1000"),
		Terms:                    terms,
		ExpectedDisbursementDate: day(time.January, 1),
		FirstRepaymentDate:       day(time.February, 1),
		Status:                   domain.LoanStatusActive,
		Version:                  3,
	}
}

type feed struct {
	loan *domain.Loan
	txs  []*domain.Transaction
}

func (f *feed) add(txType domain.TransactionType, date time.Time, amount string) *domain.Transaction {
	tx := &domain.Transaction{
		ID:              uuid.New(),
		LoanID:          f.loan.ID,
		ExternalID:      uuid.NewString(),
		Type:            txType,
		TransactionDate: date,
		Amount:          dec(amount),
		CreatedAt:       created.Add(time.Duration(len(f.txs)) * time.Minute),
	}
	f.txs = append(f.txs, tx)
	return tx
}

// computed replays the feed the way a previous command stored it, with splits and the
// journal posted for it.
func (f *feed) computed(t *testing.T) ([]*domain.Transaction, []*domain.JournalEntry) {
	t.Helper()
	result, err := processor.Replay(f.loan, f.txs, nil)
	require.NoError(t, err)

	var chargeOffDate *time.Time
	if date, ok := result.ChargedOff(); ok {
		chargeOffDate = &date
	}
	journal := accounting.NewJournal(f.loan, chargeOffDate)

	var entries []*domain.JournalEntry
	byID := make(map[uuid.UUID]*domain.Transaction)
	for _, tx := range result.Transactions() {
		byID[tx.ID] = tx
		entries = append(entries, journal.Entries(tx)...)
	}
	txs := make([]*domain.Transaction, 0, len(f.txs))
	for _, tx := range f.txs {
		if r, ok := byID[tx.ID]; ok {
			stored := *r
			txs = append(txs, &stored)
			continue
		}
		txs = append(txs, tx)
	}
	return txs, entries
}
