package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/segyhp/loan-engine/internal/domain"
)

// TxManager runs the function directly, counting how often a transaction was opened.
type TxManager struct {
	Calls int
}

func (m *TxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.Calls++
	return fn(ctx)
}

type MockLoanRepository struct {
	mock.Mock
}

func (m *MockLoanRepository) Create(ctx context.Context, loan *domain.Loan) error {
	args := m.Called(ctx, loan)
	return args.Error(0)
}

func (m *MockLoanRepository) GetByLoanID(ctx context.Context, loanID string) (*domain.Loan, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

func (m *MockLoanRepository) Update(ctx context.Context, loan *domain.Loan) error {
	args := m.Called(ctx, loan)
	return args.Error(0)
}

func (m *MockLoanRepository) ListOpenLoanIDs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, loanID, id uuid.UUID) (*domain.Transaction, error) {
	args := m.Called(ctx, loanID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) ListByLoan(ctx context.Context, loanID uuid.UUID) ([]*domain.Transaction, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) UpdateComputed(ctx context.Context, txs []*domain.Transaction) error {
	args := m.Called(ctx, txs)
	return args.Error(0)
}

func (m *MockTransactionRepository) MarkReversed(ctx context.Context, id uuid.UUID, reversedOn time.Time) error {
	args := m.Called(ctx, id, reversedOn)
	return args.Error(0)
}

type MockChargeRepository struct {
	mock.Mock
}

func (m *MockChargeRepository) Create(ctx context.Context, charge *domain.Charge) error {
	args := m.Called(ctx, charge)
	return args.Error(0)
}

func (m *MockChargeRepository) ListByLoan(ctx context.Context, loanID uuid.UUID) ([]*domain.Charge, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Charge), args.Error(1)
}

type MockJournalRepository struct {
	mock.Mock
}

func (m *MockJournalRepository) Create(ctx context.Context, entries []*domain.JournalEntry) error {
	args := m.Called(ctx, entries)
	return args.Error(0)
}

func (m *MockJournalRepository) ListByLoan(ctx context.Context, loanID uuid.UUID) ([]*domain.JournalEntry, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.JournalEntry), args.Error(1)
}

func (m *MockJournalRepository) MarkReversed(ctx context.Context, ids []uuid.UUID) error {
	args := m.Called(ctx, ids)
	return args.Error(0)
}

type MockDelinquencyRepository struct {
	mock.Mock
}

func (m *MockDelinquencyRepository) CreateBucket(ctx context.Context, bucket *domain.DelinquencyBucket) error {
	args := m.Called(ctx, bucket)
	return args.Error(0)
}

func (m *MockDelinquencyRepository) GetBucket(ctx context.Context, id uuid.UUID) (*domain.DelinquencyBucket, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DelinquencyBucket), args.Error(1)
}

func (m *MockDelinquencyRepository) CreateAction(ctx context.Context, action *domain.DelinquencyAction) error {
	args := m.Called(ctx, action)
	return args.Error(0)
}

func (m *MockDelinquencyRepository) ListActions(ctx context.Context, loanID uuid.UUID) ([]domain.DelinquencyAction, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DelinquencyAction), args.Error(1)
}

func (m *MockDelinquencyRepository) ActiveTag(ctx context.Context, loanID uuid.UUID) (*domain.DelinquencyTag, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DelinquencyTag), args.Error(1)
}

func (m *MockDelinquencyRepository) LiftTag(ctx context.Context, id uuid.UUID, liftedOn time.Time) error {
	args := m.Called(ctx, id, liftedOn)
	return args.Error(0)
}

func (m *MockDelinquencyRepository) AddTag(ctx context.Context, tag *domain.DelinquencyTag) error {
	args := m.Called(ctx, tag)
	return args.Error(0)
}

func (m *MockDelinquencyRepository) ListTags(ctx context.Context, loanID uuid.UUID) ([]*domain.DelinquencyTag, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.DelinquencyTag), args.Error(1)
}

type MockScheduleCache struct {
	mock.Mock
}

func (m *MockScheduleCache) Get(ctx context.Context, loanID string, version int64, businessDate time.Time) (*domain.RepaymentSchedule, error) {
	args := m.Called(ctx, loanID, version, businessDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RepaymentSchedule), args.Error(1)
}

func (m *MockScheduleCache) Set(ctx context.Context, schedule *domain.RepaymentSchedule, version int64, businessDate time.Time) error {
	args := m.Called(ctx, schedule, version, businessDate)
	return args.Error(0)
}

type MockLoanLocker struct {
	mock.Mock
}

func (m *MockLoanLocker) Lock(ctx context.Context, loanID string) (func(ctx context.Context) error, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(func(ctx context.Context) error), args.Error(1)
}
