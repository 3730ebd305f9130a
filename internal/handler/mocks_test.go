package handler

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/segyhp/loan-engine/internal/domain"
	"github.com/segyhp/loan-engine/internal/service"
)

type mockLoanService struct {
	mock.Mock
}

func (m *mockLoanService) CreateLoan(ctx context.Context, request *domain.CreateLoanRequest) (*domain.CreateLoanResponse, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CreateLoanResponse), args.Error(1)
}

func (m *mockLoanService) PreviewSchedule(ctx context.Context, request *domain.CreateLoanRequest) (*domain.RepaymentSchedule, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RepaymentSchedule), args.Error(1)
}

func (m *mockLoanService) GetLoan(ctx context.Context, loanID string) (*domain.LoanSummary, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LoanSummary), args.Error(1)
}

func (m *mockLoanService) GetSchedule(ctx context.Context, loanID string) (*domain.RepaymentSchedule, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RepaymentSchedule), args.Error(1)
}

func (m *mockLoanService) PostTransaction(ctx context.Context, loanID string, request *domain.PostTransactionRequest) (*domain.Transaction, error) {
	args := m.Called(ctx, loanID, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *mockLoanService) ExecuteBatch(ctx context.Context, loanID string, request *domain.BatchTransactionRequest) ([]*domain.Transaction, error) {
	args := m.Called(ctx, loanID, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Transaction), args.Error(1)
}

func (m *mockLoanService) Chargeback(ctx context.Context, loanID string, txID uuid.UUID, request *domain.ChargebackRequest) (*domain.Transaction, error) {
	args := m.Called(ctx, loanID, txID, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *mockLoanService) ReverseTransaction(ctx context.Context, loanID string, txID uuid.UUID) (*domain.Transaction, error) {
	args := m.Called(ctx, loanID, txID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *mockLoanService) AddCharge(ctx context.Context, loanID string, request *domain.AddChargeRequest) (*domain.Charge, error) {
	args := m.Called(ctx, loanID, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Charge), args.Error(1)
}

func (m *mockLoanService) SetFraud(ctx context.Context, loanID string, fraud bool) (*domain.Loan, error) {
	args := m.Called(ctx, loanID, fraud)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

func (m *mockLoanService) ListJournalEntries(ctx context.Context, loanID string) ([]*domain.JournalEntry, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.JournalEntry), args.Error(1)
}

type mockDelinquencyService struct {
	mock.Mock
}

func (m *mockDelinquencyService) CreateBucket(ctx context.Context, request *domain.CreateBucketRequest) (*domain.DelinquencyBucket, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DelinquencyBucket), args.Error(1)
}

func (m *mockDelinquencyService) GetBucket(ctx context.Context, id uuid.UUID) (*domain.DelinquencyBucket, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DelinquencyBucket), args.Error(1)
}

func (m *mockDelinquencyService) GetLoanDelinquency(ctx context.Context, loanID string) (*domain.LoanDelinquency, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LoanDelinquency), args.Error(1)
}

func (m *mockDelinquencyService) AddAction(ctx context.Context, loanID string, request *domain.DelinquencyActionRequest) (*domain.DelinquencyAction, error) {
	args := m.Called(ctx, loanID, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DelinquencyAction), args.Error(1)
}

func (m *mockDelinquencyService) RunCOB(ctx context.Context) (*service.COBReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.COBReport), args.Error(1)
}
