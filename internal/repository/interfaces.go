package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/segyhp/loan-engine/internal/domain"
)

// TxManager runs a function inside a database transaction carried by ctx.
type TxManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// LoanRepository defines the interface for loan data operations
type LoanRepository interface {
	// Create creates a new loan
	Create(ctx context.Context, loan *domain.Loan) error

	// GetByLoanID retrieves a loan by its loan ID
	GetByLoanID(ctx context.Context, loanID string) (*domain.Loan, error)

	// Update stores the derived state of a loan. It fails with ErrConcurrentModification
	// when the stored version moved since the loan was read, and bumps loan.Version.
	Update(ctx context.Context, loan *domain.Loan) error

	// ListOpenLoanIDs returns the ids of loans that can be delinquent
	ListOpenLoanIDs(ctx context.Context) ([]string, error)
}

// TransactionRepository defines the interface for the loan transaction feed
type TransactionRepository interface {
	Create(ctx context.Context, tx *domain.Transaction) error

	GetByID(ctx context.Context, loanID, id uuid.UUID) (*domain.Transaction, error)

	// ListByLoan returns every transaction of a loan, reversed ones included
	ListByLoan(ctx context.Context, loanID uuid.UUID) ([]*domain.Transaction, error)

	// UpdateComputed writes the amount and portions replay computed for each transaction
	UpdateComputed(ctx context.Context, txs []*domain.Transaction) error

	MarkReversed(ctx context.Context, id uuid.UUID, reversedOn time.Time) error
}

// ChargeRepository defines the interface for loan charges
type ChargeRepository interface {
	Create(ctx context.Context, charge *domain.Charge) error
	ListByLoan(ctx context.Context, loanID uuid.UUID) ([]*domain.Charge, error)
}

// JournalRepository defines the interface for accounting entries
type JournalRepository interface {
	Create(ctx context.Context, entries []*domain.JournalEntry) error
	ListByLoan(ctx context.Context, loanID uuid.UUID) ([]*domain.JournalEntry, error)
	MarkReversed(ctx context.Context, ids []uuid.UUID) error
}

// DelinquencyRepository defines the interface for buckets, actions and tag history
type DelinquencyRepository interface {
	CreateBucket(ctx context.Context, bucket *domain.DelinquencyBucket) error
	GetBucket(ctx context.Context, id uuid.UUID) (*domain.DelinquencyBucket, error)

	CreateAction(ctx context.Context, action *domain.DelinquencyAction) error
	ListActions(ctx context.Context, loanID uuid.UUID) ([]domain.DelinquencyAction, error)

	// ActiveTag returns the tag not lifted yet, or nil
	ActiveTag(ctx context.Context, loanID uuid.UUID) (*domain.DelinquencyTag, error)
	LiftTag(ctx context.Context, id uuid.UUID, liftedOn time.Time) error
	AddTag(ctx context.Context, tag *domain.DelinquencyTag) error
	ListTags(ctx context.Context, loanID uuid.UUID) ([]*domain.DelinquencyTag, error)
}

// ScheduleCache caches rendered schedules per loan version and business date
type ScheduleCache interface {
	Get(ctx context.Context, loanID string, version int64, businessDate time.Time) (*domain.RepaymentSchedule, error)
	Set(ctx context.Context, schedule *domain.RepaymentSchedule, version int64, businessDate time.Time) error
}

// LoanLocker serialises writers of one loan across service instances
type LoanLocker interface {
	// Lock acquires the loan lock or fails with ErrLoanLocked. The returned function releases it.
	Lock(ctx context.Context, loanID string) (func(ctx context.Context) error, error)
}
