package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DelinquencyRange classifies loans whose days past due fall in [MinDays, MaxDays].
// A nil MaxDays is open ended.
type DelinquencyRange struct {
	ID             uuid.UUID `json:"id" db:"id"`
	BucketID       uuid.UUID `json:"bucket_id" db:"bucket_id"`
	Classification string    `json:"classification" db:"classification"`
	MinDays        int       `json:"min_days" db:"min_days"`
	MaxDays        *int      `json:"max_days,omitempty" db:"max_days"`
}

// Contains reports whether days falls inside the range.
func (r DelinquencyRange) Contains(days int) bool {
	if days < r.MinDays {
		return false
	}
	return r.MaxDays == nil || days <= *r.MaxDays
}

type DelinquencyBucket struct {
	ID        uuid.UUID          `json:"id" db:"id"`
	Name      string             `json:"name" db:"name"`
	Ranges    []DelinquencyRange `json:"ranges" db:"-"`
	CreatedAt time.Time          `json:"created_at" db:"created_at"`
}

type DelinquencyActionType string

const (
	DelinquencyPause  DelinquencyActionType = "PAUSE"
	DelinquencyResume DelinquencyActionType = "RESUME"
)

// DelinquencyAction pauses day counting between StartDate and EndDate, or resumes
// it early on StartDate.
type DelinquencyAction struct {
	ID        uuid.UUID             `json:"id" db:"id"`
	LoanID    uuid.UUID             `json:"loan_id" db:"loan_id"`
	Action    DelinquencyActionType `json:"action" db:"action"`
	StartDate time.Time             `json:"start_date" db:"start_date"`
	EndDate   *time.Time            `json:"end_date,omitempty" db:"end_date"`
	CreatedAt time.Time             `json:"created_at" db:"created_at"`
}

// DelinquencyTag is one entry of a loan's classification history.
type DelinquencyTag struct {
	ID       uuid.UUID  `json:"id" db:"id"`
	LoanID   uuid.UUID  `json:"loan_id" db:"loan_id"`
	RangeID  uuid.UUID  `json:"range_id" db:"range_id"`
	AddedOn  time.Time  `json:"added_on" db:"added_on"`
	LiftedOn *time.Time `json:"lifted_on,omitempty" db:"lifted_on"`
}

// InstallmentDelinquency is the overdue amount of the installments falling into one range.
type InstallmentDelinquency struct {
	RangeID        uuid.UUID       `json:"range_id"`
	Classification string          `json:"classification"`
	MinDays        int             `json:"min_days"`
	MaxDays        *int            `json:"max_days,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
}

// LoanDelinquency is the classification of a loan on a business date.
type LoanDelinquency struct {
	LoanID           string                   `json:"loan_id"`
	BusinessDate     string                   `json:"business_date"`
	DelinquentDate   *time.Time               `json:"delinquent_date,omitempty"`
	DelinquentDays   int                      `json:"delinquent_days"`
	PastDueDays      int                      `json:"past_due_days"`
	DelinquentAmount decimal.Decimal          `json:"delinquent_amount"`
	Range            *DelinquencyRange        `json:"range,omitempty"`
	Paused           bool                     `json:"paused"`
	InstallmentLevel []InstallmentDelinquency `json:"installment_level,omitempty"`
	Actions          []DelinquencyAction      `json:"actions,omitempty"`
}

// DTOs for requests and responses

type DelinquencyRangeRequest struct {
	Classification string `json:"classification" validate:"required,max=100"`
	MinDays        int    `json:"min_days" validate:"gte=1"`
	MaxDays        *int   `json:"max_days" validate:"omitempty,gtefield=MinDays"`
}

type CreateBucketRequest struct {
	Name   string                    `json:"name" validate:"required,max=100"`
	Ranges []DelinquencyRangeRequest `json:"ranges" validate:"required,min=1,dive"`
}

type DelinquencyActionRequest struct {
	Action    DelinquencyActionType `json:"action" validate:"required,oneof=PAUSE RESUME"`
	StartDate string                `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string                `json:"end_date" validate:"required_if=Action PAUSE,omitempty,datetime=2006-01-02"`
}
