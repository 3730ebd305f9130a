package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ChargeType string

const (
	ChargeFee     ChargeType = "FEE"
	ChargePenalty ChargeType = "PENALTY"
)

// Charge is a specified-due-date fee or penalty booked on a loan.
type Charge struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	LoanID    uuid.UUID       `json:"loan_id" db:"loan_id"`
	Name      string          `json:"name" db:"name"`
	Type      ChargeType      `json:"type" db:"type"`
	Amount    decimal.Decimal `json:"amount" db:"amount"`
	DueDate   time.Time       `json:"due_date" db:"due_date"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

type AddChargeRequest struct {
	Name    string          `json:"name" validate:"required,max=100"`
	Type    ChargeType      `json:"type" validate:"required,oneof=FEE PENALTY"`
	Amount  decimal.Decimal `json:"amount" validate:"decimal_gt=0"`
	DueDate string          `json:"due_date" validate:"required,datetime=2006-01-02"`
}
