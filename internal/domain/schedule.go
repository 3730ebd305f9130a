package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Installment statuses shown in the schedule view
const (
	InstallmentStatusScheduled     = "SCHEDULED"
	InstallmentStatusPartiallyPaid = "PARTIALLY_PAID"
	InstallmentStatusFullyPaid     = "FULLY_PAID"
	InstallmentStatusOverdue       = "OVERDUE"
)

// ScheduleRow is one line of the repayment schedule view. Period 0 is the disbursement row.
type ScheduleRow struct {
	Period               int             `json:"period"`
	FromDate             *time.Time      `json:"from_date,omitempty"`
	DueDate              time.Time       `json:"due_date"`
	DaysInPeriod         int             `json:"days_in_period"`
	PrincipalDisbursed   decimal.Decimal `json:"principal_disbursed"`
	PrincipalDue         decimal.Decimal `json:"principal_due"`
	PrincipalPaid        decimal.Decimal `json:"principal_paid"`
	PrincipalOutstanding decimal.Decimal `json:"principal_outstanding"`
	InterestDue          decimal.Decimal `json:"interest_due"`
	InterestPaid         decimal.Decimal `json:"interest_paid"`
	InterestOutstanding  decimal.Decimal `json:"interest_outstanding"`
	FeeDue               decimal.Decimal `json:"fee_due"`
	FeePaid              decimal.Decimal `json:"fee_paid"`
	PenaltyDue           decimal.Decimal `json:"penalty_due"`
	PenaltyPaid          decimal.Decimal `json:"penalty_paid"`
	TotalDue             decimal.Decimal `json:"total_due"`
	TotalPaid            decimal.Decimal `json:"total_paid"`
	TotalOutstanding     decimal.Decimal `json:"total_outstanding"`
	BalanceOfLoan        decimal.Decimal `json:"balance_of_loan"`
	Status               string          `json:"status,omitempty"`
}

type RepaymentSchedule struct {
	LoanID            string          `json:"loan_id"`
	Currency          string          `json:"currency"`
	Status            string          `json:"status"`
	TotalPrincipalDue decimal.Decimal `json:"total_principal_due"`
	TotalInterestDue  decimal.Decimal `json:"total_interest_due"`
	TotalFeeDue       decimal.Decimal `json:"total_fee_due"`
	TotalPenaltyDue   decimal.Decimal `json:"total_penalty_due"`
	TotalRepayment    decimal.Decimal `json:"total_repayment"`
	TotalPaid         decimal.Decimal `json:"total_paid"`
	TotalOutstanding  decimal.Decimal `json:"total_outstanding"`
	OverpaidAmount    decimal.Decimal `json:"overpaid_amount"`
	Periods           []ScheduleRow   `json:"periods"`
}
