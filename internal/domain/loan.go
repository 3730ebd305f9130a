package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Loan statuses. Only APPROVED is stored on creation; the rest are derived by replay.
const (
	LoanStatusApproved             = "APPROVED"
	LoanStatusActive               = "ACTIVE"
	LoanStatusOverpaid             = "OVERPAID"
	LoanStatusClosedObligationsMet = "CLOSED_OBLIGATIONS_MET"
)

// Loan represents a loan entity
type Loan struct {
	ID                       uuid.UUID       `json:"id" db:"id"`
	LoanID                   string          `json:"loan_id" db:"loan_id"`
	Principal                decimal.Decimal `json:"principal" db:"principal"`
	Terms                    LoanTerms       `json:"terms" db:"terms"`
	ExpectedDisbursementDate time.Time       `json:"expected_disbursement_date" db:"expected_disbursement_date"`
	FirstRepaymentDate       time.Time       `json:"first_repayment_date" db:"first_repayment_date"`
	Status                   string          `json:"status" db:"status"`
	ChargedOff               bool            `json:"charged_off" db:"charged_off"`
	ChargeOffDate            *time.Time      `json:"charge_off_date,omitempty" db:"charge_off_date"`
	Fraud                    bool            `json:"fraud" db:"fraud"`
	TotalOutstanding         decimal.Decimal `json:"total_outstanding" db:"total_outstanding"`
	OverpaidAmount           decimal.Decimal `json:"overpaid_amount" db:"overpaid_amount"`
	Version                  int64           `json:"version" db:"version"`
	CreatedAt                time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt                time.Time       `json:"updated_at" db:"updated_at"`
}

// IsOpen reports whether the loan can still accept transactions that move balances.
func (l *Loan) IsOpen() bool {
	return l.Status == LoanStatusActive || l.Status == LoanStatusOverpaid
}

// DTOs for requests and responses

type CreateLoanRequest struct {
	LoanID                                   string          `json:"loan_id" validate:"required"`
	Principal                                decimal.Decimal `json:"principal" validate:"decimal_gt=0"`
	AnnualInterestRate                       decimal.Decimal `json:"annual_interest_rate" validate:"decimal_gte=0"`
	ExpectedDisbursementDate                 string          `json:"expected_disbursement_date" validate:"required,datetime=2006-01-02"`
	FirstRepaymentDate                       string          `json:"first_repayment_date" validate:"required,datetime=2006-01-02"`
	NumberOfRepayments                       int             `json:"number_of_repayments" validate:"required,gt=0"`
	RepaymentEvery                           int             `json:"repayment_every" validate:"omitempty,gt=0"`
	RepaymentFrequency                       string          `json:"repayment_frequency" validate:"omitempty,oneof=DAYS WEEKS MONTHS"`
	DaysInYear                               string          `json:"days_in_year" validate:"omitempty,oneof=ACTUAL DAYS_360 DAYS_364 DAYS_365"`
	DaysInMonth                              string          `json:"days_in_month" validate:"omitempty,oneof=ACTUAL DAYS_30"`
	CurrencyCode                             string          `json:"currency_code" validate:"omitempty,len=3,uppercase"`
	CurrencyDigits                           int32           `json:"currency_digits" validate:"omitempty,gte=0,lte=6"`
	InMultiplesOf                            int64           `json:"in_multiples_of" validate:"omitempty,gt=0"`
	RoundingMode                             string          `json:"rounding_mode" validate:"omitempty,oneof=HALF_EVEN HALF_UP HALF_DOWN UP DOWN CEILING FLOOR"`
	InstallmentAmountInMultiplesOf           int64           `json:"installment_amount_in_multiples_of" validate:"omitempty,gt=0"`
	MinDaysBetweenDisbursalAndFirstRepayment int             `json:"min_days_between_disbursal_and_first_repayment" validate:"omitempty,gte=0"`
	AllocationStrategy                       string          `json:"allocation_strategy" validate:"omitempty,oneof=HORIZONTAL VERTICAL"`
	AllocationOrder                          []string        `json:"allocation_order" validate:"omitempty,len=4,dive,oneof=PENALTY FEE INTEREST PRINCIPAL"`
	EnableInstallmentLevelDelinquency        bool            `json:"enable_installment_level_delinquency"`
	DelinquencyBucketID                      *uuid.UUID      `json:"delinquency_bucket_id"`
	Accounts                                 GLAccounts      `json:"accounts"`
}

// Terms builds the loan terms carried by the request.
func (r *CreateLoanRequest) Terms() LoanTerms {
	return LoanTerms{
		CurrencyCode:                             r.CurrencyCode,
		CurrencyDigits:                           r.CurrencyDigits,
		InMultiplesOf:                            r.InMultiplesOf,
		RoundingMode:                             r.RoundingMode,
		AnnualInterestRate:                       r.AnnualInterestRate,
		DaysInYear:                               r.DaysInYear,
		DaysInMonth:                              r.DaysInMonth,
		RepaymentFrequency:                       r.RepaymentFrequency,
		RepaymentEvery:                           r.RepaymentEvery,
		NumberOfRepayments:                       r.NumberOfRepayments,
		InstallmentAmountInMultiplesOf:           r.InstallmentAmountInMultiplesOf,
		MinDaysBetweenDisbursalAndFirstRepayment: r.MinDaysBetweenDisbursalAndFirstRepayment,
		AllocationStrategy:                       r.AllocationStrategy,
		AllocationOrder:                          r.AllocationOrder,
		EnableInstallmentLevelDelinquency:        r.EnableInstallmentLevelDelinquency,
		DelinquencyBucketID:                      r.DelinquencyBucketID,
		Accounts:                                 r.Accounts,
	}
}

type CreateLoanResponse struct {
	Loan     *Loan              `json:"loan"`
	Schedule *RepaymentSchedule `json:"schedule"`
}

type FraudRequest struct {
	Fraud bool `json:"fraud"`
}

// LoanSummary is the balance view of a loan after replaying its transactions.
type LoanSummary struct {
	Loan                 *Loan           `json:"loan"`
	BusinessDate         string          `json:"business_date"`
	PrincipalDisbursed   decimal.Decimal `json:"principal_disbursed"`
	PrincipalOutstanding decimal.Decimal `json:"principal_outstanding"`
	InterestOutstanding  decimal.Decimal `json:"interest_outstanding"`
	FeeOutstanding       decimal.Decimal `json:"fee_outstanding"`
	PenaltyOutstanding   decimal.Decimal `json:"penalty_outstanding"`
	TotalOutstanding     decimal.Decimal `json:"total_outstanding"`
	TotalOverdue         decimal.Decimal `json:"total_overdue"`
	OverpaidAmount       decimal.Decimal `json:"overpaid_amount"`
}
