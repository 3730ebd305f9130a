package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Allocation strategies for repayment-like transactions
const (
	AllocationHorizontal = "HORIZONTAL"
	AllocationVertical   = "VERTICAL"
)

// Allocation components
const (
	ComponentPenalty   = "PENALTY"
	ComponentFee       = "FEE"
	ComponentInterest  = "INTEREST"
	ComponentPrincipal = "PRINCIPAL"
)

// DefaultAllocationOrder is used when a product does not configure one.
var DefaultAllocationOrder = []string{ComponentPenalty, ComponentFee, ComponentInterest, ComponentPrincipal}

// Default GL account codes
const (
	AccountFundSource            = "1000-FUND-SOURCE"
	AccountLoanPortfolio         = "1100-LOAN-PORTFOLIO"
	AccountOverpayment           = "2100-OVERPAYMENT-LIABILITY"
	AccountInterestIncome        = "4000-INTEREST-INCOME"
	AccountFeeIncome             = "4100-FEE-INCOME"
	AccountPenaltyIncome         = "4200-PENALTY-INCOME"
	AccountRecoveryIncome        = "4300-RECOVERY-INCOME"
	AccountChargeOffExpense      = "5000-CHARGE-OFF-EXPENSE"
	AccountChargeOffFraudExpense = "5100-CHARGE-OFF-FRAUD-EXPENSE"
	AccountGoodwillExpense       = "5200-GOODWILL-EXPENSE"
)

// GLAccounts maps the accounting concerns of a loan product to ledger accounts.
type GLAccounts struct {
	FundSource            string `json:"fund_source"`
	LoanPortfolio         string `json:"loan_portfolio"`
	Overpayment           string `json:"overpayment"`
	InterestIncome        string `json:"interest_income"`
	FeeIncome             string `json:"fee_income"`
	PenaltyIncome         string `json:"penalty_income"`
	RecoveryIncome        string `json:"recovery_income"`
	ChargeOffExpense      string `json:"charge_off_expense"`
	ChargeOffFraudExpense string `json:"charge_off_fraud_expense"`
	GoodwillExpense       string `json:"goodwill_expense"`
}

func (a *GLAccounts) applyDefaults() {
	defaults := []struct {
		field *string
		value string
	}{
		{&a.FundSource, AccountFundSource},
		{&a.LoanPortfolio, AccountLoanPortfolio},
		{&a.Overpayment, AccountOverpayment},
		{&a.InterestIncome, AccountInterestIncome},
		{&a.FeeIncome, AccountFeeIncome},
		{&a.PenaltyIncome, AccountPenaltyIncome},
		{&a.RecoveryIncome, AccountRecoveryIncome},
		{&a.ChargeOffExpense, AccountChargeOffExpense},
		{&a.ChargeOffFraudExpense, AccountChargeOffFraudExpense},
		{&a.GoodwillExpense, AccountGoodwillExpense},
	}
	for _, d := range defaults {
		if *d.field == "" {
			*d.field = d.value
		}
	}
}

// LoanTerms is the product configuration copied onto a loan when it is created.
// It is stored as a JSONB column.
type LoanTerms struct {
	CurrencyCode                             string          `json:"currency_code"`
	CurrencyDigits                           int32           `json:"currency_digits"`
	InMultiplesOf                            int64           `json:"in_multiples_of,omitempty"`
	RoundingMode                             string          `json:"rounding_mode"`
	AnnualInterestRate                       decimal.Decimal `json:"annual_interest_rate"`
	DaysInYear                               string          `json:"days_in_year"`
	DaysInMonth                              string          `json:"days_in_month"`
	RepaymentFrequency                       string          `json:"repayment_frequency"`
	RepaymentEvery                           int             `json:"repayment_every"`
	NumberOfRepayments                       int             `json:"number_of_repayments"`
	InstallmentAmountInMultiplesOf           int64           `json:"installment_amount_in_multiples_of,omitempty"`
	MinDaysBetweenDisbursalAndFirstRepayment int             `json:"min_days_between_disbursal_and_first_repayment,omitempty"`
	AllocationStrategy                       string          `json:"allocation_strategy"`
	AllocationOrder                          []string        `json:"allocation_order"`
	EnableInstallmentLevelDelinquency        bool            `json:"enable_installment_level_delinquency"`
	DelinquencyBucketID                      *uuid.UUID      `json:"delinquency_bucket_id,omitempty"`
	Accounts                                 GLAccounts      `json:"accounts"`
}

// ApplyDefaults fills unset terms with the platform defaults.
func (t *LoanTerms) ApplyDefaults(defaultCurrency string) {
	if t.CurrencyCode == "" {
		t.CurrencyCode = defaultCurrency
	}
	if t.CurrencyDigits == 0 {
		t.CurrencyDigits = 2
	}
	if t.RoundingMode == "" {
		t.RoundingMode = "HALF_EVEN"
	}
	if t.DaysInYear == "" {
		t.DaysInYear = "ACTUAL"
	}
	if t.DaysInMonth == "" {
		t.DaysInMonth = "ACTUAL"
	}
	if t.RepaymentFrequency == "" {
		t.RepaymentFrequency = "MONTHS"
	}
	if t.RepaymentEvery == 0 {
		t.RepaymentEvery = 1
	}
	if t.AllocationStrategy == "" {
		t.AllocationStrategy = AllocationHorizontal
	}
	if len(t.AllocationOrder) == 0 {
		t.AllocationOrder = append([]string(nil), DefaultAllocationOrder...)
	}
	t.Accounts.applyDefaults()
}

// ValidateAllocation checks the strategy and that the order is a permutation of all components.
func (t LoanTerms) ValidateAllocation() error {
	if t.AllocationStrategy != AllocationHorizontal && t.AllocationStrategy != AllocationVertical {
		return fmt.Errorf("unknown allocation strategy %q", t.AllocationStrategy)
	}
	if len(t.AllocationOrder) != len(DefaultAllocationOrder) {
		return fmt.Errorf("allocation order must list %d components", len(DefaultAllocationOrder))
	}
	seen := make(map[string]bool, len(t.AllocationOrder))
	for _, c := range t.AllocationOrder {
		switch c {
		case ComponentPenalty, ComponentFee, ComponentInterest, ComponentPrincipal:
		default:
			return fmt.Errorf("unknown allocation component %q", c)
		}
		if seen[c] {
			return fmt.Errorf("duplicate allocation component %q", c)
		}
		seen[c] = true
	}
	return nil
}

// Value implements driver.Valuer.
func (t LoanTerms) Value() (driver.Value, error) {
	return json.Marshal(t)
}

// Scan implements sql.Scanner.
func (t *LoanTerms) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, t)
	case string:
		return json.Unmarshal([]byte(v), t)
	case nil:
		*t = LoanTerms{}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into LoanTerms", src)
	}
}
