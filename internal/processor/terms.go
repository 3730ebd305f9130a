package processor

import (
	"fmt"
	"time"

	"github.com/segyhp/loan-engine/internal/domain"
	"github.com/segyhp/loan-engine/internal/schedule"
	pkgerrors "github.com/segyhp/loan-engine/pkg/errors"
	"github.com/segyhp/loan-engine/pkg/money"
	"github.com/segyhp/loan-engine/pkg/utils"
)

// NewCalculator builds the schedule calculator for a loan's terms.
func NewCalculator(terms domain.LoanTerms) (*schedule.Calculator, error) {
	currency, err := money.NewCurrency(terms.CurrencyCode, terms.CurrencyDigits, terms.InMultiplesOf)
	if err != nil {
		return nil, err
	}
	rounding, err := money.ParseRoundingMode(terms.RoundingMode)
	if err != nil {
		return nil, err
	}
	daysInYear, err := schedule.ParseDaysInYear(terms.DaysInYear)
	if err != nil {
		return nil, err
	}
	daysInMonth, err := schedule.ParseDaysInMonth(terms.DaysInMonth)
	if err != nil {
		return nil, err
	}
	if terms.AnnualInterestRate.IsNegative() {
		return nil, fmt.Errorf("annual interest rate must not be negative")
	}

	return schedule.NewCalculator(schedule.Config{
		Currency:                       currency,
		MathContext:                    money.MathContext{Precision: money.DefaultMathContext.Precision, Rounding: rounding},
		AnnualNominalInterestRate:      terms.AnnualInterestRate,
		DayCount:                       schedule.DayCount{DaysInYear: daysInYear, DaysInMonth: daysInMonth},
		InstallmentAmountInMultiplesOf: terms.InstallmentAmountInMultiplesOf,
	}), nil
}

// NewPlan describes the repayment periods of a loan disbursed on disbursementDate.
func NewPlan(terms domain.LoanTerms, disbursementDate, firstRepaymentDate time.Time) (schedule.Plan, error) {
	frequency, err := schedule.ParseFrequency(terms.RepaymentFrequency)
	if err != nil {
		return schedule.Plan{}, err
	}
	plan := schedule.Plan{
		DisbursementDate:   disbursementDate,
		FirstRepaymentDate: firstRepaymentDate,
		Frequency:          frequency,
		RepaymentEvery:     terms.RepaymentEvery,
		NumberOfRepayments: terms.NumberOfRepayments,
	}
	return plan, plan.Validate()
}

// ValidateLoan checks the terms of a loan before it is approved.
func ValidateLoan(loan *domain.Loan) error {
	if !loan.Principal.IsPositive() {
		return pkgerrors.WrapInvalidAmount(loan.Principal.String())
	}
	if _, err := NewCalculator(loan.Terms); err != nil {
		return pkgerrors.WrapInvalidLoanTerms(err)
	}
	if err := loan.Terms.ValidateAllocation(); err != nil {
		return pkgerrors.WrapInvalidLoanTerms(err)
	}
	if _, err := NewPlan(loan.Terms, loan.ExpectedDisbursementDate, loan.FirstRepaymentDate); err != nil {
		return pkgerrors.WrapInvalidLoanTerms(err)
	}
	return validateMinDaysToFirstRepayment(loan, loan.ExpectedDisbursementDate)
}

func validateMinDaysToFirstRepayment(loan *domain.Loan, disbursementDate time.Time) error {
	minDays := loan.Terms.MinDaysBetweenDisbursalAndFirstRepayment
	if minDays <= 0 {
		return nil
	}
	if days := utils.DaysBetween(disbursementDate, loan.FirstRepaymentDate); days < minDays {
		return pkgerrors.WrapTransactionRejected(pkgerrors.ErrMinDaysBetweenDisbursalAndFirst,
			fmt.Sprintf("first repayment on %s is %d days after disbursement on %s, minimum is %d",
				utils.FormatDate(loan.FirstRepaymentDate), days, utils.FormatDate(disbursementDate), minDays))
	}
	return nil
}
