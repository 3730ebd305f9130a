package processor

import (
	"fmt"
	"time"

	"github.com/segyhp/loan-engine/internal/domain"
	pkgerrors "github.com/segyhp/loan-engine/pkg/errors"
	"github.com/segyhp/loan-engine/pkg/utils"
)

// ValidateTransaction checks a new transaction against the loan state it will be
// appended to.
func ValidateTransaction(loan *domain.Loan, state *Result, tx *domain.Transaction, businessDate time.Time) error {
	amount := state.money(tx.Amount)
	date := tx.TransactionDate

	if date.After(businessDate) {
		return pkgerrors.WrapTransactionRejected(pkgerrors.ErrTransactionInFuture,
			fmt.Sprintf("transaction date %s is after business date %s", utils.FormatDate(date), utils.FormatDate(businessDate)))
	}
	if tx.Type != domain.TxChargeOff && !amount.IsPositive() {
		return pkgerrors.WrapInvalidAmount(tx.Amount.String())
	}
	if chargeOffDate, chargedOff := state.ChargedOff(); chargedOff {
		if tx.Type == domain.TxChargeOff {
			return pkgerrors.WrapTransactionRejected(pkgerrors.ErrLoanChargedOff,
				fmt.Sprintf("loan was charged off on %s", utils.FormatDate(chargeOffDate)))
		}
		if date.Before(chargeOffDate) {
			return pkgerrors.WrapTransactionRejected(pkgerrors.ErrBeforeChargeOff,
				fmt.Sprintf("transaction date %s is before charge-off on %s", utils.FormatDate(date), utils.FormatDate(chargeOffDate)))
		}
	}

	switch {
	case tx.Type == domain.TxDisbursement:
		if _, chargedOff := state.ChargedOff(); chargedOff {
			return pkgerrors.WrapTransactionRejected(pkgerrors.ErrLoanChargedOff, "cannot disburse a charged-off loan")
		}
		approved := state.money(loan.Principal)
		if state.Disbursed().Plus(amount).IsGreaterThan(approved) {
			return pkgerrors.WrapTransactionRejected(pkgerrors.ErrDisbursementExceedsApproved,
				fmt.Sprintf("disbursing %s on top of %s exceeds approved %s", amount, state.Disbursed(), approved))
		}
		if !date.Before(loan.FirstRepaymentDate) {
			return pkgerrors.WrapTransactionRejected(pkgerrors.ErrInvalidLoanTerms,
				fmt.Sprintf("disbursement on %s is not before the first repayment on %s",
					utils.FormatDate(date), utils.FormatDate(loan.FirstRepaymentDate)))
		}
		if state.Disbursed().IsZero() {
			return validateMinDaysToFirstRepayment(loan, date)
		}

	case tx.Type.IsRepaymentLike():
		if !state.Disbursed().IsPositive() {
			return pkgerrors.WrapTransactionRejected(pkgerrors.ErrLoanNotDisbursed, "loan has not been disbursed")
		}

	case tx.Type == domain.TxCreditBalanceRefund:
		if !state.Overpayment().IsPositive() {
			return pkgerrors.WrapTransactionRejected(pkgerrors.ErrLoanNotOverpaid, "loan has no credit balance")
		}
		if amount.IsGreaterThan(state.Overpayment()) {
			return pkgerrors.WrapTransactionRejected(pkgerrors.ErrRefundExceedsOverpaid,
				fmt.Sprintf("refund %s exceeds overpaid amount %s", amount, state.Overpayment()))
		}

	case tx.Type == domain.TxChargeOff:
		if !state.Disbursed().IsPositive() {
			return pkgerrors.WrapTransactionRejected(pkgerrors.ErrLoanNotDisbursed, "loan has not been disbursed")
		}

	default:
		return pkgerrors.WrapTransactionRejected(pkgerrors.ErrChargebackNotAllowed,
			fmt.Sprintf("%s cannot be posted directly", tx.Type))
	}
	return nil
}

// ValidateChargeback checks a chargeback of original for amount on date.
func ValidateChargeback(state *Result, original *domain.Transaction, chargeback *domain.Transaction, businessDate time.Time) error {
	if original.Reversed || !original.Type.IsRepaymentLike() {
		return pkgerrors.WrapTransactionRejected(pkgerrors.ErrChargebackNotAllowed,
			fmt.Sprintf("transaction %s of type %s cannot be charged back", original.ID, original.Type))
	}
	amount := state.money(chargeback.Amount)
	if !amount.IsPositive() {
		return pkgerrors.WrapInvalidAmount(chargeback.Amount.String())
	}
	if chargeback.TransactionDate.After(businessDate) {
		return pkgerrors.WrapTransactionRejected(pkgerrors.ErrTransactionInFuture,
			fmt.Sprintf("chargeback date %s is after business date %s",
				utils.FormatDate(chargeback.TransactionDate), utils.FormatDate(businessDate)))
	}
	if chargeback.TransactionDate.Before(original.TransactionDate) {
		return pkgerrors.WrapTransactionRejected(pkgerrors.ErrChargebackNotAllowed,
			fmt.Sprintf("chargeback date %s is before the repayment on %s",
				utils.FormatDate(chargeback.TransactionDate), utils.FormatDate(original.TransactionDate)))
	}
	remaining := state.money(original.Amount).Minus(state.ChargedBack(original.ID))
	if amount.IsGreaterThan(remaining) {
		return pkgerrors.WrapTransactionRejected(pkgerrors.ErrChargebackExceedsAmount,
			fmt.Sprintf("chargeback %s exceeds %s left on transaction %s", amount, remaining, original.ID))
	}
	if chargeOffDate, chargedOff := state.ChargedOff(); chargedOff && chargeback.TransactionDate.Before(chargeOffDate) {
		return pkgerrors.WrapTransactionRejected(pkgerrors.ErrBeforeChargeOff,
			fmt.Sprintf("chargeback date %s is before charge-off on %s",
				utils.FormatDate(chargeback.TransactionDate), utils.FormatDate(chargeOffDate)))
	}
	return nil
}
