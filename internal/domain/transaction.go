package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TxDisbursement         TransactionType = "DISBURSEMENT"
	TxRepayment            TransactionType = "REPAYMENT"
	TxGoodwillCredit       TransactionType = "GOODWILL_CREDIT"
	TxMerchantIssuedRefund TransactionType = "MERCHANT_ISSUED_REFUND"
	TxPayoutRefund         TransactionType = "PAYOUT_REFUND"
	TxChargeback           TransactionType = "CHARGEBACK"
	TxChargeOff            TransactionType = "CHARGE_OFF"
	TxCreditBalanceRefund  TransactionType = "CREDIT_BALANCE_REFUND"
)

// IsRepaymentLike reports whether the transaction is allocated across installments.
func (t TransactionType) IsRepaymentLike() bool {
	switch t {
	case TxRepayment, TxGoodwillCredit, TxMerchantIssuedRefund, TxPayoutRefund:
		return true
	}
	return false
}

// Priority orders transactions booked on the same date.
func (t TransactionType) Priority() int {
	switch t {
	case TxDisbursement:
		return 0
	case TxRepayment, TxGoodwillCredit, TxMerchantIssuedRefund, TxPayoutRefund:
		return 1
	case TxChargeback:
		return 2
	case TxCreditBalanceRefund:
		return 3
	default:
		return 4
	}
}

// Transaction is one entry of a loan's posting feed. The portions are written by replay.
type Transaction struct {
	ID                    uuid.UUID       `json:"id" db:"id"`
	LoanID                uuid.UUID       `json:"loan_id" db:"loan_id"`
	ExternalID            string          `json:"external_id" db:"external_id"`
	Type                  TransactionType `json:"type" db:"type"`
	TransactionDate       time.Time       `json:"transaction_date" db:"transaction_date"`
	Amount                decimal.Decimal `json:"amount" db:"amount"`
	PrincipalPortion      decimal.Decimal `json:"principal_portion" db:"principal_portion"`
	InterestPortion       decimal.Decimal `json:"interest_portion" db:"interest_portion"`
	FeePortion            decimal.Decimal `json:"fee_portion" db:"fee_portion"`
	PenaltyPortion        decimal.Decimal `json:"penalty_portion" db:"penalty_portion"`
	OverpaymentPortion    decimal.Decimal `json:"overpayment_portion" db:"overpayment_portion"`
	OriginalTransactionID *uuid.UUID      `json:"original_transaction_id,omitempty" db:"original_transaction_id"`
	Reversed              bool            `json:"reversed" db:"reversed"`
	ReversedOn            *time.Time      `json:"reversed_on,omitempty" db:"reversed_on"`
	CreatedAt             time.Time       `json:"created_at" db:"created_at"`
}

// Splits groups the computed portions of a transaction.
type Splits struct {
	Principal   decimal.Decimal
	Interest    decimal.Decimal
	Fee         decimal.Decimal
	Penalty     decimal.Decimal
	Overpayment decimal.Decimal
}

func (t *Transaction) Splits() Splits {
	return Splits{
		Principal:   t.PrincipalPortion,
		Interest:    t.InterestPortion,
		Fee:         t.FeePortion,
		Penalty:     t.PenaltyPortion,
		Overpayment: t.OverpaymentPortion,
	}
}

func (t *Transaction) SetSplits(s Splits) {
	t.PrincipalPortion = s.Principal
	t.InterestPortion = s.Interest
	t.FeePortion = s.Fee
	t.PenaltyPortion = s.Penalty
	t.OverpaymentPortion = s.Overpayment
}

func (s Splits) Equal(other Splits) bool {
	return s.Principal.Equal(other.Principal) &&
		s.Interest.Equal(other.Interest) &&
		s.Fee.Equal(other.Fee) &&
		s.Penalty.Equal(other.Penalty) &&
		s.Overpayment.Equal(other.Overpayment)
}

// DTOs for requests and responses

type PostTransactionRequest struct {
	Type            TransactionType `json:"type" validate:"required,oneof=DISBURSEMENT REPAYMENT GOODWILL_CREDIT MERCHANT_ISSUED_REFUND PAYOUT_REFUND CREDIT_BALANCE_REFUND CHARGE_OFF"`
	ExternalID      string          `json:"external_id" validate:"omitempty,max=100"`
	TransactionDate string          `json:"transaction_date" validate:"required,datetime=2006-01-02"`
	Amount          decimal.Decimal `json:"amount" validate:"decimal_gte=0"`
}

type ChargebackRequest struct {
	ExternalID      string          `json:"external_id" validate:"omitempty,max=100"`
	TransactionDate string          `json:"transaction_date" validate:"required,datetime=2006-01-02"`
	Amount          decimal.Decimal `json:"amount" validate:"decimal_gt=0"`
}

type BatchTransactionRequest struct {
	Transactions []PostTransactionRequest `json:"transactions" validate:"required,min=1,dive"`
}
