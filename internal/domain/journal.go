package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EntryType string

const (
	Debit  EntryType = "DEBIT"
	Credit EntryType = "CREDIT"
)

// JournalEntry is one leg of a cash-based posting.
type JournalEntry struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	LoanID        uuid.UUID       `json:"loan_id" db:"loan_id"`
	TransactionID uuid.UUID       `json:"transaction_id" db:"transaction_id"`
	Account       string          `json:"account" db:"account"`
	Type          EntryType       `json:"type" db:"type"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	Currency      string          `json:"currency" db:"currency"`
	EntryDate     time.Time       `json:"entry_date" db:"entry_date"`
	Reversal      bool            `json:"reversal" db:"reversal"`
	Reversed      bool            `json:"reversed" db:"reversed"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}
