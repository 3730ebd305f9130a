package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	LoanCreated           Type = "loan.created"
	TransactionPosted     Type = "loan.transaction.posted"
	TransactionReversed   Type = "loan.transaction.reversed"
	ChargebackPosted      Type = "loan.chargeback.posted"
	LoanChargedOff        Type = "loan.charged_off"
	LoanFraudUpdated      Type = "loan.fraud.updated"
	ChargeAdded           Type = "loan.charge.added"
	DelinquencyClassified Type = "loan.delinquency.classified"
	DelinquencyAction     Type = "loan.delinquency.action"
)

// LoanEvent is a business event raised after a loan command committed.
type LoanEvent struct {
	ID         uuid.UUID `json:"id"`
	Type       Type      `json:"type"`
	LoanID     string    `json:"loan_id"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload,omitempty"`
}

func New(eventType Type, loanID string, payload any) LoanEvent {
	return LoanEvent{
		ID:         uuid.New(),
		Type:       eventType,
		LoanID:     loanID,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

// Publisher delivers loan events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, events ...LoanEvent) error
	Close() error
}
