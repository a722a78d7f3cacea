package transaction

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Type defines the two balance-changing operations
type Type string

const (
	TypeCredit Type = "credit"
	TypeDebit  Type = "debit"
)

// Valid reports whether t is one of the known transaction types
func (t Type) Valid() bool {
	return t == TypeCredit || t == TypeDebit
}

// Inverse returns the type that undoes t
func (t Type) Inverse() Type {
	if t == TypeCredit {
		return TypeDebit
	}
	return TypeCredit
}

// Status defines transaction record states
type Status string

const (
	// StatusPending means the balance change is committed but the durable
	// record write has not completed yet. The reconciler finishes it.
	StatusPending Status = "PENDING"
	StatusApplied Status = "APPLIED"
	StatusFailed  Status = "FAILED"
)

// Transaction is an immutable record of a single credit or debit applied to
// an account. A reversal is a new Transaction with the inverse type and a
// derived idempotency key; existing records are never mutated.
type Transaction struct {
	ID             uuid.UUID  `json:"transaction_id" bson:"transaction_id"`
	IdempotencyKey string     `json:"idempotency_key" bson:"idempotency_key"`
	AccountNumber  int64      `json:"account_number" bson:"account_number"`
	Type           Type       `json:"type" bson:"type"`
	Amount         int64      `json:"amount" bson:"amount"` // Stored in cents/minor units
	Status         Status     `json:"status" bson:"status"`
	CorrelationID  string     `json:"correlation_id,omitempty" bson:"correlation_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at" bson:"created_at"`
	AppliedAt      *time.Time `json:"applied_at,omitempty" bson:"applied_at,omitempty"`
}

// New builds a pending transaction record for the given request parameters
func New(idempotencyKey string, accountNumber int64, amount int64, txType Type, correlationID string) *Transaction {
	return &Transaction{
		ID:             uuid.New(),
		IdempotencyKey: idempotencyKey,
		AccountNumber:  accountNumber,
		Type:           txType,
		Amount:         amount,
		Status:         StatusPending,
		CorrelationID:  correlationID,
		CreatedAt:      time.Now().UTC(),
	}
}

// ReversalKey derives the idempotency key for a reversal of this transaction.
// The nanosecond timestamp keeps repeated reversal requests distinct.
func (t *Transaction) ReversalKey(now time.Time) string {
	return fmt.Sprintf("reverse_%s_%d", t.IdempotencyKey, now.UnixNano())
}
