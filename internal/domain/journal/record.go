// Package journal is the write-side arbiter for transaction application.
// A journal record is inserted in the same Postgres transaction as the
// balance update; its unique idempotency-key index is the final defense
// against double application, and its pending status drives the reconciler
// that completes the durable record write.
package journal

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/investor-account-ledger/internal/domain/transaction"
)

// Status defines journal record states
type Status string

const (
	// StatusPending means the balance change is committed but the record
	// store write has not been confirmed yet
	StatusPending Status = "PENDING"
	StatusApplied Status = "APPLIED"
	StatusFailed  Status = "FAILED"
)

// Record stores a committed transaction pending its durable record write
type Record struct {
	ID             int64           `json:"id"`
	TransactionID  uuid.UUID       `json:"transaction_id"`
	IdempotencyKey string          `json:"idempotency_key"`
	AccountNumber  int64           `json:"account_number"`
	Payload        json.RawMessage `json:"payload"`
	Status         Status          `json:"status"`
	Attempts       int             `json:"attempts"`
	CreatedAt      time.Time       `json:"created_at"`
	LastAttemptAt  *time.Time      `json:"last_attempt_at,omitempty"`
}

// NewRecord builds a pending journal record carrying the transaction as payload
func NewRecord(txn *transaction.Transaction) (*Record, error) {
	payload, err := json.Marshal(txn)
	if err != nil {
		return nil, err
	}

	return &Record{
		TransactionID:  txn.ID,
		IdempotencyKey: txn.IdempotencyKey,
		AccountNumber:  txn.AccountNumber,
		Payload:        payload,
		Status:         StatusPending,
		Attempts:       0,
		CreatedAt:      time.Now(),
	}, nil
}

// Transaction extracts the transaction from the payload
func (r *Record) Transaction() (*transaction.Transaction, error) {
	var txn transaction.Transaction
	if err := json.Unmarshal(r.Payload, &txn); err != nil {
		return nil, err
	}
	return &txn, nil
}
