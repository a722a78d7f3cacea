package engine

import (
	"errors"
	"fmt"

	"github.com/investor-account-ledger/internal/domain/transaction"
)

// Validation errors detected before any mutation
var (
	ErrMissingIdempotencyKey = errors.New("idempotency key is required")
	ErrInvalidAmount         = errors.New("amount must be a positive number")
	ErrInvalidType           = errors.New("transaction type must be credit or debit")
)

// FailureReason defines machine-readable outcome categories shared by error
// responses, batch reports, and alert events
type FailureReason string

const (
	ReasonMissingFields     FailureReason = "MISSING_FIELDS"
	ReasonInvalidAmount     FailureReason = "INVALID_AMOUNT"
	ReasonInvalidAccount    FailureReason = "INVALID_ACCOUNT"
	ReasonInvalidType       FailureReason = "INVALID_TYPE"
	ReasonAccountNotFound   FailureReason = "ACCOUNT_NOT_FOUND"
	ReasonInsufficientFunds FailureReason = "INSUFFICIENT_FUNDS"
	ReasonAlreadyExists     FailureReason = "ALREADY_EXISTS"
	ReasonDuplicateInBatch  FailureReason = "DUPLICATE_IN_BATCH"
	ReasonStoreUnavailable  FailureReason = "STORE_UNAVAILABLE"
	ReasonPartialApply      FailureReason = "PARTIAL_APPLY"
)

// DuplicateTransactionError reports that the idempotency key was already
// applied. It carries the existing record so callers can treat the request
// as already done instead of retrying and double-counting.
type DuplicateTransactionError struct {
	Existing *transaction.Transaction
}

func (e DuplicateTransactionError) Error() string {
	if e.Existing == nil {
		return "transaction with this idempotency key already exists"
	}
	return "transaction with idempotency key already exists: " + e.Existing.IdempotencyKey
}

// TransactionNotFoundError indicates the reversal target does not exist
type TransactionNotFoundError struct {
	ID string
}

func (e TransactionNotFoundError) Error() string {
	return "transaction not found: " + e.ID
}

// StoreUnavailableError wraps infrastructure failures from the underlying
// stores. These abort the operation with no partial state committed and are
// safe to retry.
type StoreUnavailableError struct {
	Op  string
	Err error
}

func (e StoreUnavailableError) Error() string {
	return fmt.Sprintf("store unavailable during %s: %v", e.Op, e.Err)
}

func (e StoreUnavailableError) Unwrap() error {
	return e.Err
}
