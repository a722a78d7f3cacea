package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/investor-account-ledger/internal/domain/account"
	"github.com/investor-account-ledger/internal/domain/transaction"
	"github.com/investor-account-ledger/internal/engine"
)

// TransactionEngine defines the write operations the handlers need from the
// transaction engine
type TransactionEngine interface {
	// Apply validates and applies a single transaction.
	// Returns DuplicateTransactionError if the idempotency key was already used.
	Apply(ctx context.Context, req engine.Request) (*transaction.Transaction, error)

	// Reverse applies a new inverse transaction for the given target.
	// Returns TransactionNotFoundError if the target doesn't exist.
	Reverse(ctx context.Context, transactionID uuid.UUID, correlationID string) (*transaction.Transaction, error)

	// IngestBatch applies uploaded rows in order, collecting per-row outcomes
	IngestBatch(ctx context.Context, rows []engine.Row, correlationID string) *engine.BatchReport
}

// Ensure the engine satisfies the handler-facing interface (compile-time check)
var _ TransactionEngine = (*engine.Engine)(nil)

// TransactionReader defines read access to transaction records
type TransactionReader interface {
	// GetTransaction retrieves a record by ID, reporting whether it was served
	// from the cache. Returns ErrRecordNotFound if no record exists.
	GetTransaction(ctx context.Context, id uuid.UUID) (*transaction.Transaction, bool, error)

	// GetAccountTransactions lists an account's records newest first, with
	// limit/offset pagination. An unknown account yields an empty list.
	GetAccountTransactions(ctx context.Context, accountNumber int64, limit, offset int) ([]*transaction.Transaction, error)
}

// AccountService defines the interface for account operations
type AccountService interface {
	// OpenAccount creates a new account for an investor.
	// Returns ErrDuplicateAccountNumber if the number is already taken.
	OpenAccount(ctx context.Context, accountNumber int64, investorID uuid.UUID, openingBalance int64) (*account.Account, error)

	// GetAccount retrieves an account by number, reporting whether it was
	// served from the cache. Returns ErrAccountNotFound if it doesn't exist.
	GetAccount(ctx context.Context, accountNumber int64) (*account.Account, bool, error)
}
