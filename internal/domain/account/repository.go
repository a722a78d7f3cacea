package account

import (
	"context"
	"strconv"

	"github.com/jackc/pgx/v5"
)

// Repository defines account persistence operations
type Repository interface {
	Create(ctx context.Context, account *Account) error
	GetByNumber(ctx context.Context, accountNumber int64) (*Account, error)
	Update(ctx context.Context, account *Account) error

	// LockForUpdate acquires a pessimistic lock for transaction processing,
	// serializing concurrent balance changes on the same account
	LockForUpdate(ctx context.Context, accountNumber int64) (*Account, error)
	WithTx(tx pgx.Tx) Repository
}

// ErrConcurrentModification indicates optimistic lock failure
type ErrConcurrentModification struct {
	AccountNumber int64
}

func (e ErrConcurrentModification) Error() string {
	return "concurrent modification detected for account: " + strconv.FormatInt(e.AccountNumber, 10)
}

// ErrAccountNotFound indicates missing account
type ErrAccountNotFound struct {
	AccountNumber int64
}

func (e ErrAccountNotFound) Error() string {
	return "account not found: " + strconv.FormatInt(e.AccountNumber, 10)
}

// Is matches any ErrAccountNotFound when the target carries a zero number
func (e ErrAccountNotFound) Is(target error) bool {
	t, ok := target.(ErrAccountNotFound)
	if !ok {
		return false
	}
	if t.AccountNumber == 0 {
		return true
	}
	return e.AccountNumber == t.AccountNumber
}

// ErrDuplicateAccountNumber indicates account number uniqueness violation
type ErrDuplicateAccountNumber struct {
	AccountNumber int64
}

func (e ErrDuplicateAccountNumber) Error() string {
	return "account with number already exists: " + strconv.FormatInt(e.AccountNumber, 10)
}
