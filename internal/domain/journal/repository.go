package journal

import (
	"context"
	"strconv"

	"github.com/jackc/pgx/v5"
)

// Repository manages journal record persistence
type Repository interface {
	// Create inserts a pending record. Returns ErrDuplicateKey when another
	// record already carries the same idempotency key.
	Create(ctx context.Context, record *Record) error
	GetPending(ctx context.Context, limit int) ([]*Record, error)
	UpdateStatus(ctx context.Context, id int64, status Status) error
	IncrementAttempts(ctx context.Context, id int64) error
	GetByIdempotencyKey(ctx context.Context, idempotencyKey string) (*Record, error)
	WithTx(tx pgx.Tx) Repository
}

// ErrRecordNotFound indicates missing journal record
type ErrRecordNotFound struct {
	ID int64
}

func (e ErrRecordNotFound) Error() string {
	return "journal record not found: " + strconv.FormatInt(e.ID, 10)
}

// ErrDuplicateKey indicates idempotency-key uniqueness violation
type ErrDuplicateKey struct {
	IdempotencyKey string
}

func (e ErrDuplicateKey) Error() string {
	return "journal record with idempotency key already exists: " + e.IdempotencyKey
}
