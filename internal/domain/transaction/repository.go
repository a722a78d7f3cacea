package transaction

import (
	"context"

	"github.com/google/uuid"
)

// Repository manages durable transaction record persistence
type Repository interface {
	Create(ctx context.Context, txn *Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error)

	// GetByIdempotencyKey returns nil, nil when no record carries the key,
	// enabling the fast idempotent-replay rejection path.
	GetByIdempotencyKey(ctx context.Context, idempotencyKey string) (*Transaction, error)

	GetByAccountNumber(ctx context.Context, accountNumber int64, limit, offset int) ([]*Transaction, error)
	MarkApplied(ctx context.Context, id uuid.UUID) error
}

// ErrRecordNotFound indicates a missing transaction record
type ErrRecordNotFound struct {
	ID uuid.UUID
}

func (e ErrRecordNotFound) Error() string {
	return "transaction record not found: " + e.ID.String()
}

// Is matches any ErrRecordNotFound when the target carries the nil UUID
func (e ErrRecordNotFound) Is(target error) bool {
	t, ok := target.(ErrRecordNotFound)
	if !ok {
		return false
	}
	if t.ID == uuid.Nil {
		return true
	}
	return e.ID == t.ID
}

// ErrDuplicateRecord indicates a record for the transaction already exists
type ErrDuplicateRecord struct {
	ID uuid.UUID
}

func (e ErrDuplicateRecord) Error() string {
	return "duplicate transaction record: " + e.ID.String()
}

// Is matches any ErrDuplicateRecord when the target carries the nil UUID
func (e ErrDuplicateRecord) Is(target error) bool {
	t, ok := target.(ErrDuplicateRecord)
	if !ok {
		return false
	}
	if t.ID == uuid.Nil {
		return true
	}
	return e.ID == t.ID
}
