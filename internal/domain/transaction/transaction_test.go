package transaction

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestType_Valid(t *testing.T) {
	assert.True(t, TypeCredit.Valid())
	assert.True(t, TypeDebit.Valid())
	assert.False(t, Type("transfer").Valid())
	assert.False(t, Type("").Valid())
	assert.False(t, Type("CREDIT").Valid(), "types are case sensitive")
}

func TestType_Inverse(t *testing.T) {
	assert.Equal(t, TypeDebit, TypeCredit.Inverse())
	assert.Equal(t, TypeCredit, TypeDebit.Inverse())
}

func TestNew(t *testing.T) {
	txn := New("order-123", 42, 4025, TypeDebit, "corr-1")

	require.NotNil(t, txn)
	assert.NotEqual(t, uuid.Nil, txn.ID)
	assert.Equal(t, "order-123", txn.IdempotencyKey)
	assert.Equal(t, int64(42), txn.AccountNumber)
	assert.Equal(t, int64(4025), txn.Amount)
	assert.Equal(t, TypeDebit, txn.Type)
	assert.Equal(t, StatusPending, txn.Status)
	assert.Equal(t, "corr-1", txn.CorrelationID)
	assert.Nil(t, txn.AppliedAt)
	assert.WithinDuration(t, time.Now().UTC(), txn.CreatedAt, time.Second)
}

func TestTransaction_ReversalKey(t *testing.T) {
	txn := New("order-123", 42, 100, TypeCredit, "")
	now := time.Now()

	key := txn.ReversalKey(now)
	assert.True(t, strings.HasPrefix(key, "reverse_order-123_"))

	// Repeated reversals must never collide on the idempotency key
	later := now.Add(time.Nanosecond)
	assert.NotEqual(t, key, txn.ReversalKey(later))
}

func TestErrRecordNotFound_Is(t *testing.T) {
	id := uuid.New()
	err := ErrRecordNotFound{ID: id}

	assert.ErrorIs(t, err, ErrRecordNotFound{})
	assert.ErrorIs(t, err, ErrRecordNotFound{ID: id})
	assert.NotErrorIs(t, err, ErrRecordNotFound{ID: uuid.New()})
}

func TestErrDuplicateRecord_Is(t *testing.T) {
	id := uuid.New()
	err := ErrDuplicateRecord{ID: id}

	assert.ErrorIs(t, err, ErrDuplicateRecord{})
	assert.NotErrorIs(t, err, ErrDuplicateRecord{ID: uuid.New()})
}
