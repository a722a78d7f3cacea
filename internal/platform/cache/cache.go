// Package cache provides the best-effort key-value side cache for read-mostly
// lookups. Writers invalidate (delete) entries rather than updating them in
// place; readers treat any cache failure as a miss and fall back to the store.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrCacheMiss indicates the key is absent from the cache
var ErrCacheMiss = errors.New("cache: key not found")

// Cache defines the side-cache operations the ledger uses
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

// AccountKey returns the cache key for an account snapshot
func AccountKey(accountNumber int64) string {
	return fmt.Sprintf("account:%d", accountNumber)
}

// TransactionKey returns the cache key for a transaction record snapshot
func TransactionKey(id uuid.UUID) string {
	return fmt.Sprintf("transaction:%s", id)
}
