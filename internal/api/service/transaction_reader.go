package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/investor-account-ledger/internal/domain/transaction"
	"github.com/investor-account-ledger/internal/platform/cache"
)

// TransactionReaderImpl implements the TransactionReader interface with a
// cache-aside read path over the record store
type TransactionReaderImpl struct {
	records  transaction.Repository
	cache    cache.Cache
	cacheTTL time.Duration
	logger   *slog.Logger
}

// NewTransactionReader creates a new transaction reader
func NewTransactionReader(logger *slog.Logger, records transaction.Repository, c cache.Cache, cacheTTL time.Duration) TransactionReader {
	return &TransactionReaderImpl{
		records:  records,
		cache:    c,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// GetTransaction retrieves a transaction record by ID, trying the cache first
func (r *TransactionReaderImpl) GetTransaction(ctx context.Context, id uuid.UUID) (*transaction.Transaction, bool, error) {
	key := cache.TransactionKey(id)

	if r.cache != nil {
		data, err := r.cache.Get(ctx, key)
		if err == nil {
			var txn transaction.Transaction
			if err := json.Unmarshal(data, &txn); err == nil {
				return &txn, true, nil
			}
			r.logger.Warn("Failed to decode cached transaction; falling back to store", "key", key, "error", err)
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			r.logger.Warn("Cache lookup failed; falling back to store", "key", key, "error", err)
		}
	}

	txn, err := r.records.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}

	if r.cache != nil {
		if data, err := json.Marshal(txn); err == nil {
			if err := r.cache.Set(ctx, key, data, r.cacheTTL); err != nil {
				r.logger.Warn("Failed to cache transaction", "key", key, "error", err)
			}
		}
	}

	return txn, false, nil
}

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// GetAccountTransactions lists an account's transaction records newest first.
// History pages are not cached; every page goes to the record store.
func (r *TransactionReaderImpl) GetAccountTransactions(ctx context.Context, accountNumber int64, limit, offset int) ([]*transaction.Transaction, error) {
	if limit <= 0 || limit > maxHistoryLimit {
		limit = defaultHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}

	return r.records.GetByAccountNumber(ctx, accountNumber, limit, offset)
}
