package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/investor-account-ledger/internal/domain/account"
	"github.com/investor-account-ledger/internal/platform/cache"
)

// AccountServiceImpl implements the AccountService interface with a
// cache-aside read path
type AccountServiceImpl struct {
	accountRepo account.Repository
	cache       cache.Cache
	cacheTTL    time.Duration
	logger      *slog.Logger
}

// NewAccountService creates a new account service
func NewAccountService(logger *slog.Logger, accountRepo account.Repository, c cache.Cache, cacheTTL time.Duration) AccountService {
	return &AccountServiceImpl{
		accountRepo: accountRepo,
		cache:       c,
		cacheTTL:    cacheTTL,
		logger:      logger,
	}
}

// OpenAccount creates a new account owned by the given investor
func (s *AccountServiceImpl) OpenAccount(ctx context.Context, accountNumber int64, investorID uuid.UUID, openingBalance int64) (*account.Account, error) {
	acc, err := account.NewAccount(accountNumber, investorID, openingBalance)
	if err != nil {
		return nil, err
	}

	if err := s.accountRepo.Create(ctx, acc); err != nil {
		return nil, err
	}

	return acc, nil
}

// GetAccount retrieves an account by number, trying the cache first. Cache
// failures are treated as misses; the store is the source of truth.
func (s *AccountServiceImpl) GetAccount(ctx context.Context, accountNumber int64) (*account.Account, bool, error) {
	key := cache.AccountKey(accountNumber)

	if s.cache != nil {
		data, err := s.cache.Get(ctx, key)
		if err == nil {
			var acc account.Account
			if err := json.Unmarshal(data, &acc); err == nil {
				return &acc, true, nil
			}
			s.logger.Warn("Failed to decode cached account; falling back to store", "key", key, "error", err)
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("Cache lookup failed; falling back to store", "key", key, "error", err)
		}
	}

	acc, err := s.accountRepo.GetByNumber(ctx, accountNumber)
	if err != nil {
		return nil, false, err
	}

	s.fillCache(ctx, key, acc)

	return acc, false, nil
}

func (s *AccountServiceImpl) fillCache(ctx context.Context, key string, acc *account.Account) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(acc)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
		s.logger.Warn("Failed to cache account", "key", key, "error", err)
	}
}
