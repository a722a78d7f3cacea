// Package engine implements transaction application: validation, idempotency
// enforcement, atomic balance updates, and reversal. It is the single write
// path for account balances; the HTTP handlers, the batch ingester, and the
// queue consumer all funnel through Apply.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/investor-account-ledger/internal/domain/account"
	"github.com/investor-account-ledger/internal/domain/journal"
	"github.com/investor-account-ledger/internal/domain/transaction"
	"github.com/investor-account-ledger/internal/platform/cache"
	"github.com/investor-account-ledger/internal/platform/messaging/producers"
	"github.com/investor-account-ledger/internal/platform/persistence"
)

// TxRunner runs a function inside a single Postgres transaction
type TxRunner interface {
	ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

var _ TxRunner = (*persistence.PostgresDB)(nil)

// Request carries the parameters for a single transaction application.
// Amount is in minor units and must already be converted from the wire format.
type Request struct {
	IdempotencyKey string
	AccountNumber  int64
	Amount         int64
	Type           transaction.Type
	CorrelationID  string
}

// Engine applies transactions against the ledger
type Engine struct {
	pg       TxRunner
	accounts account.Repository
	records  transaction.Repository
	journal  journal.Repository
	cache    cache.Cache
	audit    producers.EventPublisher
	alerts   producers.AlertPublisher
	logger   *slog.Logger
	cacheTTL time.Duration
}

// NewEngine creates a transaction engine. The audit and alert publishers may
// be nil; publishing is then skipped.
func NewEngine(
	logger *slog.Logger,
	pg TxRunner,
	accounts account.Repository,
	records transaction.Repository,
	journalRepo journal.Repository,
	c cache.Cache,
	audit producers.EventPublisher,
	alerts producers.AlertPublisher,
	cacheTTL time.Duration,
) *Engine {
	return &Engine{
		pg:       pg,
		accounts: accounts,
		records:  records,
		journal:  journalRepo,
		cache:    c,
		audit:    audit,
		alerts:   alerts,
		logger:   logger,
		cacheTTL: cacheTTL,
	}
}

// Apply validates and applies a single transaction. The balance update and
// the journal insert commit atomically; the unique index on the journal's
// idempotency key is the final arbiter against concurrent duplicates. The
// durable record write happens after commit, and a failure there leaves the
// journal row pending for the reconciler rather than losing the transaction.
func (e *Engine) Apply(ctx context.Context, req Request) (*transaction.Transaction, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	// Fast path: reject replays without touching Postgres. Not authoritative
	// under concurrency; the journal's unique index closes the race.
	existing, err := e.records.GetByIdempotencyKey(ctx, req.IdempotencyKey)
	if err != nil {
		return nil, StoreUnavailableError{Op: "idempotency check", Err: err}
	}
	if existing != nil {
		return nil, DuplicateTransactionError{Existing: existing}
	}

	txn := transaction.New(req.IdempotencyKey, req.AccountNumber, req.Amount, req.Type, req.CorrelationID)
	rec, err := journal.NewRecord(txn)
	if err != nil {
		return nil, fmt.Errorf("failed to build journal record: %w", err)
	}

	err = e.pg.ExecuteTx(ctx, func(tx pgx.Tx) error {
		acc, err := e.accounts.WithTx(tx).LockForUpdate(ctx, req.AccountNumber)
		if err != nil {
			return err
		}

		switch req.Type {
		case transaction.TypeCredit:
			err = acc.Credit(req.Amount)
		case transaction.TypeDebit:
			err = acc.Debit(req.Amount)
		}
		if err != nil {
			return err
		}

		if err := e.accounts.WithTx(tx).Update(ctx, acc); err != nil {
			return err
		}

		return e.journal.WithTx(tx).Create(ctx, rec)
	})
	if err != nil {
		return nil, e.classifyApplyError(ctx, req, err)
	}

	applied := e.completeApply(ctx, txn, rec)

	e.invalidate(ctx, cache.AccountKey(req.AccountNumber), cache.TransactionKey(txn.ID))
	e.publishAudit(ctx, applied)

	return applied, nil
}

// Reverse applies a new transaction with the inverse type of the target,
// returning the full reversal record. The original record is never mutated,
// but its cache entry is invalidated alongside the account's on success.
// Repeated reversals of the same transaction are allowed; the derived
// idempotency key is unique per request.
func (e *Engine) Reverse(ctx context.Context, transactionID uuid.UUID, correlationID string) (*transaction.Transaction, error) {
	orig, err := e.records.GetByID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, transaction.ErrRecordNotFound{}) {
			return nil, TransactionNotFoundError{ID: transactionID.String()}
		}
		return nil, StoreUnavailableError{Op: "reversal lookup", Err: err}
	}

	reversal, err := e.Apply(ctx, Request{
		IdempotencyKey: orig.ReversalKey(time.Now()),
		AccountNumber:  orig.AccountNumber,
		Amount:         orig.Amount,
		Type:           orig.Type.Inverse(),
		CorrelationID:  correlationID,
	})
	if err != nil {
		return nil, err
	}

	e.invalidate(ctx, cache.TransactionKey(orig.ID))

	return reversal, nil
}

func validate(req Request) error {
	if strings.TrimSpace(req.IdempotencyKey) == "" {
		return ErrMissingIdempotencyKey
	}
	if req.Amount <= 0 {
		return ErrInvalidAmount
	}
	if !req.Type.Valid() {
		return ErrInvalidType
	}
	return nil
}

// completeApply performs the post-commit steps: write the durable record and
// settle the journal row. Failures here never undo the committed balance
// change; the transaction is returned pending and the reconciler finishes it.
func (e *Engine) completeApply(ctx context.Context, txn *transaction.Transaction, rec *journal.Record) *transaction.Transaction {
	applied := *txn
	now := time.Now().UTC()
	applied.Status = transaction.StatusApplied
	applied.AppliedAt = &now

	if err := e.records.Create(ctx, &applied); err != nil {
		if !errors.Is(err, transaction.ErrDuplicateRecord{}) {
			e.logger.Error("Balance committed but record write failed; journal row left pending for reconciler",
				"transaction_id", txn.ID.String(),
				"idempotency_key", txn.IdempotencyKey,
				"error", err,
			)
			e.publishAlert(ctx, txn, ReasonPartialApply)
			return txn
		}
		// The reconciler beat us to the record write; settle the journal anyway.
	}

	if err := e.journal.UpdateStatus(ctx, rec.ID, journal.StatusApplied); err != nil {
		e.logger.Warn("Failed to settle journal record; reconciler will retry it",
			"journal_id", rec.ID,
			"transaction_id", txn.ID.String(),
			"error", err,
		)
	}

	return &applied
}

// classifyApplyError maps transaction-scope failures to the engine's error
// taxonomy. The journal duplicate case resolves the existing record so the
// caller sees the same shape as the fast-path rejection.
func (e *Engine) classifyApplyError(ctx context.Context, req Request, err error) error {
	switch {
	case errors.Is(err, account.ErrAccountNotFound{}),
		errors.Is(err, account.ErrInsufficientFunds):
		return err
	case errors.As(err, &journal.ErrDuplicateKey{}):
		return DuplicateTransactionError{Existing: e.resolveExisting(ctx, req.IdempotencyKey)}
	default:
		return StoreUnavailableError{Op: "apply", Err: err}
	}
}

// resolveExisting finds the transaction that won the idempotency race. The
// record store may not have it yet if the winner's record write is still in
// flight, so the journal payload is the fallback.
func (e *Engine) resolveExisting(ctx context.Context, idempotencyKey string) *transaction.Transaction {
	existing, err := e.records.GetByIdempotencyKey(ctx, idempotencyKey)
	if err == nil && existing != nil {
		return existing
	}

	rec, err := e.journal.GetByIdempotencyKey(ctx, idempotencyKey)
	if err != nil || rec == nil {
		return nil
	}
	txn, err := rec.Transaction()
	if err != nil {
		e.logger.Warn("Failed to decode journal payload for duplicate resolution",
			"idempotency_key", idempotencyKey,
			"error", err,
		)
		return nil
	}
	return txn
}

func (e *Engine) invalidate(ctx context.Context, keys ...string) {
	if e.cache == nil {
		return
	}
	if err := e.cache.Delete(ctx, keys...); err != nil {
		e.logger.Warn("Failed to invalidate cache entries", "keys", keys, "error", err)
	}
}

func (e *Engine) publishAudit(ctx context.Context, txn *transaction.Transaction) {
	if e.audit == nil {
		return
	}
	if err := e.audit.Publish(ctx, txn.ID.String(), txn); err != nil {
		e.logger.Warn("Failed to publish audit event", "transaction_id", txn.ID.String(), "error", err)
	}
}

func (e *Engine) publishAlert(ctx context.Context, txn *transaction.Transaction, reason FailureReason) {
	if e.alerts == nil {
		return
	}
	payload, err := json.Marshal(txn)
	if err != nil {
		e.logger.Error("Failed to marshal alert payload", "transaction_id", txn.ID.String(), "error", err)
		return
	}
	if err := e.alerts.PublishAlert(ctx, txn.ID.String(), payload, string(reason)); err != nil {
		e.logger.Error("Failed to publish alert", "transaction_id", txn.ID.String(), "reason", string(reason), "error", err)
	}
}
