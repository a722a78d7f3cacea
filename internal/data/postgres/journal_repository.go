package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/investor-account-ledger/internal/domain/journal"
	"github.com/investor-account-ledger/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
)

// JournalRepository implements the journal.Repository interface for PostgreSQL
type JournalRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewJournalRepository creates a new PostgreSQL journal repository
func NewJournalRepository(logger *slog.Logger, db *persistence.PostgresDB) journal.Repository {
	return &JournalRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction so the journal insert is
// atomic with the balance update it records
func (r *JournalRepository) WithTx(tx pgx.Tx) journal.Repository {
	return &JournalRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a new journal record in pending status. The unique index on
// idempotency_key rejects concurrent duplicates that slipped past the
// fast-path check; those surface as ErrDuplicateKey.
func (r *JournalRepository) Create(ctx context.Context, record *journal.Record) error {
	query := `
		INSERT INTO transaction_journal (transaction_id, idempotency_key, account_number, payload, status, attempts, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	err := r.querier.QueryRow(ctx, query,
		record.TransactionID,
		record.IdempotencyKey,
		record.AccountNumber,
		record.Payload,
		record.Status,
		record.Attempts,
		record.CreatedAt,
	).Scan(&record.ID)

	if err != nil {
		if isUniqueViolation(err) {
			return journal.ErrDuplicateKey{IdempotencyKey: record.IdempotencyKey}
		}
		r.logger.Error("Failed to create journal record",
			"transaction_id", record.TransactionID.String(),
			"error", err,
		)
		return fmt.Errorf("failed to create journal record: %w", err)
	}

	return nil
}

// GetPending retrieves a batch of pending journal records ordered by creation
// time. The reconciler processes them in FIFO order.
func (r *JournalRepository) GetPending(ctx context.Context, limit int) ([]*journal.Record, error) {
	query := `
		SELECT id, transaction_id, idempotency_key, account_number, payload, status, attempts, created_at, last_attempt_at
		FROM transaction_journal
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2
	`

	rows, err := r.querier.Query(ctx, query, journal.StatusPending, limit)
	if err != nil {
		r.logger.Error("Failed to get pending journal records", "error", err)
		return nil, fmt.Errorf("failed to get pending journal records: %w", err)
	}
	defer rows.Close()

	var records []*journal.Record
	for rows.Next() {
		var record journal.Record
		err := rows.Scan(
			&record.ID,
			&record.TransactionID,
			&record.IdempotencyKey,
			&record.AccountNumber,
			&record.Payload,
			&record.Status,
			&record.Attempts,
			&record.CreatedAt,
			&record.LastAttemptAt,
		)
		if err != nil {
			r.logger.Error("Failed to scan journal record", "error", err)
			return nil, fmt.Errorf("failed to scan journal record: %w", err)
		}
		records = append(records, &record)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over journal records", "error", err)
		return nil, fmt.Errorf("error iterating over journal records: %w", err)
	}

	return records, nil
}

// UpdateStatus updates the record status and last attempt timestamp.
// Returns ErrRecordNotFound if the record doesn't exist.
func (r *JournalRepository) UpdateStatus(ctx context.Context, id int64, status journal.Status) error {
	query := `
		UPDATE transaction_journal
		SET status = $1, last_attempt_at = $2
		WHERE id = $3
	`

	result, err := r.querier.Exec(ctx, query, status, time.Now(), id)
	if err != nil {
		r.logger.Error("Failed to update journal record status",
			"id", id,
			"status", string(status),
			"error", err,
		)
		return fmt.Errorf("failed to update journal record status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return journal.ErrRecordNotFound{ID: id}
	}

	return nil
}

// IncrementAttempts increments the retry counter and updates last attempt time
func (r *JournalRepository) IncrementAttempts(ctx context.Context, id int64) error {
	query := `
		UPDATE transaction_journal
		SET attempts = attempts + 1, last_attempt_at = $1
		WHERE id = $2
	`

	result, err := r.querier.Exec(ctx, query, time.Now(), id)
	if err != nil {
		r.logger.Error("Failed to increment journal record attempts",
			"id", id,
			"error", err,
		)
		return fmt.Errorf("failed to increment journal record attempts: %w", err)
	}

	if result.RowsAffected() == 0 {
		return journal.ErrRecordNotFound{ID: id}
	}

	return nil
}

// GetByIdempotencyKey retrieves a record by idempotency key. Returns nil, nil
// when no record carries the key.
func (r *JournalRepository) GetByIdempotencyKey(ctx context.Context, idempotencyKey string) (*journal.Record, error) {
	query := `
		SELECT id, transaction_id, idempotency_key, account_number, payload, status, attempts, created_at, last_attempt_at
		FROM transaction_journal
		WHERE idempotency_key = $1
	`

	var record journal.Record
	err := r.querier.QueryRow(ctx, query, idempotencyKey).Scan(
		&record.ID,
		&record.TransactionID,
		&record.IdempotencyKey,
		&record.AccountNumber,
		&record.Payload,
		&record.Status,
		&record.Attempts,
		&record.CreatedAt,
		&record.LastAttemptAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // No record carries this idempotency key
		}
		r.logger.Error("Failed to get journal record by idempotency key",
			"idempotency_key", idempotencyKey,
			"error", err,
		)
		return nil, fmt.Errorf("failed to get journal record by idempotency key: %w", err)
	}

	return &record, nil
}
