package reconciler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/investor-account-ledger/internal/domain/journal"
	"github.com/investor-account-ledger/internal/domain/transaction"
)

// Completer finishes a pending journal record by writing the durable
// transaction record it describes
type Completer interface {
	Complete(ctx context.Context, record *journal.Record) error
}

// RecordCompleter implements Completer against the transaction record store.
// The balance change behind a pending record is already committed, so
// completion only ever writes the record and settles the journal; it never
// touches balances.
type RecordCompleter struct {
	journalRepo journal.Repository
	records     transaction.Repository
	logger      *slog.Logger
}

// NewRecordCompleter creates a new completer
func NewRecordCompleter(
	logger *slog.Logger,
	journalRepo journal.Repository,
	records transaction.Repository,
) Completer {
	return &RecordCompleter{
		journalRepo: journalRepo,
		records:     records,
		logger:      logger,
	}
}

// Complete writes the durable record for a pending journal entry and marks
// the entry applied. A record that already exists means the apply path won
// the race; the journal is settled the same way.
func (c *RecordCompleter) Complete(ctx context.Context, record *journal.Record) error {
	txn, err := record.Transaction()
	if err != nil {
		c.logger.Error("Failed to decode transaction from journal payload",
			"journal_id", record.ID, "transaction_id", record.TransactionID.String(), "error", err,
		)
		return fmt.Errorf("decode payload for journal record %d failed: %w", record.ID, err)
	}

	logger := c.logger
	if txn.CorrelationID != "" {
		logger = c.logger.With("correlation_id", txn.CorrelationID)
	}

	now := time.Now().UTC()
	txn.Status = transaction.StatusApplied
	txn.AppliedAt = &now

	if err := c.records.Create(ctx, txn); err != nil {
		if !errors.Is(err, transaction.ErrDuplicateRecord{}) {
			logger.Error("Failed to write transaction record",
				"journal_id", record.ID, "transaction_id", txn.ID.String(), "error", err,
			)
			return fmt.Errorf("failed to write record for transaction %s: %w", txn.ID.String(), err)
		}
		// The apply path won the race; make sure the existing record carries
		// the applied status before the journal entry is settled.
		if err := c.records.MarkApplied(ctx, txn.ID); err != nil {
			logger.Error("Failed to settle existing transaction record",
				"journal_id", record.ID, "transaction_id", txn.ID.String(), "error", err,
			)
			return fmt.Errorf("failed to mark existing record for %s applied: %w", txn.ID.String(), err)
		}
		logger.Info("Transaction record already exists", "transaction_id", txn.ID.String())
	}

	if err := c.journalRepo.UpdateStatus(ctx, record.ID, journal.StatusApplied); err != nil {
		logger.Error("Record written but failed to settle journal entry",
			"journal_id", record.ID, "transaction_id", txn.ID.String(), "error", err,
		)
		return fmt.Errorf("record for %s written, but failed to mark journal %d applied: %w", txn.ID.String(), record.ID, err)
	}

	logger.Info("Journal record reconciled", "journal_id", record.ID, "transaction_id", txn.ID.String())
	return nil
}
