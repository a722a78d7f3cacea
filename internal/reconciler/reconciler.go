// Package reconciler completes transactions whose balance change committed
// but whose durable record write did not. It polls pending journal records
// and finishes them with bounded retries; records that exhaust their retries
// are marked failed and alerted for manual follow-up.
package reconciler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/investor-account-ledger/internal/config"
	"github.com/investor-account-ledger/internal/domain/journal"
	"github.com/investor-account-ledger/internal/platform/messaging/producers"
)

// Reconciler polls pending journal records and completes them concurrently
type Reconciler struct {
	journalRepo      journal.Repository
	completer        Completer
	alerts           producers.AlertPublisher
	pool             *ants.Pool
	logger           *slog.Logger
	pollInterval     time.Duration
	batchSize        int
	maxRetryAttempts int
}

// NewReconciler creates a reconciler with its own worker pool. The alert
// publisher may be nil; exhausted records are then only logged.
func NewReconciler(
	logger *slog.Logger,
	cfg *config.ReconcilerConfig,
	journalRepo journal.Repository,
	completer Completer,
	alerts producers.AlertPublisher,
) (*Reconciler, error) {
	pool, err := ants.NewPool(cfg.WorkerPoolSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create reconciler worker pool: %w", err)
	}

	return &Reconciler{
		journalRepo:      journalRepo,
		completer:        completer,
		alerts:           alerts,
		pool:             pool,
		logger:           logger,
		pollInterval:     cfg.PollingInterval,
		batchSize:        cfg.BatchSize,
		maxRetryAttempts: cfg.MaxRetryAttempts,
	}, nil
}

// Start begins polling until the context is canceled
func (r *Reconciler) Start(ctx context.Context) {
	r.logger.Info("Starting journal reconciler",
		"poll_interval", r.pollInterval.String(),
		"batch_size", r.batchSize,
		"max_retry_attempts", r.maxRetryAttempts,
		"worker_pool_size", r.pool.Cap(),
	)
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Journal reconciler stopping due to context cancellation.")
			return
		case <-ticker.C:
			if err := r.processPendingRecords(ctx); err != nil {
				r.logger.Error("Error during batch reconciliation of pending journal records", "error", err)
			}
		}
	}
}

// Shutdown releases the worker pool
func (r *Reconciler) Shutdown() {
	r.logger.Info("Shutting down reconciler worker pool", "running_workers", r.pool.Running())
	r.pool.Release()
}

func (r *Reconciler) processPendingRecords(ctx context.Context) error {
	records, err := r.journalRepo.GetPending(ctx, r.batchSize)
	if err != nil {
		return fmt.Errorf("failed to get pending journal records: %w", err)
	}

	if len(records) == 0 {
		r.logger.Debug("No pending journal records found.")
		return nil
	}

	r.logger.Info("Fetched pending journal records", "count", len(records))

	var wg sync.WaitGroup
	for _, record := range records {
		record := record
		wg.Add(1)
		if err := r.pool.Submit(func() {
			defer wg.Done()
			r.reconcile(ctx, record)
		}); err != nil {
			wg.Done()
			r.logger.Error("Failed to submit journal record to worker pool",
				"journal_id", record.ID, "error", err,
			)
		}
	}
	wg.Wait()

	return nil
}

func (r *Reconciler) reconcile(ctx context.Context, record *journal.Record) {
	if err := r.completer.Complete(ctx, record); err != nil {
		r.logger.Error("Failed to reconcile journal record",
			"journal_id", record.ID,
			"transaction_id", record.TransactionID.String(),
			"current_attempts", record.Attempts,
			"error", err,
		)

		if errInc := r.journalRepo.IncrementAttempts(ctx, record.ID); errInc != nil {
			r.logger.Error("Failed to increment attempts for journal record", "journal_id", record.ID, "error", errInc)
			return
		}

		if record.Attempts+1 >= r.maxRetryAttempts {
			r.logger.Warn("Max retry attempts reached for journal record, marking as FAILED",
				"journal_id", record.ID,
				"transaction_id", record.TransactionID.String(),
				"attempts_made", record.Attempts+1,
			)
			if errUpdate := r.journalRepo.UpdateStatus(ctx, record.ID, journal.StatusFailed); errUpdate != nil {
				r.logger.Error("Failed to update journal status to FAILED after max retries", "journal_id", record.ID, "error", errUpdate)
			}
			r.alertExhausted(ctx, record)
		}
	}
}

// alertExhausted publishes an alert for a record that ran out of retries. Its
// balance change is committed, so someone has to finish the record write by
// hand; the alert carries the full payload needed to do that.
func (r *Reconciler) alertExhausted(ctx context.Context, record *journal.Record) {
	if r.alerts == nil {
		return
	}
	if err := r.alerts.PublishAlert(ctx, record.TransactionID.String(), record.Payload, "RECONCILIATION_EXHAUSTED"); err != nil {
		r.logger.Error("Failed to publish reconciliation alert",
			"journal_id", record.ID,
			"transaction_id", record.TransactionID.String(),
			"error", err,
		)
	}
}
