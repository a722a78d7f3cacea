package engine

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/investor-account-ledger/internal/domain/account"
	"github.com/investor-account-ledger/internal/domain/money"
	"github.com/investor-account-ledger/internal/domain/transaction"
)

// RowStatus is the per-row outcome category of a batch ingestion
type RowStatus string

const (
	RowInserted RowStatus = "INSERTED"
	RowSkipped  RowStatus = "SKIPPED"
	RowFailed   RowStatus = "FAILED"
)

// RowOutcome reports what happened to one input row. Inserted rows are
// counted but not itemized; skipped and failed rows carry their reason.
type RowOutcome struct {
	Line           int           `json:"row"`
	IdempotencyKey string        `json:"idempotency_key,omitempty"`
	Status         RowStatus     `json:"status"`
	Reason         FailureReason `json:"reason,omitempty"`
}

// BatchReport summarizes a bulk upload. Inserted+Skipped+Failed always equals
// the number of input rows.
type BatchReport struct {
	Processed int          `json:"processed"`
	Inserted  int          `json:"inserted"`
	Skipped   int          `json:"skipped"`
	Failed    int          `json:"failed"`
	Rows      []RowOutcome `json:"rows,omitempty"`
}

// IngestBatch applies rows in input order. Each row goes through the full
// Apply path, so one row's failure never aborts the batch and never leaves
// partial state behind. Rows repeating an idempotency key seen earlier in the
// same batch are skipped; the first occurrence that reaches application wins.
// A row rejected while parsing does not reserve its key, so a corrected retry
// row later in the same file is still viable.
func (e *Engine) IngestBatch(ctx context.Context, rows []Row, correlationID string) *BatchReport {
	report := &BatchReport{Processed: len(rows)}
	seen := make(map[string]struct{}, len(rows))

	for _, row := range rows {
		key := strings.TrimSpace(row.IdempotencyKey)
		amount := strings.TrimSpace(row.Amount)
		acct := strings.TrimSpace(row.Account)
		txType := strings.TrimSpace(row.Type)

		if key == "" || amount == "" || acct == "" || txType == "" {
			report.fail(row.Line, key, ReasonMissingFields)
			continue
		}

		if _, dup := seen[key]; dup {
			report.skip(row.Line, key, ReasonDuplicateInBatch)
			continue
		}

		dec, err := decimal.NewFromString(amount)
		if err != nil {
			report.fail(row.Line, key, ReasonInvalidAmount)
			continue
		}
		minor, err := money.PositiveMinorUnits(dec)
		if err != nil {
			report.fail(row.Line, key, ReasonInvalidAmount)
			continue
		}

		accountNumber, err := strconv.ParseInt(acct, 10, 64)
		if err != nil || accountNumber <= 0 {
			report.fail(row.Line, key, ReasonInvalidAccount)
			continue
		}

		seen[key] = struct{}{}

		_, err = e.Apply(ctx, Request{
			IdempotencyKey: key,
			AccountNumber:  accountNumber,
			Amount:         minor,
			Type:           transaction.Type(txType),
			CorrelationID:  correlationID,
		})
		if err != nil {
			var dupErr DuplicateTransactionError
			if errors.As(err, &dupErr) {
				report.skip(row.Line, key, ReasonAlreadyExists)
			} else {
				report.fail(row.Line, key, ReasonForError(err))
			}
			continue
		}

		report.Inserted++
	}

	e.logger.Info("Batch ingestion completed",
		"correlation_id", correlationID,
		"processed", report.Processed,
		"inserted", report.Inserted,
		"skipped", report.Skipped,
		"failed", report.Failed,
	)

	return report
}

// ReasonForError maps an Apply error to its machine-readable failure reason
func ReasonForError(err error) FailureReason {
	switch {
	case errors.Is(err, ErrMissingIdempotencyKey):
		return ReasonMissingFields
	case errors.Is(err, ErrInvalidAmount):
		return ReasonInvalidAmount
	case errors.Is(err, ErrInvalidType):
		return ReasonInvalidType
	case errors.Is(err, account.ErrAccountNotFound{}):
		return ReasonAccountNotFound
	case errors.Is(err, account.ErrInsufficientFunds):
		return ReasonInsufficientFunds
	default:
		return ReasonStoreUnavailable
	}
}

func (r *BatchReport) skip(line int, key string, reason FailureReason) {
	r.Skipped++
	r.Rows = append(r.Rows, RowOutcome{
		Line:           line,
		IdempotencyKey: key,
		Status:         RowSkipped,
		Reason:         reason,
	})
}

func (r *BatchReport) fail(line int, key string, reason FailureReason) {
	r.Failed++
	r.Rows = append(r.Rows, RowOutcome{
		Line:           line,
		IdempotencyKey: key,
		Status:         RowFailed,
		Reason:         reason,
	})
}
