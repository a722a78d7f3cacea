// Package ingest feeds transaction requests from the Kafka ingestion topic
// into the engine. It supplements the HTTP path for high-volume producers
// that already speak the queue.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/investor-account-ledger/internal/api/service"
	"github.com/investor-account-ledger/internal/domain/money"
	"github.com/investor-account-ledger/internal/domain/transaction"
	"github.com/investor-account-ledger/internal/engine"
	"github.com/investor-account-ledger/internal/platform/messaging/producers"
)

// TransactionMessage is the wire format of a queued transaction request. It
// mirrors the HTTP request body: decimal amounts in major units.
type TransactionMessage struct {
	IdempotencyKey string          `json:"idempotencyKey"`
	Amount         decimal.Decimal `json:"amount"`
	AccountNumber  int64           `json:"accountNumber"`
	Type           string          `json:"type"`
	CorrelationID  string          `json:"correlationId,omitempty"`
}

// EventHandler handles incoming transaction request messages from Kafka
type EventHandler struct {
	engine service.TransactionEngine
	alerts producers.AlertPublisher
	logger *slog.Logger
}

// NewEventHandler creates a new handler. The alert publisher may be nil;
// poison messages are then dropped after logging.
func NewEventHandler(
	logger *slog.Logger,
	eng service.TransactionEngine,
	alerts producers.AlertPublisher,
) *EventHandler {
	return &EventHandler{
		engine: eng,
		alerts: alerts,
		logger: logger,
	}
}

// HandleMessage processes one queued transaction request. Permanently bad
// messages (unparseable, invalid, duplicate, business-rejected) go to the
// alert topic and commit; only transient store failures are returned so the
// message is redelivered.
func (h *EventHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var msg TransactionMessage
	if err := json.Unmarshal(value, &msg); err != nil {
		h.logger.Error("Failed to unmarshal transaction request from Kafka message",
			"error", err,
			"message_key", string(key),
		)
		return h.divert(ctx, key, value, fmt.Sprintf("unmarshal failed: %s", err.Error()))
	}

	logger := h.logger
	if msg.CorrelationID != "" {
		logger = h.logger.With("correlation_id", msg.CorrelationID)
	}

	minor, err := money.PositiveMinorUnits(msg.Amount)
	if err != nil {
		logger.Error("Queued transaction request has invalid amount",
			"message_key", string(key),
			"amount", msg.Amount.String(),
			"error", err,
		)
		return h.divert(ctx, key, value, string(engine.ReasonInvalidAmount))
	}

	txn, err := h.engine.Apply(ctx, engine.Request{
		IdempotencyKey: msg.IdempotencyKey,
		AccountNumber:  msg.AccountNumber,
		Amount:         minor,
		Type:           transaction.Type(msg.Type),
		CorrelationID:  msg.CorrelationID,
	})
	if err != nil {
		var dup engine.DuplicateTransactionError
		if errors.As(err, &dup) {
			// Redelivery or producer retry; already applied, commit the offset.
			logger.Info("Queued transaction request already applied",
				"message_key", string(key),
				"idempotency_key", msg.IdempotencyKey,
			)
			return nil
		}

		var unavailable engine.StoreUnavailableError
		if errors.As(err, &unavailable) {
			logger.Error("Transient failure applying queued transaction request",
				"message_key", string(key),
				"idempotency_key", msg.IdempotencyKey,
				"error", err,
			)
			return err // Leave uncommitted for redelivery
		}

		logger.Error("Queued transaction request rejected",
			"message_key", string(key),
			"idempotency_key", msg.IdempotencyKey,
			"error", err,
		)
		return h.divert(ctx, key, value, string(engine.ReasonForError(err)))
	}

	logger.Info("Applied queued transaction request",
		"transaction_id", txn.ID.String(),
		"idempotency_key", txn.IdempotencyKey,
	)
	return nil
}

// divert publishes a poison message to the alert topic. Success commits the
// offset; if the alert itself fails, the message stays uncommitted.
func (h *EventHandler) divert(ctx context.Context, key []byte, value []byte, reason string) error {
	if h.alerts == nil {
		h.logger.Warn("Alerting disabled, dropping unprocessable message", "message_key", string(key), "reason", reason)
		return nil
	}
	if err := h.alerts.PublishAlert(ctx, string(key), value, reason); err != nil {
		h.logger.Error("Failed to publish unprocessable message alert",
			"message_key", string(key),
			"reason", reason,
			"error", err,
		)
		return fmt.Errorf("failed to divert unprocessable message: %w", err)
	}
	return nil
}
