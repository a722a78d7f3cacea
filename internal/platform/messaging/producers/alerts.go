package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/investor-account-ledger/internal/config"
)

// AlertProducer publishes operational alerts that require follow-up:
// partially applied transactions and journal records that exhausted their
// retries. Writes are synchronous so an alert is confirmed before the caller
// moves on.
type AlertProducer struct {
	logger     *slog.Logger
	writer     KafkaWriter
	alertTopic string
}

// NewAlertProducer returns nil if cfg.AlertTopic is empty (alerting disabled)
func NewAlertProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*AlertProducer, error) {
	if cfg.AlertTopic == "" {
		logger.Info("Alert topic is not configured. AlertProducer will not be initialized.")
		return nil, nil // Alerting is disabled, not an error.
	}

	conn, err := kafka.Dial("tcp", cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for alert producer: %w", err)
	}
	defer conn.Close()

	err = createKafkaTopicIfNotExists(conn, cfg.AlertTopic, cfg.NumPartitions, cfg.ReplicationFactor, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure alert topic %s exists: %w", cfg.AlertTopic, err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.AlertTopic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		WriteTimeout: cfg.MaxWait,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Error("Failed to write alert messages synchronously", "topic", cfg.AlertTopic, "error", err, "count", len(messages))
			} else {
				logger.Debug("Successfully wrote alert messages synchronously", "topic", cfg.AlertTopic, "count", len(messages))
			}
		},
	}

	return &AlertProducer{
		logger:     logger,
		writer:     writer,
		alertTopic: cfg.AlertTopic,
	}, nil
}

func (p *AlertProducer) PublishAlert(ctx context.Context, key string, payload []byte, reason string) error {
	if p == nil || p.writer == nil {
		return fmt.Errorf("alert producer not initialized")
	}

	alertPayload := struct {
		Key       string `json:"key"`
		Payload   string `json:"payload"`
		Reason    string `json:"reason"`
		Timestamp string `json:"timestamp"`
	}{
		Key:       key,
		Payload:   string(payload),
		Reason:    reason,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}

	jsonValue, err := json.Marshal(alertPayload)
	if err != nil {
		return fmt.Errorf("failed to marshal alert message value: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: jsonValue,
		Headers: []kafka.Header{
			{Key: "alert-reason", Value: []byte(reason)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish alert message",
			"topic", p.alertTopic,
			"key", key,
			"error", err,
		)
		return fmt.Errorf("failed to publish alert message to %s: %w", p.alertTopic, err)
	}

	p.logger.Info("Published alert message",
		"topic", p.alertTopic,
		"key", key,
		"reason", reason,
	)
	return nil
}

func (p *AlertProducer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	p.logger.Info("Closing alert Kafka message producer", "topic", p.alertTopic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close alert kafka writer for topic %s: %w", p.alertTopic, err)
	}
	return nil
}
