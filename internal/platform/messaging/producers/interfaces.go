package producers

import (
	"context"

	"github.com/segmentio/kafka-go"
)

// EventPublisher handles publishing audit events to a primary topic
type EventPublisher interface {
	Publish(ctx context.Context, key string, value interface{}) error
	Close() error
}

// AlertPublisher handles publishing operational alerts that need human or
// automated follow-up, such as partial applies and exhausted retries
type AlertPublisher interface {
	PublishAlert(ctx context.Context, key string, payload []byte, reason string) error
	Close() error
}

// KafkaWriter wraps kafka.Writer methods for testing
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}
