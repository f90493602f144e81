package eventbus

import (
	"context"
	"log/slog"
)

// Publisher sends serialized domain events to a broker.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload []byte) error
	Close() error
}

// NoopPublisher drops events after logging them. It is used when no broker
// is configured so the outbox still drains.
type NoopPublisher struct {
	logger *slog.Logger
}

// NewNoopPublisher creates a publisher that does nothing.
func NewNoopPublisher(logger *slog.Logger) *NoopPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &NoopPublisher{logger: logger}
}

// Publish logs the event at debug level.
func (p *NoopPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	p.logger.DebugContext(ctx, "noop publish", "routing_key", routingKey, "size", len(payload))
	return nil
}

// Close is a no-op.
func (p *NoopPublisher) Close() error {
	return nil
}
