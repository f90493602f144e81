package eventbus

import (
	"context"
	"log/slog"
	"time"
)

// InProcessBus is a Publisher that delivers events to local consumers
// synchronously. It is used when no broker is configured.
type InProcessBus struct {
	registry *ConsumerRegistry
	logger   *slog.Logger
	now      func() time.Time
}

// NewInProcessBus creates an in-process bus.
func NewInProcessBus(logger *slog.Logger) *InProcessBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &InProcessBus{
		registry: NewConsumerRegistry(logger),
		logger:   logger,
		now:      time.Now,
	}
}

// RegisterConsumer adds a consumer.
func (b *InProcessBus) RegisterConsumer(consumer EventConsumer) {
	b.registry.Register(consumer)
}

// Publish dispatches the event. Consumer failures are logged and do not
// fail the publish, so the outbox marks the message as delivered.
func (b *InProcessBus) Publish(ctx context.Context, routingKey string, payload []byte) error {
	start := b.now()
	event := &ConsumedEvent{RoutingKey: routingKey, Payload: payload, ReceivedAt: start}
	if err := b.registry.Dispatch(ctx, event); err != nil {
		b.logger.Error("event dispatch failed",
			"routing_key", routingKey,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err,
		)
		return nil
	}
	b.logger.Debug("event dispatched", "routing_key", routingKey, "duration_ms", time.Since(start).Milliseconds())
	return nil
}

// Close is a no-op.
func (b *InProcessBus) Close() error {
	return nil
}
