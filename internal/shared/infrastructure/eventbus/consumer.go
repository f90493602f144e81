package eventbus

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

// EventConsumer reacts to published events.
type EventConsumer interface {
	// EventTypes returns the routing keys the consumer handles.
	EventTypes() []string
	Handle(ctx context.Context, event *ConsumedEvent) error
}

// ConsumedEvent is a published event as seen by a consumer. Payload is the
// event's JSON body.
type ConsumedEvent struct {
	RoutingKey string
	Payload    json.RawMessage
	ReceivedAt time.Time
}

// ConsumerRegistry keeps consumers by routing key and dispatches to them.
type ConsumerRegistry struct {
	consumers map[string][]EventConsumer
	mu        sync.RWMutex
	logger    *slog.Logger
}

// NewConsumerRegistry creates an empty registry.
func NewConsumerRegistry(logger *slog.Logger) *ConsumerRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConsumerRegistry{
		consumers: make(map[string][]EventConsumer),
		logger:    logger,
	}
}

// Register adds a consumer for each routing key it declares.
func (r *ConsumerRegistry) Register(consumer EventConsumer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, key := range consumer.EventTypes() {
		r.consumers[key] = append(r.consumers[key], consumer)
		r.logger.Debug("registered consumer", "routing_key", key)
	}
}

// Dispatch hands the event to every consumer of its routing key. A failing
// consumer does not stop the others; the last error is returned.
func (r *ConsumerRegistry) Dispatch(ctx context.Context, event *ConsumedEvent) error {
	r.mu.RLock()
	consumers := r.consumers[event.RoutingKey]
	r.mu.RUnlock()

	var lastErr error
	for _, consumer := range consumers {
		if err := consumer.Handle(ctx, event); err != nil {
			r.logger.Error("consumer failed to handle event",
				"routing_key", event.RoutingKey,
				"error", err,
			)
			lastErr = err
		}
	}
	return lastErr
}

// ConsumerCount returns the number of registrations.
func (r *ConsumerRegistry) ConsumerCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, c := range r.consumers {
		n += len(c)
	}
	return n
}
