package outbox

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/felixgeelhaar/stride/internal/shared/domain"
	"github.com/google/uuid"
)

// Message is a domain event stored in the outbox until it is published.
type Message struct {
	ID               int64
	EventID          uuid.UUID
	AggregateType    string
	AggregateID      uuid.UUID
	RoutingKey       string
	Payload          json.RawMessage
	Metadata         json.RawMessage
	CreatedAt        time.Time
	PublishedAt      *time.Time
	NextRetryAt      *time.Time
	RetryCount       int
	LastError        *string
	DeadLetteredAt   *time.Time
	DeadLetterReason *string
}

// NewMessage serializes a domain event into an outbox message. Events
// expose their payload through exported, json-tagged fields.
func NewMessage(event domain.DomainEvent) (*Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", event.RoutingKey(), err)
	}

	metadata, err := json.Marshal(event.Metadata())
	if err != nil {
		return nil, fmt.Errorf("marshal %s metadata: %w", event.RoutingKey(), err)
	}

	return &Message{
		EventID:       event.EventID(),
		AggregateType: event.AggregateType(),
		AggregateID:   event.AggregateID(),
		RoutingKey:    event.RoutingKey(),
		Payload:       payload,
		Metadata:      metadata,
		CreatedAt:     event.OccurredAt(),
	}, nil
}

// NewMessages converts a batch of events, stopping at the first failure.
func NewMessages(events []domain.DomainEvent) ([]*Message, error) {
	msgs := make([]*Message, 0, len(events))
	for _, event := range events {
		msg, err := NewMessage(event)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

// IsPublished returns true if the message has been published.
func (m *Message) IsPublished() bool {
	return m.PublishedAt != nil
}
