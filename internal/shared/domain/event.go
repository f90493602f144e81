package domain

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent is something that happened to an aggregate and is published
// through the outbox.
type DomainEvent interface {
	EventID() uuid.UUID
	AggregateID() uuid.UUID
	AggregateType() string
	RoutingKey() string
	OccurredAt() time.Time
	Metadata() EventMetadata
}

// EventMetadata carries tracing context for an event.
type EventMetadata struct {
	CorrelationID uuid.UUID `json:"correlation_id"`
	CausationID   uuid.UUID `json:"causation_id"`
	UserID        uuid.UUID `json:"user_id"`
}

// BaseEvent implements the envelope part of DomainEvent.
type BaseEvent struct {
	eventID       uuid.UUID
	aggregateID   uuid.UUID
	aggregateType string
	routingKey    string
	occurredAt    time.Time
	metadata      EventMetadata
}

// NewBaseEvent creates an event envelope for the given aggregate.
func NewBaseEvent(aggregateID uuid.UUID, aggregateType, routingKey string) BaseEvent {
	return BaseEvent{
		eventID:       uuid.New(),
		aggregateID:   aggregateID,
		aggregateType: aggregateType,
		routingKey:    routingKey,
		occurredAt:    time.Now().UTC(),
	}
}

func (e BaseEvent) EventID() uuid.UUID      { return e.eventID }
func (e BaseEvent) AggregateID() uuid.UUID  { return e.aggregateID }
func (e BaseEvent) AggregateType() string   { return e.aggregateType }
func (e BaseEvent) RoutingKey() string      { return e.routingKey }
func (e BaseEvent) OccurredAt() time.Time   { return e.occurredAt }
func (e BaseEvent) Metadata() EventMetadata { return e.metadata }

// SetMetadata attaches tracing metadata before the event is stored.
func (e *BaseEvent) SetMetadata(metadata EventMetadata) {
	e.metadata = metadata
}
