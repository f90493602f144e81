package domain

import (
	"time"

	"github.com/google/uuid"
)

// Entity is anything with a stable identity.
type Entity interface {
	ID() uuid.UUID
	CreatedAt() time.Time
	UpdatedAt() time.Time
}

// BaseEntity carries identity and audit timestamps for entities.
type BaseEntity struct {
	id        uuid.UUID
	createdAt time.Time
	updatedAt time.Time
}

// NewBaseEntity creates an entity with a fresh ID stamped at now.
func NewBaseEntity() BaseEntity {
	return NewBaseEntityWithID(uuid.New())
}

// NewBaseEntityWithID creates an entity with a caller-chosen ID.
// Client-supplied IDs make inserts idempotent.
func NewBaseEntityWithID(id uuid.UUID) BaseEntity {
	now := time.Now().UTC()
	return BaseEntity{id: id, createdAt: now, updatedAt: now}
}

// RehydrateBaseEntity recreates an entity from persisted state.
func RehydrateBaseEntity(id uuid.UUID, createdAt, updatedAt time.Time) BaseEntity {
	return BaseEntity{id: id, createdAt: createdAt.UTC(), updatedAt: updatedAt.UTC()}
}

func (e BaseEntity) ID() uuid.UUID        { return e.id }
func (e BaseEntity) CreatedAt() time.Time { return e.createdAt }
func (e BaseEntity) UpdatedAt() time.Time { return e.updatedAt }

// Touch bumps updatedAt.
func (e *BaseEntity) Touch() {
	e.updatedAt = time.Now().UTC()
}

// BaseAggregateRoot is an entity that records domain events until they are
// drained into the outbox.
type BaseAggregateRoot struct {
	BaseEntity
	events []DomainEvent
}

// NewBaseAggregateRoot wraps an entity as an aggregate root.
func NewBaseAggregateRoot(entity BaseEntity) BaseAggregateRoot {
	return BaseAggregateRoot{BaseEntity: entity}
}

// Record appends a domain event.
func (a *BaseAggregateRoot) Record(event DomainEvent) {
	a.events = append(a.events, event)
}

// DomainEvents returns the events recorded since the last drain.
func (a *BaseAggregateRoot) DomainEvents() []DomainEvent {
	return a.events
}

// DrainEvents returns and clears the recorded events.
func (a *BaseAggregateRoot) DrainEvents() []DomainEvent {
	events := a.events
	a.events = nil
	return events
}
