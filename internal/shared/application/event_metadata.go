package application

import (
	"context"

	"github.com/felixgeelhaar/stride/internal/shared/domain"
	"github.com/felixgeelhaar/stride/pkg/observability"
	"github.com/google/uuid"
)

type metadataSetter interface {
	SetMetadata(metadata domain.EventMetadata)
}

// NewEventMetadata creates command-scoped metadata for domain events. The
// correlation ID is taken from the context when one was seeded upstream.
func NewEventMetadata(ctx context.Context, userID uuid.UUID) domain.EventMetadata {
	correlationID := uuid.New()
	if raw := observability.CorrelationIDFromContext(ctx); raw != "" {
		if parsed, err := uuid.Parse(raw); err == nil {
			correlationID = parsed
		}
	}
	return domain.EventMetadata{
		CorrelationID: correlationID,
		CausationID:   uuid.New(),
		UserID:        userID,
	}
}

// ApplyEventMetadata sets metadata on all events that support it.
func ApplyEventMetadata(events []domain.DomainEvent, metadata domain.EventMetadata) {
	for _, event := range events {
		if setter, ok := event.(metadataSetter); ok {
			setter.SetMetadata(metadata)
		}
	}
}
