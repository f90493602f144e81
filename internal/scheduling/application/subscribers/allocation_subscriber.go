package subscribers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	planningDomain "github.com/felixgeelhaar/stride/internal/planning/domain"
	"github.com/felixgeelhaar/stride/internal/scheduling/application/commands"
	"github.com/felixgeelhaar/stride/internal/scheduling/domain"
	"github.com/felixgeelhaar/stride/internal/shared/infrastructure/eventbus"
	"github.com/google/uuid"
)

// Allocator runs an allocation for one user.
type Allocator interface {
	Handle(ctx context.Context, cmd commands.AllocateScheduleCommand) (*commands.AllocateScheduleResult, error)
}

// AllocationSubscriber re-plans a user's calendar when a goal gets a plan
// or the user's constraints change.
type AllocationSubscriber struct {
	allocator    Allocator
	horizonWeeks int
	logger       *slog.Logger
	now          func() time.Time
}

// NewAllocationSubscriber creates an AllocationSubscriber that plans
// horizonWeeks starting today.
func NewAllocationSubscriber(allocator Allocator, horizonWeeks int, logger *slog.Logger) *AllocationSubscriber {
	if logger == nil {
		logger = slog.Default()
	}
	if horizonWeeks <= 0 {
		horizonWeeks = 1
	}
	return &AllocationSubscriber{
		allocator:    allocator,
		horizonWeeks: horizonWeeks,
		logger:       logger,
		now:          time.Now,
	}
}

// EventTypes returns the routing keys this subscriber handles.
func (s *AllocationSubscriber) EventTypes() []string {
	return []string{
		planningDomain.RoutingKeyGoalPlanned,
		domain.RoutingKeyConstraintsUpdated,
	}
}

type userPayload struct {
	UserID uuid.UUID `json:"user_id"`
}

// Handle allocates for the event's user. Users without constraints are
// skipped; they get a calendar once onboarding stores them.
func (s *AllocationSubscriber) Handle(ctx context.Context, event *eventbus.ConsumedEvent) error {
	var payload userPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("decode %s payload: %w", event.RoutingKey, err)
	}
	if payload.UserID == uuid.Nil {
		s.logger.Warn("event without user id", "routing_key", event.RoutingKey)
		return nil
	}

	res, err := s.allocator.Handle(ctx, commands.AllocateScheduleCommand{
		UserID:       payload.UserID,
		HorizonStart: s.now(),
		HorizonWeeks: s.horizonWeeks,
	})
	if err != nil {
		if errors.Is(err, domain.ErrConstraintsNotFound) {
			s.logger.Debug("skipping allocation without constraints", "user_id", payload.UserID)
			return nil
		}
		return fmt.Errorf("allocate for %s: %w", payload.UserID, err)
	}

	s.logger.Info("calendar re-planned",
		"trigger", event.RoutingKey,
		"user_id", payload.UserID,
		"placed", len(res.Placed),
		"fixed", len(res.Fixed),
		"shortfalls", len(res.Shortfalls),
	)
	return nil
}
