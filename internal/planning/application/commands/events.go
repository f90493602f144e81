package commands

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/stride/internal/planning/domain"
	sharedApplication "github.com/felixgeelhaar/stride/internal/shared/application"
	"github.com/felixgeelhaar/stride/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
)

// saveGoal stores the goal and moves its pending events into the outbox.
func saveGoal(ctx context.Context, goals domain.GoalRepository, repo outbox.Repository, userID uuid.UUID, goal *domain.Goal) error {
	if err := goals.Save(ctx, goal); err != nil {
		return fmt.Errorf("save goal %s: %w", goal.ID(), err)
	}

	events := goal.DrainEvents()
	if len(events) == 0 {
		return nil
	}
	sharedApplication.ApplyEventMetadata(events, sharedApplication.NewEventMetadata(ctx, userID))
	msgs, err := outbox.NewMessages(events)
	if err != nil {
		return err
	}
	return repo.SaveBatch(ctx, msgs)
}

// loadOwned returns the user's goal. Goals of other users are reported as
// missing.
func loadOwned(ctx context.Context, goals domain.GoalRepository, userID, goalID uuid.UUID) (*domain.Goal, error) {
	goal, err := goals.FindByID(ctx, goalID)
	if err != nil {
		return nil, fmt.Errorf("load goal %s: %w", goalID, err)
	}
	if goal == nil || goal.UserID() != userID {
		return nil, domain.ErrGoalNotFound
	}
	return goal, nil
}
