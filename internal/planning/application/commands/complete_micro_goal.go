package commands

import (
	"context"
	"time"

	"github.com/felixgeelhaar/stride/internal/planning/domain"
	sharedApplication "github.com/felixgeelhaar/stride/internal/shared/application"
	"github.com/felixgeelhaar/stride/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
)

// CompleteMicroGoalCommand marks a micro-goal done by hand. Milestone
// criteria are only ever completed this way.
type CompleteMicroGoalCommand struct {
	UserID      uuid.UUID
	GoalID      uuid.UUID
	MicroGoalID uuid.UUID
	CompletedAt *time.Time
}

// CompleteMicroGoalHandler handles CompleteMicroGoalCommand.
type CompleteMicroGoalHandler struct {
	goalRepo   domain.GoalRepository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
	now        func() time.Time
}

// NewCompleteMicroGoalHandler creates a CompleteMicroGoalHandler.
func NewCompleteMicroGoalHandler(goalRepo domain.GoalRepository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork) *CompleteMicroGoalHandler {
	return &CompleteMicroGoalHandler{
		goalRepo:   goalRepo,
		outboxRepo: outboxRepo,
		uow:        uow,
		now:        time.Now,
	}
}

// Handle executes the CompleteMicroGoalCommand. Completing a finished
// micro-goal keeps its first timestamp and writes nothing.
func (h *CompleteMicroGoalHandler) Handle(ctx context.Context, cmd CompleteMicroGoalCommand) (*domain.Goal, error) {
	at := h.now()
	if cmd.CompletedAt != nil {
		at = *cmd.CompletedAt
	}

	var result *domain.Goal
	err := sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		goal, err := loadOwned(txCtx, h.goalRepo, cmd.UserID, cmd.GoalID)
		if err != nil {
			return err
		}
		result = goal

		changed, err := goal.CompleteMicroGoal(cmd.MicroGoalID, at)
		if err != nil || !changed {
			return err
		}
		return saveGoal(txCtx, h.goalRepo, h.outboxRepo, cmd.UserID, goal)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
