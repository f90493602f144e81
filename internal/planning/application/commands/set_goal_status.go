package commands

import (
	"context"

	"github.com/felixgeelhaar/stride/internal/planning/domain"
	sharedApplication "github.com/felixgeelhaar/stride/internal/shared/application"
	"github.com/felixgeelhaar/stride/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
)

// SetGoalStatusCommand changes the lifecycle state of a goal.
type SetGoalStatusCommand struct {
	UserID uuid.UUID
	GoalID uuid.UUID
	Status domain.GoalStatus
}

// SetGoalStatusHandler handles SetGoalStatusCommand.
type SetGoalStatusHandler struct {
	goalRepo   domain.GoalRepository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
	archive    *ArchiveGoalHandler
}

// NewSetGoalStatusHandler creates a SetGoalStatusHandler. Transitions to
// archived are delegated to archive.
func NewSetGoalStatusHandler(
	goalRepo domain.GoalRepository,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	archive *ArchiveGoalHandler,
) *SetGoalStatusHandler {
	return &SetGoalStatusHandler{
		goalRepo:   goalRepo,
		outboxRepo: outboxRepo,
		uow:        uow,
		archive:    archive,
	}
}

// Handle executes the SetGoalStatusCommand.
func (h *SetGoalStatusHandler) Handle(ctx context.Context, cmd SetGoalStatusCommand) (*domain.Goal, error) {
	if !cmd.Status.IsValid() {
		return nil, domain.ErrInvalidGoalStatus
	}
	if cmd.Status == domain.GoalStatusArchived && h.archive != nil {
		res, err := h.archive.Handle(ctx, ArchiveGoalCommand{UserID: cmd.UserID, GoalID: cmd.GoalID})
		if err != nil {
			return nil, err
		}
		return res.Goal, nil
	}

	var result *domain.Goal
	err := sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		goal, err := loadOwned(txCtx, h.goalRepo, cmd.UserID, cmd.GoalID)
		if err != nil {
			return err
		}
		if err := goal.SetStatus(cmd.Status); err != nil {
			return err
		}
		if err := saveGoal(txCtx, h.goalRepo, h.outboxRepo, cmd.UserID, goal); err != nil {
			return err
		}
		result = goal
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
