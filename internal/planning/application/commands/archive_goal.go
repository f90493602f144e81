package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/stride/internal/planning/domain"
	sharedApplication "github.com/felixgeelhaar/stride/internal/shared/application"
	"github.com/felixgeelhaar/stride/internal/shared/infrastructure/lock"
	"github.com/felixgeelhaar/stride/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
)

// ArchiveGoalCommand contains the data needed to archive a goal.
type ArchiveGoalCommand struct {
	UserID uuid.UUID
	GoalID uuid.UUID
}

// ArchiveGoalResult reports the archived goal and the planned sessions
// that were taken off the calendar.
type ArchiveGoalResult struct {
	Goal          *domain.Goal
	RemovedBlocks []uuid.UUID
}

// ArchiveGoalHandler handles ArchiveGoalCommand.
type ArchiveGoalHandler struct {
	goalRepo   domain.GoalRepository
	sessions   SessionPruner
	outboxRepo outbox.Repository
	guard      calendarGuard
	logger     *slog.Logger
	now        func() time.Time
}

// NewArchiveGoalHandler creates an ArchiveGoalHandler. timeout bounds the
// whole write including the lock wait; zero disables it.
func NewArchiveGoalHandler(
	goalRepo domain.GoalRepository,
	sessions SessionPruner,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	locker lock.Locker,
	timeout time.Duration,
	logger *slog.Logger,
) *ArchiveGoalHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if locker == nil {
		locker = lock.NewLocalLocker()
	}
	return &ArchiveGoalHandler{
		goalRepo:   goalRepo,
		sessions:   sessions,
		outboxRepo: outboxRepo,
		guard:      calendarGuard{locker: locker, uow: uow, timeout: timeout},
		logger:     logger,
		now:        time.Now,
	}
}

// Handle archives the goal and deletes its planned sessions that start from
// now on. Completed history stays. Archiving an archived goal is a no-op.
func (h *ArchiveGoalHandler) Handle(ctx context.Context, cmd ArchiveGoalCommand) (*ArchiveGoalResult, error) {
	result := &ArchiveGoalResult{}

	err := h.guard.run(ctx, cmd.UserID, func(txCtx context.Context) error {
		goal, err := loadOwned(txCtx, h.goalRepo, cmd.UserID, cmd.GoalID)
		if err != nil {
			return err
		}
		result.Goal = goal
		if goal.Status() == domain.GoalStatusArchived {
			return nil
		}

		if err := goal.Archive(); err != nil {
			return err
		}
		removed, err := h.sessions.DeletePlannedByGoalFrom(txCtx, goal.ID(), h.now())
		if err != nil {
			return fmt.Errorf("remove planned sessions: %w", err)
		}
		result.RemovedBlocks = removed

		return saveGoal(txCtx, h.goalRepo, h.outboxRepo, cmd.UserID, goal)
	})
	if err != nil {
		return nil, err
	}

	h.logger.Info("goal archived",
		"user_id", cmd.UserID,
		"goal_id", cmd.GoalID,
		"removed_blocks", len(result.RemovedBlocks),
	)
	return result, nil
}
