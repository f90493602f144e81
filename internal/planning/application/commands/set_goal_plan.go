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

// SetGoalPlanCommand replaces a goal's plan. A nil Plan asks the plan
// provider for a new one.
type SetGoalPlanCommand struct {
	UserID     uuid.UUID
	GoalID     uuid.UUID
	Plan       *domain.Plan
	MicroGoals []domain.MicroGoalSpec
}

// SetGoalPlanHandler handles SetGoalPlanCommand.
type SetGoalPlanHandler struct {
	goalRepo   domain.GoalRepository
	sessions   SessionPruner
	outboxRepo outbox.Repository
	provider   domain.PlanProvider
	guard      calendarGuard
	logger     *slog.Logger
	now        func() time.Time
}

// NewSetGoalPlanHandler creates a SetGoalPlanHandler. provider may be nil,
// in which case every command must carry a plan.
func NewSetGoalPlanHandler(
	goalRepo domain.GoalRepository,
	sessions SessionPruner,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	provider domain.PlanProvider,
	locker lock.Locker,
	timeout time.Duration,
	logger *slog.Logger,
) *SetGoalPlanHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if locker == nil {
		locker = lock.NewLocalLocker()
	}
	return &SetGoalPlanHandler{
		goalRepo:   goalRepo,
		sessions:   sessions,
		outboxRepo: outboxRepo,
		provider:   provider,
		guard:      calendarGuard{locker: locker, uow: uow, timeout: timeout},
		logger:     logger,
		now:        time.Now,
	}
}

// Handle attaches the plan. Future planned sessions of the goal are removed
// because they point at the replaced micro-goals; the next allocation
// places new ones.
func (h *SetGoalPlanHandler) Handle(ctx context.Context, cmd SetGoalPlanCommand) (*domain.Goal, error) {
	plan, specs := cmd.Plan, cmd.MicroGoals
	if plan == nil {
		generated, err := h.generate(ctx, cmd)
		if err != nil {
			return nil, err
		}
		plan, specs = &generated.Plan, generated.MicroGoals
	}

	var result *domain.Goal
	var removed []uuid.UUID

	err := h.guard.run(ctx, cmd.UserID, func(txCtx context.Context) error {
		goal, err := loadOwned(txCtx, h.goalRepo, cmd.UserID, cmd.GoalID)
		if err != nil {
			return err
		}
		if err := goal.SetPlan(*plan, specs); err != nil {
			return err
		}

		removed, err = h.sessions.DeletePlannedByGoalFrom(txCtx, goal.ID(), h.now())
		if err != nil {
			return fmt.Errorf("remove planned sessions: %w", err)
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

	h.logger.Info("goal planned",
		"user_id", cmd.UserID,
		"goal_id", cmd.GoalID,
		"weekly_hours", result.Plan().WeeklyHours,
		"micro_goals", len(result.MicroGoals()),
		"removed_blocks", len(removed),
	)
	return result, nil
}

// generate asks the provider for a plan. It runs before the calendar lock
// is taken.
func (h *SetGoalPlanHandler) generate(ctx context.Context, cmd SetGoalPlanCommand) (*domain.GeneratedPlan, error) {
	if h.provider == nil {
		return nil, domain.ErrPlanUnavailable
	}
	goal, err := loadOwned(ctx, h.goalRepo, cmd.UserID, cmd.GoalID)
	if err != nil {
		return nil, err
	}
	return h.provider.Generate(ctx, describe(goal))
}
