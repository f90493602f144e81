package commands

import (
	"context"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/stride/internal/planning/domain"
	sharedApplication "github.com/felixgeelhaar/stride/internal/shared/application"
	"github.com/felixgeelhaar/stride/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
)

// CreateGoalCommand contains the data needed to create a goal. When Plan is
// nil the handler asks the plan provider for one.
type CreateGoalCommand struct {
	UserID      uuid.UUID
	Name        string
	Category    string
	Description string
	TargetDate  *time.Time
	Plan        *domain.Plan
	MicroGoals  []domain.MicroGoalSpec
}

// CreateGoalHandler handles CreateGoalCommand.
type CreateGoalHandler struct {
	goalRepo   domain.GoalRepository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
	provider   domain.PlanProvider
	logger     *slog.Logger
}

// NewCreateGoalHandler creates a CreateGoalHandler. provider may be nil.
func NewCreateGoalHandler(
	goalRepo domain.GoalRepository,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	provider domain.PlanProvider,
	logger *slog.Logger,
) *CreateGoalHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CreateGoalHandler{
		goalRepo:   goalRepo,
		outboxRepo: outboxRepo,
		uow:        uow,
		provider:   provider,
		logger:     logger,
	}
}

// Handle creates the goal. A failing plan provider leaves the goal without
// a plan; the caller can attach one later.
func (h *CreateGoalHandler) Handle(ctx context.Context, cmd CreateGoalCommand) (*domain.Goal, error) {
	goal, err := domain.NewGoal(cmd.UserID, cmd.Name, cmd.Category, cmd.Description, cmd.TargetDate)
	if err != nil {
		return nil, err
	}

	switch {
	case cmd.Plan != nil:
		if err := goal.SetPlan(*cmd.Plan, cmd.MicroGoals); err != nil {
			return nil, err
		}
	case h.provider != nil:
		h.generatePlan(ctx, goal)
	}

	err = sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		return saveGoal(txCtx, h.goalRepo, h.outboxRepo, cmd.UserID, goal)
	})
	if err != nil {
		return nil, err
	}

	h.logger.Info("goal created",
		"user_id", cmd.UserID,
		"goal_id", goal.ID(),
		"planned", goal.Plan() != nil,
		"micro_goals", len(goal.MicroGoals()),
	)
	return goal, nil
}

func (h *CreateGoalHandler) generatePlan(ctx context.Context, goal *domain.Goal) {
	generated, err := h.provider.Generate(ctx, describe(goal))
	if err != nil {
		h.logger.Warn("plan provider failed, goal stays unplanned", "goal_id", goal.ID(), "error", err)
		return
	}
	if err := goal.SetPlan(generated.Plan, generated.MicroGoals); err != nil {
		h.logger.Warn("generated plan rejected", "goal_id", goal.ID(), "error", err)
	}
}

func describe(goal *domain.Goal) domain.GoalDescription {
	d := domain.GoalDescription{
		Name:        goal.Name(),
		Category:    goal.Category(),
		Description: goal.Description(),
	}
	if goal.TargetDate() != nil {
		d.TargetDate = goal.TargetDate().Format(time.DateOnly)
	}
	return d
}
