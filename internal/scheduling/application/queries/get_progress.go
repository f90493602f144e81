package queries

import (
	"context"
	"time"

	planningDomain "github.com/felixgeelhaar/stride/internal/planning/domain"
	"github.com/felixgeelhaar/stride/internal/scheduling/application/services"
	"github.com/google/uuid"
)

// ProgressDTO is a goal's progress computed from its micro-goals.
type ProgressDTO struct {
	GoalID              uuid.UUID  `json:"goal_id"`
	PercentComplete     float64    `json:"percent_complete"`
	CompletedMicroGoals int        `json:"completed_micro_goals"`
	TotalMicroGoals     int        `json:"total_micro_goals"`
	NextMicroGoalID     *uuid.UUID `json:"next_micro_goal_id,omitempty"`
	NextMicroGoal       string     `json:"next_micro_goal,omitempty"`
}

// GetProgressQuery asks for one goal's progress.
type GetProgressQuery struct {
	UserID uuid.UUID
	GoalID uuid.UUID
}

// GetProgressHandler handles GetProgressQuery.
type GetProgressHandler struct {
	goals      planningDomain.GoalRepository
	aggregator *services.ProgressAggregator
}

// NewGetProgressHandler creates a GetProgressHandler.
func NewGetProgressHandler(goals planningDomain.GoalRepository, aggregator *services.ProgressAggregator) *GetProgressHandler {
	return &GetProgressHandler{goals: goals, aggregator: aggregator}
}

// Handle recomputes progress from the goal's micro-goals rather than
// trusting the stored snapshot.
func (h *GetProgressHandler) Handle(ctx context.Context, q GetProgressQuery) (*ProgressDTO, error) {
	goal, err := h.goals.FindByID(ctx, q.GoalID)
	if err != nil {
		return nil, err
	}
	if goal == nil || goal.UserID() != q.UserID {
		return nil, planningDomain.ErrGoalNotFound
	}

	p := h.aggregator.Recompute(goal)
	out := &ProgressDTO{
		GoalID:              goal.ID(),
		PercentComplete:     p.PercentComplete,
		CompletedMicroGoals: p.CompletedMicroGoals,
		TotalMicroGoals:     p.TotalMicroGoals,
	}
	if next := goal.NextMicroGoal(); next != nil {
		id := next.ID()
		out.NextMicroGoalID = &id
		out.NextMicroGoal = next.Name()
	}
	return out, nil
}

// GetStreakQuery asks for the number of consecutive days ending at AsOf
// with a completed goal session.
type GetStreakQuery struct {
	UserID uuid.UUID
	AsOf   time.Time
}

// StreakDTO is the streak read model.
type StreakDTO struct {
	Days int       `json:"days"`
	AsOf time.Time `json:"as_of"`
}

// GetStreakHandler handles GetStreakQuery.
type GetStreakHandler struct {
	aggregator *services.ProgressAggregator
}

// NewGetStreakHandler creates a GetStreakHandler.
func NewGetStreakHandler(aggregator *services.ProgressAggregator) *GetStreakHandler {
	return &GetStreakHandler{aggregator: aggregator}
}

func (h *GetStreakHandler) Handle(ctx context.Context, q GetStreakQuery) (*StreakDTO, error) {
	days, err := h.aggregator.Streak(ctx, q.UserID, q.AsOf)
	if err != nil {
		return nil, err
	}
	return &StreakDTO{Days: days, AsOf: q.AsOf}, nil
}
