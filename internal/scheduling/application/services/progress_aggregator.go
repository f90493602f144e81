package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	planningDomain "github.com/felixgeelhaar/stride/internal/planning/domain"
	"github.com/felixgeelhaar/stride/internal/scheduling/domain"
	"github.com/google/uuid"
)

// streakWindowDays is how many days Streak loads per query.
const streakWindowDays = 60

// ProgressAggregator derives goal progress and completion streaks from the
// stored blocks. Nothing it computes is the source of truth.
type ProgressAggregator struct {
	blocks      domain.BlockRepository
	goals       planningDomain.GoalRepository
	constraints domain.ConstraintsRepository
	logger      *slog.Logger
}

// NewProgressAggregator creates a new progress aggregator.
func NewProgressAggregator(
	blocks domain.BlockRepository,
	goals planningDomain.GoalRepository,
	constraints domain.ConstraintsRepository,
	logger *slog.Logger,
) *ProgressAggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProgressAggregator{
		blocks:      blocks,
		goals:       goals,
		constraints: constraints,
		logger:      logger,
	}
}

// Recompute returns the completion ratio over the goal's micro-goals.
func (a *ProgressAggregator) Recompute(goal *planningDomain.Goal) planningDomain.Progress {
	return goal.ComputeProgress()
}

// MicroGoalCovered reports whether the completed sessions linked to a
// micro-goal satisfy its criteria. Milestones are only completed by hand;
// a micro-goal without criteria is covered by one completed session.
func (a *ProgressAggregator) MicroGoalCovered(mg *planningDomain.MicroGoal, goalBlocks []*domain.ScheduleBlock) bool {
	if mg == nil || mg.IsCompleted() {
		return false
	}

	minutes, sessions := 0, 0
	for _, b := range goalBlocks {
		if b.MicroGoalID() == mg.ID() && b.Status() == domain.BlockStatusCompleted {
			minutes += b.DurationMinutes()
			sessions++
		}
	}

	c := mg.Criteria()
	if c == nil {
		return sessions > 0
	}
	switch c.Type {
	case planningDomain.CriteriaDuration:
		return minutes >= c.Target
	case planningDomain.CriteriaSessions:
		return sessions >= c.Target
	default:
		return false
	}
}

// Streak counts consecutive local days, walking back from asOf, with at
// least one completed block linked to an active goal. The walk stops at
// the first day without one.
func (a *ProgressAggregator) Streak(ctx context.Context, userID uuid.UUID, asOf time.Time) (int, error) {
	loc := time.UTC
	c, err := a.constraints.FindByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("load constraints: %w", err)
	}
	if c != nil {
		loc = c.Location()
	}

	goals, err := a.goals.FindByUser(ctx, userID, planningDomain.GoalStatusActive)
	if err != nil {
		return 0, fmt.Errorf("load active goals: %w", err)
	}
	if len(goals) == 0 {
		return 0, nil
	}
	active := make(map[uuid.UUID]bool, len(goals))
	for _, g := range goals {
		active[g.ID()] = true
	}

	y, m, d := asOf.In(loc).Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, loc)
	windowEnd := day.AddDate(0, 0, 1)

	streak := 0
	for {
		windowStart := windowEnd.AddDate(0, 0, -streakWindowDays)
		blocks, err := a.blocks.FindInRange(ctx, userID, windowStart, windowEnd)
		if err != nil {
			return 0, fmt.Errorf("load blocks: %w", err)
		}

		days := make(map[string]bool)
		for _, b := range blocks {
			if b.Status() == domain.BlockStatusCompleted && active[b.GoalID()] {
				days[b.Start().In(loc).Format(time.DateOnly)] = true
			}
		}

		for !day.Before(windowStart) {
			if !days[day.Format(time.DateOnly)] {
				a.logger.Debug("streak computed", "user_id", userID, "as_of", asOf, "days", streak)
				return streak, nil
			}
			streak++
			day = day.AddDate(0, 0, -1)
		}
		windowEnd = windowStart
	}
}
