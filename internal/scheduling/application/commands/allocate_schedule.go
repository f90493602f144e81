package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	planningDomain "github.com/felixgeelhaar/stride/internal/planning/domain"
	"github.com/felixgeelhaar/stride/internal/scheduling/application/services"
	"github.com/felixgeelhaar/stride/internal/scheduling/domain"
	sharedApplication "github.com/felixgeelhaar/stride/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/stride/internal/shared/domain"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// AllocateScheduleCommand plans goal sessions for the horizon starting at
// HorizonStart.
type AllocateScheduleCommand struct {
	UserID       uuid.UUID
	HorizonStart time.Time
	HorizonWeeks int
}

// AllocateScheduleResult reports what an allocation run stored.
type AllocateScheduleResult struct {
	Placed           []*domain.ScheduleBlock
	Fixed            []*domain.ScheduleBlock
	Shortfalls       []services.Shortfall
	WeeklyShortfalls []services.WeeklyShortfall
	SkippedDays      map[string]string
}

// AllocateScheduleHandler handles AllocateScheduleCommand.
type AllocateScheduleHandler struct {
	m       *Mutator
	planner *services.AllocationPlanner
}

// NewAllocateScheduleHandler creates an AllocateScheduleHandler.
func NewAllocateScheduleHandler(m *Mutator, planner *services.AllocationPlanner) *AllocateScheduleHandler {
	if planner == nil {
		planner = services.NewAllocationPlanner(m.availability, services.DefaultPlannerConfig(), m.logger)
	}
	return &AllocateScheduleHandler{m: m, planner: planner}
}

// Handle materializes the horizon's fixed blocks, plans goal sessions
// around everything already stored and saves both in one transaction.
// Running it again over the same horizon adds nothing.
func (h *AllocateScheduleHandler) Handle(ctx context.Context, cmd AllocateScheduleCommand) (*AllocateScheduleResult, error) {
	m := h.m
	if cmd.HorizonWeeks <= 0 {
		cmd.HorizonWeeks = 1
	}

	var result *AllocateScheduleResult
	err := m.guarded(ctx, cmd.UserID, func(ctx context.Context) error {
		c, err := m.constraints.FindByUser(ctx, cmd.UserID)
		if err != nil {
			return fmt.Errorf("load constraints: %w", err)
		}
		if c == nil {
			return domain.ErrConstraintsNotFound
		}

		loc := c.Location()
		y, mo, d := cmd.HorizonStart.In(loc).Date()
		start := time.Date(y, mo, d, 0, 0, 0, 0, loc)
		horizon := domain.TimeRange{Start: start, End: start.AddDate(0, 0, 7*cmd.HorizonWeeks)}

		goals, err := m.goals.FindByUser(ctx, cmd.UserID, planningDomain.GoalStatusActive)
		if err != nil {
			return fmt.Errorf("load goals: %w", err)
		}

		existing, history, err := h.load(ctx, cmd.UserID, horizon, goals)
		if err != nil {
			return err
		}

		now := m.now()
		fixed, skipped := h.missingFixed(cmd.UserID, horizon, c, existing, now)

		plan, err := h.planner.Allocate(services.AllocationRequest{
			UserID:         cmd.UserID,
			Goals:          goals,
			HorizonStart:   start,
			HorizonWeeks:   cmd.HorizonWeeks,
			ExistingBlocks: append(append([]*domain.ScheduleBlock(nil), existing...), fixed...),
			GoalHistory:    history,
			Constraints:    c,
			Now:            now,
		})
		if err != nil {
			return err
		}

		occupied, _ := m.availability.OccupiedInWindow(horizon, c)
		edits := make([]services.Edit, 0, len(fixed)+len(plan.Placed))
		for _, b := range fixed {
			edits = append(edits, services.Edit{Block: b, Force: true})
		}
		for _, b := range plan.Placed {
			edits = append(edits, services.Edit{Block: b, Fixed: occupied})
		}
		batch, err := m.resolver.ResolveBatch(existing, edits)
		if err != nil {
			if errors.Is(err, domain.ErrConflict) {
				return fmt.Errorf("%w: planned session collides: %v", sharedDomain.ErrInvariantViolation, err)
			}
			return err
		}

		for day, reason := range skipped {
			if plan.SkippedDays == nil {
				plan.SkippedDays = make(map[string]string)
			}
			if _, ok := plan.SkippedDays[day]; !ok {
				plan.SkippedDays[day] = reason
			}
		}

		result = &AllocateScheduleResult{
			Placed:           batch.Blocks[len(fixed):],
			Fixed:            batch.Blocks[:len(fixed)],
			Shortfalls:       plan.Shortfalls,
			WeeklyShortfalls: plan.WeeklyShortfalls,
			SkippedDays:      plan.SkippedDays,
		}

		return sharedApplication.WithUnitOfWork(ctx, m.uow, func(txCtx context.Context) error {
			toSave := append(append([]*domain.ScheduleBlock(nil), batch.Blocks...), batch.Updated...)
			if len(toSave) > 0 {
				if err := m.blocks.SaveAll(txCtx, toSave); err != nil {
					return fmt.Errorf("save allocation: %w", err)
				}
			}

			var events []sharedDomain.DomainEvent
			for _, b := range toSave {
				events = append(events, b.DrainEvents()...)
			}
			summary := domain.NewScheduleAllocated(cmd.UserID, start, cmd.HorizonWeeks, len(result.Placed), len(result.Fixed))
			if len(plan.Shortfalls) > 0 {
				summary.ShortfallMins = make(map[string]int, len(plan.Shortfalls))
				for _, s := range plan.Shortfalls {
					summary.ShortfallMins[s.GoalID.String()] = s.Minutes
				}
			}
			summary.SkippedDays = plan.SkippedDays
			events = append(events, summary)

			return m.publish(txCtx, cmd.UserID, events)
		})
	})
	if err != nil {
		return nil, err
	}

	m.logger.Info("schedule allocated",
		"user_id", cmd.UserID,
		"horizon_start", cmd.HorizonStart.Format(time.DateOnly),
		"weeks", cmd.HorizonWeeks,
		"placed", len(result.Placed),
		"fixed", len(result.Fixed),
		"shortfalls", len(result.Shortfalls),
	)
	return result, nil
}

// load reads the horizon's blocks and every goal's sessions concurrently.
// It runs before the transaction opens; transactions are not safe for
// concurrent use.
func (h *AllocateScheduleHandler) load(ctx context.Context, userID uuid.UUID, horizon domain.TimeRange, goals []*planningDomain.Goal) ([]*domain.ScheduleBlock, map[uuid.UUID][]*domain.ScheduleBlock, error) {
	var existing []*domain.ScheduleBlock
	perGoal := make([][]*domain.ScheduleBlock, len(goals))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		blocks, err := h.m.blocks.FindInRange(gctx, userID, horizon.Start, horizon.End)
		if err != nil {
			return fmt.Errorf("load horizon blocks: %w", err)
		}
		existing = blocks
		return nil
	})
	for i, goal := range goals {
		g.Go(func() error {
			blocks, err := h.m.blocks.FindByGoal(gctx, goal.ID())
			if err != nil {
				return fmt.Errorf("load sessions of goal %s: %w", goal.ID(), err)
			}
			perGoal[i] = blocks
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	history := make(map[uuid.UUID][]*domain.ScheduleBlock, len(goals))
	for i, goal := range goals {
		history[goal.ID()] = perGoal[i]
	}
	return existing, history, nil
}

// missingFixed materializes the horizon's work, commute and commitment
// blocks that are not stored yet. A stored block of the same type and slot
// counts whatever its status. Days with invalid constraints are reported.
func (h *AllocateScheduleHandler) missingFixed(userID uuid.UUID, horizon domain.TimeRange, c *domain.UserConstraints, existing []*domain.ScheduleBlock, now time.Time) ([]*domain.ScheduleBlock, map[string]string) {
	type slot struct {
		kind    domain.BlockType
		start   int64
		minutes int
	}
	stored := make(map[slot]bool, len(existing))
	for _, b := range existing {
		stored[slot{b.Type(), b.Start().Unix(), b.DurationMinutes()}] = true
	}

	var (
		out     []*domain.ScheduleBlock
		skipped map[string]string
	)
	for _, day := range services.DaysIn(horizon, c.Location()) {
		blocks, err := h.m.availability.FixedBlocks(userID, day, c)
		if err != nil {
			if skipped == nil {
				skipped = make(map[string]string)
			}
			skipped[day.Format(time.DateOnly)] = err.Error()
			continue
		}
		for _, b := range blocks {
			if !b.End().After(now) || stored[slot{b.Type(), b.Start().Unix(), b.DurationMinutes()}] {
				continue
			}
			out = append(out, b)
		}
	}
	return out, skipped
}
