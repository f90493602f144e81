package commands

import (
	"context"
	"fmt"
	"time"

	planningDomain "github.com/felixgeelhaar/stride/internal/planning/domain"
	"github.com/felixgeelhaar/stride/internal/scheduling/application/services"
	"github.com/felixgeelhaar/stride/internal/scheduling/domain"
	"github.com/google/uuid"
)

// InsertBlockCommand adds a block to a user's calendar. BlockID is
// optional; a repeated insert with the same ID and slot returns the stored
// block.
type InsertBlockCommand struct {
	UserID          uuid.UUID
	BlockID         uuid.UUID
	Type            domain.BlockType
	Title           string
	Start           time.Time
	DurationMinutes int
	Notes           string
	GoalID          uuid.UUID
	MicroGoalID     uuid.UUID
	Force           bool
}

// InsertBlockHandler handles InsertBlockCommand.
type InsertBlockHandler struct {
	m *Mutator
}

// NewInsertBlockHandler creates an InsertBlockHandler.
func NewInsertBlockHandler(m *Mutator) *InsertBlockHandler {
	return &InsertBlockHandler{m: m}
}

// Handle validates the block, checks it against the calendar and stores it.
func (h *InsertBlockHandler) Handle(ctx context.Context, cmd InsertBlockCommand) (*domain.ScheduleBlock, error) {
	m := h.m
	proposed, err := domain.NewScheduleBlock(domain.BlockParams{
		ID:              cmd.BlockID,
		UserID:          cmd.UserID,
		Type:            cmd.Type,
		Title:           cmd.Title,
		Start:           cmd.Start,
		DurationMinutes: cmd.DurationMinutes,
		Notes:           cmd.Notes,
		GoalID:          cmd.GoalID,
		MicroGoalID:     cmd.MicroGoalID,
	})
	if err != nil {
		return nil, err
	}

	var result *domain.ScheduleBlock
	replayed := false

	err = m.locked(ctx, cmd.UserID, func(txCtx context.Context) error {
		if cmd.BlockID != uuid.Nil {
			existing, err := m.blocks.FindByID(txCtx, cmd.BlockID)
			if err != nil {
				return fmt.Errorf("load block %s: %w", cmd.BlockID, err)
			}
			if existing != nil {
				if existing.UserID() != cmd.UserID || !existing.SameSlot(proposed) {
					return domain.ErrBlockIDReused
				}
				result = existing
				replayed = true
				return nil
			}
		}

		if cmd.GoalID != uuid.Nil {
			if err := m.checkGoal(txCtx, cmd.UserID, cmd.GoalID, cmd.MicroGoalID); err != nil {
				return err
			}
		}

		current, fixed, err := m.surroundings(txCtx, cmd.UserID, proposed.Range())
		if err != nil {
			return err
		}
		res, err := m.resolver.Resolve(current, services.Edit{
			Block: proposed,
			Force: cmd.Force,
			Fixed: fixed,
		})
		if err != nil {
			return err
		}

		events, err := m.persist(txCtx, res)
		if err != nil {
			return err
		}
		if err := m.publish(txCtx, cmd.UserID, events); err != nil {
			return err
		}
		result = res.Block
		return nil
	})
	if err != nil {
		return nil, err
	}

	if replayed {
		m.logger.Debug("block insert replayed", "user_id", cmd.UserID, "block_id", result.ID())
		return result, nil
	}
	m.logger.Info("block inserted",
		"user_id", cmd.UserID,
		"block_id", result.ID(),
		"type", result.Type(),
		"start", result.Start(),
		"duration_minutes", result.DurationMinutes(),
		"conflicted", result.IsConflicted(),
	)
	return result, nil
}

// checkGoal verifies a goal link points at the user's goal and, when
// given, one of its micro-goals.
func (m *Mutator) checkGoal(ctx context.Context, userID, goalID, microGoalID uuid.UUID) error {
	goal, err := m.goals.FindByID(ctx, goalID)
	if err != nil {
		return fmt.Errorf("load goal %s: %w", goalID, err)
	}
	if goal == nil || goal.UserID() != userID {
		return planningDomain.ErrGoalNotFound
	}
	if microGoalID != uuid.Nil && goal.MicroGoal(microGoalID) == nil {
		return planningDomain.ErrMicroGoalNotFound
	}
	return nil
}
