package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// BlockRepository persists schedule blocks.
type BlockRepository interface {
	// FindByID returns nil, nil when the block does not exist.
	FindByID(ctx context.Context, id uuid.UUID) (*ScheduleBlock, error)

	// FindInRange returns the user's blocks overlapping [start, end),
	// ordered by start time.
	FindInRange(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]*ScheduleBlock, error)

	// FindByGoal returns every block linked to a goal, ordered by start time.
	FindByGoal(ctx context.Context, goalID uuid.UUID) ([]*ScheduleBlock, error)

	// Save inserts or updates a block.
	Save(ctx context.Context, block *ScheduleBlock) error

	// SaveAll saves blocks in order. Callers wrap it in a unit of work.
	SaveAll(ctx context.Context, blocks []*ScheduleBlock) error

	// Delete removes a block.
	Delete(ctx context.Context, id uuid.UUID) error

	// DeletePlannedByGoalFrom removes the goal's planned blocks starting at
	// or after from and returns their IDs.
	DeletePlannedByGoalFrom(ctx context.Context, goalID uuid.UUID, from time.Time) ([]uuid.UUID, error)
}

// ConstraintsRepository persists user constraints.
type ConstraintsRepository interface {
	Save(ctx context.Context, constraints *UserConstraints) error

	// FindByUser returns nil, nil when the user has no constraints yet.
	FindByUser(ctx context.Context, userID uuid.UUID) (*UserConstraints, error)
}
