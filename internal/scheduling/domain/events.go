package domain

import (
	"time"

	sharedDomain "github.com/felixgeelhaar/stride/internal/shared/domain"
	"github.com/google/uuid"
)

const (
	AggregateType         = "ScheduleBlock"
	ScheduleAggregateType = "Schedule"

	RoutingKeyBlockInserted        = "schedule.block.inserted"
	RoutingKeyBlockMoved           = "schedule.block.moved"
	RoutingKeyBlockResized         = "schedule.block.resized"
	RoutingKeyBlockCompleted       = "schedule.block.completed"
	RoutingKeyBlockStatusChanged   = "schedule.block.status_changed"
	RoutingKeyBlockDeleted         = "schedule.block.deleted"
	RoutingKeyBlockConflictFlagged = "schedule.block.conflict_flagged"
	RoutingKeyBlockConflictCleared = "schedule.block.conflict_cleared"
	RoutingKeyScheduleAllocated    = "schedule.allocated"
	RoutingKeyConstraintsUpdated   = "schedule.constraints.updated"
)

// BlockScheduled is emitted when a block is inserted.
type BlockScheduled struct {
	sharedDomain.BaseEvent
	BlockID   uuid.UUID `json:"block_id"`
	UserID    uuid.UUID `json:"user_id"`
	BlockType BlockType `json:"block_type"`
	GoalID    uuid.UUID `json:"goal_id,omitempty"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
}

// NewBlockScheduled creates a BlockScheduled event.
func NewBlockScheduled(b *ScheduleBlock) *BlockScheduled {
	return &BlockScheduled{
		BaseEvent: sharedDomain.NewBaseEvent(b.ID(), AggregateType, RoutingKeyBlockInserted),
		BlockID:   b.ID(),
		UserID:    b.userID,
		BlockType: b.blockType,
		GoalID:    b.goalID,
		Start:     b.start,
		End:       b.End(),
	}
}

// BlockMoved is emitted when a block start changes.
type BlockMoved struct {
	sharedDomain.BaseEvent
	BlockID  uuid.UUID `json:"block_id"`
	OldStart time.Time `json:"old_start"`
	OldEnd   time.Time `json:"old_end"`
	NewStart time.Time `json:"new_start"`
	NewEnd   time.Time `json:"new_end"`
}

// NewBlockMoved creates a BlockMoved event.
func NewBlockMoved(b *ScheduleBlock, old TimeRange) *BlockMoved {
	return &BlockMoved{
		BaseEvent: sharedDomain.NewBaseEvent(b.ID(), AggregateType, RoutingKeyBlockMoved),
		BlockID:   b.ID(),
		OldStart:  old.Start,
		OldEnd:    old.End,
		NewStart:  b.start,
		NewEnd:    b.End(),
	}
}

// BlockResized is emitted when a block duration changes.
type BlockResized struct {
	sharedDomain.BaseEvent
	BlockID            uuid.UUID `json:"block_id"`
	OldDurationMinutes int       `json:"old_duration_minutes"`
	NewDurationMinutes int       `json:"new_duration_minutes"`
}

// NewBlockResized creates a BlockResized event.
func NewBlockResized(b *ScheduleBlock, oldMinutes int) *BlockResized {
	return &BlockResized{
		BaseEvent:          sharedDomain.NewBaseEvent(b.ID(), AggregateType, RoutingKeyBlockResized),
		BlockID:            b.ID(),
		OldDurationMinutes: oldMinutes,
		NewDurationMinutes: b.durationMinutes,
	}
}

// BlockCompleted is emitted when a block is marked done.
type BlockCompleted struct {
	sharedDomain.BaseEvent
	BlockID     uuid.UUID `json:"block_id"`
	UserID      uuid.UUID `json:"user_id"`
	GoalID      uuid.UUID `json:"goal_id,omitempty"`
	MicroGoalID uuid.UUID `json:"micro_goal_id,omitempty"`
	CompletedAt time.Time `json:"completed_at"`
}

// NewBlockCompleted creates a BlockCompleted event.
func NewBlockCompleted(b *ScheduleBlock) *BlockCompleted {
	e := &BlockCompleted{
		BaseEvent:   sharedDomain.NewBaseEvent(b.ID(), AggregateType, RoutingKeyBlockCompleted),
		BlockID:     b.ID(),
		UserID:      b.userID,
		GoalID:      b.goalID,
		MicroGoalID: b.microGoalID,
	}
	if b.completedAt != nil {
		e.CompletedAt = *b.completedAt
	}
	return e
}

// BlockStatusChanged is emitted for skip, cancel and re-plan transitions.
type BlockStatusChanged struct {
	sharedDomain.BaseEvent
	BlockID uuid.UUID   `json:"block_id"`
	From    BlockStatus `json:"from"`
	To      BlockStatus `json:"to"`
}

// NewBlockStatusChanged creates a BlockStatusChanged event.
func NewBlockStatusChanged(b *ScheduleBlock, from BlockStatus) *BlockStatusChanged {
	return &BlockStatusChanged{
		BaseEvent: sharedDomain.NewBaseEvent(b.ID(), AggregateType, RoutingKeyBlockStatusChanged),
		BlockID:   b.ID(),
		From:      from,
		To:        b.status,
	}
}

// BlockDeleted is emitted when a block is removed from the calendar.
type BlockDeleted struct {
	sharedDomain.BaseEvent
	BlockID uuid.UUID `json:"block_id"`
	UserID  uuid.UUID `json:"user_id"`
	GoalID  uuid.UUID `json:"goal_id,omitempty"`
}

// NewBlockDeleted creates a BlockDeleted event.
func NewBlockDeleted(b *ScheduleBlock) *BlockDeleted {
	return &BlockDeleted{
		BaseEvent: sharedDomain.NewBaseEvent(b.ID(), AggregateType, RoutingKeyBlockDeleted),
		BlockID:   b.ID(),
		UserID:    b.userID,
		GoalID:    b.goalID,
	}
}

// BlockConflictChanged is emitted when the conflict flag is set or cleared.
type BlockConflictChanged struct {
	sharedDomain.BaseEvent
	BlockID    uuid.UUID `json:"block_id"`
	Conflicted bool      `json:"conflicted"`
}

// NewBlockConflictChanged creates an event for the block's current flag.
func NewBlockConflictChanged(b *ScheduleBlock) *BlockConflictChanged {
	key := RoutingKeyBlockConflictCleared
	if b.conflicted {
		key = RoutingKeyBlockConflictFlagged
	}
	return &BlockConflictChanged{
		BaseEvent:  sharedDomain.NewBaseEvent(b.ID(), AggregateType, key),
		BlockID:    b.ID(),
		Conflicted: b.conflicted,
	}
}

// ScheduleAllocated summarizes an allocation run. It is keyed by user.
type ScheduleAllocated struct {
	sharedDomain.BaseEvent
	UserID        uuid.UUID         `json:"user_id"`
	HorizonStart  time.Time         `json:"horizon_start"`
	HorizonWeeks  int               `json:"horizon_weeks"`
	PlacedBlocks  int               `json:"placed_blocks"`
	FixedBlocks   int               `json:"fixed_blocks"`
	ShortfallMins map[string]int    `json:"shortfall_minutes,omitempty"`
	SkippedDays   map[string]string `json:"skipped_days,omitempty"`
}

// NewScheduleAllocated creates a ScheduleAllocated event.
func NewScheduleAllocated(userID uuid.UUID, horizonStart time.Time, weeks, placed, fixed int) *ScheduleAllocated {
	return &ScheduleAllocated{
		BaseEvent:    sharedDomain.NewBaseEvent(userID, ScheduleAggregateType, RoutingKeyScheduleAllocated),
		UserID:       userID,
		HorizonStart: horizonStart,
		HorizonWeeks: weeks,
		PlacedBlocks: placed,
		FixedBlocks:  fixed,
	}
}

// ConstraintsUpdated is emitted when a user saves new constraints.
type ConstraintsUpdated struct {
	sharedDomain.BaseEvent
	UserID   uuid.UUID `json:"user_id"`
	Timezone string    `json:"timezone"`
}

// NewConstraintsUpdated creates a ConstraintsUpdated event.
func NewConstraintsUpdated(c *UserConstraints) *ConstraintsUpdated {
	return &ConstraintsUpdated{
		BaseEvent: sharedDomain.NewBaseEvent(c.UserID, ScheduleAggregateType, RoutingKeyConstraintsUpdated),
		UserID:    c.UserID,
		Timezone:  c.Timezone,
	}
}
