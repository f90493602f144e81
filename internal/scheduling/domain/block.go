package domain

import (
	"fmt"
	"time"

	sharedDomain "github.com/felixgeelhaar/stride/internal/shared/domain"
	"github.com/google/uuid"
)

// BlockType represents the kind of calendar entry.
type BlockType string

const (
	BlockTypeGoalSession     BlockType = "goal_session"
	BlockTypeWork            BlockType = "work"
	BlockTypeCommute         BlockType = "commute"
	BlockTypeFixedCommitment BlockType = "fixed_commitment"
	BlockTypeSleep           BlockType = "sleep"
)

// IsValid reports whether t is a known block type.
func (t BlockType) IsValid() bool {
	switch t {
	case BlockTypeGoalSession, BlockTypeWork, BlockTypeCommute, BlockTypeFixedCommitment, BlockTypeSleep:
		return true
	}
	return false
}

// IsFixed reports types derived from user constraints. Goal sessions never
// displace them.
func (t BlockType) IsFixed() bool {
	return t != BlockTypeGoalSession
}

// BlockStatus is the lifecycle state of a block.
type BlockStatus string

const (
	BlockStatusPlanned   BlockStatus = "planned"
	BlockStatusCompleted BlockStatus = "completed"
	BlockStatusSkipped   BlockStatus = "skipped"
	BlockStatusCancelled BlockStatus = "cancelled"
)

// IsValid reports whether s is a known status.
func (s BlockStatus) IsValid() bool {
	switch s {
	case BlockStatusPlanned, BlockStatusCompleted, BlockStatusSkipped, BlockStatusCancelled:
		return true
	}
	return false
}

// Occupies reports whether a block in this status holds its time slot.
func (s BlockStatus) Occupies() bool {
	return s == BlockStatusPlanned || s == BlockStatusCompleted
}

// BlockParams describes a new block.
type BlockParams struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	Type            BlockType
	Title           string
	Start           time.Time
	DurationMinutes int
	Notes           string
	GoalID          uuid.UUID
	MicroGoalID     uuid.UUID
}

// ScheduleBlock is a time-boxed calendar entry owned by one user.
type ScheduleBlock struct {
	sharedDomain.BaseAggregateRoot
	userID          uuid.UUID
	blockType       BlockType
	title           string
	start           time.Time
	durationMinutes int
	status          BlockStatus
	notes           string
	goalID          uuid.UUID
	microGoalID     uuid.UUID
	conflicted      bool
	completedAt     *time.Time
}

// NewScheduleBlock creates a planned block. A zero ID gets a fresh one.
func NewScheduleBlock(p BlockParams) (*ScheduleBlock, error) {
	if !p.Type.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBlockType, p.Type)
	}
	if p.DurationMinutes <= 0 {
		return nil, ErrInvalidDuration
	}

	entity := sharedDomain.NewBaseEntity()
	if p.ID != uuid.Nil {
		entity = sharedDomain.NewBaseEntityWithID(p.ID)
	}

	b := &ScheduleBlock{
		BaseAggregateRoot: sharedDomain.NewBaseAggregateRoot(entity),
		userID:            p.UserID,
		blockType:         p.Type,
		title:             p.Title,
		start:             p.Start.UTC(),
		durationMinutes:   p.DurationMinutes,
		status:            BlockStatusPlanned,
		notes:             p.Notes,
		goalID:            p.GoalID,
		microGoalID:       p.MicroGoalID,
	}
	b.Record(NewBlockScheduled(b))
	return b, nil
}

// Getters
func (b *ScheduleBlock) UserID() uuid.UUID       { return b.userID }
func (b *ScheduleBlock) Type() BlockType         { return b.blockType }
func (b *ScheduleBlock) Title() string           { return b.title }
func (b *ScheduleBlock) Start() time.Time        { return b.start }
func (b *ScheduleBlock) DurationMinutes() int    { return b.durationMinutes }
func (b *ScheduleBlock) Status() BlockStatus     { return b.status }
func (b *ScheduleBlock) Notes() string           { return b.notes }
func (b *ScheduleBlock) GoalID() uuid.UUID       { return b.goalID }
func (b *ScheduleBlock) MicroGoalID() uuid.UUID  { return b.microGoalID }
func (b *ScheduleBlock) IsConflicted() bool      { return b.conflicted }
func (b *ScheduleBlock) CompletedAt() *time.Time { return b.completedAt }

// End returns the instant the block finishes.
func (b *ScheduleBlock) End() time.Time {
	return b.start.Add(time.Duration(b.durationMinutes) * time.Minute)
}

// Range returns [Start, End).
func (b *ScheduleBlock) Range() TimeRange {
	return TimeRange{Start: b.start, End: b.End()}
}

// Occupies reports whether the block holds its slot.
func (b *ScheduleBlock) Occupies() bool {
	return b.status.Occupies()
}

// OverlapsWith uses the half-open overlap test against another block.
func (b *ScheduleBlock) OverlapsWith(other *ScheduleBlock) bool {
	return b.Range().Overlaps(other.Range())
}

// IsGoalSession reports whether the block works on a goal.
func (b *ScheduleBlock) IsGoalSession() bool {
	return b.blockType == BlockTypeGoalSession
}

// Move shifts the block to a new start, keeping its duration.
func (b *ScheduleBlock) Move(start time.Time) error {
	if b.status == BlockStatusCancelled {
		return ErrBlockCancelled
	}
	start = start.UTC()
	if start.Equal(b.start) {
		return nil
	}
	old := b.Range()
	b.start = start
	b.Touch()
	b.Record(NewBlockMoved(b, old))
	return nil
}

// Resize changes the block length.
func (b *ScheduleBlock) Resize(minutes int) error {
	if b.status == BlockStatusCancelled {
		return ErrBlockCancelled
	}
	if minutes <= 0 {
		return ErrInvalidDuration
	}
	if minutes == b.durationMinutes {
		return nil
	}
	old := b.durationMinutes
	b.durationMinutes = minutes
	b.Touch()
	b.Record(NewBlockResized(b, old))
	return nil
}

// Complete marks the block done at the given instant. Completing a
// completed block keeps the first completion time.
func (b *ScheduleBlock) Complete(at time.Time) error {
	switch b.status {
	case BlockStatusCompleted:
		return nil
	case BlockStatusCancelled:
		return ErrBlockCancelled
	}
	at = at.UTC()
	b.status = BlockStatusCompleted
	b.completedAt = &at
	b.Touch()
	b.Record(NewBlockCompleted(b))
	return nil
}

// SetStatus applies a status change. Completion goes through Complete so
// the timestamp is recorded.
func (b *ScheduleBlock) SetStatus(status BlockStatus, at time.Time) error {
	if !status.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	if status == b.status {
		return nil
	}
	if b.status == BlockStatusCancelled {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, b.status, status)
	}
	if status == BlockStatusCompleted {
		return b.Complete(at)
	}

	from := b.status
	b.status = status
	if status == BlockStatusPlanned {
		b.completedAt = nil
	}
	b.Touch()
	b.Record(NewBlockStatusChanged(b, from))
	return nil
}

// SetNotes replaces the free-text notes.
func (b *ScheduleBlock) SetNotes(notes string) {
	if notes == b.notes {
		return
	}
	b.notes = notes
	b.Touch()
}

// FlagConflict marks the block as part of a user-acknowledged overlap.
func (b *ScheduleBlock) FlagConflict() bool {
	if b.conflicted {
		return false
	}
	b.conflicted = true
	b.Touch()
	b.Record(NewBlockConflictChanged(b))
	return true
}

// ClearConflict removes the conflict flag. It returns false when the flag
// was not set.
func (b *ScheduleBlock) ClearConflict() bool {
	if !b.conflicted {
		return false
	}
	b.conflicted = false
	b.Touch()
	b.Record(NewBlockConflictChanged(b))
	return true
}

// SameSlot reports whether other describes the same placement, used to
// make inserts with a client-chosen ID idempotent.
func (b *ScheduleBlock) SameSlot(other *ScheduleBlock) bool {
	return b.userID == other.userID &&
		b.blockType == other.blockType &&
		b.start.Equal(other.start) &&
		b.durationMinutes == other.durationMinutes &&
		b.goalID == other.goalID
}

// Clone returns a deep copy without pending events. Edits are proposed on
// clones so a rejected edit leaves the loaded block untouched.
func (b *ScheduleBlock) Clone() *ScheduleBlock {
	c := *b
	c.BaseAggregateRoot = sharedDomain.NewBaseAggregateRoot(b.BaseEntity)
	if b.completedAt != nil {
		t := *b.completedAt
		c.completedAt = &t
	}
	return &c
}

// BlockSnapshot is the persisted form of a block.
type BlockSnapshot struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	Type            BlockType
	Title           string
	Start           time.Time
	DurationMinutes int
	Status          BlockStatus
	Notes           string
	GoalID          uuid.UUID
	MicroGoalID     uuid.UUID
	Conflicted      bool
	CompletedAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// RehydrateScheduleBlock recreates a block from persisted state.
func RehydrateScheduleBlock(s BlockSnapshot) *ScheduleBlock {
	return &ScheduleBlock{
		BaseAggregateRoot: sharedDomain.NewBaseAggregateRoot(
			sharedDomain.RehydrateBaseEntity(s.ID, s.CreatedAt, s.UpdatedAt),
		),
		userID:          s.UserID,
		blockType:       s.Type,
		title:           s.Title,
		start:           s.Start.UTC(),
		durationMinutes: s.DurationMinutes,
		status:          s.Status,
		notes:           s.Notes,
		goalID:          s.GoalID,
		microGoalID:     s.MicroGoalID,
		conflicted:      s.Conflicted,
		completedAt:     s.CompletedAt,
	}
}
