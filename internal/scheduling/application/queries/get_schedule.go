package queries

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/stride/internal/scheduling/domain"
	"github.com/google/uuid"
)

// BlockDTO is the read model of a schedule block.
type BlockDTO struct {
	ID              uuid.UUID  `json:"id"`
	Type            string     `json:"type"`
	Title           string     `json:"title,omitempty"`
	Start           time.Time  `json:"start"`
	End             time.Time  `json:"end"`
	DurationMinutes int        `json:"duration_minutes"`
	Status          string     `json:"status"`
	Notes           string     `json:"notes,omitempty"`
	GoalID          *uuid.UUID `json:"goal_id,omitempty"`
	MicroGoalID     *uuid.UUID `json:"micro_goal_id,omitempty"`
	Conflicted      bool       `json:"conflicted"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

// ScheduleDTO is a window of a user's calendar.
type ScheduleDTO struct {
	Start          time.Time  `json:"start"`
	End            time.Time  `json:"end"`
	Blocks         []BlockDTO `json:"blocks"`
	PlannedMinutes int        `json:"planned_minutes"`
	CompletedCount int        `json:"completed_count"`
	ConflictCount  int        `json:"conflict_count"`
}

// ToBlockDTO converts a block for output.
func ToBlockDTO(b *domain.ScheduleBlock) BlockDTO {
	dto := BlockDTO{
		ID:              b.ID(),
		Type:            string(b.Type()),
		Title:           b.Title(),
		Start:           b.Start(),
		End:             b.End(),
		DurationMinutes: b.DurationMinutes(),
		Status:          string(b.Status()),
		Notes:           b.Notes(),
		Conflicted:      b.IsConflicted(),
		CompletedAt:     b.CompletedAt(),
	}
	if id := b.GoalID(); id != uuid.Nil {
		dto.GoalID = &id
	}
	if id := b.MicroGoalID(); id != uuid.Nil {
		dto.MicroGoalID = &id
	}
	return dto
}

// GetScheduleQuery selects the blocks overlapping [Start, End).
type GetScheduleQuery struct {
	UserID uuid.UUID
	Start  time.Time
	End    time.Time
}

// GetScheduleHandler handles GetScheduleQuery.
type GetScheduleHandler struct {
	blocks domain.BlockRepository
}

// NewGetScheduleHandler creates a GetScheduleHandler.
func NewGetScheduleHandler(blocks domain.BlockRepository) *GetScheduleHandler {
	return &GetScheduleHandler{blocks: blocks}
}

// Handle returns the window's blocks ordered by start.
func (h *GetScheduleHandler) Handle(ctx context.Context, q GetScheduleQuery) (*ScheduleDTO, error) {
	if !q.End.After(q.Start) {
		return nil, fmt.Errorf("%w: schedule window end must be after start", ErrInvalidQuery)
	}

	blocks, err := h.blocks.FindInRange(ctx, q.UserID, q.Start, q.End)
	if err != nil {
		return nil, err
	}

	out := &ScheduleDTO{Start: q.Start, End: q.End, Blocks: make([]BlockDTO, 0, len(blocks))}
	for _, b := range blocks {
		out.Blocks = append(out.Blocks, ToBlockDTO(b))
		switch {
		case b.Status() == domain.BlockStatusCompleted:
			out.CompletedCount++
		case b.Status() == domain.BlockStatusPlanned:
			out.PlannedMinutes += b.DurationMinutes()
		}
		if b.IsConflicted() {
			out.ConflictCount++
		}
	}
	return out, nil
}
