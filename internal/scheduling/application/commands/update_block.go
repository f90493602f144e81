package commands

import (
	"context"
	"time"

	"github.com/felixgeelhaar/stride/internal/scheduling/domain"
	"github.com/google/uuid"
)

// UpdateBlockCommand is a partial edit. Nil fields are left unchanged and
// the set ones are applied as a single change.
type UpdateBlockCommand struct {
	UserID          uuid.UUID
	BlockID         uuid.UUID
	Start           *time.Time
	DurationMinutes *int
	Status          *domain.BlockStatus
	Notes           *string
	Force           bool

	// CompletedAt applies when Status is completed; zero means now.
	CompletedAt time.Time
}

// UpdateBlockHandler handles UpdateBlockCommand.
type UpdateBlockHandler struct {
	m *Mutator
}

// NewUpdateBlockHandler creates an UpdateBlockHandler.
func NewUpdateBlockHandler(m *Mutator) *UpdateBlockHandler {
	return &UpdateBlockHandler{m: m}
}

// Handle applies the changed fields. A status of completed goes through the
// same progress bookkeeping as CompleteBlockCommand.
func (h *UpdateBlockHandler) Handle(ctx context.Context, cmd UpdateBlockCommand) (*domain.ScheduleBlock, error) {
	return h.m.edit(ctx, "updated", change{
		userID:  cmd.UserID,
		blockID: cmd.BlockID,
		force:   cmd.Force,
		apply: func(b *domain.ScheduleBlock) error {
			if cmd.Start != nil {
				if err := b.Move(*cmd.Start); err != nil {
					return err
				}
			}
			if cmd.DurationMinutes != nil {
				if err := b.Resize(*cmd.DurationMinutes); err != nil {
					return err
				}
			}
			if cmd.Notes != nil {
				b.SetNotes(*cmd.Notes)
			}
			if cmd.Status != nil {
				return b.SetStatus(*cmd.Status, h.m.completionTime(cmd.CompletedAt))
			}
			return nil
		},
	})
}
