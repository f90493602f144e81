package commands

import (
	"context"

	"github.com/felixgeelhaar/stride/internal/scheduling/domain"
	"github.com/google/uuid"
)

// ResizeBlockCommand changes a block's length, keeping its start.
type ResizeBlockCommand struct {
	UserID          uuid.UUID
	BlockID         uuid.UUID
	DurationMinutes int
	Force           bool
}

// ResizeBlockHandler handles ResizeBlockCommand.
type ResizeBlockHandler struct {
	m *Mutator
}

// NewResizeBlockHandler creates a ResizeBlockHandler.
func NewResizeBlockHandler(m *Mutator) *ResizeBlockHandler {
	return &ResizeBlockHandler{m: m}
}

func (h *ResizeBlockHandler) Handle(ctx context.Context, cmd ResizeBlockCommand) (*domain.ScheduleBlock, error) {
	return h.m.edit(ctx, "resized", change{
		userID:  cmd.UserID,
		blockID: cmd.BlockID,
		force:   cmd.Force,
		apply: func(b *domain.ScheduleBlock) error {
			return b.Resize(cmd.DurationMinutes)
		},
	})
}
