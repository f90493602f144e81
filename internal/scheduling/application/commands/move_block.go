package commands

import (
	"context"
	"time"

	"github.com/felixgeelhaar/stride/internal/scheduling/domain"
	"github.com/google/uuid"
)

// MoveBlockCommand changes a block's start, keeping its length.
type MoveBlockCommand struct {
	UserID  uuid.UUID
	BlockID uuid.UUID
	Start   time.Time
	Force   bool
}

// MoveBlockHandler handles MoveBlockCommand.
type MoveBlockHandler struct {
	m *Mutator
}

// NewMoveBlockHandler creates a MoveBlockHandler.
func NewMoveBlockHandler(m *Mutator) *MoveBlockHandler {
	return &MoveBlockHandler{m: m}
}

// Handle moves the block.
func (h *MoveBlockHandler) Handle(ctx context.Context, cmd MoveBlockCommand) (*domain.ScheduleBlock, error) {
	return h.m.edit(ctx, "moved", change{
		userID:  cmd.UserID,
		blockID: cmd.BlockID,
		force:   cmd.Force,
		apply: func(b *domain.ScheduleBlock) error {
			return b.Move(cmd.Start)
		},
	})
}
