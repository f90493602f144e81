package commands

import (
	"context"
	"time"

	"github.com/felixgeelhaar/stride/internal/scheduling/domain"
	"github.com/google/uuid"
)

// CompleteBlockCommand marks a block as done. A zero CompletedAt means
// now.
type CompleteBlockCommand struct {
	UserID      uuid.UUID
	BlockID     uuid.UUID
	CompletedAt time.Time
}

// CompleteBlockHandler handles CompleteBlockCommand.
type CompleteBlockHandler struct {
	m *Mutator
}

// NewCompleteBlockHandler creates a CompleteBlockHandler.
func NewCompleteBlockHandler(m *Mutator) *CompleteBlockHandler {
	return &CompleteBlockHandler{m: m}
}

// Handle completes the block. Completing a goal session may complete the
// micro-goal it works on and always refreshes the goal's progress.
// Completing twice keeps the first completion time.
func (h *CompleteBlockHandler) Handle(ctx context.Context, cmd CompleteBlockCommand) (*domain.ScheduleBlock, error) {
	return h.m.edit(ctx, "completed", change{
		userID:  cmd.UserID,
		blockID: cmd.BlockID,
		apply: func(b *domain.ScheduleBlock) error {
			return b.Complete(h.m.completionTime(cmd.CompletedAt))
		},
	})
}
