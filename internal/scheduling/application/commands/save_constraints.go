package commands

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/stride/internal/scheduling/domain"
	"github.com/google/uuid"
)

// SaveConstraintsCommand replaces a user's fixed-time settings.
type SaveConstraintsCommand struct {
	UserID      uuid.UUID
	Constraints domain.UserConstraints
}

// SaveConstraintsHandler handles SaveConstraintsCommand.
type SaveConstraintsHandler struct {
	m *Mutator
}

// NewSaveConstraintsHandler creates a SaveConstraintsHandler.
func NewSaveConstraintsHandler(m *Mutator) *SaveConstraintsHandler {
	return &SaveConstraintsHandler{m: m}
}

// Handle validates and stores the constraints. Blocks already on the
// calendar are left alone; the next allocation picks the change up.
func (h *SaveConstraintsHandler) Handle(ctx context.Context, cmd SaveConstraintsCommand) (*domain.UserConstraints, error) {
	m := h.m
	c := cmd.Constraints
	c.UserID = cmd.UserID
	if err := c.Validate(); err != nil {
		return nil, err
	}
	c.UpdatedAt = m.now().UTC()

	err := m.locked(ctx, cmd.UserID, func(txCtx context.Context) error {
		if err := m.constraints.Save(txCtx, &c); err != nil {
			return fmt.Errorf("save constraints: %w", err)
		}
		return m.publish(txCtx, cmd.UserID, domainEvents(domain.NewConstraintsUpdated(&c)))
	})
	if err != nil {
		return nil, err
	}

	m.logger.Info("constraints saved",
		"user_id", cmd.UserID,
		"timezone", c.Timezone,
		"work_days", len(c.Work),
		"commitments", len(c.Commitments),
	)
	return &c, nil
}
