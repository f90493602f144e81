package commands

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/stride/internal/scheduling/application/services"
	"github.com/felixgeelhaar/stride/internal/scheduling/domain"
	"github.com/google/uuid"
)

// DeleteBlockCommand removes a block.
type DeleteBlockCommand struct {
	UserID  uuid.UUID
	BlockID uuid.UUID
}

// DeleteBlockHandler handles DeleteBlockCommand.
type DeleteBlockHandler struct {
	m *Mutator
}

// NewDeleteBlockHandler creates a DeleteBlockHandler.
func NewDeleteBlockHandler(m *Mutator) *DeleteBlockHandler {
	return &DeleteBlockHandler{m: m}
}

// Handle deletes the block and clears conflict flags it leaves behind.
func (h *DeleteBlockHandler) Handle(ctx context.Context, cmd DeleteBlockCommand) error {
	m := h.m
	err := m.locked(ctx, cmd.UserID, func(txCtx context.Context) error {
		stored, err := m.loadOwned(txCtx, cmd.UserID, cmd.BlockID)
		if err != nil {
			return err
		}

		current, err := m.blocks.FindInRange(txCtx, cmd.UserID,
			stored.Start().Add(-neighbourhood), stored.End().Add(neighbourhood))
		if err != nil {
			return fmt.Errorf("load neighbours: %w", err)
		}
		res, err := m.resolver.Resolve(withStored(current, stored), services.Edit{Block: stored, Remove: true})
		if err != nil {
			return err
		}

		if err := m.blocks.Delete(txCtx, stored.ID()); err != nil {
			return fmt.Errorf("delete block %s: %w", stored.ID(), err)
		}
		if len(res.Updated) > 0 {
			if err := m.blocks.SaveAll(txCtx, res.Updated); err != nil {
				return fmt.Errorf("save neighbours: %w", err)
			}
		}

		events := domainEvents(domain.NewBlockDeleted(stored))
		for _, b := range res.Updated {
			events = append(events, b.DrainEvents()...)
		}
		return m.publish(txCtx, cmd.UserID, events)
	})
	if err != nil {
		return err
	}

	m.logger.Info("block deleted", "user_id", cmd.UserID, "block_id", cmd.BlockID)
	return nil
}
