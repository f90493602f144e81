package queries

import (
	"context"

	"github.com/felixgeelhaar/stride/internal/scheduling/domain"
	"github.com/google/uuid"
)

// GetConstraintsQuery loads a user's constraints.
type GetConstraintsQuery struct {
	UserID uuid.UUID
}

// GetConstraintsHandler handles GetConstraintsQuery.
type GetConstraintsHandler struct {
	constraints domain.ConstraintsRepository
}

// NewGetConstraintsHandler creates a GetConstraintsHandler.
func NewGetConstraintsHandler(constraints domain.ConstraintsRepository) *GetConstraintsHandler {
	return &GetConstraintsHandler{constraints: constraints}
}

func (h *GetConstraintsHandler) Handle(ctx context.Context, q GetConstraintsQuery) (*domain.UserConstraints, error) {
	c, err := h.constraints.FindByUser(ctx, q.UserID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrConstraintsNotFound
	}
	return c, nil
}
