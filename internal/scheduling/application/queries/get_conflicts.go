package queries

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/stride/internal/scheduling/application/services"
	"github.com/felixgeelhaar/stride/internal/scheduling/domain"
	"github.com/google/uuid"
)

// ConflictDTO is an overlapping pair of blocks.
type ConflictDTO struct {
	A            uuid.UUID `json:"block_a"`
	B            uuid.UUID `json:"block_b"`
	Start        time.Time `json:"overlap_start"`
	End          time.Time `json:"overlap_end"`
	Acknowledged bool      `json:"acknowledged"`
}

// GetConflictsQuery lists overlaps within [Start, End).
type GetConflictsQuery struct {
	UserID uuid.UUID
	Start  time.Time
	End    time.Time
}

// GetConflictsHandler handles GetConflictsQuery.
type GetConflictsHandler struct {
	blocks   domain.BlockRepository
	resolver *services.ConflictResolver
}

// NewGetConflictsHandler creates a GetConflictsHandler.
func NewGetConflictsHandler(blocks domain.BlockRepository, resolver *services.ConflictResolver) *GetConflictsHandler {
	if resolver == nil {
		resolver = services.NewConflictResolver(nil)
	}
	return &GetConflictsHandler{blocks: blocks, resolver: resolver}
}

// Handle returns every overlapping pair. Acknowledged pairs were stored
// with force.
func (h *GetConflictsHandler) Handle(ctx context.Context, q GetConflictsQuery) ([]ConflictDTO, error) {
	if !q.End.After(q.Start) {
		return nil, fmt.Errorf("%w: conflict window end must be after start", ErrInvalidQuery)
	}
	blocks, err := h.blocks.FindInRange(ctx, q.UserID, q.Start, q.End)
	if err != nil {
		return nil, err
	}

	pairs := h.resolver.Validate(blocks, domain.TimeRange{Start: q.Start, End: q.End})
	out := make([]ConflictDTO, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, ConflictDTO{
			A:            p.A,
			B:            p.B,
			Start:        p.Overlap.Start,
			End:          p.Overlap.End,
			Acknowledged: p.Acknowledged,
		})
	}
	return out, nil
}
