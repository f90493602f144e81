package queries

import (
	"context"

	"github.com/felixgeelhaar/stride/internal/planning/domain"
	"github.com/google/uuid"
)

// GetGoalQuery asks for one goal of a user.
type GetGoalQuery struct {
	UserID uuid.UUID
	GoalID uuid.UUID
}

// GetGoalHandler handles GetGoalQuery.
type GetGoalHandler struct {
	goalRepo domain.GoalRepository
}

// NewGetGoalHandler creates a GetGoalHandler.
func NewGetGoalHandler(goalRepo domain.GoalRepository) *GetGoalHandler {
	return &GetGoalHandler{goalRepo: goalRepo}
}

// Handle executes the GetGoalQuery.
func (h *GetGoalHandler) Handle(ctx context.Context, q GetGoalQuery) (*GoalDTO, error) {
	goal, err := h.goalRepo.FindByID(ctx, q.GoalID)
	if err != nil {
		return nil, err
	}
	if goal == nil || goal.UserID() != q.UserID {
		return nil, domain.ErrGoalNotFound
	}
	dto := ToGoalDTO(goal)
	return &dto, nil
}
