package queries

import (
	"context"
	"fmt"
	"sort"

	"github.com/felixgeelhaar/stride/internal/planning/domain"
	"github.com/google/uuid"
)

// ListGoalsQuery contains the parameters for listing goals.
type ListGoalsQuery struct {
	UserID          uuid.UUID
	Status          string // empty lists every status but archived
	IncludeArchived bool
	Category        string
	SortBy          string // "created_at", "name", "progress", "target_date"
}

// ListGoalsHandler handles ListGoalsQuery.
type ListGoalsHandler struct {
	goalRepo domain.GoalRepository
}

// NewListGoalsHandler creates a ListGoalsHandler.
func NewListGoalsHandler(goalRepo domain.GoalRepository) *ListGoalsHandler {
	return &ListGoalsHandler{goalRepo: goalRepo}
}

// Handle executes the ListGoalsQuery.
func (h *ListGoalsHandler) Handle(ctx context.Context, q ListGoalsQuery) ([]GoalDTO, error) {
	var statuses []domain.GoalStatus
	switch {
	case q.Status != "":
		s := domain.GoalStatus(q.Status)
		if !s.IsValid() {
			return nil, fmt.Errorf("%w: %q", domain.ErrInvalidGoalStatus, q.Status)
		}
		statuses = []domain.GoalStatus{s}
	case !q.IncludeArchived:
		statuses = []domain.GoalStatus{domain.GoalStatusActive, domain.GoalStatusPaused, domain.GoalStatusCompleted}
	}

	goals, err := h.goalRepo.FindByUser(ctx, q.UserID, statuses...)
	if err != nil {
		return nil, err
	}

	out := make([]GoalDTO, 0, len(goals))
	for _, g := range goals {
		if q.Category != "" && g.Category() != q.Category {
			continue
		}
		out = append(out, ToGoalDTO(g))
	}
	sortGoals(out, q.SortBy)
	return out, nil
}

func sortGoals(goals []GoalDTO, by string) {
	switch by {
	case "name":
		sort.SliceStable(goals, func(i, j int) bool { return goals[i].Name < goals[j].Name })
	case "progress":
		sort.SliceStable(goals, func(i, j int) bool {
			return goals[i].Progress.PercentComplete > goals[j].Progress.PercentComplete
		})
	case "target_date":
		// Goals without a target date go last.
		sort.SliceStable(goals, func(i, j int) bool {
			a, b := goals[i].TargetDate, goals[j].TargetDate
			if a == nil || b == nil {
				return a != nil
			}
			return a.Before(*b)
		})
	}
}
