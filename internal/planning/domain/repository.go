package domain

import (
	"context"

	"github.com/google/uuid"
)

// GoalRepository persists goals together with their micro-goals.
type GoalRepository interface {
	Save(ctx context.Context, goal *Goal) error

	// FindByID returns nil, nil when the goal does not exist.
	FindByID(ctx context.Context, id uuid.UUID) (*Goal, error)

	// FindByUser returns the user's goals ordered by creation time. An
	// empty status list returns every status.
	FindByUser(ctx context.Context, userID uuid.UUID, statuses ...GoalStatus) ([]*Goal, error)
}

// GoalDescription is the input a plan provider works from.
type GoalDescription struct {
	Name        string `json:"name"`
	Category    string `json:"category,omitempty"`
	Description string `json:"description,omitempty"`
	TargetDate  string `json:"target_date,omitempty"`
}

// PlanProvider turns a goal description into a plan.
type PlanProvider interface {
	Generate(ctx context.Context, goal GoalDescription) (*GeneratedPlan, error)
}
