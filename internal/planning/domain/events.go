package domain

import (
	"time"

	sharedDomain "github.com/felixgeelhaar/stride/internal/shared/domain"
	"github.com/google/uuid"
)

const (
	AggregateType = "Goal"

	RoutingKeyGoalCreated        = "planning.goal.created"
	RoutingKeyGoalPlanned        = "planning.goal.planned"
	RoutingKeyGoalStatusChanged  = "planning.goal.status_changed"
	RoutingKeyMicroGoalCompleted = "planning.micro_goal.completed"
)

// GoalCreated is emitted when a goal is created.
type GoalCreated struct {
	sharedDomain.BaseEvent
	GoalID   uuid.UUID `json:"goal_id"`
	UserID   uuid.UUID `json:"user_id"`
	Name     string    `json:"name"`
	Category string    `json:"category,omitempty"`
}

// NewGoalCreated creates a GoalCreated event.
func NewGoalCreated(g *Goal) *GoalCreated {
	return &GoalCreated{
		BaseEvent: sharedDomain.NewBaseEvent(g.ID(), AggregateType, RoutingKeyGoalCreated),
		GoalID:    g.ID(),
		UserID:    g.userID,
		Name:      g.name,
		Category:  g.category,
	}
}

// GoalPlanned is emitted when a plan is attached or replaced.
type GoalPlanned struct {
	sharedDomain.BaseEvent
	GoalID      uuid.UUID `json:"goal_id"`
	UserID      uuid.UUID `json:"user_id"`
	WeeklyHours float64   `json:"weekly_hours"`
	Phases      int       `json:"phases"`
	MicroGoals  int       `json:"micro_goals"`
}

// NewGoalPlanned creates a GoalPlanned event.
func NewGoalPlanned(g *Goal) *GoalPlanned {
	e := &GoalPlanned{
		BaseEvent:  sharedDomain.NewBaseEvent(g.ID(), AggregateType, RoutingKeyGoalPlanned),
		GoalID:     g.ID(),
		UserID:     g.userID,
		MicroGoals: len(g.microGoals),
	}
	if g.plan != nil {
		e.WeeklyHours = g.plan.WeeklyHours
		e.Phases = len(g.plan.Phases)
	}
	return e
}

// GoalStatusChanged is emitted on lifecycle transitions.
type GoalStatusChanged struct {
	sharedDomain.BaseEvent
	GoalID uuid.UUID  `json:"goal_id"`
	From   GoalStatus `json:"from"`
	To     GoalStatus `json:"to"`
}

// NewGoalStatusChanged creates a GoalStatusChanged event.
func NewGoalStatusChanged(g *Goal, from GoalStatus) *GoalStatusChanged {
	return &GoalStatusChanged{
		BaseEvent: sharedDomain.NewBaseEvent(g.ID(), AggregateType, RoutingKeyGoalStatusChanged),
		GoalID:    g.ID(),
		From:      from,
		To:        g.status,
	}
}

// MicroGoalCompleted is emitted when a micro-goal gets its timestamp.
type MicroGoalCompleted struct {
	sharedDomain.BaseEvent
	GoalID          uuid.UUID `json:"goal_id"`
	MicroGoalID     uuid.UUID `json:"micro_goal_id"`
	CompletedAt     time.Time `json:"completed_at"`
	PercentComplete float64   `json:"percent_complete"`
}

// NewMicroGoalCompleted creates a MicroGoalCompleted event.
func NewMicroGoalCompleted(g *Goal, m *MicroGoal) *MicroGoalCompleted {
	return &MicroGoalCompleted{
		BaseEvent:       sharedDomain.NewBaseEvent(g.ID(), AggregateType, RoutingKeyMicroGoalCompleted),
		GoalID:          g.ID(),
		MicroGoalID:     m.id,
		CompletedAt:     *m.completedAt,
		PercentComplete: g.progress.PercentComplete,
	}
}
