package domain

import (
	"fmt"
	"strings"
	"time"

	sharedDomain "github.com/felixgeelhaar/stride/internal/shared/domain"
	"github.com/google/uuid"
)

// GoalStatus is the lifecycle state of a goal.
type GoalStatus string

const (
	GoalStatusActive    GoalStatus = "active"
	GoalStatusCompleted GoalStatus = "completed"
	GoalStatusPaused    GoalStatus = "paused"
	GoalStatusArchived  GoalStatus = "archived"
)

// IsValid checks if the status is known.
func (s GoalStatus) IsValid() bool {
	switch s {
	case GoalStatusActive, GoalStatusCompleted, GoalStatusPaused, GoalStatusArchived:
		return true
	default:
		return false
	}
}

// Progress is a cached summary of micro-goal completion.
type Progress struct {
	PercentComplete     float64 `json:"percent_complete"`
	CompletedMicroGoals int     `json:"completed_micro_goals"`
	TotalMicroGoals     int     `json:"total_micro_goals"`
}

// MicroGoal is one ordered step of a goal.
type MicroGoal struct {
	id          uuid.UUID
	goalID      uuid.UUID
	name        string
	orderIndex  int
	completedAt *time.Time
	criteria    *Criteria
}

func (m *MicroGoal) ID() uuid.UUID           { return m.id }
func (m *MicroGoal) GoalID() uuid.UUID       { return m.goalID }
func (m *MicroGoal) Name() string            { return m.name }
func (m *MicroGoal) OrderIndex() int         { return m.orderIndex }
func (m *MicroGoal) CompletedAt() *time.Time { return m.completedAt }
func (m *MicroGoal) Criteria() *Criteria     { return m.criteria }
func (m *MicroGoal) IsCompleted() bool       { return m.completedAt != nil }

// RehydrateMicroGoal recreates a micro-goal from persistence.
func RehydrateMicroGoal(id, goalID uuid.UUID, name string, orderIndex int, completedAt *time.Time, criteria *Criteria) *MicroGoal {
	return &MicroGoal{
		id:          id,
		goalID:      goalID,
		name:        name,
		orderIndex:  orderIndex,
		completedAt: completedAt,
		criteria:    criteria,
	}
}

// Goal is a long-term objective with a phased time budget.
type Goal struct {
	sharedDomain.BaseAggregateRoot
	userID      uuid.UUID
	name        string
	category    string
	description string
	targetDate  *time.Time
	status      GoalStatus
	plan        *Plan
	progress    Progress
	microGoals  []*MicroGoal
}

// NewGoal creates an active goal without a plan.
func NewGoal(userID uuid.UUID, name, category, description string, targetDate *time.Time) (*Goal, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrGoalEmptyName
	}

	g := &Goal{
		BaseAggregateRoot: sharedDomain.NewBaseAggregateRoot(sharedDomain.NewBaseEntity()),
		userID:            userID,
		name:              name,
		category:          strings.TrimSpace(category),
		description:       strings.TrimSpace(description),
		targetDate:        targetDate,
		status:            GoalStatusActive,
	}
	g.Record(NewGoalCreated(g))
	return g, nil
}

// Getters
func (g *Goal) UserID() uuid.UUID        { return g.userID }
func (g *Goal) Name() string             { return g.name }
func (g *Goal) Category() string         { return g.category }
func (g *Goal) Description() string      { return g.description }
func (g *Goal) TargetDate() *time.Time   { return g.targetDate }
func (g *Goal) Status() GoalStatus       { return g.status }
func (g *Goal) Plan() *Plan              { return g.plan }
func (g *Goal) Progress() Progress       { return g.progress }
func (g *Goal) MicroGoals() []*MicroGoal { return g.microGoals }
func (g *Goal) IsActive() bool           { return g.status == GoalStatusActive }

// SetPlan replaces the plan and the micro-goal list. A zero start date
// defaults to the goal's creation day.
func (g *Goal) SetPlan(plan Plan, specs []MicroGoalSpec) error {
	if g.status == GoalStatusArchived {
		return ErrGoalArchived
	}
	if err := plan.Validate(); err != nil {
		return err
	}
	if plan.StartDate.IsZero() {
		y, m, d := g.CreatedAt().Date()
		plan.StartDate = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}

	microGoals := make([]*MicroGoal, 0, len(specs))
	for i, spec := range specs {
		name := strings.TrimSpace(spec.Name)
		if name == "" {
			return ErrMicroGoalEmptyName
		}
		if spec.Criteria != nil {
			if err := spec.Criteria.Validate(); err != nil {
				return err
			}
			c := *spec.Criteria
			spec.Criteria = &c
		}
		microGoals = append(microGoals, &MicroGoal{
			id:         uuid.New(),
			goalID:     g.ID(),
			name:       name,
			orderIndex: i,
			criteria:   spec.Criteria,
		})
	}

	g.plan = &plan
	g.microGoals = microGoals
	g.RefreshProgress()
	g.Touch()
	g.Record(NewGoalPlanned(g))
	return nil
}

// NextMicroGoal returns the incomplete micro-goal with the lowest order
// index, or nil when every step is done.
func (g *Goal) NextMicroGoal() *MicroGoal {
	for _, m := range g.microGoals {
		if !m.IsCompleted() {
			return m
		}
	}
	return nil
}

// MicroGoal looks up a micro-goal by ID.
func (g *Goal) MicroGoal(id uuid.UUID) *MicroGoal {
	for _, m := range g.microGoals {
		if m.id == id {
			return m
		}
	}
	return nil
}

// CompleteMicroGoal stamps a micro-goal as done. Completing it again keeps
// the first timestamp and returns false.
func (g *Goal) CompleteMicroGoal(id uuid.UUID, at time.Time) (bool, error) {
	if g.status == GoalStatusArchived {
		return false, ErrGoalArchived
	}
	m := g.MicroGoal(id)
	if m == nil {
		return false, ErrMicroGoalNotFound
	}
	if m.IsCompleted() {
		return false, nil
	}

	at = at.UTC()
	m.completedAt = &at
	g.RefreshProgress()
	g.Touch()
	g.Record(NewMicroGoalCompleted(g, m))
	return true, nil
}

// ComputeProgress derives progress from the micro-goals without changing
// the cached snapshot.
func (g *Goal) ComputeProgress() Progress {
	p := Progress{TotalMicroGoals: len(g.microGoals)}
	for _, m := range g.microGoals {
		if m.IsCompleted() {
			p.CompletedMicroGoals++
		}
	}
	if p.TotalMicroGoals > 0 {
		p.PercentComplete = float64(p.CompletedMicroGoals) / float64(p.TotalMicroGoals) * 100
	}
	return p
}

// RefreshProgress overwrites the cached snapshot and reports whether it
// changed.
func (g *Goal) RefreshProgress() bool {
	p := g.ComputeProgress()
	if p == g.progress {
		return false
	}
	g.progress = p
	return true
}

// SetStatus changes the lifecycle state. Archived goals stay archived.
func (g *Goal) SetStatus(status GoalStatus) error {
	if !status.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidGoalStatus, status)
	}
	if status == g.status {
		return nil
	}
	if g.status == GoalStatusArchived {
		return ErrGoalArchived
	}

	from := g.status
	g.status = status
	g.Touch()
	g.Record(NewGoalStatusChanged(g, from))
	return nil
}

// Archive retires the goal. Future planned sessions are removed by the
// caller.
func (g *Goal) Archive() error {
	return g.SetStatus(GoalStatusArchived)
}

// CheckOrder verifies that micro-goal order indices are 0..n-1.
func (g *Goal) CheckOrder() error {
	for i, m := range g.microGoals {
		if m.orderIndex != i {
			return fmt.Errorf("%w: goal %s index %d at position %d", ErrMicroGoalOrderBroken, g.ID(), m.orderIndex, i)
		}
	}
	return nil
}

// GoalSnapshot is the persisted form of a goal.
type GoalSnapshot struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Name        string
	Category    string
	Description string
	TargetDate  *time.Time
	Status      GoalStatus
	Plan        *Plan
	Progress    Progress
	MicroGoals  []*MicroGoal
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RehydrateGoal recreates a goal from persistence. Micro-goals must be
// ordered by index.
func RehydrateGoal(s GoalSnapshot) *Goal {
	return &Goal{
		BaseAggregateRoot: sharedDomain.NewBaseAggregateRoot(
			sharedDomain.RehydrateBaseEntity(s.ID, s.CreatedAt, s.UpdatedAt),
		),
		userID:      s.UserID,
		name:        s.Name,
		category:    s.Category,
		description: s.Description,
		targetDate:  s.TargetDate,
		status:      s.Status,
		plan:        s.Plan,
		progress:    s.Progress,
		microGoals:  s.MicroGoals,
	}
}
