package domain

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// CriteriaType says how a micro-goal counts as done.
type CriteriaType string

const (
	CriteriaDuration  CriteriaType = "duration"  // target minutes of completed sessions
	CriteriaSessions  CriteriaType = "sessions"  // target count of completed sessions
	CriteriaMilestone CriteriaType = "milestone" // marked done by hand
)

// IsValid checks if the criteria type is known.
func (t CriteriaType) IsValid() bool {
	switch t {
	case CriteriaDuration, CriteriaSessions, CriteriaMilestone:
		return true
	default:
		return false
	}
}

// Criteria is the completion rule of a micro-goal.
type Criteria struct {
	Type        CriteriaType `json:"type" yaml:"type"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
	Target      int          `json:"target,omitempty" yaml:"target,omitempty"`
}

// Validate checks the criteria shape.
func (c Criteria) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidCriteria, c.Type)
	}
	if c.Type != CriteriaMilestone && c.Target <= 0 {
		return fmt.Errorf("%w: %s criteria needs a positive target", ErrInvalidCriteria, c.Type)
	}
	return nil
}

// IsCountable reports criteria that sessions can satisfy automatically.
func (c Criteria) IsCountable() bool {
	return c.Type == CriteriaDuration || c.Type == CriteriaSessions
}

// Phase is one stage of a plan.
type Phase struct {
	Name          string  `json:"name"`
	DurationWeeks int     `json:"duration_weeks"`
	Focus         string  `json:"focus,omitempty"`
	WeeklyHours   float64 `json:"weekly_hours,omitempty"`
}

// Plan is the time budget of a goal.
type Plan struct {
	WeeklyHours         float64   `json:"weekly_hours"`
	TotalEstimatedHours float64   `json:"total_estimated_hours,omitempty"`
	SessionMinutes      int       `json:"session_minutes,omitempty"`
	MinSessionMinutes   int       `json:"min_session_minutes,omitempty"`
	StartDate           time.Time `json:"start_date"`
	Phases              []Phase   `json:"phases,omitempty"`
}

// Validate checks the plan numbers.
func (p *Plan) Validate() error {
	var errs []error
	if p.WeeklyHours < 0 || p.WeeklyHours > 7*24 {
		errs = append(errs, fmt.Errorf("weekly hours %.1f out of range", p.WeeklyHours))
	}
	if p.TotalEstimatedHours < 0 {
		errs = append(errs, errors.New("total estimated hours cannot be negative"))
	}
	if p.SessionMinutes < 0 || p.MinSessionMinutes < 0 {
		errs = append(errs, errors.New("session lengths cannot be negative"))
	}
	if p.SessionMinutes > 0 && p.MinSessionMinutes > p.SessionMinutes {
		errs = append(errs, errors.New("minimum session exceeds preferred session"))
	}
	for i, ph := range p.Phases {
		if ph.DurationWeeks <= 0 {
			errs = append(errs, fmt.Errorf("phase %d (%s) needs a positive duration", i, ph.Name))
		}
		if ph.WeeklyHours < 0 {
			errs = append(errs, fmt.Errorf("phase %d (%s) has negative weekly hours", i, ph.Name))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidPlan, errors.Join(errs...))
}

// PhaseAt returns the phase active in the week starting at weekStart, or
// nil when the plan has no phases or they have all elapsed.
func (p *Plan) PhaseAt(weekStart time.Time) *Phase {
	if len(p.Phases) == 0 {
		return nil
	}
	week := weeksBetween(p.StartDate, weekStart)
	if week < 0 {
		week = 0
	}
	for i := range p.Phases {
		if week < p.Phases[i].DurationWeeks {
			return &p.Phases[i]
		}
		week -= p.Phases[i].DurationWeeks
	}
	return nil
}

// WeeklyMinutesAt returns the pacing target for the 7-day window starting
// at weekStart. Weeks that end before the plan starts need nothing.
func (p *Plan) WeeklyMinutesAt(weekStart time.Time) int {
	if !p.StartDate.IsZero() && !weekStart.AddDate(0, 0, 7).After(p.StartDate) {
		return 0
	}
	hours := p.WeeklyHours
	if ph := p.PhaseAt(weekStart); ph != nil && ph.WeeklyHours > 0 {
		hours = ph.WeeklyHours
	}
	return hoursToMinutes(hours)
}

// TotalEstimatedMinutes returns the overall budget; zero means open ended.
func (p *Plan) TotalEstimatedMinutes() int {
	return hoursToMinutes(p.TotalEstimatedHours)
}

func hoursToMinutes(h float64) int {
	return int(math.Round(h * 60))
}

func weeksBetween(from, to time.Time) int {
	if from.IsZero() {
		return 0
	}
	days := int(math.Floor(to.Sub(from).Hours() / 24))
	if days < 0 {
		return -1 - (-days-1)/7
	}
	return days / 7
}

// MicroGoalSpec describes a micro-goal to add to a goal.
type MicroGoalSpec struct {
	Name     string    `json:"name"`
	Criteria *Criteria `json:"criteria,omitempty"`
}

// GeneratedPlan is what a plan provider returns for a goal description.
type GeneratedPlan struct {
	Plan       Plan            `json:"plan"`
	MicroGoals []MicroGoalSpec `json:"micro_goals"`
}
