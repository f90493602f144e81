package planprovider

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/felixgeelhaar/stride/internal/planning/domain"
)

// StaticProvider builds a fixed three-phase plan without calling out. It
// serves offline use and tests.
type StaticProvider struct {
	WeeklyHours    float64
	SessionMinutes int
	now            func() time.Time
}

// NewStaticProvider creates a StaticProvider.
func NewStaticProvider(weeklyHours float64, sessionMinutes int) *StaticProvider {
	if weeklyHours <= 0 {
		weeklyHours = 3
	}
	return &StaticProvider{WeeklyHours: weeklyHours, SessionMinutes: sessionMinutes, now: time.Now}
}

// Generate splits the time until the target date (twelve weeks without one)
// into foundation, practice and review phases of 1:2:1.
func (p *StaticProvider) Generate(_ context.Context, goal domain.GoalDescription) (*domain.GeneratedPlan, error) {
	weeks := 12
	if goal.TargetDate != "" {
		target, err := time.Parse(time.DateOnly, goal.TargetDate)
		if err != nil {
			return nil, fmt.Errorf("%w: target date %q", domain.ErrInvalidPlan, goal.TargetDate)
		}
		weeks = int(math.Ceil(target.Sub(p.now()).Hours() / (24 * 7)))
		if weeks < 4 {
			weeks = 4
		}
	}

	quarter := weeks / 4
	practice := weeks - 2*quarter
	phases := []domain.Phase{
		{Name: "Foundation", DurationWeeks: quarter, Focus: "basics of " + goal.Name},
		{Name: "Practice", DurationWeeks: practice, Focus: "regular practice"},
		{Name: "Review", DurationWeeks: quarter, Focus: "consolidate and assess", WeeklyHours: p.WeeklyHours / 2},
	}
	sessionTarget := max(int(math.Round(p.WeeklyHours*float64(quarter))), 1)
	fullWeeks := float64(weeks - quarter)
	total := p.WeeklyHours*fullWeeks + p.WeeklyHours/2*float64(quarter)

	return &domain.GeneratedPlan{
		Plan: domain.Plan{
			WeeklyHours:         p.WeeklyHours,
			TotalEstimatedHours: total,
			SessionMinutes:      p.SessionMinutes,
			Phases:              phases,
		},
		MicroGoals: []domain.MicroGoalSpec{
			{Name: "Get started with " + goal.Name, Criteria: &domain.Criteria{Type: domain.CriteriaSessions, Target: sessionTarget}},
			{Name: "Build a routine", Criteria: &domain.Criteria{Type: domain.CriteriaDuration, Target: int(p.WeeklyHours*60) * practice}},
			{Name: "Review progress", Criteria: &domain.Criteria{Type: domain.CriteriaMilestone, Description: "self assessment"}},
		},
	}, nil
}
