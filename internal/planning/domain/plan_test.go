package domain_test

import (
	"testing"
	"time"

	"github.com/felixgeelhaar/stride/internal/planning/domain"
	"github.com/stretchr/testify/assert"
)

func TestPlan_WeeklyMinutesAt(t *testing.T) {
	start := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	plan := domain.Plan{
		WeeklyHours: 4,
		StartDate:   start,
		Phases: []domain.Phase{
			{Name: "Foundations", DurationWeeks: 2, WeeklyHours: 2},
			{Name: "Build", DurationWeeks: 1},
			{Name: "Peak", DurationWeeks: 1, WeeklyHours: 6.5},
		},
	}

	tests := []struct {
		name      string
		weekStart time.Time
		want      int
	}{
		{"before start", start.AddDate(0, 0, -7), 0},
		{"overlapping start", start.AddDate(0, 0, -3), 120},
		{"first phase", start, 120},
		{"first phase second week", start.AddDate(0, 0, 9), 120},
		{"phase without override", start.AddDate(0, 0, 14), 240},
		{"override with fraction", start.AddDate(0, 0, 21), 390},
		{"after all phases", start.AddDate(0, 0, 28), 240},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, plan.WeeklyMinutesAt(tt.weekStart))
		})
	}
}

func TestPlan_PhaseAt(t *testing.T) {
	start := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	plan := domain.Plan{StartDate: start, Phases: []domain.Phase{{Name: "A", DurationWeeks: 1}, {Name: "B", DurationWeeks: 1}}}

	assert.Equal(t, "A", plan.PhaseAt(start).Name)
	assert.Equal(t, "B", plan.PhaseAt(start.AddDate(0, 0, 7)).Name)
	assert.Nil(t, plan.PhaseAt(start.AddDate(0, 0, 14)))
	assert.Nil(t, (&domain.Plan{}).PhaseAt(start))
}

func TestPlan_Validate(t *testing.T) {
	assert.NoError(t, (&domain.Plan{WeeklyHours: 5, SessionMinutes: 60, MinSessionMinutes: 30}).Validate())

	err := (&domain.Plan{WeeklyHours: 5, SessionMinutes: 30, MinSessionMinutes: 45, Phases: []domain.Phase{{Name: "x"}}}).Validate()
	assert.ErrorIs(t, err, domain.ErrInvalidPlan)
	assert.Contains(t, err.Error(), "minimum session")
	assert.Contains(t, err.Error(), "positive duration")
}

func TestCriteria_Validate(t *testing.T) {
	assert.NoError(t, domain.Criteria{Type: domain.CriteriaMilestone}.Validate())
	assert.NoError(t, domain.Criteria{Type: domain.CriteriaDuration, Target: 120}.Validate())
	assert.ErrorIs(t, domain.Criteria{Type: domain.CriteriaSessions}.Validate(), domain.ErrInvalidCriteria)
	assert.ErrorIs(t, domain.Criteria{Type: "vibes"}.Validate(), domain.ErrInvalidCriteria)
	assert.True(t, domain.Criteria{Type: domain.CriteriaSessions, Target: 1}.IsCountable())
}
