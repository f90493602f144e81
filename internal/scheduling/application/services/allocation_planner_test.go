package services

import (
	"testing"
	"time"

	planningDomain "github.com/felixgeelhaar/stride/internal/planning/domain"
	"github.com/felixgeelhaar/stride/internal/scheduling/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGoal(t *testing.T, name string, plan planningDomain.Plan, specs ...planningDomain.MicroGoalSpec) *planningDomain.Goal {
	t.Helper()
	g, err := planningDomain.NewGoal(uuid.New(), name, "", "", nil)
	require.NoError(t, err)
	if plan.StartDate.IsZero() {
		plan.StartDate = monday
	}
	require.NoError(t, g.SetPlan(plan, specs))
	return g
}

func newPlanner() *AllocationPlanner {
	return NewAllocationPlanner(NewAvailabilityModel(), DefaultPlannerConfig(), nil)
}

func placedMinutes(blocks []*domain.ScheduleBlock, goalID uuid.UUID) int {
	total := 0
	for _, b := range blocks {
		if b.GoalID() == goalID {
			total += b.DurationMinutes()
		}
	}
	return total
}

func assertNoOverlaps(t *testing.T, blocks []*domain.ScheduleBlock) {
	t.Helper()
	for i, a := range blocks {
		for _, b := range blocks[i+1:] {
			assert.False(t, a.OverlapsWith(b), "%v overlaps %v", a.Range(), b.Range())
		}
	}
}

// sparseConstraints leaves one free hour on Thursday to Sunday only.
func sparseConstraints() *domain.UserConstraints {
	c := &domain.UserConstraints{UserID: uuid.New(), Wake: clock("21:00"), Sleep: clock("22:00")}
	for _, d := range []time.Weekday{time.Monday, time.Tuesday, time.Wednesday} {
		c.Work = append(c.Work, domain.WorkDay{Day: domain.Weekday(d), Start: clock("21:00"), End: clock("22:00")})
	}
	return c
}

func TestAllocationPlanner_WeekdayWorkerScenario(t *testing.T) {
	c := weekdayWorker()
	g := testGoal(t, "Guitar", planningDomain.Plan{WeeklyHours: 3, SessionMinutes: 60})

	res, err := newPlanner().Allocate(AllocationRequest{
		UserID:       c.UserID,
		Goals:        []*planningDomain.Goal{g},
		HorizonStart: monday,
		HorizonWeeks: 1,
		Constraints:  c,
	})
	require.NoError(t, err)

	require.Len(t, res.Placed, 3)
	assert.Empty(t, res.Shortfalls)
	m := NewAvailabilityModel()
	for _, b := range res.Placed {
		assert.Equal(t, 60, b.DurationMinutes())
		assert.Equal(t, domain.BlockStatusPlanned, b.Status())
		assert.Equal(t, c.UserID, b.UserID())

		free, err := m.FreeIntervals(b.Start(), c)
		require.NoError(t, err)
		inside := false
		for _, r := range free {
			inside = inside || r.Contains(b.Range())
		}
		assert.True(t, inside, "session %v outside free time", b.Range())

		wd := b.Start().Weekday()
		if wd != time.Saturday && wd != time.Sunday {
			work := span(int(wd-time.Monday), "09:00", "17:00")
			assert.False(t, b.Range().Overlaps(work))
		}
	}
	// The emptiest days are the weekend days.
	assert.Equal(t, time.Saturday, res.Placed[0].Start().Weekday())
	assert.Equal(t, time.Sunday, res.Placed[1].Start().Weekday())
	assert.Equal(t, time.Saturday, res.Placed[2].Start().Weekday())
	assertNoOverlaps(t, res.Placed)
}

func TestAllocationPlanner_ReportsShortfall(t *testing.T) {
	c := sparseConstraints()
	g := testGoal(t, "Thesis", planningDomain.Plan{WeeklyHours: 10})

	res, err := newPlanner().Allocate(AllocationRequest{
		UserID:       c.UserID,
		Goals:        []*planningDomain.Goal{g},
		HorizonStart: monday,
		HorizonWeeks: 1,
		Constraints:  c,
	})
	require.NoError(t, err)

	assert.Len(t, res.Placed, 4)
	assert.Equal(t, 240, placedMinutes(res.Placed, g.ID()))
	assert.Equal(t, []Shortfall{{GoalID: g.ID(), Minutes: 360}}, res.Shortfalls)
	assert.Equal(t, 360, res.ShortfallFor(g.ID()))
	require.Len(t, res.WeeklyShortfalls, 1)
	assert.Equal(t, 360, res.WeeklyShortfalls[0].Minutes)
}

func TestAllocationPlanner_IdempotentPerGoalWeek(t *testing.T) {
	c := weekdayWorker()
	g := testGoal(t, "Guitar", planningDomain.Plan{WeeklyHours: 3})
	req := AllocationRequest{
		UserID:       c.UserID,
		Goals:        []*planningDomain.Goal{g},
		HorizonStart: monday,
		HorizonWeeks: 2,
		Constraints:  c,
	}

	first, err := newPlanner().Allocate(req)
	require.NoError(t, err)
	require.Len(t, first.Placed, 6)

	req.ExistingBlocks = first.Placed
	req.GoalHistory = map[uuid.UUID][]*domain.ScheduleBlock{g.ID(): first.Placed}
	second, err := newPlanner().Allocate(req)
	require.NoError(t, err)
	assert.Empty(t, second.Placed)
	assert.Empty(t, second.Shortfalls)
}

func TestAllocationPlanner_PrioritizesScarceGoalsWithoutOverlap(t *testing.T) {
	c := weekdayWorker()
	light := testGoal(t, "Reading", planningDomain.Plan{WeeklyHours: 2})
	heavy := testGoal(t, "Marathon", planningDomain.Plan{WeeklyHours: 5})

	res, err := newPlanner().Allocate(AllocationRequest{
		UserID:       c.UserID,
		Goals:        []*planningDomain.Goal{light, heavy},
		HorizonStart: monday,
		HorizonWeeks: 1,
		Constraints:  c,
	})
	require.NoError(t, err)

	require.NotEmpty(t, res.Placed)
	assert.Equal(t, heavy.ID(), res.Placed[0].GoalID())
	assert.Equal(t, light.ID(), res.Placed[1].GoalID())
	assert.Equal(t, 300, placedMinutes(res.Placed, heavy.ID()))
	assert.Equal(t, 120, placedMinutes(res.Placed, light.ID()))
	assertNoOverlaps(t, res.Placed)
}

func TestAllocationPlanner_AvoidsExistingBlocks(t *testing.T) {
	c := sparseConstraints()
	g := testGoal(t, "Thesis", planningDomain.Plan{WeeklyHours: 4})
	busy, err := domain.NewScheduleBlock(domain.BlockParams{
		UserID: c.UserID, Type: domain.BlockTypeFixedCommitment, Start: day(3, "21:00"), DurationMinutes: 60,
	})
	require.NoError(t, err)

	res, err := newPlanner().Allocate(AllocationRequest{
		UserID:         c.UserID,
		Goals:          []*planningDomain.Goal{g},
		HorizonStart:   monday,
		HorizonWeeks:   1,
		ExistingBlocks: []*domain.ScheduleBlock{busy},
		Constraints:    c,
	})
	require.NoError(t, err)

	assert.Len(t, res.Placed, 3)
	for _, b := range res.Placed {
		assert.False(t, b.OverlapsWith(busy))
	}
	assert.Equal(t, 60, res.ShortfallFor(g.ID()))
}

func TestAllocationPlanner_SkipsPastTimeAndCarriesBacklog(t *testing.T) {
	c := sparseConstraints()
	g := testGoal(t, "Thesis", planningDomain.Plan{WeeklyHours: 3})
	now := day(6, "21:30")

	res, err := newPlanner().Allocate(AllocationRequest{
		UserID:       c.UserID,
		Goals:        []*planningDomain.Goal{g},
		HorizonStart: monday,
		HorizonWeeks: 2,
		Constraints:  c,
		Now:          now,
	})
	require.NoError(t, err)

	for _, b := range res.Placed {
		assert.False(t, b.Start().Before(now))
	}
	require.Len(t, res.WeeklyShortfalls, 2)
	assert.Equal(t, 150, res.WeeklyShortfalls[0].Minutes)
	// Week two needs 180 plus the 150 carried over but only has 240.
	assert.Equal(t, 90, res.WeeklyShortfalls[1].Minutes)
	assert.Equal(t, 30+240, placedMinutes(res.Placed, g.ID()))
	assert.Equal(t, 90, res.ShortfallFor(g.ID()))
}

func TestAllocationPlanner_LinksMicroGoalsInOrder(t *testing.T) {
	c := weekdayWorker()
	g := testGoal(t, "Spanish", planningDomain.Plan{WeeklyHours: 5},
		planningDomain.MicroGoalSpec{Name: "Greetings", Criteria: &planningDomain.Criteria{Type: planningDomain.CriteriaSessions, Target: 2}},
		planningDomain.MicroGoalSpec{Name: "Numbers", Criteria: &planningDomain.Criteria{Type: planningDomain.CriteriaDuration, Target: 60}},
		planningDomain.MicroGoalSpec{Name: "Trip", Criteria: &planningDomain.Criteria{Type: planningDomain.CriteriaMilestone}},
	)
	mg := g.MicroGoals()

	res, err := newPlanner().Allocate(AllocationRequest{
		UserID:       c.UserID,
		Goals:        []*planningDomain.Goal{g},
		HorizonStart: monday,
		HorizonWeeks: 1,
		Constraints:  c,
	})
	require.NoError(t, err)
	require.Len(t, res.Placed, 5)

	want := []uuid.UUID{mg[0].ID(), mg[0].ID(), mg[1].ID(), mg[2].ID(), mg[2].ID()}
	for i, b := range res.Placed {
		assert.Equal(t, want[i], b.MicroGoalID(), "session %d", i)
	}
	assert.Equal(t, "Spanish: Greetings", res.Placed[0].Title())
}

func TestAllocationPlanner_ExistingCoverageAdvancesMicroGoal(t *testing.T) {
	c := weekdayWorker()
	g := testGoal(t, "Spanish", planningDomain.Plan{WeeklyHours: 1},
		planningDomain.MicroGoalSpec{Name: "Greetings", Criteria: &planningDomain.Criteria{Type: planningDomain.CriteriaSessions, Target: 1}},
		planningDomain.MicroGoalSpec{Name: "Numbers"},
	)
	done, err := domain.NewScheduleBlock(domain.BlockParams{
		UserID: c.UserID, Type: domain.BlockTypeGoalSession, Start: day(-3, "10:00"), DurationMinutes: 60,
		GoalID: g.ID(), MicroGoalID: g.MicroGoals()[0].ID(),
	})
	require.NoError(t, err)
	require.NoError(t, done.Complete(day(-3, "11:00")))

	res, err := newPlanner().Allocate(AllocationRequest{
		UserID:       c.UserID,
		Goals:        []*planningDomain.Goal{g},
		HorizonStart: monday,
		HorizonWeeks: 1,
		GoalHistory:  map[uuid.UUID][]*domain.ScheduleBlock{g.ID(): {done}},
		Constraints:  c,
	})
	require.NoError(t, err)
	require.Len(t, res.Placed, 1)
	assert.Equal(t, g.MicroGoals()[1].ID(), res.Placed[0].MicroGoalID())
}

func TestAllocationPlanner_TotalEstimateCapsDemand(t *testing.T) {
	c := weekdayWorker()
	g := testGoal(t, "Course", planningDomain.Plan{WeeklyHours: 3, TotalEstimatedHours: 2})

	res, err := newPlanner().Allocate(AllocationRequest{
		UserID:       c.UserID,
		Goals:        []*planningDomain.Goal{g},
		HorizonStart: monday,
		HorizonWeeks: 2,
		Constraints:  c,
	})
	require.NoError(t, err)
	assert.Equal(t, 120, placedMinutes(res.Placed, g.ID()))
	assert.Empty(t, res.Shortfalls)
}

func TestAllocationPlanner_IgnoresInactiveAndUnplannedGoals(t *testing.T) {
	c := weekdayWorker()
	paused := testGoal(t, "Paused", planningDomain.Plan{WeeklyHours: 3})
	require.NoError(t, paused.SetStatus(planningDomain.GoalStatusPaused))
	unplanned, err := planningDomain.NewGoal(c.UserID, "Someday", "", "", nil)
	require.NoError(t, err)

	res, err := newPlanner().Allocate(AllocationRequest{
		UserID:       c.UserID,
		Goals:        []*planningDomain.Goal{paused, unplanned},
		HorizonStart: monday,
		HorizonWeeks: 1,
		Constraints:  c,
	})
	require.NoError(t, err)
	assert.Empty(t, res.Placed)
	assert.Empty(t, res.Shortfalls)
}

func TestAllocationPlanner_MinimumSession(t *testing.T) {
	c := &domain.UserConstraints{UserID: uuid.New(), Wake: clock("22:00"), Sleep: clock("22:20")}
	g := testGoal(t, "Stretching", planningDomain.Plan{WeeklyHours: 1})

	res, err := newPlanner().Allocate(AllocationRequest{
		UserID:       c.UserID,
		Goals:        []*planningDomain.Goal{g},
		HorizonStart: monday,
		HorizonWeeks: 1,
		Constraints:  c,
	})
	require.NoError(t, err)
	assert.Empty(t, res.Placed)
	assert.Equal(t, 60, res.ShortfallFor(g.ID()))

	g2 := testGoal(t, "Breathing", planningDomain.Plan{WeeklyHours: 1, MinSessionMinutes: 15, SessionMinutes: 20})
	res, err = newPlanner().Allocate(AllocationRequest{
		UserID:       c.UserID,
		Goals:        []*planningDomain.Goal{g2},
		HorizonStart: monday,
		HorizonWeeks: 1,
		Constraints:  c,
	})
	require.NoError(t, err)
	assert.Len(t, res.Placed, 3)
	assert.Empty(t, res.Shortfalls)
}

func TestAllocationPlanner_RecordsSkippedDays(t *testing.T) {
	c := weekdayWorker()
	c.Work[0].Start, c.Work[0].End = clock("17:00"), clock("09:00")
	g := testGoal(t, "Guitar", planningDomain.Plan{WeeklyHours: 1})

	res, err := newPlanner().Allocate(AllocationRequest{
		UserID:       c.UserID,
		Goals:        []*planningDomain.Goal{g},
		HorizonStart: monday,
		HorizonWeeks: 1,
		Constraints:  c,
	})
	require.NoError(t, err)
	assert.Contains(t, res.SkippedDays, "2025-03-10")
	assert.Len(t, res.Placed, 1)
}

func TestAllocationPlanner_RequiresConstraints(t *testing.T) {
	_, err := newPlanner().Allocate(AllocationRequest{HorizonWeeks: 1})
	assert.ErrorIs(t, err, domain.ErrConstraintsNotFound)
}
