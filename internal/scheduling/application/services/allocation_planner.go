package services

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	planningDomain "github.com/felixgeelhaar/stride/internal/planning/domain"
	"github.com/felixgeelhaar/stride/internal/scheduling/domain"
	"github.com/google/uuid"
)

// PlannerConfig holds session length defaults for goals whose plan does not
// set them.
type PlannerConfig struct {
	DefaultSessionMinutes int
	MinSessionMinutes     int
}

// DefaultPlannerConfig returns the default configuration.
func DefaultPlannerConfig() PlannerConfig {
	return PlannerConfig{
		DefaultSessionMinutes: 60,
		MinSessionMinutes:     30,
	}
}

// AllocationRequest is the input of one allocation run.
type AllocationRequest struct {
	UserID       uuid.UUID
	Goals        []*planningDomain.Goal
	HorizonStart time.Time
	HorizonWeeks int
	// ExistingBlocks are the user's blocks inside the horizon.
	ExistingBlocks []*domain.ScheduleBlock
	// GoalHistory holds every block linked to a goal, used for the total
	// estimate cap and micro-goal coverage.
	GoalHistory map[uuid.UUID][]*domain.ScheduleBlock
	Constraints *domain.UserConstraints
	// Now excludes free time that already passed.
	Now time.Time
}

// Shortfall is the unmet minutes of a goal.
type Shortfall struct {
	GoalID  uuid.UUID `json:"goal_id"`
	Minutes int       `json:"minutes"`
}

// WeeklyShortfall is the unmet minutes of a goal at the end of one week,
// before they carry into the next.
type WeeklyShortfall struct {
	GoalID    uuid.UUID `json:"goal_id"`
	WeekStart time.Time `json:"week_start"`
	Minutes   int       `json:"minutes"`
}

// AllocationResult holds the proposed sessions and what could not be met.
type AllocationResult struct {
	Placed           []*domain.ScheduleBlock
	Shortfalls       []Shortfall
	WeeklyShortfalls []WeeklyShortfall
	// SkippedDays maps a local date to the reason it offered no free time.
	SkippedDays map[string]string
}

// ShortfallFor returns the final shortfall of a goal.
func (r *AllocationResult) ShortfallFor(goalID uuid.UUID) int {
	for _, s := range r.Shortfalls {
		if s.GoalID == goalID {
			return s.Minutes
		}
	}
	return 0
}

// AllocationPlanner distributes goal sessions into free time across a
// multi-week horizon.
type AllocationPlanner struct {
	availability *AvailabilityModel
	config       PlannerConfig
	logger       *slog.Logger
}

// NewAllocationPlanner creates a new allocation planner.
func NewAllocationPlanner(availability *AvailabilityModel, config PlannerConfig, logger *slog.Logger) *AllocationPlanner {
	if availability == nil {
		availability = NewAvailabilityModel()
	}
	if config.MinSessionMinutes <= 0 {
		config.MinSessionMinutes = DefaultPlannerConfig().MinSessionMinutes
	}
	if config.DefaultSessionMinutes < config.MinSessionMinutes {
		config.DefaultSessionMinutes = max(DefaultPlannerConfig().DefaultSessionMinutes, config.MinSessionMinutes)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AllocationPlanner{
		availability: availability,
		config:       config,
		logger:       logger,
	}
}

// demand tracks one goal across the run.
type demand struct {
	goal      *planningDomain.Goal
	preferred int
	minimum   int
	// capLeft is the remaining total estimate; negative means unlimited.
	capLeft int
	backlog int
	need    int
	stuck   bool

	micro    []*planningDomain.MicroGoal
	cursor   int
	coverage map[uuid.UUID]int
}

// freeDay is the remaining free time of one local day.
type freeDay struct {
	date time.Time
	free []domain.TimeRange
}

// Allocate proposes planned goal sessions. It never fails for infeasible
// goals: unmet minutes are reported as shortfalls.
func (p *AllocationPlanner) Allocate(req AllocationRequest) (*AllocationResult, error) {
	if req.Constraints == nil {
		return nil, domain.ErrConstraintsNotFound
	}
	if req.HorizonWeeks <= 0 {
		return nil, fmt.Errorf("%w: horizon must cover at least one week", domain.ErrInvalidConstraints)
	}

	loc := req.Constraints.Location()
	y, m, d := req.HorizonStart.In(loc).Date()
	horizonStart := time.Date(y, m, d, 0, 0, 0, 0, loc)
	now := req.Now.Truncate(time.Minute)
	if now.Before(req.Now) {
		now = now.Add(time.Minute)
	}

	result := &AllocationResult{}
	demands := p.demands(req)

	for week := 0; week < req.HorizonWeeks; week++ {
		weekStart := horizonStart.AddDate(0, 0, 7*week)
		weekEnd := weekStart.AddDate(0, 0, 7)
		days := p.freeDays(weekStart, req, now, result)

		for _, dm := range demands {
			dm.stuck = false
			dm.need = dm.goal.Plan().WeeklyMinutesAt(weekStart) + dm.backlog -
				linkedMinutes(req.ExistingBlocks, dm.goal.ID(), weekStart, weekEnd)
			dm.backlog = 0
			if dm.need < 0 {
				dm.need = 0
			}
			if dm.capLeft >= 0 && dm.need > dm.capLeft {
				dm.need = dm.capLeft
			}
		}

		order := prioritize(demands)
		for placedAny := true; placedAny; {
			placedAny = false
			for _, dm := range order {
				if dm.need <= 0 || dm.stuck {
					continue
				}
				block, err := p.placeOne(req.UserID, dm, days)
				if err != nil {
					return nil, err
				}
				if block == nil {
					dm.stuck = true
					continue
				}
				result.Placed = append(result.Placed, block)
				placedAny = true
			}
		}

		for _, dm := range demands {
			if dm.need > 0 {
				result.WeeklyShortfalls = append(result.WeeklyShortfalls, WeeklyShortfall{
					GoalID:    dm.goal.ID(),
					WeekStart: weekStart,
					Minutes:   dm.need,
				})
				dm.backlog = dm.need
			}
		}
	}

	for _, dm := range demands {
		if dm.backlog > 0 {
			result.Shortfalls = append(result.Shortfalls, Shortfall{GoalID: dm.goal.ID(), Minutes: dm.backlog})
		}
	}

	p.logger.Debug("allocation planned",
		"user_id", req.UserID,
		"horizon_start", horizonStart.Format(time.DateOnly),
		"weeks", req.HorizonWeeks,
		"placed", len(result.Placed),
		"shortfalls", len(result.Shortfalls),
		"skipped_days", len(result.SkippedDays),
	)
	return result, nil
}

func (p *AllocationPlanner) demands(req AllocationRequest) []*demand {
	var out []*demand
	for _, g := range req.Goals {
		if !g.IsActive() || g.Plan() == nil {
			continue
		}
		plan := g.Plan()
		dm := &demand{
			goal:      g,
			preferred: p.config.DefaultSessionMinutes,
			minimum:   p.config.MinSessionMinutes,
			capLeft:   -1,
			micro:     g.MicroGoals(),
			coverage:  make(map[uuid.UUID]int),
		}
		if plan.SessionMinutes > 0 {
			dm.preferred = plan.SessionMinutes
		}
		if plan.MinSessionMinutes > 0 {
			dm.minimum = plan.MinSessionMinutes
		}
		if dm.preferred < dm.minimum {
			dm.preferred = dm.minimum
		}

		history := req.GoalHistory[g.ID()]
		if total := plan.TotalEstimatedMinutes(); total > 0 {
			dm.capLeft = max(total-linkedMinutes(history, g.ID(), time.Time{}, time.Time{}), 0)
		}
		for _, b := range history {
			if !b.Occupies() || !b.IsGoalSession() || b.MicroGoalID() == uuid.Nil {
				continue
			}
			if mg := g.MicroGoal(b.MicroGoalID()); mg != nil && mg.Criteria() != nil {
				dm.coverage[mg.ID()] += coverageUnit(mg.Criteria(), b.DurationMinutes())
			}
		}
		dm.advance()
		out = append(out, dm)
	}
	return out
}

// advance moves the cursor past completed micro-goals and those whose
// countable criteria are already covered by planned work.
func (dm *demand) advance() {
	for dm.cursor < len(dm.micro) {
		mg := dm.micro[dm.cursor]
		if mg.IsCompleted() {
			dm.cursor++
			continue
		}
		c := mg.Criteria()
		if c != nil && c.IsCountable() && dm.coverage[mg.ID()] >= c.Target {
			dm.cursor++
			continue
		}
		return
	}
}

func (dm *demand) current() *planningDomain.MicroGoal {
	if dm.cursor < len(dm.micro) {
		return dm.micro[dm.cursor]
	}
	return nil
}

func coverageUnit(c *planningDomain.Criteria, minutes int) int {
	switch c.Type {
	case planningDomain.CriteriaDuration:
		return minutes
	case planningDomain.CriteriaSessions:
		return 1
	default:
		return 0
	}
}

// freeDays computes the week's free time net of occupying blocks and of
// time before now. Days with invalid constraints are recorded and offer
// nothing.
func (p *AllocationPlanner) freeDays(weekStart time.Time, req AllocationRequest, now time.Time, result *AllocationResult) []*freeDay {
	var busy []domain.TimeRange
	for _, b := range req.ExistingBlocks {
		if b.Occupies() {
			busy = append(busy, b.Range())
		}
	}

	days := make([]*freeDay, 0, 7)
	for i := 0; i < 7; i++ {
		date := weekStart.AddDate(0, 0, i)
		free, err := p.availability.FreeIntervals(date, req.Constraints)
		if err != nil {
			if result.SkippedDays == nil {
				result.SkippedDays = make(map[string]string)
			}
			result.SkippedDays[date.Format(time.DateOnly)] = err.Error()
			p.logger.Warn("day skipped by allocation",
				"user_id", req.UserID,
				"date", date.Format(time.DateOnly),
				"error", err,
			)
		}
		free = domain.SubtractRanges(free, busy)
		if !now.IsZero() {
			free = domain.SubtractRange(free, domain.TimeRange{Start: date, End: now})
		}
		days = append(days, &freeDay{date: date, free: free})
	}
	return days
}

// placeOne places a single session for the goal, or returns nil when no
// day of the week has an interval long enough.
func (p *AllocationPlanner) placeOne(userID uuid.UUID, dm *demand, days []*freeDay) (*domain.ScheduleBlock, error) {
	var (
		best       *freeDay
		bestUsable int
	)
	for _, day := range days {
		usable := 0
		for _, r := range day.free {
			if r.Minutes() >= dm.minimum {
				usable += r.Minutes()
			}
		}
		if usable > bestUsable {
			best, bestUsable = day, usable
		}
	}
	if best == nil {
		return nil, nil
	}

	var slot domain.TimeRange
	for _, r := range best.free {
		if r.Minutes() >= dm.minimum {
			slot = r
			break
		}
	}

	minutes := min(dm.preferred, dm.need, slot.Minutes())
	if minutes < dm.minimum {
		minutes = dm.minimum
	}

	title := dm.goal.Name()
	var microID uuid.UUID
	if mg := dm.current(); mg != nil {
		microID = mg.ID()
		title = fmt.Sprintf("%s: %s", dm.goal.Name(), mg.Name())
	}

	block, err := domain.NewScheduleBlock(domain.BlockParams{
		UserID:          userID,
		Type:            domain.BlockTypeGoalSession,
		Title:           title,
		Start:           slot.Start,
		DurationMinutes: minutes,
		GoalID:          dm.goal.ID(),
		MicroGoalID:     microID,
	})
	if err != nil {
		return nil, fmt.Errorf("propose session for goal %s: %w", dm.goal.ID(), err)
	}

	best.free = domain.SubtractRange(best.free, block.Range())
	dm.need = max(dm.need-minutes, 0)
	if dm.capLeft >= 0 {
		dm.capLeft = max(dm.capLeft-minutes, 0)
	}
	if mg := dm.current(); mg != nil && mg.Criteria() != nil {
		dm.coverage[mg.ID()] += coverageUnit(mg.Criteria(), minutes)
		dm.advance()
	}
	return block, nil
}

// prioritize orders goals by scarcity: most minutes needed first, then
// earliest target date, then ID.
func prioritize(demands []*demand) []*demand {
	order := make([]*demand, len(demands))
	copy(order, demands)
	sort.SliceStable(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if a.need != b.need {
			return a.need > b.need
		}
		at, bt := a.goal.TargetDate(), b.goal.TargetDate()
		switch {
		case at != nil && bt != nil && !at.Equal(*bt):
			return at.Before(*bt)
		case at != nil && bt == nil:
			return true
		case at == nil && bt != nil:
			return false
		}
		return a.goal.ID().String() < b.goal.ID().String()
	})
	return order
}

// linkedMinutes sums occupying session minutes linked to a goal that start
// inside [from, to). Zero bounds are open.
func linkedMinutes(blocks []*domain.ScheduleBlock, goalID uuid.UUID, from, to time.Time) int {
	total := 0
	for _, b := range blocks {
		if b.GoalID() != goalID || !b.IsGoalSession() || !b.Occupies() {
			continue
		}
		if !from.IsZero() && b.Start().Before(from) {
			continue
		}
		if !to.IsZero() && !b.Start().Before(to) {
			continue
		}
		total += b.DurationMinutes()
	}
	return total
}
