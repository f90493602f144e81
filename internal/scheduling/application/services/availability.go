package services

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/stride/internal/scheduling/domain"
	"github.com/google/uuid"
)

// Labels for constraint-derived intervals.
const (
	LabelSleep   = "sleep"
	LabelWork    = "work"
	LabelCommute = "commute"

	commitmentLabelPrefix = "commitment:"
)

// LabelledRange is an immovable interval derived from user constraints.
type LabelledRange struct {
	Label string           `json:"label"`
	Range domain.TimeRange `json:"range"`
}

// AvailabilityModel computes free time for a single calendar day. It holds
// no state; every call recomputes from the constraints passed in.
type AvailabilityModel struct{}

// NewAvailabilityModel creates an availability model.
func NewAvailabilityModel() *AvailabilityModel {
	return &AvailabilityModel{}
}

// dayWindows holds the constraint intervals of one day.
type dayWindows struct {
	awake       domain.TimeRange
	work        *domain.TimeRange
	commute     []domain.TimeRange
	commitments []LabelledRange
}

func (m *AvailabilityModel) windows(date time.Time, c *domain.UserConstraints) (dayWindows, error) {
	loc := c.Location()
	local := date.In(loc)
	day := local.Format(time.DateOnly)
	invalid := func(format string, args ...any) error {
		return &domain.InvalidConstraintsError{Date: day, Reason: fmt.Sprintf(format, args...)}
	}

	w := dayWindows{
		awake: domain.TimeRange{Start: c.Wake.On(local, loc), End: c.Sleep.On(local, loc)},
	}
	if w.awake.IsEmpty() {
		return w, invalid("wake time %s is not before sleep time %s", c.Wake, c.Sleep)
	}

	if wd, ok := c.WorkOn(local.Weekday()); ok {
		work := domain.TimeRange{Start: wd.Start.On(local, loc), End: wd.End.On(local, loc)}
		if work.IsEmpty() {
			return w, invalid("work window %s-%s is inverted", wd.Start, wd.End)
		}
		w.work = &work
		if c.CommuteMinutes > 0 {
			commute := time.Duration(c.CommuteMinutes) * time.Minute
			w.commute = []domain.TimeRange{
				{Start: work.Start.Add(-commute), End: work.Start},
				{Start: work.End, End: work.End.Add(commute)},
			}
		}
	}

	for _, fc := range c.CommitmentsOn(local.Weekday()) {
		r := domain.TimeRange{Start: fc.Start.On(local, loc), End: fc.End.On(local, loc)}
		if r.IsEmpty() {
			return w, invalid("commitment %q %s-%s is inverted", fc.Name, fc.Start, fc.End)
		}
		w.commitments = append(w.commitments, LabelledRange{Label: commitmentLabelPrefix + fc.Name, Range: r})
	}

	return w, nil
}

// FreeIntervals returns the free time of the calendar day containing date,
// in the user's timezone, sorted and non-overlapping. Malformed windows
// yield no free time together with an *domain.InvalidConstraintsError.
func (m *AvailabilityModel) FreeIntervals(date time.Time, c *domain.UserConstraints) ([]domain.TimeRange, error) {
	w, err := m.windows(date, c)
	if err != nil {
		return nil, err
	}

	free := []domain.TimeRange{w.awake}
	if w.work != nil {
		free = domain.SubtractRange(free, *w.work)
	}
	free = domain.SubtractRanges(free, w.commute)

	commitments := make([]domain.TimeRange, 0, len(w.commitments))
	for _, lr := range w.commitments {
		commitments = append(commitments, lr.Range)
	}
	free = domain.SubtractRanges(free, commitments)

	return domain.MergeRanges(free), nil
}

// OccupiedIntervals returns the labelled intervals the resolver treats as
// immovable for the day: sleep on both sides of the awake window, work,
// commute and commitments. An invalid day reports only sleep for the whole
// day so nothing can be placed on it.
func (m *AvailabilityModel) OccupiedIntervals(date time.Time, c *domain.UserConstraints) ([]LabelledRange, error) {
	loc := c.Location()
	local := date.In(loc)
	dayStart := domain.ClockTime(0).On(local, loc)
	dayEnd := domain.ClockTime(domain.MinutesPerDay).On(local, loc)

	w, err := m.windows(date, c)
	if err != nil {
		return []LabelledRange{{Label: LabelSleep, Range: domain.TimeRange{Start: dayStart, End: dayEnd}}}, err
	}

	var out []LabelledRange
	if before := (domain.TimeRange{Start: dayStart, End: w.awake.Start}); !before.IsEmpty() {
		out = append(out, LabelledRange{Label: LabelSleep, Range: before})
	}
	if w.work != nil {
		out = append(out, LabelledRange{Label: LabelWork, Range: *w.work})
	}
	for _, r := range w.commute {
		out = append(out, LabelledRange{Label: LabelCommute, Range: r})
	}
	out = append(out, w.commitments...)
	if after := (domain.TimeRange{Start: w.awake.End, End: dayEnd}); !after.IsEmpty() {
		out = append(out, LabelledRange{Label: LabelSleep, Range: after})
	}
	return out, nil
}

// FixedBlocks materializes the day's work, commute and commitment blocks.
// Sleep is not materialized; it bounds free time only.
func (m *AvailabilityModel) FixedBlocks(userID uuid.UUID, date time.Time, c *domain.UserConstraints) ([]*domain.ScheduleBlock, error) {
	w, err := m.windows(date, c)
	if err != nil {
		return nil, err
	}

	type spec struct {
		kind  domain.BlockType
		title string
		r     domain.TimeRange
	}
	var specs []spec
	if w.work != nil {
		specs = append(specs, spec{domain.BlockTypeWork, "Work", *w.work})
	}
	for _, r := range w.commute {
		specs = append(specs, spec{domain.BlockTypeCommute, "Commute", r})
	}
	for _, lr := range w.commitments {
		specs = append(specs, spec{domain.BlockTypeFixedCommitment, lr.Label[len(commitmentLabelPrefix):], lr.Range})
	}

	blocks := make([]*domain.ScheduleBlock, 0, len(specs))
	for _, s := range specs {
		b, err := domain.NewScheduleBlock(domain.BlockParams{
			UserID:          userID,
			Type:            s.kind,
			Title:           s.title,
			Start:           s.r.Start,
			DurationMinutes: s.r.Minutes(),
		})
		if err != nil {
			return nil, fmt.Errorf("materialize %s block: %w", s.kind, err)
		}
		blocks = append(blocks, b)
	}
	return blocks, nil
}

// OccupiedInWindow collects labelled intervals for every day touching the
// window, clipped to it. Invalid days are returned in the error map keyed
// by date.
func (m *AvailabilityModel) OccupiedInWindow(window domain.TimeRange, c *domain.UserConstraints) ([]LabelledRange, map[string]error) {
	var (
		out     []LabelledRange
		invalid map[string]error
	)
	for _, day := range DaysIn(window, c.Location()) {
		ranges, err := m.OccupiedIntervals(day, c)
		if err != nil {
			if invalid == nil {
				invalid = make(map[string]error)
			}
			invalid[day.Format(time.DateOnly)] = err
		}
		for _, lr := range ranges {
			if r, ok := lr.Range.Intersect(window); ok {
				out = append(out, LabelledRange{Label: lr.Label, Range: r})
			}
		}
	}
	return out, invalid
}

// DaysIn returns local midnights of every calendar day the window touches.
func DaysIn(window domain.TimeRange, loc *time.Location) []time.Time {
	if window.IsEmpty() {
		return nil
	}
	y, mo, d := window.Start.In(loc).Date()
	day := time.Date(y, mo, d, 0, 0, 0, 0, loc)

	var days []time.Time
	for day.Before(window.End) {
		days = append(days, day)
		day = day.AddDate(0, 0, 1)
	}
	return days
}
