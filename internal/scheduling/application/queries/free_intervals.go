package queries

import (
	"context"
	"errors"
	"time"

	"github.com/felixgeelhaar/stride/internal/scheduling/application/services"
	"github.com/felixgeelhaar/stride/internal/scheduling/domain"
	"github.com/google/uuid"
)

// IntervalDTO is a labelled time range.
type IntervalDTO struct {
	Label string    `json:"label,omitempty"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// AvailabilityDTO describes one local day. Free time ignores blocks already
// on the calendar.
type AvailabilityDTO struct {
	Date        string        `json:"date"`
	Timezone    string        `json:"timezone"`
	Free        []IntervalDTO `json:"free"`
	Occupied    []IntervalDTO `json:"occupied"`
	FreeMinutes int           `json:"free_minutes"`
	Invalid     string        `json:"invalid,omitempty"`
}

// FreeIntervalsQuery asks for the availability of a local date.
type FreeIntervalsQuery struct {
	UserID uuid.UUID
	Date   time.Time
}

// FreeIntervalsHandler handles FreeIntervalsQuery.
type FreeIntervalsHandler struct {
	constraints  domain.ConstraintsRepository
	availability *services.AvailabilityModel
}

// NewFreeIntervalsHandler creates a FreeIntervalsHandler.
func NewFreeIntervalsHandler(constraints domain.ConstraintsRepository, availability *services.AvailabilityModel) *FreeIntervalsHandler {
	if availability == nil {
		availability = services.NewAvailabilityModel()
	}
	return &FreeIntervalsHandler{constraints: constraints, availability: availability}
}

// Handle computes the day's windows. A day with malformed constraints is
// reported through Invalid with no free time rather than as an error.
func (h *FreeIntervalsHandler) Handle(ctx context.Context, q FreeIntervalsQuery) (*AvailabilityDTO, error) {
	c, err := h.constraints.FindByUser(ctx, q.UserID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrConstraintsNotFound
	}

	loc := c.Location()
	y, m, d := q.Date.In(loc).Date()
	date := time.Date(y, m, d, 0, 0, 0, 0, loc)
	out := &AvailabilityDTO{
		Date:     date.Format(time.DateOnly),
		Timezone: loc.String(),
		Free:     []IntervalDTO{},
	}

	free, err := h.availability.FreeIntervals(date, c)
	if err != nil {
		var ice *domain.InvalidConstraintsError
		if !errors.As(err, &ice) {
			return nil, err
		}
		out.Invalid = ice.Reason
	}
	for _, r := range free {
		out.Free = append(out.Free, IntervalDTO{Start: r.Start, End: r.End})
		out.FreeMinutes += r.Minutes()
	}

	occupied, _ := h.availability.OccupiedIntervals(date, c)
	out.Occupied = make([]IntervalDTO, 0, len(occupied))
	for _, lr := range occupied {
		out.Occupied = append(out.Occupied, IntervalDTO{Label: lr.Label, Start: lr.Range.Start, End: lr.Range.End})
	}
	return out, nil
}
