package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MinutesPerDay bounds ClockTime. 24:00 is allowed as an end of day.
const MinutesPerDay = 24 * 60

// ClockTime is a time of day in minutes after midnight, encoded as "HH:MM".
type ClockTime int

// ParseClockTime parses "HH:MM".
func ParseClockTime(s string) (ClockTime, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		if s == "24:00" {
			return MinutesPerDay, nil
		}
		return 0, fmt.Errorf("clock time %q: want HH:MM", s)
	}
	return ClockTime(t.Hour()*60 + t.Minute()), nil
}

// MustClock is ParseClockTime for literals known to be valid.
func MustClock(s string) ClockTime {
	c, err := ParseClockTime(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// IsValid reports whether c is within a day.
func (c ClockTime) IsValid() bool {
	return c >= 0 && c <= MinutesPerDay
}

// On anchors c to the calendar day of date in loc. Wall-clock fields are
// used so DST transitions keep "09:00" at nine o'clock.
func (c ClockTime) On(date time.Time, loc *time.Location) time.Time {
	y, m, d := date.In(loc).Date()
	return time.Date(y, m, d, int(c)/60, int(c)%60, 0, 0, loc)
}

func (c ClockTime) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *ClockTime) UnmarshalText(b []byte) error {
	parsed, err := ParseClockTime(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Weekday is time.Weekday with a lowercase name encoding ("monday").
type Weekday time.Weekday

// ParseWeekday accepts full or three-letter English day names.
func ParseWeekday(s string) (Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		full := strings.ToLower(d.String())
		if name == full || name == full[:3] {
			return Weekday(d), nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}

func (d Weekday) String() string {
	return strings.ToLower(time.Weekday(d).String())
}

func (d Weekday) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Weekday) UnmarshalText(b []byte) error {
	parsed, err := ParseWeekday(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// WorkDay is the work window for one weekday.
type WorkDay struct {
	Day   Weekday   `json:"day" yaml:"day"`
	Start ClockTime `json:"start" yaml:"start"`
	End   ClockTime `json:"end" yaml:"end"`
}

// FixedCommitment is a weekly recurring appointment.
type FixedCommitment struct {
	Day   Weekday   `json:"day" yaml:"day"`
	Start ClockTime `json:"start" yaml:"start"`
	End   ClockTime `json:"end" yaml:"end"`
	Name  string    `json:"name" yaml:"name"`
}

// UserConstraints are a user's fixed-time settings. They change through
// onboarding and settings only; the engine reads them.
type UserConstraints struct {
	UserID         uuid.UUID         `json:"user_id" yaml:"-"`
	Timezone       string            `json:"timezone" yaml:"timezone"`
	Wake           ClockTime         `json:"wake_time" yaml:"wake_time"`
	Sleep          ClockTime         `json:"sleep_time" yaml:"sleep_time"`
	Work           []WorkDay         `json:"work" yaml:"work"`
	Commitments    []FixedCommitment `json:"commitments" yaml:"commitments"`
	CommuteMinutes int               `json:"commute_minutes" yaml:"commute_minutes"`
	UpdatedAt      time.Time         `json:"updated_at" yaml:"-"`
}

// Location resolves the timezone, falling back to UTC.
func (c *UserConstraints) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// WorkOn returns the work window for a weekday.
func (c *UserConstraints) WorkOn(day time.Weekday) (WorkDay, bool) {
	for _, w := range c.Work {
		if time.Weekday(w.Day) == day {
			return w, true
		}
	}
	return WorkDay{}, false
}

// CommitmentsOn returns the commitments recurring on a weekday, in the
// order they were configured.
func (c *UserConstraints) CommitmentsOn(day time.Weekday) []FixedCommitment {
	var out []FixedCommitment
	for _, fc := range c.Commitments {
		if time.Weekday(fc.Day) == day {
			out = append(out, fc)
		}
	}
	return out
}

// Validate rejects malformed settings. Inverted windows are accepted here
// and reported per day by the availability model.
func (c *UserConstraints) Validate() error {
	var errs []error
	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			errs = append(errs, fmt.Errorf("timezone %q: %w", c.Timezone, err))
		}
	}
	if !c.Wake.IsValid() || !c.Sleep.IsValid() {
		errs = append(errs, errors.New("wake and sleep times must be within the day"))
	}
	if c.CommuteMinutes < 0 || c.CommuteMinutes > 6*60 {
		errs = append(errs, fmt.Errorf("commute minutes %d out of range 0..360", c.CommuteMinutes))
	}

	seen := make(map[Weekday]bool)
	for _, w := range c.Work {
		if seen[w.Day] {
			errs = append(errs, fmt.Errorf("work window for %s given twice", w.Day))
		}
		seen[w.Day] = true
		if !w.Start.IsValid() || !w.End.IsValid() {
			errs = append(errs, fmt.Errorf("work window for %s is outside the day", w.Day))
		}
	}
	for _, fc := range c.Commitments {
		if strings.TrimSpace(fc.Name) == "" {
			errs = append(errs, fmt.Errorf("commitment on %s at %s needs a name", fc.Day, fc.Start))
		}
		if !fc.Start.IsValid() || !fc.End.IsValid() {
			errs = append(errs, fmt.Errorf("commitment %q is outside the day", fc.Name))
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return &InvalidConstraintsError{Reason: errors.Join(errs...).Error()}
}
