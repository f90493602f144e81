package domain_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/felixgeelhaar/stride/internal/scheduling/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseClockTime(t *testing.T) {
	c, err := domain.ParseClockTime("07:30")
	require.NoError(t, err)
	assert.Equal(t, domain.ClockTime(450), c)
	assert.Equal(t, "07:30", c.String())

	end, err := domain.ParseClockTime("24:00")
	require.NoError(t, err)
	assert.Equal(t, domain.ClockTime(domain.MinutesPerDay), end)

	_, err = domain.ParseClockTime("7h")
	assert.Error(t, err)
}

func TestClockTime_On_KeepsWallClockAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	// 2025-03-30 is the spring-forward day in Berlin.
	day := time.Date(2025, 3, 30, 0, 0, 0, 0, loc)
	got := domain.MustClock("09:00").On(day, loc)

	assert.Equal(t, 9, got.Hour())
	assert.Equal(t, 30, got.Day())
	assert.Equal(t, time.Date(2025, 3, 30, 7, 0, 0, 0, time.UTC), got.UTC())
}

func TestParseWeekday(t *testing.T) {
	d, err := domain.ParseWeekday("Mon")
	require.NoError(t, err)
	assert.Equal(t, domain.Weekday(time.Monday), d)

	d, err = domain.ParseWeekday("saturday")
	require.NoError(t, err)
	assert.Equal(t, "saturday", d.String())

	_, err = domain.ParseWeekday("funday")
	assert.Error(t, err)
}

func TestUserConstraints_YAML(t *testing.T) {
	raw := `
timezone: Europe/Berlin
wake_time: "07:00"
sleep_time: "23:00"
commute_minutes: 30
work:
  - day: monday
    start: "09:00"
    end: "17:00"
commitments:
  - day: tue
    start: "18:00"
    end: "19:00"
    name: Gym
`
	var c domain.UserConstraints
	require.NoError(t, yaml.Unmarshal([]byte(raw), &c))

	assert.Equal(t, "Europe/Berlin", c.Timezone)
	assert.Equal(t, domain.MustClock("07:00"), c.Wake)
	assert.Equal(t, 30, c.CommuteMinutes)
	require.Len(t, c.Work, 1)
	assert.Equal(t, domain.Weekday(time.Monday), c.Work[0].Day)
	require.Len(t, c.Commitments, 1)
	assert.Equal(t, "Gym", c.Commitments[0].Name)
	assert.NoError(t, c.Validate())
}

func TestUserConstraints_JSONUsesClockStrings(t *testing.T) {
	c := domain.UserConstraints{
		Wake:  domain.MustClock("06:45"),
		Sleep: domain.MustClock("22:15"),
		Work:  []domain.WorkDay{{Day: domain.Weekday(time.Friday), Start: domain.MustClock("08:00"), End: domain.MustClock("12:00")}},
	}
	b, err := json.Marshal(c)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"wake_time":"06:45"`)
	assert.Contains(t, string(b), `"day":"friday"`)
}

func TestUserConstraints_Lookups(t *testing.T) {
	c := domain.UserConstraints{
		Work: []domain.WorkDay{{Day: domain.Weekday(time.Monday), Start: 540, End: 1020}},
		Commitments: []domain.FixedCommitment{
			{Day: domain.Weekday(time.Tuesday), Start: 1080, End: 1140, Name: "Gym"},
			{Day: domain.Weekday(time.Tuesday), Start: 1200, End: 1260, Name: "Choir"},
		},
	}

	_, ok := c.WorkOn(time.Monday)
	assert.True(t, ok)
	_, ok = c.WorkOn(time.Sunday)
	assert.False(t, ok)
	assert.Len(t, c.CommitmentsOn(time.Tuesday), 2)
	assert.Empty(t, c.CommitmentsOn(time.Monday))
	assert.Equal(t, time.UTC, c.Location())
}

func TestUserConstraints_Validate(t *testing.T) {
	c := domain.UserConstraints{
		Timezone:       "Mars/Olympus",
		Wake:           domain.MustClock("07:00"),
		Sleep:          domain.MustClock("23:00"),
		CommuteMinutes: -5,
		Work: []domain.WorkDay{
			{Day: domain.Weekday(time.Monday), Start: 540, End: 1020},
			{Day: domain.Weekday(time.Monday), Start: 600, End: 1020},
		},
		Commitments: []domain.FixedCommitment{{Day: domain.Weekday(time.Tuesday), Start: 1080, End: 1140}},
	}

	err := c.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidConstraints)
	assert.Contains(t, err.Error(), "timezone")
	assert.Contains(t, err.Error(), "commute")
	assert.Contains(t, err.Error(), "given twice")
	assert.Contains(t, err.Error(), "needs a name")
}

func TestUserConstraints_ValidateAcceptsInvertedWindows(t *testing.T) {
	c := domain.UserConstraints{Wake: domain.MustClock("23:00"), Sleep: domain.MustClock("07:00")}
	assert.NoError(t, c.Validate())
}
