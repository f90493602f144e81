package planprovider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/felixgeelhaar/stride/internal/planning/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPProvider_Generate(t *testing.T) {
	ctx := context.Background()

	t.Run("posts the goal with a bearer token", func(t *testing.T) {
		var got domain.GoalDescription
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/v1/plans", r.URL.Path)
			assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"plan": {"weekly_hours": 4, "session_minutes": 45, "phases": [{"name": "Base", "duration_weeks": 6}]},
				"micro_goals": [{"name": "First 5k", "criteria": {"type": "sessions", "target": 10}}]
			}`))
		}))
		defer srv.Close()

		p := NewHTTPProvider(HTTPConfig{BaseURL: srv.URL + "/", APIKey: "secret"}, nil)
		plan, err := p.Generate(ctx, domain.GoalDescription{Name: "Marathon", Category: "fitness"})
		require.NoError(t, err)
		assert.Equal(t, "Marathon", got.Name)
		assert.InDelta(t, 4.0, plan.Plan.WeeklyHours, 0.001)
		assert.Equal(t, 45, plan.Plan.SessionMinutes)
		require.Len(t, plan.MicroGoals, 1)
		assert.Equal(t, domain.CriteriaSessions, plan.MicroGoals[0].Criteria.Type)
	})

	t.Run("rejects an invalid plan", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"plan": {"weekly_hours": -2}}`))
		}))
		defer srv.Close()

		_, err := NewHTTPProvider(HTTPConfig{BaseURL: srv.URL}, nil).Generate(ctx, domain.GoalDescription{Name: "x"})
		assert.ErrorIs(t, err, domain.ErrInvalidPlan)
	})

	t.Run("client errors do not open the breaker", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			http.Error(w, "name too long", http.StatusBadRequest)
		}))
		defer srv.Close()

		p := NewHTTPProvider(HTTPConfig{BaseURL: srv.URL, FailureThreshold: 1}, nil)
		for i := 0; i < 3; i++ {
			_, err := p.Generate(ctx, domain.GoalDescription{Name: "x"})
			require.Error(t, err)
			assert.NotErrorIs(t, err, domain.ErrPlanUnavailable)
		}
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("server errors open the breaker", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		p := NewHTTPProvider(HTTPConfig{BaseURL: srv.URL, FailureThreshold: 2, OpenTimeout: time.Minute}, nil)
		for i := 0; i < 4; i++ {
			_, err := p.Generate(ctx, domain.GoalDescription{Name: "x"})
			assert.ErrorIs(t, err, domain.ErrPlanUnavailable)
		}
		assert.Equal(t, int32(2), calls.Load())
	})
}

func TestStaticProvider_Generate(t *testing.T) {
	p := NewStaticProvider(4, 60)
	p.now = func() time.Time { return time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC) }

	plan, err := p.Generate(context.Background(), domain.GoalDescription{Name: "Spanish", TargetDate: "2025-06-02"})
	require.NoError(t, err)
	require.NoError(t, plan.Plan.Validate())

	weeks := 0
	for _, ph := range plan.Plan.Phases {
		weeks += ph.DurationWeeks
	}
	assert.Equal(t, 12, weeks)
	assert.Len(t, plan.MicroGoals, 3)
	for _, mg := range plan.MicroGoals {
		assert.NoError(t, mg.Criteria.Validate())
	}

	open, err := NewStaticProvider(0, 0).Generate(context.Background(), domain.GoalDescription{Name: "Guitar"})
	require.NoError(t, err)
	assert.InDelta(t, 3.0, open.Plan.WeeklyHours, 0.001)

	_, err = p.Generate(context.Background(), domain.GoalDescription{Name: "x", TargetDate: "soon"})
	assert.ErrorIs(t, err, domain.ErrInvalidPlan)
}
