package commands

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/stride/internal/planning/domain"
	sharedApplication "github.com/felixgeelhaar/stride/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/stride/internal/shared/domain"
	"github.com/felixgeelhaar/stride/internal/shared/infrastructure/lock"
	"github.com/felixgeelhaar/stride/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func savedKeys(repo *mockOutboxRepo) []string {
	var keys []string
	for _, c := range repo.Calls {
		if c.Method != "SaveBatch" {
			continue
		}
		for _, msg := range c.Arguments.Get(1).([]*outbox.Message) {
			keys = append(keys, msg.RoutingKey)
		}
	}
	return keys
}

func TestCreateGoalHandler_Handle(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("with an explicit plan", func(t *testing.T) {
		goals := new(mockGoalRepo)
		out := newOutbox()
		provider := new(mockProvider)
		h := NewCreateGoalHandler(goals, out, newUnitOfWork(), provider, nil)

		goals.On("Save", mock.Anything, mock.AnythingOfType("*domain.Goal")).Return(nil)

		goal, err := h.Handle(ctx, CreateGoalCommand{
			UserID: userID,
			Name:   "  Marathon ",
			Plan:   &domain.Plan{WeeklyHours: 4, SessionMinutes: 45},
			MicroGoals: []domain.MicroGoalSpec{
				{Name: "10k"},
				{Name: "Half", Criteria: &domain.Criteria{Type: domain.CriteriaSessions, Target: 12}},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, "Marathon", goal.Name())
		require.NotNil(t, goal.Plan())
		assert.Len(t, goal.MicroGoals(), 2)
		assert.Equal(t, []string{domain.RoutingKeyGoalCreated, domain.RoutingKeyGoalPlanned}, savedKeys(out))
		provider.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
	})

	t.Run("asks the provider without a plan", func(t *testing.T) {
		goals := new(mockGoalRepo)
		out := newOutbox()
		provider := new(mockProvider)
		h := NewCreateGoalHandler(goals, out, newUnitOfWork(), provider, nil)

		target := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
		provider.On("Generate", mock.Anything, domain.GoalDescription{Name: "Guitar", Category: "music", TargetDate: "2025-09-01"}).
			Return(&domain.GeneratedPlan{
				Plan:       domain.Plan{WeeklyHours: 2},
				MicroGoals: []domain.MicroGoalSpec{{Name: "Chords"}},
			}, nil)
		goals.On("Save", mock.Anything, mock.AnythingOfType("*domain.Goal")).Return(nil)

		goal, err := h.Handle(ctx, CreateGoalCommand{UserID: userID, Name: "Guitar", Category: "music", TargetDate: &target})
		require.NoError(t, err)
		require.NotNil(t, goal.Plan())
		assert.InDelta(t, 2.0, goal.Plan().WeeklyHours, 0.001)
		assert.Equal(t, "Chords", goal.MicroGoals()[0].Name())
	})

	t.Run("provider failure leaves the goal unplanned", func(t *testing.T) {
		goals := new(mockGoalRepo)
		out := newOutbox()
		provider := new(mockProvider)
		h := NewCreateGoalHandler(goals, out, newUnitOfWork(), provider, nil)

		provider.On("Generate", mock.Anything, mock.Anything).Return(nil, domain.ErrPlanUnavailable)
		goals.On("Save", mock.Anything, mock.AnythingOfType("*domain.Goal")).Return(nil)

		goal, err := h.Handle(ctx, CreateGoalCommand{UserID: userID, Name: "Guitar"})
		require.NoError(t, err)
		assert.Nil(t, goal.Plan())
		assert.Equal(t, []string{domain.RoutingKeyGoalCreated}, savedKeys(out))
	})

	t.Run("rejects an empty name", func(t *testing.T) {
		goals := new(mockGoalRepo)
		h := NewCreateGoalHandler(goals, newOutbox(), newUnitOfWork(), nil, nil)

		_, err := h.Handle(ctx, CreateGoalCommand{UserID: userID, Name: " "})
		assert.ErrorIs(t, err, domain.ErrGoalEmptyName)
		goals.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("rejects an invalid plan", func(t *testing.T) {
		goals := new(mockGoalRepo)
		h := NewCreateGoalHandler(goals, newOutbox(), newUnitOfWork(), nil, nil)

		_, err := h.Handle(ctx, CreateGoalCommand{UserID: userID, Name: "x", Plan: &domain.Plan{WeeklyHours: -1}})
		assert.ErrorIs(t, err, domain.ErrInvalidPlan)
	})
}

func TestArchiveGoalHandler_Handle(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	newHandler := func(goals *mockGoalRepo, pruner *mockPruner, out *mockOutboxRepo, locker lock.Locker) *ArchiveGoalHandler {
		h := NewArchiveGoalHandler(goals, pruner, out, newUnitOfWork(), locker, 0, nil)
		h.now = func() time.Time { return fixedNow }
		return h
	}

	t.Run("archives and removes future sessions", func(t *testing.T) {
		goals := new(mockGoalRepo)
		pruner := new(mockPruner)
		out := newOutbox()
		h := newHandler(goals, pruner, out, nil)

		goal := plannedGoal(userID)
		removed := []uuid.UUID{uuid.New(), uuid.New()}
		goals.On("FindByID", mock.Anything, goal.ID()).Return(goal, nil)
		goals.On("Save", mock.Anything, goal).Return(nil)
		pruner.On("DeletePlannedByGoalFrom", mock.Anything, goal.ID(), fixedNow).Return(removed, nil)

		res, err := h.Handle(ctx, ArchiveGoalCommand{UserID: userID, GoalID: goal.ID()})
		require.NoError(t, err)
		assert.Equal(t, domain.GoalStatusArchived, res.Goal.Status())
		assert.Equal(t, removed, res.RemovedBlocks)
		assert.Equal(t, []string{domain.RoutingKeyGoalStatusChanged}, savedKeys(out))
	})

	t.Run("already archived is a no-op", func(t *testing.T) {
		goals := new(mockGoalRepo)
		pruner := new(mockPruner)
		h := newHandler(goals, pruner, newOutbox(), nil)

		goal := plannedGoal(userID)
		require.NoError(t, goal.Archive())
		goal.DrainEvents()
		goals.On("FindByID", mock.Anything, goal.ID()).Return(goal, nil)

		res, err := h.Handle(ctx, ArchiveGoalCommand{UserID: userID, GoalID: goal.ID()})
		require.NoError(t, err)
		assert.Empty(t, res.RemovedBlocks)
		pruner.AssertNotCalled(t, "DeletePlannedByGoalFrom", mock.Anything, mock.Anything, mock.Anything)
		goals.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("another user's goal is not found", func(t *testing.T) {
		goals := new(mockGoalRepo)
		h := newHandler(goals, new(mockPruner), newOutbox(), nil)

		goal := plannedGoal(uuid.New())
		goals.On("FindByID", mock.Anything, goal.ID()).Return(goal, nil)

		_, err := h.Handle(ctx, ArchiveGoalCommand{UserID: userID, GoalID: goal.ID()})
		assert.ErrorIs(t, err, domain.ErrGoalNotFound)
		assert.ErrorIs(t, err, sharedDomain.ErrNotFound)
	})

	t.Run("prune failure aborts", func(t *testing.T) {
		goals := new(mockGoalRepo)
		pruner := new(mockPruner)
		h := newHandler(goals, pruner, newOutbox(), nil)

		boom := errors.New("db down")
		goal := plannedGoal(userID)
		goals.On("FindByID", mock.Anything, goal.ID()).Return(goal, nil)
		pruner.On("DeletePlannedByGoalFrom", mock.Anything, goal.ID(), fixedNow).Return(nil, boom)

		_, err := h.Handle(ctx, ArchiveGoalCommand{UserID: userID, GoalID: goal.ID()})
		assert.ErrorIs(t, err, boom)
		goals.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("waits for the calendar lock", func(t *testing.T) {
		locker := lock.NewLocalLocker()
		h := NewArchiveGoalHandler(new(mockGoalRepo), new(mockPruner), newOutbox(), newUnitOfWork(), locker, 20*time.Millisecond, nil)

		release, err := locker.Acquire(ctx, lock.CalendarKey(userID))
		require.NoError(t, err)
		defer release()

		_, err = h.Handle(ctx, ArchiveGoalCommand{UserID: userID, GoalID: uuid.New()})
		assert.ErrorIs(t, err, sharedApplication.ErrPersistenceTimeout)
	})
}

func TestSetGoalPlanHandler_Handle(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("replaces the plan and prunes sessions", func(t *testing.T) {
		goals := new(mockGoalRepo)
		pruner := new(mockPruner)
		out := newOutbox()
		h := NewSetGoalPlanHandler(goals, pruner, out, newUnitOfWork(), nil, nil, 0, nil)
		h.now = func() time.Time { return fixedNow }

		goal := plannedGoal(userID, domain.MicroGoalSpec{Name: "old"})
		goals.On("FindByID", mock.Anything, goal.ID()).Return(goal, nil)
		goals.On("Save", mock.Anything, goal).Return(nil)
		pruner.On("DeletePlannedByGoalFrom", mock.Anything, goal.ID(), fixedNow).Return([]uuid.UUID{}, nil)

		got, err := h.Handle(ctx, SetGoalPlanCommand{
			UserID:     userID,
			GoalID:     goal.ID(),
			Plan:       &domain.Plan{WeeklyHours: 5},
			MicroGoals: []domain.MicroGoalSpec{{Name: "a"}, {Name: "b"}},
		})
		require.NoError(t, err)
		assert.InDelta(t, 5.0, got.Plan().WeeklyHours, 0.001)
		assert.Len(t, got.MicroGoals(), 2)
		assert.Equal(t, []string{domain.RoutingKeyGoalPlanned}, savedKeys(out))
	})

	t.Run("without plan or provider", func(t *testing.T) {
		h := NewSetGoalPlanHandler(new(mockGoalRepo), new(mockPruner), newOutbox(), newUnitOfWork(), nil, nil, 0, nil)

		_, err := h.Handle(ctx, SetGoalPlanCommand{UserID: userID, GoalID: uuid.New()})
		assert.ErrorIs(t, err, domain.ErrPlanUnavailable)
	})

	t.Run("generates through the provider", func(t *testing.T) {
		goals := new(mockGoalRepo)
		pruner := new(mockPruner)
		provider := new(mockProvider)
		h := NewSetGoalPlanHandler(goals, pruner, newOutbox(), newUnitOfWork(), provider, nil, 0, nil)

		goal := plannedGoal(userID)
		goals.On("FindByID", mock.Anything, goal.ID()).Return(goal, nil)
		goals.On("Save", mock.Anything, goal).Return(nil)
		pruner.On("DeletePlannedByGoalFrom", mock.Anything, goal.ID(), mock.Anything).Return(nil, nil)
		provider.On("Generate", mock.Anything, mock.MatchedBy(func(d domain.GoalDescription) bool {
			return d.Name == "Learn Spanish"
		})).Return(&domain.GeneratedPlan{Plan: domain.Plan{WeeklyHours: 1.5}}, nil)

		got, err := h.Handle(ctx, SetGoalPlanCommand{UserID: userID, GoalID: goal.ID()})
		require.NoError(t, err)
		assert.InDelta(t, 1.5, got.Plan().WeeklyHours, 0.001)
		assert.Empty(t, got.MicroGoals())
	})
}

func TestSetGoalStatusHandler_Handle(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("pauses a goal", func(t *testing.T) {
		goals := new(mockGoalRepo)
		out := newOutbox()
		h := NewSetGoalStatusHandler(goals, out, newUnitOfWork(), nil)

		goal := plannedGoal(userID)
		goals.On("FindByID", mock.Anything, goal.ID()).Return(goal, nil)
		goals.On("Save", mock.Anything, goal).Return(nil)

		got, err := h.Handle(ctx, SetGoalStatusCommand{UserID: userID, GoalID: goal.ID(), Status: domain.GoalStatusPaused})
		require.NoError(t, err)
		assert.Equal(t, domain.GoalStatusPaused, got.Status())
		assert.Equal(t, []string{domain.RoutingKeyGoalStatusChanged}, savedKeys(out))
	})

	t.Run("delegates archiving", func(t *testing.T) {
		goals := new(mockGoalRepo)
		pruner := new(mockPruner)
		archive := NewArchiveGoalHandler(goals, pruner, newOutbox(), newUnitOfWork(), nil, 0, nil)
		h := NewSetGoalStatusHandler(goals, newOutbox(), newUnitOfWork(), archive)

		goal := plannedGoal(userID)
		goals.On("FindByID", mock.Anything, goal.ID()).Return(goal, nil)
		goals.On("Save", mock.Anything, goal).Return(nil)
		pruner.On("DeletePlannedByGoalFrom", mock.Anything, goal.ID(), mock.Anything).Return(nil, nil)

		got, err := h.Handle(ctx, SetGoalStatusCommand{UserID: userID, GoalID: goal.ID(), Status: domain.GoalStatusArchived})
		require.NoError(t, err)
		assert.Equal(t, domain.GoalStatusArchived, got.Status())
		pruner.AssertExpectations(t)
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		h := NewSetGoalStatusHandler(new(mockGoalRepo), newOutbox(), newUnitOfWork(), nil)
		_, err := h.Handle(ctx, SetGoalStatusCommand{UserID: userID, GoalID: uuid.New(), Status: "done"})
		assert.ErrorIs(t, err, domain.ErrInvalidGoalStatus)
	})
}

func TestCompleteMicroGoalHandler_Handle(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	goals := new(mockGoalRepo)
	out := newOutbox()
	h := NewCompleteMicroGoalHandler(goals, out, newUnitOfWork())
	h.now = func() time.Time { return fixedNow }

	goal := plannedGoal(userID,
		domain.MicroGoalSpec{Name: "Run 10k", Criteria: &domain.Criteria{Type: domain.CriteriaMilestone}},
		domain.MicroGoalSpec{Name: "Run 21k"},
	)
	mg := goal.MicroGoals()[0]
	goals.On("FindByID", mock.Anything, goal.ID()).Return(goal, nil)
	goals.On("Save", mock.Anything, goal).Return(nil).Once()

	got, err := h.Handle(ctx, CompleteMicroGoalCommand{UserID: userID, GoalID: goal.ID(), MicroGoalID: mg.ID()})
	require.NoError(t, err)
	require.NotNil(t, mg.CompletedAt())
	assert.Equal(t, fixedNow, *mg.CompletedAt())
	assert.InDelta(t, 50.0, got.Progress().PercentComplete, 0.001)
	assert.Equal(t, []string{domain.RoutingKeyMicroGoalCompleted}, savedKeys(out))

	// A second completion keeps the first timestamp and writes nothing.
	later := fixedNow.Add(time.Hour)
	_, err = h.Handle(ctx, CompleteMicroGoalCommand{UserID: userID, GoalID: goal.ID(), MicroGoalID: mg.ID(), CompletedAt: &later})
	require.NoError(t, err)
	assert.Equal(t, fixedNow, *mg.CompletedAt())
	goals.AssertNumberOfCalls(t, "Save", 1)

	_, err = h.Handle(ctx, CompleteMicroGoalCommand{UserID: userID, GoalID: goal.ID(), MicroGoalID: uuid.New()})
	assert.ErrorIs(t, err, domain.ErrMicroGoalNotFound)
}
