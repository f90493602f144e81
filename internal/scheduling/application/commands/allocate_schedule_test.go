package commands

import (
	"context"
	"testing"

	planningDomain "github.com/felixgeelhaar/stride/internal/planning/domain"
	"github.com/felixgeelhaar/stride/internal/scheduling/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAllocateScheduleHandler_Handle(t *testing.T) {
	ctx := context.Background()
	active := []planningDomain.GoalStatus{planningDomain.GoalStatusActive}

	t.Run("materializes fixed blocks and places sessions", func(t *testing.T) {
		f := newFixture(t)
		goal := f.goal(t, 2)
		f.constraints.On("FindByUser", mock.Anything, f.user).Return(weekdayWorker(f.user), nil)
		f.goals.On("FindByUser", mock.Anything, f.user, active).Return([]*planningDomain.Goal{goal}, nil)
		f.blocks.On("FindInRange", mock.Anything, f.user, monday, monday.AddDate(0, 0, 7)).Return([]*domain.ScheduleBlock{}, nil)
		f.blocks.On("FindByGoal", mock.Anything, goal.ID()).Return([]*domain.ScheduleBlock{}, nil)

		var saved []*domain.ScheduleBlock
		f.blocks.On("SaveAll", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
			saved = args.Get(1).([]*domain.ScheduleBlock)
		}).Return(nil)

		res, err := NewAllocateScheduleHandler(f.m, nil).Handle(ctx, AllocateScheduleCommand{
			UserID:       f.user,
			HorizonStart: monday,
			HorizonWeeks: 1,
		})
		require.NoError(t, err)

		assert.Len(t, res.Fixed, 15, "work and two commutes on five days")
		minutes := 0
		for _, b := range res.Placed {
			assert.Equal(t, goal.ID(), b.GoalID())
			assert.False(t, b.IsConflicted())
			minutes += b.DurationMinutes()
		}
		assert.Equal(t, 120, minutes)
		assert.Empty(t, res.Shortfalls)
		assert.Len(t, saved, len(res.Fixed)+len(res.Placed))
		f.uow.AssertNumberOfCalls(t, "Commit", 1)
		f.outbox.AssertNumberOfCalls(t, "SaveBatch", 1)
	})

	t.Run("second run adds nothing", func(t *testing.T) {
		f := newFixture(t)
		goal := f.goal(t, 2)
		c := weekdayWorker(f.user)
		f.constraints.On("FindByUser", mock.Anything, f.user).Return(c, nil)
		f.goals.On("FindByUser", mock.Anything, f.user, active).Return([]*planningDomain.Goal{goal}, nil)
		f.blocks.On("FindByGoal", mock.Anything, goal.ID()).Return([]*domain.ScheduleBlock{}, nil)
		f.blocks.On("SaveAll", mock.Anything, mock.Anything).Return(nil).Once()
		f.blocks.On("FindInRange", mock.Anything, f.user, mock.Anything, mock.Anything).Return([]*domain.ScheduleBlock{}, nil).Once()

		h := NewAllocateScheduleHandler(f.m, nil)
		res, err := h.Handle(ctx, AllocateScheduleCommand{UserID: f.user, HorizonStart: monday, HorizonWeeks: 1})
		require.NoError(t, err)

		stored := append(append([]*domain.ScheduleBlock{}, res.Fixed...), res.Placed...)
		f.blocks.On("FindInRange", mock.Anything, f.user, mock.Anything, mock.Anything).Return(stored, nil)

		again, err := h.Handle(ctx, AllocateScheduleCommand{UserID: f.user, HorizonStart: monday, HorizonWeeks: 1})
		require.NoError(t, err)
		assert.Empty(t, again.Fixed)
		assert.Empty(t, again.Placed)
		f.blocks.AssertNumberOfCalls(t, "SaveAll", 1)
	})

	t.Run("reports shortfall when nothing fits", func(t *testing.T) {
		f := newFixture(t)
		goal := f.goal(t, 200)
		f.constraints.On("FindByUser", mock.Anything, f.user).Return(weekdayWorker(f.user), nil)
		f.goals.On("FindByUser", mock.Anything, f.user, active).Return([]*planningDomain.Goal{goal}, nil)
		f.blocks.On("FindInRange", mock.Anything, f.user, mock.Anything, mock.Anything).Return([]*domain.ScheduleBlock{}, nil)
		f.blocks.On("FindByGoal", mock.Anything, goal.ID()).Return([]*domain.ScheduleBlock{}, nil)
		f.blocks.On("SaveAll", mock.Anything, mock.Anything).Return(nil)

		res, err := NewAllocateScheduleHandler(f.m, nil).Handle(ctx, AllocateScheduleCommand{UserID: f.user, HorizonStart: monday, HorizonWeeks: 1})
		require.NoError(t, err)
		require.Len(t, res.Shortfalls, 1)
		assert.Equal(t, goal.ID(), res.Shortfalls[0].GoalID)
		assert.Positive(t, res.Shortfalls[0].Minutes)
	})

	t.Run("needs constraints", func(t *testing.T) {
		f := newFixture(t)
		f.constraints.On("FindByUser", mock.Anything, f.user).Return(nil, nil)

		_, err := NewAllocateScheduleHandler(f.m, nil).Handle(ctx, AllocateScheduleCommand{UserID: f.user, HorizonStart: monday, HorizonWeeks: 1})
		assert.ErrorIs(t, err, domain.ErrConstraintsNotFound)
		f.uow.AssertNotCalled(t, "Begin", mock.Anything)
	})
}

func TestSaveConstraintsHandler_Handle(t *testing.T) {
	ctx := context.Background()

	t.Run("stores valid constraints", func(t *testing.T) {
		f := newFixture(t)
		f.constraints.On("Save", mock.Anything, mock.MatchedBy(func(c *domain.UserConstraints) bool {
			return c.UserID == f.user && c.UpdatedAt.Equal(f.now)
		})).Return(nil)

		c, err := NewSaveConstraintsHandler(f.m).Handle(ctx, SaveConstraintsCommand{UserID: f.user, Constraints: *weekdayWorker(f.user)})
		require.NoError(t, err)
		assert.Equal(t, f.user, c.UserID)
		f.constraints.AssertExpectations(t)
		f.outbox.AssertNumberOfCalls(t, "SaveBatch", 1)
	})

	t.Run("rejects invalid constraints", func(t *testing.T) {
		f := newFixture(t)
		c := *weekdayWorker(f.user)
		c.CommuteMinutes = -5

		_, err := NewSaveConstraintsHandler(f.m).Handle(ctx, SaveConstraintsCommand{UserID: f.user, Constraints: c})
		assert.ErrorIs(t, err, domain.ErrInvalidConstraints)
		f.uow.AssertNotCalled(t, "Begin", mock.Anything)
	})
}
