package subscribers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/stride/internal/scheduling/application/commands"
	"github.com/felixgeelhaar/stride/internal/scheduling/domain"
	"github.com/felixgeelhaar/stride/internal/shared/infrastructure/eventbus"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAllocator struct {
	mock.Mock
}

func (m *mockAllocator) Handle(ctx context.Context, cmd commands.AllocateScheduleCommand) (*commands.AllocateScheduleResult, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commands.AllocateScheduleResult), args.Error(1)
}

func TestAllocationSubscriber_Handle(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	now := time.Date(2025, 3, 12, 8, 0, 0, 0, time.UTC)
	payload := []byte(`{"goal_id":"` + uuid.NewString() + `","user_id":"` + userID.String() + `"}`)

	t.Run("allocates the event's user", func(t *testing.T) {
		alloc := new(mockAllocator)
		s := NewAllocationSubscriber(alloc, 2, nil)
		s.now = func() time.Time { return now }
		alloc.On("Handle", ctx, commands.AllocateScheduleCommand{UserID: userID, HorizonStart: now, HorizonWeeks: 2}).
			Return(&commands.AllocateScheduleResult{}, nil)

		require.NoError(t, s.Handle(ctx, &eventbus.ConsumedEvent{RoutingKey: "planning.goal.planned", Payload: payload}))
		alloc.AssertExpectations(t)
	})

	t.Run("users without constraints are skipped", func(t *testing.T) {
		alloc := new(mockAllocator)
		s := NewAllocationSubscriber(alloc, 1, nil)
		alloc.On("Handle", ctx, mock.Anything).Return(nil, domain.ErrConstraintsNotFound)

		assert.NoError(t, s.Handle(ctx, &eventbus.ConsumedEvent{RoutingKey: "planning.goal.planned", Payload: payload}))
	})

	t.Run("other failures are returned", func(t *testing.T) {
		alloc := new(mockAllocator)
		s := NewAllocationSubscriber(alloc, 1, nil)
		boom := errors.New("db down")
		alloc.On("Handle", ctx, mock.Anything).Return(nil, boom)

		assert.ErrorIs(t, s.Handle(ctx, &eventbus.ConsumedEvent{RoutingKey: "schedule.constraints.updated", Payload: payload}), boom)
	})

	t.Run("payload without user is ignored", func(t *testing.T) {
		alloc := new(mockAllocator)
		s := NewAllocationSubscriber(alloc, 1, nil)

		assert.NoError(t, s.Handle(ctx, &eventbus.ConsumedEvent{RoutingKey: "planning.goal.planned", Payload: []byte(`{}`)}))
		assert.Error(t, s.Handle(ctx, &eventbus.ConsumedEvent{RoutingKey: "planning.goal.planned", Payload: []byte(`nope`)}))
		alloc.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
	})

	assert.ElementsMatch(t, []string{"planning.goal.planned", "schedule.constraints.updated"}, NewAllocationSubscriber(nil, 0, nil).EventTypes())
}
