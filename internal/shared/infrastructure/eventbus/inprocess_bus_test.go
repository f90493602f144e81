package eventbus

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingConsumer struct {
	keys []string
	got  []*ConsumedEvent
	err  error
}

func (c *recordingConsumer) EventTypes() []string { return c.keys }

func (c *recordingConsumer) Handle(_ context.Context, event *ConsumedEvent) error {
	c.got = append(c.got, event)
	return c.err
}

func TestInProcessBus_Dispatch(t *testing.T) {
	bus := NewInProcessBus(nil)
	moved := &recordingConsumer{keys: []string{"schedule.block.moved"}}
	failing := &recordingConsumer{keys: []string{"schedule.block.moved", "planning.goal.planned"}, err: errors.New("boom")}
	bus.RegisterConsumer(moved)
	bus.RegisterConsumer(failing)
	assert.Equal(t, 3, bus.registry.ConsumerCount())

	require.NoError(t, bus.Publish(context.Background(), "schedule.block.moved", []byte(`{"block_id":"x"}`)))
	require.Len(t, moved.got, 1)
	assert.JSONEq(t, `{"block_id":"x"}`, string(moved.got[0].Payload))
	assert.Len(t, failing.got, 1, "a failing consumer still receives the event")

	require.NoError(t, bus.Publish(context.Background(), "schedule.block.deleted", []byte(`{}`)))
	assert.Len(t, moved.got, 1)
	require.NoError(t, bus.Close())
}

func TestConsumerRegistry_ReturnsLastError(t *testing.T) {
	r := NewConsumerRegistry(nil)
	boom := errors.New("boom")
	r.Register(&recordingConsumer{keys: []string{"k"}, err: boom})
	r.Register(&recordingConsumer{keys: []string{"k"}})

	assert.ErrorIs(t, r.Dispatch(context.Background(), &ConsumedEvent{RoutingKey: "k"}), boom)
	assert.NoError(t, r.Dispatch(context.Background(), &ConsumedEvent{RoutingKey: "other"}))
}
