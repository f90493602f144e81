package services

import (
	"testing"

	"github.com/felixgeelhaar/stride/internal/scheduling/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var resolverUser = uuid.New()

func block(t *testing.T, kind domain.BlockType, offset int, hhmm string, minutes int) *domain.ScheduleBlock {
	t.Helper()
	b, err := domain.NewScheduleBlock(domain.BlockParams{
		UserID:          resolverUser,
		Type:            kind,
		Start:           day(offset, hhmm),
		DurationMinutes: minutes,
	})
	require.NoError(t, err)
	b.DrainEvents()
	return b
}

func TestConflictResolver_Validate(t *testing.T) {
	r := NewConflictResolver(nil)
	a := block(t, domain.BlockTypeGoalSession, 0, "18:00", 60)
	b := block(t, domain.BlockTypeGoalSession, 0, "18:30", 60)
	c := block(t, domain.BlockTypeGoalSession, 0, "19:15", 30)
	skipped := block(t, domain.BlockTypeGoalSession, 0, "18:00", 120)
	require.NoError(t, skipped.SetStatus(domain.BlockStatusSkipped, day(0, "18:00")))

	pairs := r.Validate([]*domain.ScheduleBlock{c, b, a, skipped}, span(0, "00:00", "24:00"))
	require.Len(t, pairs, 2)
	assert.Equal(t, a.ID(), pairs[0].A)
	assert.Equal(t, b.ID(), pairs[0].B)
	assert.Equal(t, span(0, "18:30", "19:00"), pairs[0].Overlap)
	assert.False(t, pairs[0].Acknowledged)
	assert.Equal(t, b.ID(), pairs[1].A)
	assert.Equal(t, c.ID(), pairs[1].B)

	a.FlagConflict()
	b.FlagConflict()
	pairs = r.Validate([]*domain.ScheduleBlock{a, b}, span(0, "18:45", "20:00"))
	require.Len(t, pairs, 1)
	assert.True(t, pairs[0].Acknowledged)
	assert.Equal(t, span(0, "18:45", "19:00"), pairs[0].Overlap)

	assert.Empty(t, r.Validate([]*domain.ScheduleBlock{a, b}, span(1, "00:00", "24:00")))
}

func TestConflictResolver_RejectsOverlapWithoutForce(t *testing.T) {
	r := NewConflictResolver(nil)
	gym := block(t, domain.BlockTypeFixedCommitment, 0, "18:00", 60)
	session := block(t, domain.BlockTypeGoalSession, 0, "20:00", 60)
	current := []*domain.ScheduleBlock{gym, session}

	proposed := session.Clone()
	require.NoError(t, proposed.Move(day(0, "18:00")))

	res, err := r.Resolve(current, Edit{Block: proposed})
	assert.Nil(t, res)
	require.ErrorIs(t, err, domain.ErrConflict)

	var ce *domain.ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, session.ID(), ce.BlockID)
	assert.Equal(t, []uuid.UUID{gym.ID()}, ce.Colliding)

	// Stored state is untouched.
	assert.Equal(t, day(0, "20:00"), session.Start())
	assert.False(t, session.IsConflicted())
	assert.False(t, gym.IsConflicted())
}

func TestConflictResolver_TouchingBlocksDoNotConflict(t *testing.T) {
	r := NewConflictResolver(nil)
	a := block(t, domain.BlockTypeGoalSession, 0, "18:00", 60)
	b := block(t, domain.BlockTypeGoalSession, 0, "19:00", 60)

	res, err := r.Resolve([]*domain.ScheduleBlock{a}, Edit{Block: b})
	require.NoError(t, err)
	assert.Same(t, b, res.Block)
	assert.Empty(t, res.Updated)
}

func TestConflictResolver_IgnoresNonOccupyingBlocks(t *testing.T) {
	r := NewConflictResolver(nil)
	cancelled := block(t, domain.BlockTypeGoalSession, 0, "18:00", 60)
	require.NoError(t, cancelled.SetStatus(domain.BlockStatusCancelled, day(0, "17:00")))

	_, err := r.Resolve([]*domain.ScheduleBlock{cancelled}, Edit{Block: block(t, domain.BlockTypeGoalSession, 0, "18:00", 60)})
	assert.NoError(t, err)
}

func TestConflictResolver_GoalSessionsRespectFixedIntervals(t *testing.T) {
	r := NewConflictResolver(nil)
	fixed := []LabelledRange{{Label: LabelWork, Range: span(0, "09:00", "17:00")}}

	session := block(t, domain.BlockTypeGoalSession, 0, "16:30", 60)
	_, err := r.Resolve(nil, Edit{Block: session, Fixed: fixed})
	var ce *domain.ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, []string{LabelWork}, ce.Constraints)
	assert.Empty(t, ce.Colliding)

	// Fixed-type blocks are the constraints themselves.
	work := block(t, domain.BlockTypeWork, 0, "09:00", 480)
	_, err = r.Resolve(nil, Edit{Block: work, Fixed: fixed})
	assert.NoError(t, err)

	res, err := r.Resolve(nil, Edit{Block: session, Fixed: fixed, Force: true})
	require.NoError(t, err)
	assert.True(t, res.Block.IsConflicted())
}

func TestConflictResolver_ForceFlagsBothAndMoveAwayClears(t *testing.T) {
	r := NewConflictResolver(nil)
	a := block(t, domain.BlockTypeGoalSession, 0, "18:00", 60)
	b := block(t, domain.BlockTypeGoalSession, 0, "20:00", 60)

	forced := b.Clone()
	require.NoError(t, forced.Move(day(0, "18:30")))
	res, err := r.Resolve([]*domain.ScheduleBlock{a, b}, Edit{Block: forced, Force: true})
	require.NoError(t, err)

	assert.True(t, res.Block.IsConflicted())
	require.Len(t, res.Updated, 1)
	assert.Equal(t, a.ID(), res.Updated[0].ID())
	assert.True(t, res.Updated[0].IsConflicted())
	assert.False(t, a.IsConflicted(), "input blocks are not modified")

	storedA, storedB := res.Updated[0], res.Block
	pairs := r.Validate([]*domain.ScheduleBlock{storedA, storedB}, span(0, "00:00", "24:00"))
	require.Len(t, pairs, 1)
	assert.True(t, pairs[0].Acknowledged)

	// Moving b back out clears the flag on both.
	moved := storedB.Clone()
	require.NoError(t, moved.Move(day(0, "21:00")))
	res, err = r.Resolve([]*domain.ScheduleBlock{storedA, storedB}, Edit{Block: moved})
	require.NoError(t, err)
	assert.False(t, res.Block.IsConflicted())
	require.Len(t, res.Updated, 1)
	assert.False(t, res.Updated[0].IsConflicted())
	assert.Empty(t, r.Validate([]*domain.ScheduleBlock{res.Updated[0], res.Block}, span(0, "00:00", "24:00")))
}

func TestConflictResolver_FlagStaysWhileAnotherOverlapRemains(t *testing.T) {
	r := NewConflictResolver(nil)
	a := block(t, domain.BlockTypeGoalSession, 0, "18:00", 120)
	b := block(t, domain.BlockTypeGoalSession, 0, "18:30", 30)
	c := block(t, domain.BlockTypeGoalSession, 0, "19:00", 30)
	for _, x := range []*domain.ScheduleBlock{a, b, c} {
		x.FlagConflict()
	}

	moved := b.Clone()
	require.NoError(t, moved.Move(day(0, "21:00")))
	res, err := r.Resolve([]*domain.ScheduleBlock{a, b, c}, Edit{Block: moved})
	require.NoError(t, err)

	assert.False(t, res.Block.IsConflicted())
	assert.Empty(t, res.Updated, "a still overlaps c")
}

func TestConflictResolver_InPlaceEditOfFlaggedBlock(t *testing.T) {
	r := NewConflictResolver(nil)
	a := block(t, domain.BlockTypeGoalSession, 0, "18:00", 60)
	b := block(t, domain.BlockTypeGoalSession, 0, "18:30", 60)
	a.FlagConflict()
	b.FlagConflict()
	current := []*domain.ScheduleBlock{a, b}

	completed := a.Clone()
	require.NoError(t, completed.Complete(day(0, "19:00")))
	res, err := r.Resolve(current, Edit{Block: completed})
	require.NoError(t, err)
	assert.True(t, res.Block.IsConflicted(), "overlap remains, so does the flag")
	assert.Empty(t, res.Updated)

	moved := a.Clone()
	require.NoError(t, moved.Move(day(0, "18:15")))
	_, err = r.Resolve(current, Edit{Block: moved})
	assert.ErrorIs(t, err, domain.ErrConflict, "changing the time is still checked")
}

func TestConflictResolver_DeleteClearsPartner(t *testing.T) {
	r := NewConflictResolver(nil)
	a := block(t, domain.BlockTypeGoalSession, 0, "18:00", 60)
	b := block(t, domain.BlockTypeGoalSession, 0, "18:30", 60)
	a.FlagConflict()
	b.FlagConflict()

	res, err := r.Resolve([]*domain.ScheduleBlock{a, b}, Edit{Block: b, Remove: true})
	require.NoError(t, err)
	require.Len(t, res.Updated, 1)
	assert.Equal(t, a.ID(), res.Updated[0].ID())
	assert.False(t, res.Updated[0].IsConflicted())
}

func TestConflictResolver_ResolveBatch(t *testing.T) {
	r := NewConflictResolver(nil)
	existing := block(t, domain.BlockTypeGoalSession, 0, "09:30", 60)
	existing.FlagConflict()

	work := block(t, domain.BlockTypeWork, 0, "09:00", 480)
	evening := block(t, domain.BlockTypeGoalSession, 0, "18:00", 60)

	res, err := r.ResolveBatch([]*domain.ScheduleBlock{existing}, []Edit{
		{Block: work, Force: true},
		{Block: evening},
	})
	require.NoError(t, err)
	require.Len(t, res.Blocks, 2)
	assert.True(t, res.Blocks[0].IsConflicted())
	assert.False(t, res.Blocks[1].IsConflicted())
	assert.Empty(t, res.Updated, "existing was already flagged")

	_, err = r.ResolveBatch(nil, []Edit{
		{Block: evening},
		{Block: block(t, domain.BlockTypeGoalSession, 0, "18:30", 30)},
	})
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = r.ResolveBatch(nil, []Edit{{Block: evening, Remove: true}})
	assert.Error(t, err)
}
