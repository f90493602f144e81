package commands

import (
	"context"
	"testing"
	"time"

	planningDomain "github.com/felixgeelhaar/stride/internal/planning/domain"
	"github.com/felixgeelhaar/stride/internal/scheduling/domain"
	"github.com/felixgeelhaar/stride/internal/shared/infrastructure/lock"
	"github.com/felixgeelhaar/stride/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockBlockRepo struct {
	mock.Mock
}

func (m *mockBlockRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.ScheduleBlock, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ScheduleBlock), args.Error(1)
}

func (m *mockBlockRepo) FindInRange(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]*domain.ScheduleBlock, error) {
	args := m.Called(ctx, userID, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ScheduleBlock), args.Error(1)
}

func (m *mockBlockRepo) FindByGoal(ctx context.Context, goalID uuid.UUID) ([]*domain.ScheduleBlock, error) {
	args := m.Called(ctx, goalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ScheduleBlock), args.Error(1)
}

func (m *mockBlockRepo) Save(ctx context.Context, block *domain.ScheduleBlock) error {
	return m.Called(ctx, block).Error(0)
}

func (m *mockBlockRepo) SaveAll(ctx context.Context, blocks []*domain.ScheduleBlock) error {
	return m.Called(ctx, blocks).Error(0)
}

func (m *mockBlockRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockBlockRepo) DeletePlannedByGoalFrom(ctx context.Context, goalID uuid.UUID, from time.Time) ([]uuid.UUID, error) {
	args := m.Called(ctx, goalID, from)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

type mockGoalRepo struct {
	mock.Mock
}

func (m *mockGoalRepo) Save(ctx context.Context, goal *planningDomain.Goal) error {
	return m.Called(ctx, goal).Error(0)
}

func (m *mockGoalRepo) FindByID(ctx context.Context, id uuid.UUID) (*planningDomain.Goal, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*planningDomain.Goal), args.Error(1)
}

func (m *mockGoalRepo) FindByUser(ctx context.Context, userID uuid.UUID, statuses ...planningDomain.GoalStatus) ([]*planningDomain.Goal, error) {
	args := m.Called(ctx, userID, statuses)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*planningDomain.Goal), args.Error(1)
}

type mockConstraintsRepo struct {
	mock.Mock
}

func (m *mockConstraintsRepo) Save(ctx context.Context, c *domain.UserConstraints) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockConstraintsRepo) FindByUser(ctx context.Context, userID uuid.UUID) (*domain.UserConstraints, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserConstraints), args.Error(1)
}

type mockOutboxRepo struct {
	mock.Mock
}

func (m *mockOutboxRepo) SaveBatch(ctx context.Context, msgs []*outbox.Message) error {
	return m.Called(ctx, msgs).Error(0)
}

func (m *mockOutboxRepo) GetUnpublished(ctx context.Context, limit int) ([]*outbox.Message, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.Message), args.Error(1)
}

func (m *mockOutboxRepo) MarkPublished(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockOutboxRepo) MarkFailed(ctx context.Context, id int64, reason string, nextRetryAt time.Time) error {
	return m.Called(ctx, id, reason, nextRetryAt).Error(0)
}

func (m *mockOutboxRepo) MarkDead(ctx context.Context, id int64, reason string) error {
	return m.Called(ctx, id, reason).Error(0)
}

func (m *mockOutboxRepo) DeleteOld(ctx context.Context, olderThan time.Duration) (int64, error) {
	args := m.Called(ctx, olderThan)
	return args.Get(0).(int64), args.Error(1)
}

type mockUnitOfWork struct {
	mock.Mock
}

func (m *mockUnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	args := m.Called(ctx)
	return ctx, args.Error(0)
}

func (m *mockUnitOfWork) Commit(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockUnitOfWork) Rollback(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

var monday = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

func day(offset int, hhmm string) time.Time {
	return domain.MustClock(hhmm).On(monday.AddDate(0, 0, offset), time.UTC)
}

type fixture struct {
	user        uuid.UUID
	now         time.Time
	blocks      *mockBlockRepo
	goals       *mockGoalRepo
	constraints *mockConstraintsRepo
	outbox      *mockOutboxRepo
	uow         *mockUnitOfWork
	locker      *lock.LocalLocker
	m           *Mutator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		user:        uuid.New(),
		now:         monday,
		blocks:      new(mockBlockRepo),
		goals:       new(mockGoalRepo),
		constraints: new(mockConstraintsRepo),
		outbox:      new(mockOutboxRepo),
		uow:         new(mockUnitOfWork),
		locker:      lock.NewLocalLocker(),
	}
	f.uow.On("Begin", mock.Anything).Return(nil).Maybe()
	f.uow.On("Commit", mock.Anything).Return(nil).Maybe()
	f.uow.On("Rollback", mock.Anything).Return(nil).Maybe()
	f.outbox.On("SaveBatch", mock.Anything, mock.AnythingOfType("[]*outbox.Message")).Return(nil).Maybe()

	f.m = NewMutator(Deps{
		Blocks:      f.blocks,
		Constraints: f.constraints,
		Goals:       f.goals,
		Outbox:      f.outbox,
		UnitOfWork:  f.uow,
		Locker:      f.locker,
		Now:         func() time.Time { return f.now },
	})
	return f
}

func (f *fixture) block(t *testing.T, kind domain.BlockType, offset int, hhmm string, minutes int) *domain.ScheduleBlock {
	t.Helper()
	b, err := domain.NewScheduleBlock(domain.BlockParams{
		UserID:          f.user,
		Type:            kind,
		Start:           day(offset, hhmm),
		DurationMinutes: minutes,
	})
	require.NoError(t, err)
	b.DrainEvents()
	return b
}

func (f *fixture) goal(t *testing.T, weeklyHours float64, specs ...planningDomain.MicroGoalSpec) *planningDomain.Goal {
	t.Helper()
	g, err := planningDomain.NewGoal(f.user, "Spanish", "language", "", nil)
	require.NoError(t, err)
	require.NoError(t, g.SetPlan(planningDomain.Plan{WeeklyHours: weeklyHours, StartDate: monday}, specs))
	g.DrainEvents()
	return g
}

func weekdayWorker(userID uuid.UUID) *domain.UserConstraints {
	c := &domain.UserConstraints{
		UserID:         userID,
		Timezone:       "UTC",
		Wake:           domain.MustClock("07:00"),
		Sleep:          domain.MustClock("23:00"),
		CommuteMinutes: 30,
	}
	for d := time.Monday; d <= time.Friday; d++ {
		c.Work = append(c.Work, domain.WorkDay{
			Day:   domain.Weekday(d),
			Start: domain.MustClock("09:00"),
			End:   domain.MustClock("17:00"),
		})
	}
	return c
}
