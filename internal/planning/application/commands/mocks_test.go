package commands

import (
	"context"
	"time"

	"github.com/felixgeelhaar/stride/internal/planning/domain"
	"github.com/felixgeelhaar/stride/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type mockGoalRepo struct {
	mock.Mock
}

func (m *mockGoalRepo) Save(ctx context.Context, goal *domain.Goal) error {
	return m.Called(ctx, goal).Error(0)
}

func (m *mockGoalRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Goal, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Goal), args.Error(1)
}

func (m *mockGoalRepo) FindByUser(ctx context.Context, userID uuid.UUID, statuses ...domain.GoalStatus) ([]*domain.Goal, error) {
	args := m.Called(ctx, userID, statuses)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Goal), args.Error(1)
}

type mockPruner struct {
	mock.Mock
}

func (m *mockPruner) DeletePlannedByGoalFrom(ctx context.Context, goalID uuid.UUID, from time.Time) ([]uuid.UUID, error) {
	args := m.Called(ctx, goalID, from)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) Generate(ctx context.Context, goal domain.GoalDescription) (*domain.GeneratedPlan, error) {
	args := m.Called(ctx, goal)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GeneratedPlan), args.Error(1)
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

func newUnitOfWork() *mockUnitOfWork {
	uow := new(mockUnitOfWork)
	uow.On("Begin", mock.Anything).Return(nil).Maybe()
	uow.On("Commit", mock.Anything).Return(nil).Maybe()
	uow.On("Rollback", mock.Anything).Return(nil).Maybe()
	return uow
}

func newOutbox() *mockOutboxRepo {
	repo := new(mockOutboxRepo)
	repo.On("SaveBatch", mock.Anything, mock.AnythingOfType("[]*outbox.Message")).Return(nil).Maybe()
	return repo
}

func plannedGoal(userID uuid.UUID, specs ...domain.MicroGoalSpec) *domain.Goal {
	g, err := domain.NewGoal(userID, "Learn Spanish", "language", "", nil)
	if err != nil {
		panic(err)
	}
	if err := g.SetPlan(domain.Plan{WeeklyHours: 3}, specs); err != nil {
		panic(err)
	}
	g.DrainEvents()
	return g
}
