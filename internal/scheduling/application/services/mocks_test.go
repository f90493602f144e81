package services

import (
	"context"
	"time"

	planningDomain "github.com/felixgeelhaar/stride/internal/planning/domain"
	"github.com/felixgeelhaar/stride/internal/scheduling/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
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
