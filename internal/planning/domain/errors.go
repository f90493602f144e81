package domain

import (
	"errors"
	"fmt"

	sharedDomain "github.com/felixgeelhaar/stride/internal/shared/domain"
)

var (
	ErrGoalNotFound      = fmt.Errorf("goal %w", sharedDomain.ErrNotFound)
	ErrMicroGoalNotFound = fmt.Errorf("micro-goal %w", sharedDomain.ErrNotFound)

	ErrGoalEmptyName        = errors.New("goal name cannot be empty")
	ErrGoalArchived         = errors.New("goal is archived")
	ErrInvalidGoalStatus    = errors.New("invalid goal status")
	ErrInvalidPlan          = errors.New("invalid plan")
	ErrInvalidCriteria      = errors.New("invalid micro-goal criteria")
	ErrMicroGoalEmptyName   = errors.New("micro-goal name cannot be empty")
	ErrPlanUnavailable      = errors.New("plan provider unavailable")
	ErrMicroGoalOrderBroken = fmt.Errorf("%w: micro-goal order indices must be dense", sharedDomain.ErrInvariantViolation)
)
