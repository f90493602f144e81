package commands

import (
	"context"
	"time"

	sharedApplication "github.com/felixgeelhaar/stride/internal/shared/application"
	"github.com/felixgeelhaar/stride/internal/shared/infrastructure/lock"
	"github.com/google/uuid"
)

// SessionPruner removes a goal's planned sessions from the calendar.
type SessionPruner interface {
	DeletePlannedByGoalFrom(ctx context.Context, goalID uuid.UUID, from time.Time) ([]uuid.UUID, error)
}

// calendarGuard serializes goal writes that touch the calendar with the
// schedule writers of the same user.
type calendarGuard struct {
	locker  lock.Locker
	uow     sharedApplication.UnitOfWork
	timeout time.Duration
}

func (g calendarGuard) run(ctx context.Context, userID uuid.UUID, fn sharedApplication.UnitOfWorkFunc) error {
	return sharedApplication.WithDeadline(ctx, g.timeout, func(ctx context.Context) error {
		release, err := g.locker.Acquire(ctx, lock.CalendarKey(userID))
		if err != nil {
			return err
		}
		defer release()

		return sharedApplication.WithUnitOfWork(ctx, g.uow, fn)
	})
}
