package application

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrPersistenceTimeout is returned when the data store does not answer
// within the configured deadline. Callers may retry the whole operation.
var ErrPersistenceTimeout = errors.New("persistence timeout")

// UnitOfWork provides transactional support for aggregating multiple operations.
type UnitOfWork interface {
	Begin(ctx context.Context) (context.Context, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UnitOfWorkFunc is a function that executes within a unit of work.
type UnitOfWorkFunc func(ctx context.Context) error

// WithUnitOfWork executes fn inside a transaction. A failing fn rolls the
// transaction back and its error is returned as is.
func WithUnitOfWork(ctx context.Context, uow UnitOfWork, fn UnitOfWorkFunc) error {
	txCtx, err := uow.Begin(ctx)
	if err != nil {
		return err
	}

	if err := fn(txCtx); err != nil {
		_ = uow.Rollback(txCtx)
		return err
	}

	return uow.Commit(txCtx)
}

// WithDeadline runs fn with a timeout and reports an expired deadline as
// ErrPersistenceTimeout. Errors already translated by the store pass
// through. A zero timeout runs fn with the parent context.
func WithDeadline(ctx context.Context, timeout time.Duration, fn UnitOfWorkFunc) error {
	if timeout <= 0 {
		return fn(ctx)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := fn(ctx)
	if err == nil || errors.Is(err, ErrPersistenceTimeout) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s: %v", ErrPersistenceTimeout, timeout, err)
	}
	return err
}
