package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	sharedApplication "github.com/felixgeelhaar/stride/internal/shared/application"
)

// ErrNoRows is returned when a query expected to return a row returns none.
var ErrNoRows = errors.New("no rows in result set")

// IsNoRows reports a missing row from either driver.
func IsNoRows(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, pgx.ErrNoRows) ||
		errors.Is(err, sql.ErrNoRows) ||
		errors.Is(err, ErrNoRows)
}

// Translate maps a driver error onto the application's persistence errors.
// An expired context deadline, or a driver error isTimeout accepts, becomes
// ErrPersistenceTimeout with the driver error still in the chain. Anything
// else is returned unchanged.
func Translate(err error, isTimeout func(error) bool) error {
	switch {
	case err == nil, errors.Is(err, sharedApplication.ErrPersistenceTimeout):
		return err
	case errors.Is(err, context.DeadlineExceeded), isTimeout != nil && isTimeout(err):
		return fmt.Errorf("%w: %w", sharedApplication.ErrPersistenceTimeout, err)
	}
	return err
}
