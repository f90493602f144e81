package domain

import (
	"errors"
	"fmt"
	"strings"

	sharedDomain "github.com/felixgeelhaar/stride/internal/shared/domain"
	"github.com/google/uuid"
)

var (
	ErrInvalidConstraints = errors.New("invalid constraints")
	ErrConflict           = errors.New("schedule conflict")

	ErrBlockNotFound       = fmt.Errorf("schedule block %w", sharedDomain.ErrNotFound)
	ErrConstraintsNotFound = fmt.Errorf("user constraints %w", sharedDomain.ErrNotFound)

	ErrInvalidDuration         = fmt.Errorf("%w: block duration must be positive", sharedDomain.ErrInvariantViolation)
	ErrInvalidBlockType        = errors.New("unknown block type")
	ErrInvalidStatus           = errors.New("unknown block status")
	ErrInvalidStatusTransition = errors.New("block status transition not allowed")
	ErrBlockCancelled          = errors.New("cancelled blocks cannot be changed")
	ErrBlockIDReused           = errors.New("block id already used for a different block")
)

// ConflictError reports the blocks and fixed constraints an edit would
// overlap. It matches ErrConflict with errors.Is.
type ConflictError struct {
	BlockID     uuid.UUID
	Colliding   []uuid.UUID
	Constraints []string
}

func (e *ConflictError) Error() string {
	parts := make([]string, 0, len(e.Colliding)+len(e.Constraints))
	for _, id := range e.Colliding {
		parts = append(parts, id.String())
	}
	parts = append(parts, e.Constraints...)
	return fmt.Sprintf("block %s conflicts with %s", e.BlockID, strings.Join(parts, ", "))
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// InvalidConstraintsError reports a day whose windows are malformed. The
// day yields no free time; other days are unaffected.
type InvalidConstraintsError struct {
	Date   string
	Reason string
}

func (e *InvalidConstraintsError) Error() string {
	if e.Date == "" {
		return fmt.Sprintf("invalid constraints: %s", e.Reason)
	}
	return fmt.Sprintf("invalid constraints on %s: %s", e.Date, e.Reason)
}

func (e *InvalidConstraintsError) Is(target error) bool {
	return target == ErrInvalidConstraints
}
