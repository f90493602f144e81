package domain

import "errors"

var (
	// ErrNotFound marks lookups of ids that do not exist for the caller.
	ErrNotFound = errors.New("not found")

	// ErrInvariantViolation marks states that valid input can never
	// produce, such as a non-positive block duration reaching the domain.
	ErrInvariantViolation = errors.New("invariant violation")
)
