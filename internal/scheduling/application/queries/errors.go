package queries

import "errors"

// ErrInvalidQuery is returned for malformed query parameters.
var ErrInvalidQuery = errors.New("invalid query")
