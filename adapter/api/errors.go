package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	planningDomain "github.com/felixgeelhaar/stride/internal/planning/domain"
	scheduleQueries "github.com/felixgeelhaar/stride/internal/scheduling/application/queries"
	"github.com/felixgeelhaar/stride/internal/scheduling/domain"
	sharedApplication "github.com/felixgeelhaar/stride/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/stride/internal/shared/domain"
	"github.com/felixgeelhaar/stride/pkg/observability"
)

// APIError is the error envelope of every failed request.
type APIError struct {
	Status    int            `json:"-"`
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func errBadRequest(format string, args ...any) *APIError {
	return &APIError{Status: http.StatusBadRequest, Code: "bad_request", Message: fmt.Sprintf(format, args...)}
}

func errUnauthorized(message string) *APIError {
	return &APIError{Status: http.StatusUnauthorized, Code: "unauthorized", Message: message}
}

// badInput are domain errors caused by the request itself. Some wrap
// ErrInvariantViolation, so they are checked first.
var badInput = []error{
	domain.ErrInvalidDuration,
	domain.ErrInvalidBlockType,
	domain.ErrInvalidStatus,
	domain.ErrInvalidStatusTransition,
	domain.ErrBlockCancelled,
	scheduleQueries.ErrInvalidQuery,
	planningDomain.ErrGoalEmptyName,
	planningDomain.ErrGoalArchived,
	planningDomain.ErrInvalidGoalStatus,
	planningDomain.ErrInvalidPlan,
	planningDomain.ErrInvalidCriteria,
	planningDomain.ErrMicroGoalEmptyName,
}

// errorFromDomain maps an application error to its HTTP form.
func errorFromDomain(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var conflict *domain.ConflictError
	if errors.As(err, &conflict) {
		colliding := make([]string, 0, len(conflict.Colliding))
		for _, id := range conflict.Colliding {
			colliding = append(colliding, id.String())
		}
		constraints := conflict.Constraints
		if constraints == nil {
			constraints = []string{}
		}
		return &APIError{
			Status:  http.StatusConflict,
			Code:    "conflict",
			Message: err.Error(),
			Details: map[string]any{
				"block_id":            conflict.BlockID.String(),
				"colliding_block_ids": colliding,
				"constraints":         constraints,
			},
		}
	}

	var invalid *domain.InvalidConstraintsError
	if errors.As(err, &invalid) {
		details := map[string]any{"reason": invalid.Reason}
		if invalid.Date != "" {
			details["date"] = invalid.Date
		}
		return &APIError{Status: http.StatusUnprocessableEntity, Code: "invalid_constraints", Message: err.Error(), Details: details}
	}

	for _, target := range badInput {
		if errors.Is(err, target) {
			return &APIError{Status: http.StatusBadRequest, Code: "bad_request", Message: err.Error()}
		}
	}

	switch {
	case errors.Is(err, domain.ErrBlockIDReused):
		return &APIError{Status: http.StatusConflict, Code: "id_reused", Message: err.Error()}
	case errors.Is(err, domain.ErrConflict):
		return &APIError{Status: http.StatusConflict, Code: "conflict", Message: err.Error()}
	case errors.Is(err, domain.ErrInvalidConstraints):
		return &APIError{Status: http.StatusUnprocessableEntity, Code: "invalid_constraints", Message: err.Error()}
	case errors.Is(err, sharedDomain.ErrNotFound):
		return &APIError{Status: http.StatusNotFound, Code: "not_found", Message: err.Error()}
	case errors.Is(err, sharedApplication.ErrPersistenceTimeout):
		return &APIError{Status: http.StatusServiceUnavailable, Code: "persistence_timeout", Message: "the calendar is busy, retry shortly"}
	case errors.Is(err, planningDomain.ErrPlanUnavailable):
		return &APIError{Status: http.StatusServiceUnavailable, Code: "plan_unavailable", Message: err.Error()}
	case errors.Is(err, sharedDomain.ErrInvariantViolation):
		return &APIError{Status: http.StatusInternalServerError, Code: "invariant_violation", Message: "internal error"}
	default:
		return &APIError{Status: http.StatusInternalServerError, Code: "internal_error", Message: "internal error"}
	}
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", "error", err)
		}
	}
}

// writeError writes the error envelope.
func writeError(w http.ResponseWriter, r *http.Request, err *APIError) {
	err.RequestID = observability.RequestIDFromContext(r.Context())
	writeJSON(w, err.Status, map[string]*APIError{"error": err})
}

// fail maps err and writes it. Server-side failures are logged.
func fail(w http.ResponseWriter, r *http.Request, logger *slog.Logger, op string, err error) {
	apiErr := errorFromDomain(err)
	if apiErr.Status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), op+" failed", "error", err)
	} else {
		logger.DebugContext(r.Context(), op+" rejected", "code", apiErr.Code, "error", err)
	}
	writeError(w, r, apiErr)
}
