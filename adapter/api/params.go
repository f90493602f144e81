package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads the request body into dst. Unknown fields are rejected.
func decodeJSON(r *http.Request, dst any) *APIError {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errBadRequest("request body is required")
		}
		return errBadRequest("invalid request body: %v", err)
	}
	return nil
}

func pathUUID(r *http.Request, name string) (uuid.UUID, *APIError) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, errBadRequest("invalid %s", name)
	}
	return id, nil
}

// queryTime parses an RFC 3339 parameter. A missing parameter returns def.
func queryTime(r *http.Request, name string, def time.Time) (time.Time, *APIError) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, errBadRequest("%s must be RFC 3339", name)
	}
	return t, nil
}

// queryDate parses a YYYY-MM-DD parameter.
func queryDate(r *http.Request, name string) (time.Time, *APIError) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, errBadRequest("%s is required", name)
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, errBadRequest("%s must be YYYY-MM-DD", name)
	}
	return t, nil
}

func queryBool(r *http.Request, name string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(name))
	return err == nil && v
}

// window reads start and end, defaulting to the coming week.
func window(r *http.Request) (time.Time, time.Time, *APIError) {
	y, m, d := time.Now().UTC().Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	start, apiErr := queryTime(r, "start", today)
	if apiErr != nil {
		return time.Time{}, time.Time{}, apiErr
	}
	end, apiErr := queryTime(r, "end", start.AddDate(0, 0, 7))
	if apiErr != nil {
		return time.Time{}, time.Time{}, apiErr
	}
	return start, end, nil
}
