package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/felixgeelhaar/stride/internal/app"
	"github.com/felixgeelhaar/stride/internal/scheduling/application/commands"
	"github.com/felixgeelhaar/stride/internal/scheduling/application/queries"
	"github.com/felixgeelhaar/stride/internal/scheduling/application/services"
	"github.com/felixgeelhaar/stride/internal/scheduling/domain"
	"github.com/google/uuid"
)

// ScheduleHandler serves the calendar endpoints.
type ScheduleHandler struct {
	c      *app.Container
	logger *slog.Logger
}

// NewScheduleHandler creates a ScheduleHandler.
func NewScheduleHandler(c *app.Container, logger *slog.Logger) *ScheduleHandler {
	return &ScheduleHandler{c: c, logger: logger}
}

// GetSchedule handles GET /api/v1/schedule
func (h *ScheduleHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())
	start, end, apiErr := window(r)
	if apiErr != nil {
		writeError(w, r, apiErr)
		return
	}

	schedule, err := h.c.GetScheduleHandler.Handle(r.Context(), queries.GetScheduleQuery{
		UserID: userID,
		Start:  start,
		End:    end,
	})
	if err != nil {
		fail(w, r, h.logger, "get schedule", err)
		return
	}
	writeJSON(w, http.StatusOK, schedule)
}

type allocateRequest struct {
	HorizonWeeks int        `json:"horizon_weeks"`
	Start        *time.Time `json:"start,omitempty"`
}

type allocateResponse struct {
	Placed           []queries.BlockDTO         `json:"placed"`
	Fixed            []queries.BlockDTO         `json:"fixed"`
	Shortfalls       []services.Shortfall       `json:"shortfalls"`
	WeeklyShortfalls []services.WeeklyShortfall `json:"weekly_shortfalls,omitempty"`
	SkippedDays      map[string]string          `json:"skipped_days,omitempty"`
}

// Allocate handles POST /api/v1/schedule/allocate
func (h *ScheduleHandler) Allocate(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	var req allocateRequest
	if r.ContentLength != 0 {
		if apiErr := decodeJSON(r, &req); apiErr != nil {
			writeError(w, r, apiErr)
			return
		}
	}
	cfg := h.c.Config
	if req.HorizonWeeks == 0 {
		req.HorizonWeeks = cfg.DefaultHorizonWeeks
	}
	if req.HorizonWeeks < 0 || req.HorizonWeeks > cfg.MaxHorizonWeeks {
		writeError(w, r, errBadRequest("horizon_weeks must be within 1..%d", cfg.MaxHorizonWeeks))
		return
	}
	start := time.Now()
	if req.Start != nil {
		start = *req.Start
	}

	result, err := h.c.AllocateScheduleHandler.Handle(r.Context(), commands.AllocateScheduleCommand{
		UserID:       userID,
		HorizonStart: start,
		HorizonWeeks: req.HorizonWeeks,
	})
	if err != nil {
		fail(w, r, h.logger, "allocate schedule", err)
		return
	}

	resp := allocateResponse{
		Placed:           toBlockDTOs(result.Placed),
		Fixed:            toBlockDTOs(result.Fixed),
		Shortfalls:       result.Shortfalls,
		WeeklyShortfalls: result.WeeklyShortfalls,
		SkippedDays:      result.SkippedDays,
	}
	if resp.Shortfalls == nil {
		resp.Shortfalls = []services.Shortfall{}
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetAvailability handles GET /api/v1/availability
func (h *ScheduleHandler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())
	date, apiErr := queryDate(r, "date")
	if apiErr != nil {
		writeError(w, r, apiErr)
		return
	}

	availability, err := h.c.FreeIntervalsHandler.Handle(r.Context(), queries.FreeIntervalsQuery{UserID: userID, Date: date})
	if err != nil {
		fail(w, r, h.logger, "get availability", err)
		return
	}
	writeJSON(w, http.StatusOK, availability)
}

// GetConflicts handles GET /api/v1/conflicts
func (h *ScheduleHandler) GetConflicts(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())
	start, end, apiErr := window(r)
	if apiErr != nil {
		writeError(w, r, apiErr)
		return
	}

	conflicts, err := h.c.GetConflictsHandler.Handle(r.Context(), queries.GetConflictsQuery{
		UserID: userID,
		Start:  start,
		End:    end,
	})
	if err != nil {
		fail(w, r, h.logger, "get conflicts", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"conflicts": conflicts})
}

type insertBlockRequest struct {
	ID              *uuid.UUID `json:"id,omitempty"`
	Type            string     `json:"type"`
	Title           string     `json:"title,omitempty"`
	Start           time.Time  `json:"start"`
	DurationMinutes int        `json:"duration_minutes"`
	Notes           string     `json:"notes,omitempty"`
	GoalID          *uuid.UUID `json:"goal_id,omitempty"`
	MicroGoalID     *uuid.UUID `json:"micro_goal_id,omitempty"`
	Force           bool       `json:"force,omitempty"`
}

// InsertBlock handles POST /api/v1/blocks
func (h *ScheduleHandler) InsertBlock(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	var req insertBlockRequest
	if apiErr := decodeJSON(r, &req); apiErr != nil {
		writeError(w, r, apiErr)
		return
	}
	if req.Start.IsZero() {
		writeError(w, r, errBadRequest("start is required"))
		return
	}

	cmd := commands.InsertBlockCommand{
		UserID:          userID,
		Type:            domain.BlockType(req.Type),
		Title:           req.Title,
		Start:           req.Start,
		DurationMinutes: req.DurationMinutes,
		Notes:           req.Notes,
		Force:           req.Force,
	}
	if req.ID != nil {
		cmd.BlockID = *req.ID
	}
	if req.GoalID != nil {
		cmd.GoalID = *req.GoalID
	}
	if req.MicroGoalID != nil {
		cmd.MicroGoalID = *req.MicroGoalID
	}

	block, err := h.c.InsertBlockHandler.Handle(r.Context(), cmd)
	if err != nil {
		fail(w, r, h.logger, "insert block", err)
		return
	}
	writeJSON(w, http.StatusCreated, queries.ToBlockDTO(block))
}

type updateBlockRequest struct {
	Start           *time.Time `json:"start,omitempty"`
	DurationMinutes *int       `json:"duration_minutes,omitempty"`
	Status          *string    `json:"status,omitempty"`
	Notes           *string    `json:"notes,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	Force           bool       `json:"force,omitempty"`
}

// UpdateBlock handles PATCH /api/v1/blocks/{blockID}
func (h *ScheduleHandler) UpdateBlock(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())
	blockID, apiErr := pathUUID(r, "blockID")
	if apiErr != nil {
		writeError(w, r, apiErr)
		return
	}

	var req updateBlockRequest
	if apiErr := decodeJSON(r, &req); apiErr != nil {
		writeError(w, r, apiErr)
		return
	}

	cmd := commands.UpdateBlockCommand{
		UserID:          userID,
		BlockID:         blockID,
		Start:           req.Start,
		DurationMinutes: req.DurationMinutes,
		Notes:           req.Notes,
		Force:           req.Force,
	}
	if req.CompletedAt != nil {
		cmd.CompletedAt = *req.CompletedAt
	}
	if req.Status != nil {
		status := domain.BlockStatus(*req.Status)
		cmd.Status = &status
	}

	block, err := h.c.UpdateBlockHandler.Handle(r.Context(), cmd)
	if err != nil {
		fail(w, r, h.logger, "update block", err)
		return
	}
	writeJSON(w, http.StatusOK, queries.ToBlockDTO(block))
}

// DeleteBlock handles DELETE /api/v1/blocks/{blockID}
func (h *ScheduleHandler) DeleteBlock(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())
	blockID, apiErr := pathUUID(r, "blockID")
	if apiErr != nil {
		writeError(w, r, apiErr)
		return
	}

	if err := h.c.DeleteBlockHandler.Handle(r.Context(), commands.DeleteBlockCommand{UserID: userID, BlockID: blockID}); err != nil {
		fail(w, r, h.logger, "delete block", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetStreak handles GET /api/v1/streak
func (h *ScheduleHandler) GetStreak(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())
	asOf, apiErr := queryTime(r, "as_of", time.Now())
	if apiErr != nil {
		writeError(w, r, apiErr)
		return
	}

	streak, err := h.c.GetStreakHandler.Handle(r.Context(), queries.GetStreakQuery{UserID: userID, AsOf: asOf})
	if err != nil {
		fail(w, r, h.logger, "get streak", err)
		return
	}
	writeJSON(w, http.StatusOK, streak)
}

// GetConstraints handles GET /api/v1/constraints
func (h *ScheduleHandler) GetConstraints(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	c, err := h.c.GetConstraintsHandler.Handle(r.Context(), queries.GetConstraintsQuery{UserID: userID})
	if err != nil {
		fail(w, r, h.logger, "get constraints", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// PutConstraints handles PUT /api/v1/constraints
func (h *ScheduleHandler) PutConstraints(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	var req domain.UserConstraints
	if apiErr := decodeJSON(r, &req); apiErr != nil {
		writeError(w, r, apiErr)
		return
	}

	saved, err := h.c.SaveConstraintsHandler.Handle(r.Context(), commands.SaveConstraintsCommand{
		UserID:      userID,
		Constraints: req,
	})
	if err != nil {
		fail(w, r, h.logger, "save constraints", err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func toBlockDTOs(blocks []*domain.ScheduleBlock) []queries.BlockDTO {
	out := make([]queries.BlockDTO, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, queries.ToBlockDTO(b))
	}
	return out
}
