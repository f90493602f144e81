package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/felixgeelhaar/stride/internal/app"
	"github.com/felixgeelhaar/stride/internal/planning/application/commands"
	"github.com/felixgeelhaar/stride/internal/planning/application/queries"
	"github.com/felixgeelhaar/stride/internal/planning/domain"
	scheduleQueries "github.com/felixgeelhaar/stride/internal/scheduling/application/queries"
	"github.com/google/uuid"
)

// GoalHandler serves the goal endpoints.
type GoalHandler struct {
	c      *app.Container
	logger *slog.Logger
}

// NewGoalHandler creates a GoalHandler.
func NewGoalHandler(c *app.Container, logger *slog.Logger) *GoalHandler {
	return &GoalHandler{c: c, logger: logger}
}

// ListGoals handles GET /api/v1/goals
func (h *GoalHandler) ListGoals(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())
	q := r.URL.Query()

	goals, err := h.c.ListGoalsHandler.Handle(r.Context(), queries.ListGoalsQuery{
		UserID:          userID,
		Status:          q.Get("status"),
		IncludeArchived: queryBool(r, "include_archived"),
		Category:        q.Get("category"),
		SortBy:          q.Get("sort"),
	})
	if err != nil {
		fail(w, r, h.logger, "list goals", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"goals": goals})
}

type createGoalRequest struct {
	Name        string                 `json:"name"`
	Category    string                 `json:"category,omitempty"`
	Description string                 `json:"description,omitempty"`
	TargetDate  string                 `json:"target_date,omitempty"`
	Plan        *domain.Plan           `json:"plan,omitempty"`
	MicroGoals  []domain.MicroGoalSpec `json:"micro_goals,omitempty"`
}

// CreateGoal handles POST /api/v1/goals
func (h *GoalHandler) CreateGoal(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	var req createGoalRequest
	if apiErr := decodeJSON(r, &req); apiErr != nil {
		writeError(w, r, apiErr)
		return
	}

	cmd := commands.CreateGoalCommand{
		UserID:      userID,
		Name:        req.Name,
		Category:    req.Category,
		Description: req.Description,
		Plan:        req.Plan,
		MicroGoals:  req.MicroGoals,
	}
	if req.TargetDate != "" {
		target, err := time.Parse(time.DateOnly, req.TargetDate)
		if err != nil {
			writeError(w, r, errBadRequest("target_date must be YYYY-MM-DD"))
			return
		}
		cmd.TargetDate = &target
	}

	goal, err := h.c.CreateGoalHandler.Handle(r.Context(), cmd)
	if err != nil {
		fail(w, r, h.logger, "create goal", err)
		return
	}
	writeJSON(w, http.StatusCreated, queries.ToGoalDTO(goal))
}

// GetGoal handles GET /api/v1/goals/{goalID}
func (h *GoalHandler) GetGoal(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())
	goalID, apiErr := pathUUID(r, "goalID")
	if apiErr != nil {
		writeError(w, r, apiErr)
		return
	}

	goal, err := h.c.GetGoalHandler.Handle(r.Context(), queries.GetGoalQuery{UserID: userID, GoalID: goalID})
	if err != nil {
		fail(w, r, h.logger, "get goal", err)
		return
	}
	writeJSON(w, http.StatusOK, goal)
}

type setStatusRequest struct {
	Status string `json:"status"`
}

// SetStatus handles POST /api/v1/goals/{goalID}/status
func (h *GoalHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())
	goalID, apiErr := pathUUID(r, "goalID")
	if apiErr != nil {
		writeError(w, r, apiErr)
		return
	}

	var req setStatusRequest
	if apiErr := decodeJSON(r, &req); apiErr != nil {
		writeError(w, r, apiErr)
		return
	}

	goal, err := h.c.SetGoalStatusHandler.Handle(r.Context(), commands.SetGoalStatusCommand{
		UserID: userID,
		GoalID: goalID,
		Status: domain.GoalStatus(req.Status),
	})
	if err != nil {
		fail(w, r, h.logger, "set goal status", err)
		return
	}
	writeJSON(w, http.StatusOK, queries.ToGoalDTO(goal))
}

type archiveResponse struct {
	Goal          queries.GoalDTO `json:"goal"`
	RemovedBlocks []uuid.UUID     `json:"removed_block_ids"`
}

// Archive handles POST /api/v1/goals/{goalID}/archive
func (h *GoalHandler) Archive(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())
	goalID, apiErr := pathUUID(r, "goalID")
	if apiErr != nil {
		writeError(w, r, apiErr)
		return
	}

	result, err := h.c.ArchiveGoalHandler.Handle(r.Context(), commands.ArchiveGoalCommand{UserID: userID, GoalID: goalID})
	if err != nil {
		fail(w, r, h.logger, "archive goal", err)
		return
	}
	removed := result.RemovedBlocks
	if removed == nil {
		removed = []uuid.UUID{}
	}
	writeJSON(w, http.StatusOK, archiveResponse{Goal: queries.ToGoalDTO(result.Goal), RemovedBlocks: removed})
}

type setPlanRequest struct {
	Plan       *domain.Plan           `json:"plan,omitempty"`
	MicroGoals []domain.MicroGoalSpec `json:"micro_goals,omitempty"`
}

// SetPlan handles POST /api/v1/goals/{goalID}/plan. An empty body asks the
// plan provider for a new plan.
func (h *GoalHandler) SetPlan(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())
	goalID, apiErr := pathUUID(r, "goalID")
	if apiErr != nil {
		writeError(w, r, apiErr)
		return
	}

	var req setPlanRequest
	if r.ContentLength != 0 {
		if apiErr := decodeJSON(r, &req); apiErr != nil {
			writeError(w, r, apiErr)
			return
		}
	}

	goal, err := h.c.SetGoalPlanHandler.Handle(r.Context(), commands.SetGoalPlanCommand{
		UserID:     userID,
		GoalID:     goalID,
		Plan:       req.Plan,
		MicroGoals: req.MicroGoals,
	})
	if err != nil {
		fail(w, r, h.logger, "set goal plan", err)
		return
	}
	writeJSON(w, http.StatusOK, queries.ToGoalDTO(goal))
}

// GetProgress handles GET /api/v1/goals/{goalID}/progress
func (h *GoalHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())
	goalID, apiErr := pathUUID(r, "goalID")
	if apiErr != nil {
		writeError(w, r, apiErr)
		return
	}

	progress, err := h.c.GetProgressHandler.Handle(r.Context(), scheduleQueries.GetProgressQuery{UserID: userID, GoalID: goalID})
	if err != nil {
		fail(w, r, h.logger, "get progress", err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

// CompleteMicroGoal handles POST /api/v1/goals/{goalID}/micro-goals/{microGoalID}/complete
func (h *GoalHandler) CompleteMicroGoal(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())
	goalID, apiErr := pathUUID(r, "goalID")
	if apiErr != nil {
		writeError(w, r, apiErr)
		return
	}
	microGoalID, apiErr := pathUUID(r, "microGoalID")
	if apiErr != nil {
		writeError(w, r, apiErr)
		return
	}

	goal, err := h.c.CompleteMicroGoalHandler.Handle(r.Context(), commands.CompleteMicroGoalCommand{
		UserID:      userID,
		GoalID:      goalID,
		MicroGoalID: microGoalID,
	})
	if err != nil {
		fail(w, r, h.logger, "complete micro-goal", err)
		return
	}
	writeJSON(w, http.StatusOK, queries.ToGoalDTO(goal))
}
