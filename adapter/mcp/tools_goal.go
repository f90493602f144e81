package mcp

import (
	"context"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/stride/internal/planning/application/queries"
	scheduleQueries "github.com/felixgeelhaar/stride/internal/scheduling/application/queries"
)

type goalListInput struct {
	Status   string `json:"status,omitempty"`
	Category string `json:"category,omitempty"`
	Sort     string `json:"sort,omitempty"`
	All      bool   `json:"all,omitempty"`
}

type goalRefInput struct {
	GoalID string `json:"goal_id" jsonschema:"required"`
}

func registerGoalTools(srv *mcp.Server, deps ToolDependencies) error {
	srv.Tool("goal.list").
		Description("List goals; archived goals only with all=true").
		Handler(func(ctx context.Context, input goalListInput) (map[string]any, error) {
			app, err := requireApp(deps)
			if err != nil {
				return nil, err
			}
			goals, err := app.ListGoalsHandler.Handle(ctx, queries.ListGoalsQuery{
				UserID:          app.CurrentUserID,
				Status:          input.Status,
				IncludeArchived: input.All,
				Category:        input.Category,
				SortBy:          input.Sort,
			})
			if err != nil {
				return nil, err
			}
			return map[string]any{"goals": goals, "count": len(goals)}, nil
		})

	srv.Tool("goal.show").
		Description("Show a goal with its plan and steps").
		Handler(func(ctx context.Context, input goalRefInput) (*queries.GoalDTO, error) {
			app, err := requireApp(deps)
			if err != nil {
				return nil, err
			}
			goalID, err := app.ResolveGoalID(ctx, input.GoalID)
			if err != nil {
				return nil, err
			}
			return app.GetGoalHandler.Handle(ctx, queries.GetGoalQuery{
				UserID: app.CurrentUserID,
				GoalID: goalID,
			})
		})

	srv.Tool("goal.progress").
		Description("Completed steps, percentage and the next step of a goal").
		Handler(func(ctx context.Context, input goalRefInput) (*scheduleQueries.ProgressDTO, error) {
			app, err := requireApp(deps)
			if err != nil {
				return nil, err
			}
			goalID, err := app.ResolveGoalID(ctx, input.GoalID)
			if err != nil {
				return nil, err
			}
			return app.GetProgressHandler.Handle(ctx, scheduleQueries.GetProgressQuery{
				UserID: app.CurrentUserID,
				GoalID: goalID,
			})
		})

	return nil
}
