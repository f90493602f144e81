package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/stride/internal/scheduling/application/commands"
	"github.com/felixgeelhaar/stride/internal/scheduling/application/queries"
	"github.com/felixgeelhaar/stride/internal/scheduling/application/services"
	"github.com/felixgeelhaar/stride/internal/scheduling/domain"
)

type scheduleShowInput struct {
	Date string `json:"date,omitempty"`
	Days int    `json:"days,omitempty"`
}

type scheduleFreeInput struct {
	Date string `json:"date,omitempty"`
}

type scheduleAllocateInput struct {
	Start string `json:"start,omitempty"`
	Weeks int    `json:"weeks,omitempty"`
}

type allocateOutput struct {
	Placed           []queries.BlockDTO         `json:"placed"`
	Fixed            []queries.BlockDTO         `json:"fixed"`
	Shortfalls       []services.Shortfall       `json:"shortfalls"`
	WeeklyShortfalls []services.WeeklyShortfall `json:"weekly_shortfalls"`
	SkippedDays      map[string]string          `json:"skipped_days,omitempty"`
}

type streakInput struct {
	Date string `json:"date,omitempty"`
}

func registerScheduleTools(srv *mcp.Server, deps ToolDependencies) error {
	srv.Tool("schedule.show").
		Description("List calendar blocks starting at a date (YYYY-MM-DD, default today) for a number of days (default 7)").
		Handler(func(ctx context.Context, input scheduleShowInput) (*queries.ScheduleDTO, error) {
			app, err := requireApp(deps)
			if err != nil {
				return nil, err
			}
			days, err := parseDays(input.Days, 7, 7*app.Config.MaxHorizonWeeks)
			if err != nil {
				return nil, err
			}
			start, end, err := dayRange(input.Date, days, app.Location(ctx))
			if err != nil {
				return nil, err
			}
			return app.GetScheduleHandler.Handle(ctx, queries.GetScheduleQuery{
				UserID: app.CurrentUserID,
				Start:  start,
				End:    end,
			})
		})

	srv.Tool("schedule.free").
		Description("Free intervals of a day after sleep, work, commute and commitments").
		Handler(func(ctx context.Context, input scheduleFreeInput) (*queries.AvailabilityDTO, error) {
			app, err := requireApp(deps)
			if err != nil {
				return nil, err
			}
			start, _, err := dayRange(input.Date, 1, app.Location(ctx))
			if err != nil {
				return nil, err
			}
			return app.FreeIntervalsHandler.Handle(ctx, queries.FreeIntervalsQuery{
				UserID: app.CurrentUserID,
				Date:   start,
			})
		})

	srv.Tool("schedule.allocate").
		Description("Place sessions for active goals into free time over the coming weeks").
		Handler(func(ctx context.Context, input scheduleAllocateInput) (*allocateOutput, error) {
			app, err := requireApp(deps)
			if err != nil {
				return nil, err
			}
			weeks := input.Weeks
			if weeks == 0 {
				weeks = app.Config.DefaultHorizonWeeks
			}
			start := time.Now()
			if input.Start != "" {
				start, _, err = dayRange(input.Start, 1, app.Location(ctx))
				if err != nil {
					return nil, err
				}
			}
			result, err := app.AllocateScheduleHandler.Handle(ctx, commands.AllocateScheduleCommand{
				UserID:       app.CurrentUserID,
				HorizonStart: start,
				HorizonWeeks: weeks,
			})
			if err != nil {
				return nil, err
			}
			app.FlushEvents(ctx)
			return &allocateOutput{
				Placed:           toDTOs(result.Placed),
				Fixed:            toDTOs(result.Fixed),
				Shortfalls:       result.Shortfalls,
				WeeklyShortfalls: result.WeeklyShortfalls,
				SkippedDays:      result.SkippedDays,
			}, nil
		})

	srv.Tool("schedule.conflicts").
		Description("List overlapping blocks starting at a date for a number of days (default 7)").
		Handler(func(ctx context.Context, input scheduleShowInput) (map[string]any, error) {
			app, err := requireApp(deps)
			if err != nil {
				return nil, err
			}
			days, err := parseDays(input.Days, 7, 7*app.Config.MaxHorizonWeeks)
			if err != nil {
				return nil, err
			}
			start, end, err := dayRange(input.Date, days, app.Location(ctx))
			if err != nil {
				return nil, err
			}
			conflicts, err := app.GetConflictsHandler.Handle(ctx, queries.GetConflictsQuery{
				UserID: app.CurrentUserID,
				Start:  start,
				End:    end,
			})
			if err != nil {
				return nil, err
			}
			return map[string]any{"conflicts": conflicts, "count": len(conflicts)}, nil
		})

	srv.Tool("schedule.streak").
		Description("Consecutive days, ending at a date, with a completed goal session").
		Handler(func(ctx context.Context, input streakInput) (*queries.StreakDTO, error) {
			app, err := requireApp(deps)
			if err != nil {
				return nil, err
			}
			asOf := time.Now()
			if input.Date != "" {
				day, _, err := dayRange(input.Date, 1, app.Location(ctx))
				if err != nil {
					return nil, err
				}
				asOf = day.Add(24*time.Hour - time.Second)
			}
			return app.GetStreakHandler.Handle(ctx, queries.GetStreakQuery{
				UserID: app.CurrentUserID,
				AsOf:   asOf,
			})
		})

	srv.Tool("constraints.show").
		Description("The saved work hours, commute, commitments and sleep window").
		Handler(func(ctx context.Context, input struct{}) (*domain.UserConstraints, error) {
			app, err := requireApp(deps)
			if err != nil {
				return nil, err
			}
			c, err := app.GetConstraintsHandler.Handle(ctx, queries.GetConstraintsQuery{UserID: app.CurrentUserID})
			if err != nil {
				return nil, fmt.Errorf("failed to get constraints: %w", err)
			}
			return c, nil
		})

	return nil
}
