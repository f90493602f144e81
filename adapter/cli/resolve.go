package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	goalQueries "github.com/felixgeelhaar/stride/internal/planning/application/queries"
	"github.com/felixgeelhaar/stride/internal/scheduling/application/queries"
	"github.com/google/uuid"
)

// blockLookback bounds how far back a short block id is searched.
const blockLookback = 60 * 24 * time.Hour

// ResolveBlockID accepts a full block id or the short prefix shown in
// tables. A prefix must match exactly one block near the present.
func (a *App) ResolveBlockID(ctx context.Context, ref string) (uuid.UUID, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return id, nil
	}
	now := time.Now()
	schedule, err := a.GetScheduleHandler.Handle(ctx, queries.GetScheduleQuery{
		UserID: a.CurrentUserID,
		Start:  now.Add(-blockLookback),
		End:    now.AddDate(0, 0, 7*a.Config.MaxHorizonWeeks),
	})
	if err != nil {
		return uuid.Nil, err
	}
	ids := make([]uuid.UUID, 0, len(schedule.Blocks))
	for _, b := range schedule.Blocks {
		ids = append(ids, b.ID)
	}
	return matchPrefix("block", ref, ids)
}

// ResolveGoalID accepts a full goal id or a unique prefix of one.
func (a *App) ResolveGoalID(ctx context.Context, ref string) (uuid.UUID, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return id, nil
	}
	goals, err := a.ListGoalsHandler.Handle(ctx, goalQueries.ListGoalsQuery{
		UserID:          a.CurrentUserID,
		IncludeArchived: true,
	})
	if err != nil {
		return uuid.Nil, err
	}
	ids := make([]uuid.UUID, 0, len(goals))
	for _, g := range goals {
		ids = append(ids, g.ID)
	}
	return matchPrefix("goal", ref, ids)
}

func matchPrefix(kind, ref string, ids []uuid.UUID) (uuid.UUID, error) {
	ref = strings.ToLower(strings.TrimSpace(ref))
	if len(ref) < 4 {
		return uuid.Nil, fmt.Errorf("%s id %q is too short", kind, ref)
	}
	var found []uuid.UUID
	for _, id := range ids {
		if strings.HasPrefix(id.String(), ref) {
			found = append(found, id)
		}
	}
	switch len(found) {
	case 0:
		return uuid.Nil, fmt.Errorf("no %s matches %q", kind, ref)
	case 1:
		return found[0], nil
	default:
		return uuid.Nil, fmt.Errorf("%s id %q is ambiguous (%d matches)", kind, ref, len(found))
	}
}
