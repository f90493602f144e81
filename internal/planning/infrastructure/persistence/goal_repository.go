package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/stride/internal/planning/domain"
	"github.com/felixgeelhaar/stride/internal/shared/infrastructure/convert"
	"github.com/felixgeelhaar/stride/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

const goalColumns = `id, user_id, name, category, description, target_date, status, plan,
	progress_percent, progress_completed, progress_total, created_at, updated_at`

const noPlan = "{}"

// GoalRepository implements domain.GoalRepository for both drivers. A goal
// and its micro-goals are written together; callers run Save inside a unit
// of work.
type GoalRepository struct {
	conn database.Connection
}

// NewGoalRepository creates a GoalRepository.
func NewGoalRepository(conn database.Connection) *GoalRepository {
	return &GoalRepository{conn: conn}
}

func (r *GoalRepository) exec(ctx context.Context) database.Executor {
	return database.ExecutorFromContext(ctx, r.conn)
}

func (r *GoalRepository) q(query string) string {
	return database.Rebind(r.conn.Driver(), query)
}

// Save upserts the goal row and replaces its micro-goals.
func (r *GoalRepository) Save(ctx context.Context, g *domain.Goal) error {
	const upsert = `
		INSERT INTO goals (` + goalColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			category = excluded.category,
			description = excluded.description,
			target_date = excluded.target_date,
			status = excluded.status,
			plan = excluded.plan,
			progress_percent = excluded.progress_percent,
			progress_completed = excluded.progress_completed,
			progress_total = excluded.progress_total,
			updated_at = excluded.updated_at`

	plan := noPlan
	if g.Plan() != nil {
		raw, err := json.Marshal(g.Plan())
		if err != nil {
			return fmt.Errorf("encode plan: %w", err)
		}
		plan = string(raw)
	}

	var targetDate any
	if td := g.TargetDate(); td != nil {
		targetDate = td.UnixMilli()
	}

	exec := r.exec(ctx)
	p := g.Progress()
	_, err := exec.Exec(ctx, r.q(upsert),
		g.ID().String(),
		g.UserID().String(),
		g.Name(),
		g.Category(),
		g.Description(),
		targetDate,
		string(g.Status()),
		plan,
		p.PercentComplete,
		p.CompletedMicroGoals,
		p.TotalMicroGoals,
		g.CreatedAt().UnixMilli(),
		g.UpdatedAt().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("save goal %s: %w", g.ID(), err)
	}

	if _, err := exec.Exec(ctx, r.q(`DELETE FROM micro_goals WHERE goal_id = ?`), g.ID().String()); err != nil {
		return fmt.Errorf("clear micro-goals of %s: %w", g.ID(), err)
	}

	const insert = `
		INSERT INTO micro_goals (
			id, goal_id, name, order_index, completed_at, criteria_type, criteria_description, criteria_target
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	for _, m := range g.MicroGoals() {
		var completedAt any
		if at := m.CompletedAt(); at != nil {
			completedAt = at.UnixMilli()
		}
		var c domain.Criteria
		if m.Criteria() != nil {
			c = *m.Criteria()
		}
		_, err := exec.Exec(ctx, r.q(insert),
			m.ID().String(),
			g.ID().String(),
			m.Name(),
			m.OrderIndex(),
			completedAt,
			string(c.Type),
			c.Description,
			c.Target,
		)
		if err != nil {
			return fmt.Errorf("save micro-goal %s: %w", m.ID(), err)
		}
	}
	return nil
}

// FindByID returns nil, nil when the goal does not exist.
func (r *GoalRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Goal, error) {
	goals, err := r.query(ctx, `SELECT `+goalColumns+` FROM goals WHERE id = ?`, id.String())
	if err != nil {
		return nil, err
	}
	if len(goals) == 0 {
		return nil, nil
	}
	return goals[0], nil
}

// FindByUser returns the user's goals oldest first. No statuses means all.
func (r *GoalRepository) FindByUser(ctx context.Context, userID uuid.UUID, statuses ...domain.GoalStatus) ([]*domain.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals WHERE user_id = ?`
	args := []any{userID.String()}
	if len(statuses) > 0 {
		query += ` AND status IN (` + placeholders(len(statuses)) + `)`
		for _, s := range statuses {
			args = append(args, string(s))
		}
	}
	query += ` ORDER BY created_at, id`
	return r.query(ctx, query, args...)
}

func (r *GoalRepository) query(ctx context.Context, query string, args ...any) ([]*domain.Goal, error) {
	rows, err := r.exec(ctx).Query(ctx, r.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query goals: %w", err)
	}

	var snapshots []domain.GoalSnapshot
	for rows.Next() {
		s, err := scanGoal(rows)
		if err != nil {
			_ = rows.Close()
			return nil, err
		}
		snapshots = append(snapshots, s)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()
	if len(snapshots) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, len(snapshots))
	for i, s := range snapshots {
		ids[i] = s.ID
	}
	microGoals, err := r.microGoals(ctx, ids)
	if err != nil {
		return nil, err
	}

	goals := make([]*domain.Goal, len(snapshots))
	for i, s := range snapshots {
		s.MicroGoals = microGoals[s.ID]
		goals[i] = domain.RehydrateGoal(s)
	}
	return goals, nil
}

// microGoals loads the micro-goals of the given goals in order.
func (r *GoalRepository) microGoals(ctx context.Context, goalIDs []uuid.UUID) (map[uuid.UUID][]*domain.MicroGoal, error) {
	args := make([]any, len(goalIDs))
	for i, id := range goalIDs {
		args[i] = id.String()
	}
	query := `SELECT id, goal_id, name, order_index, completed_at, criteria_type, criteria_description, criteria_target
		FROM micro_goals WHERE goal_id IN (` + placeholders(len(goalIDs)) + `)
		ORDER BY goal_id, order_index`

	rows, err := r.exec(ctx).Query(ctx, r.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query micro-goals: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID][]*domain.MicroGoal, len(goalIDs))
	for rows.Next() {
		var (
			id, goalID, name          string
			criteriaType, criteriaDsc string
			orderIndex, target        int64
			completedAt               sql.NullInt64
		)
		if err := rows.Scan(&id, &goalID, &name, &orderIndex, &completedAt, &criteriaType, &criteriaDsc, &target); err != nil {
			return nil, err
		}
		mID, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("parse micro-goal id %q: %w", id, err)
		}
		gID, err := uuid.Parse(goalID)
		if err != nil {
			return nil, fmt.Errorf("parse goal id %q: %w", goalID, err)
		}

		var at *time.Time
		if completedAt.Valid {
			t := time.UnixMilli(completedAt.Int64).UTC()
			at = &t
		}
		var criteria *domain.Criteria
		if criteriaType != "" {
			criteria = &domain.Criteria{
				Type:        domain.CriteriaType(criteriaType),
				Description: criteriaDsc,
				Target:      convert.Int64ToIntClamped(target),
			}
		}
		out[gID] = append(out[gID], domain.RehydrateMicroGoal(mID, gID, name, convert.Int64ToIntClamped(orderIndex), at, criteria))
	}
	return out, rows.Err()
}

func scanGoal(row database.Row) (domain.GoalSnapshot, error) {
	var (
		id, userID, name, category, description, status, plan string
		targetDate                                            sql.NullInt64
		percent                                               float64
		completed, total, createdAt, updatedAt                int64
	)
	if err := row.Scan(&id, &userID, &name, &category, &description, &targetDate, &status, &plan,
		&percent, &completed, &total, &createdAt, &updatedAt); err != nil {
		return domain.GoalSnapshot{}, err
	}

	s := domain.GoalSnapshot{
		Name:        name,
		Category:    category,
		Description: description,
		Status:      domain.GoalStatus(status),
		Progress: domain.Progress{
			PercentComplete:     percent,
			CompletedMicroGoals: convert.Int64ToIntClamped(completed),
			TotalMicroGoals:     convert.Int64ToIntClamped(total),
		},
		CreatedAt: time.UnixMilli(createdAt).UTC(),
		UpdatedAt: time.UnixMilli(updatedAt).UTC(),
	}
	var err error
	if s.ID, err = uuid.Parse(id); err != nil {
		return s, fmt.Errorf("parse goal id %q: %w", id, err)
	}
	if s.UserID, err = uuid.Parse(userID); err != nil {
		return s, fmt.Errorf("parse user id %q: %w", userID, err)
	}
	if targetDate.Valid {
		t := time.UnixMilli(targetDate.Int64).UTC()
		s.TargetDate = &t
	}
	if plan != "" && plan != noPlan {
		var p domain.Plan
		if err := json.Unmarshal([]byte(plan), &p); err != nil {
			return s, fmt.Errorf("decode plan of goal %s: %w", id, err)
		}
		s.Plan = &p
	}
	return s, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
