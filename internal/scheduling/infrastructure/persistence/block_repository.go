package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/stride/internal/scheduling/domain"
	"github.com/felixgeelhaar/stride/internal/shared/infrastructure/convert"
	"github.com/felixgeelhaar/stride/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

const blockColumns = `id, user_id, block_type, start_at, duration_minutes, status, title, notes,
	goal_id, micro_goal_id, conflicted, completed_at, created_at, updated_at`

// BlockRepository implements domain.BlockRepository for both drivers.
type BlockRepository struct {
	conn database.Connection
}

// NewBlockRepository creates a BlockRepository.
func NewBlockRepository(conn database.Connection) *BlockRepository {
	return &BlockRepository{conn: conn}
}

func (r *BlockRepository) exec(ctx context.Context) database.Executor {
	return database.ExecutorFromContext(ctx, r.conn)
}

func (r *BlockRepository) q(query string) string {
	return database.Rebind(r.conn.Driver(), query)
}

// FindByID returns nil, nil when the block does not exist.
func (r *BlockRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.ScheduleBlock, error) {
	row := r.exec(ctx).QueryRow(ctx, r.q(`SELECT `+blockColumns+` FROM schedule_blocks WHERE id = ?`), id.String())
	b, err := scanBlock(row)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return b, nil
}

// FindInRange returns the user's blocks overlapping [start, end).
func (r *BlockRepository) FindInRange(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]*domain.ScheduleBlock, error) {
	const query = `SELECT ` + blockColumns + ` FROM schedule_blocks
		WHERE user_id = ? AND start_at < ? AND end_at > ?
		ORDER BY start_at, id`
	return r.query(ctx, query, userID.String(), end.UnixMilli(), start.UnixMilli())
}

// FindByGoal returns every block linked to the goal.
func (r *BlockRepository) FindByGoal(ctx context.Context, goalID uuid.UUID) ([]*domain.ScheduleBlock, error) {
	const query = `SELECT ` + blockColumns + ` FROM schedule_blocks WHERE goal_id = ? ORDER BY start_at, id`
	return r.query(ctx, query, goalID.String())
}

func (r *BlockRepository) query(ctx context.Context, query string, args ...any) ([]*domain.ScheduleBlock, error) {
	rows, err := r.exec(ctx).Query(ctx, r.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query blocks: %w", err)
	}
	defer rows.Close()

	var blocks []*domain.ScheduleBlock
	for rows.Next() {
		b, err := scanBlock(rows)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, b)
	}
	return blocks, rows.Err()
}

// Save inserts or updates a block.
func (r *BlockRepository) Save(ctx context.Context, b *domain.ScheduleBlock) error {
	const query = `
		INSERT INTO schedule_blocks (
			id, user_id, block_type, start_at, end_at, duration_minutes, status, title, notes,
			goal_id, micro_goal_id, conflicted, completed_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			start_at = excluded.start_at,
			end_at = excluded.end_at,
			duration_minutes = excluded.duration_minutes,
			status = excluded.status,
			title = excluded.title,
			notes = excluded.notes,
			goal_id = excluded.goal_id,
			micro_goal_id = excluded.micro_goal_id,
			conflicted = excluded.conflicted,
			completed_at = excluded.completed_at,
			updated_at = excluded.updated_at`

	var completedAt any
	if at := b.CompletedAt(); at != nil {
		completedAt = at.UnixMilli()
	}
	_, err := r.exec(ctx).Exec(ctx, r.q(query),
		b.ID().String(),
		b.UserID().String(),
		string(b.Type()),
		b.Start().UnixMilli(),
		b.End().UnixMilli(),
		b.DurationMinutes(),
		string(b.Status()),
		b.Title(),
		b.Notes(),
		nullableID(b.GoalID()),
		nullableID(b.MicroGoalID()),
		convert.BoolToInt64(b.IsConflicted()),
		completedAt,
		b.CreatedAt().UnixMilli(),
		b.UpdatedAt().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("save block %s: %w", b.ID(), err)
	}
	return nil
}

// SaveAll saves blocks in order. Callers wrap it in a unit of work for
// atomicity.
func (r *BlockRepository) SaveAll(ctx context.Context, blocks []*domain.ScheduleBlock) error {
	for _, b := range blocks {
		if err := r.Save(ctx, b); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a block. Deleting a missing block is not an error.
func (r *BlockRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.exec(ctx).Exec(ctx, r.q(`DELETE FROM schedule_blocks WHERE id = ?`), id.String())
	return err
}

// DeletePlannedByGoalFrom removes the goal's planned blocks starting at or
// after from and returns their IDs.
func (r *BlockRepository) DeletePlannedByGoalFrom(ctx context.Context, goalID uuid.UUID, from time.Time) ([]uuid.UUID, error) {
	exec := r.exec(ctx)
	rows, err := exec.Query(ctx,
		r.q(`SELECT id FROM schedule_blocks WHERE goal_id = ? AND status = ? AND start_at >= ? ORDER BY start_at`),
		goalID.String(), string(domain.BlockStatusPlanned), from.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("query planned blocks: %w", err)
	}
	var ids []uuid.UUID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			_ = rows.Close()
			return nil, err
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("parse block id %q: %w", raw, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id.String()
	}
	if _, err := exec.Exec(ctx, r.q(`DELETE FROM schedule_blocks WHERE id IN (`+placeholders+`)`), args...); err != nil {
		return nil, fmt.Errorf("delete planned blocks: %w", err)
	}
	return ids, nil
}

func nullableID(id uuid.UUID) any {
	if id == uuid.Nil {
		return nil
	}
	return id.String()
}

func parseNullableID(s sql.NullString) (uuid.UUID, error) {
	if !s.Valid || s.String == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(s.String)
}

func scanBlock(row database.Row) (*domain.ScheduleBlock, error) {
	var (
		id, userID, blockType, status, title, notes string
		goalID, microGoalID                         sql.NullString
		start, createdAt, updatedAt                 int64
		duration, conflicted                        int64
		completedAt                                 sql.NullInt64
	)
	if err := row.Scan(&id, &userID, &blockType, &start, &duration, &status, &title, &notes,
		&goalID, &microGoalID, &conflicted, &completedAt, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	s := domain.BlockSnapshot{
		Type:            domain.BlockType(blockType),
		Title:           title,
		Start:           time.UnixMilli(start).UTC(),
		DurationMinutes: convert.Int64ToIntClamped(duration),
		Status:          domain.BlockStatus(status),
		Notes:           notes,
		Conflicted:      conflicted != 0,
		CreatedAt:       time.UnixMilli(createdAt).UTC(),
		UpdatedAt:       time.UnixMilli(updatedAt).UTC(),
	}
	var err error
	if s.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse block id %q: %w", id, err)
	}
	if s.UserID, err = uuid.Parse(userID); err != nil {
		return nil, fmt.Errorf("parse user id %q: %w", userID, err)
	}
	if s.GoalID, err = parseNullableID(goalID); err != nil {
		return nil, fmt.Errorf("parse goal id: %w", err)
	}
	if s.MicroGoalID, err = parseNullableID(microGoalID); err != nil {
		return nil, fmt.Errorf("parse micro-goal id: %w", err)
	}
	if completedAt.Valid {
		t := time.UnixMilli(completedAt.Int64).UTC()
		s.CompletedAt = &t
	}
	return domain.RehydrateScheduleBlock(s), nil
}
