package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/felixgeelhaar/stride/internal/scheduling/domain"
	"github.com/felixgeelhaar/stride/internal/shared/infrastructure/convert"
	"github.com/felixgeelhaar/stride/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

// ConstraintsRepository stores one row per user. Work days and
// commitments are kept as JSON text.
type ConstraintsRepository struct {
	conn database.Connection
}

// NewConstraintsRepository creates a ConstraintsRepository.
func NewConstraintsRepository(conn database.Connection) *ConstraintsRepository {
	return &ConstraintsRepository{conn: conn}
}

// Save replaces the user's constraints.
func (r *ConstraintsRepository) Save(ctx context.Context, c *domain.UserConstraints) error {
	const query = `
		INSERT INTO user_constraints (
			user_id, timezone, wake_minute, sleep_minute, work_schedule, commitments, commute_minutes, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			timezone = excluded.timezone,
			wake_minute = excluded.wake_minute,
			sleep_minute = excluded.sleep_minute,
			work_schedule = excluded.work_schedule,
			commitments = excluded.commitments,
			commute_minutes = excluded.commute_minutes,
			updated_at = excluded.updated_at`

	work, err := json.Marshal(nonNil(c.Work))
	if err != nil {
		return fmt.Errorf("encode work schedule: %w", err)
	}
	commitments, err := json.Marshal(nonNil(c.Commitments))
	if err != nil {
		return fmt.Errorf("encode commitments: %w", err)
	}

	timezone := c.Timezone
	if timezone == "" {
		timezone = "UTC"
	}
	_, err = database.ExecutorFromContext(ctx, r.conn).Exec(ctx, database.Rebind(r.conn.Driver(), query),
		c.UserID.String(),
		timezone,
		int(c.Wake),
		int(c.Sleep),
		string(work),
		string(commitments),
		c.CommuteMinutes,
		c.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("save constraints for %s: %w", c.UserID, err)
	}
	return nil
}

// FindByUser returns nil, nil when the user has no constraints yet.
func (r *ConstraintsRepository) FindByUser(ctx context.Context, userID uuid.UUID) (*domain.UserConstraints, error) {
	const query = `
		SELECT timezone, wake_minute, sleep_minute, work_schedule, commitments, commute_minutes, updated_at
		FROM user_constraints WHERE user_id = ?`

	var (
		timezone, work, commitments string
		wake, sleep, commute        int64
		updatedAt                   int64
	)
	err := database.ExecutorFromContext(ctx, r.conn).
		QueryRow(ctx, database.Rebind(r.conn.Driver(), query), userID.String()).
		Scan(&timezone, &wake, &sleep, &work, &commitments, &commute, &updatedAt)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, nil
		}
		return nil, err
	}

	c := &domain.UserConstraints{
		UserID:         userID,
		Timezone:       timezone,
		Wake:           domain.ClockTime(convert.Int64ToIntClamped(wake)),
		Sleep:          domain.ClockTime(convert.Int64ToIntClamped(sleep)),
		CommuteMinutes: convert.Int64ToIntClamped(commute),
		UpdatedAt:      time.UnixMilli(updatedAt).UTC(),
	}
	if err := json.Unmarshal([]byte(work), &c.Work); err != nil {
		return nil, fmt.Errorf("decode work schedule: %w", err)
	}
	if err := json.Unmarshal([]byte(commitments), &c.Commitments); err != nil {
		return nil, fmt.Errorf("decode commitments: %w", err)
	}
	return c, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
