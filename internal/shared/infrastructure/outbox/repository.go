package outbox

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/felixgeelhaar/stride/internal/shared/infrastructure/convert"
	"github.com/felixgeelhaar/stride/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

// Repository persists outbox messages.
type Repository interface {
	// SaveBatch stores messages in the caller's transaction, if any.
	SaveBatch(ctx context.Context, msgs []*Message) error
	// GetUnpublished returns messages due for (re)publishing, oldest first.
	GetUnpublished(ctx context.Context, limit int) ([]*Message, error)
	MarkPublished(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, reason string, nextRetryAt time.Time) error
	MarkDead(ctx context.Context, id int64, reason string) error
	// DeleteOld removes published messages older than the retention window.
	DeleteOld(ctx context.Context, olderThan time.Duration) (int64, error)
}

// SQLRepository implements Repository for both database drivers.
type SQLRepository struct {
	conn database.Connection
	now  func() time.Time
}

// NewSQLRepository creates an outbox repository on conn.
func NewSQLRepository(conn database.Connection) *SQLRepository {
	return &SQLRepository{conn: conn, now: time.Now}
}

func (r *SQLRepository) exec(ctx context.Context) database.Executor {
	return database.ExecutorFromContext(ctx, r.conn)
}

func (r *SQLRepository) q(query string) string {
	return database.Rebind(r.conn.Driver(), query)
}

// SaveBatch stores messages and fills in their IDs.
func (r *SQLRepository) SaveBatch(ctx context.Context, msgs []*Message) error {
	const query = `
		INSERT INTO outbox (event_id, aggregate_type, aggregate_id, routing_key, payload, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id`

	exec := r.exec(ctx)
	for _, msg := range msgs {
		err := exec.QueryRow(ctx, r.q(query),
			msg.EventID.String(),
			msg.AggregateType,
			msg.AggregateID.String(),
			msg.RoutingKey,
			string(msg.Payload),
			string(msg.Metadata),
			msg.CreatedAt.UnixMilli(),
		).Scan(&msg.ID)
		if err != nil {
			return fmt.Errorf("insert outbox message %s: %w", msg.EventID, err)
		}
	}
	return nil
}

// GetUnpublished returns pending messages whose retry time has come.
func (r *SQLRepository) GetUnpublished(ctx context.Context, limit int) ([]*Message, error) {
	const query = `
		SELECT id, event_id, aggregate_type, aggregate_id, routing_key, payload, metadata,
		       created_at, retry_count, last_error, next_retry_at
		FROM outbox
		WHERE published_at IS NULL
		  AND dead_lettered_at IS NULL
		  AND (next_retry_at IS NULL OR next_retry_at <= ?)
		ORDER BY id
		LIMIT ?`

	rows, err := r.exec(ctx).Query(ctx, r.q(query), r.now().UnixMilli(), limit)
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	defer rows.Close()

	var msgs []*Message
	for rows.Next() {
		var (
			msg                  Message
			eventID, aggregateID string
			payload, metadata    string
			createdAt            int64
			retryCount           int64
			lastError            sql.NullString
			nextRetryAt          sql.NullInt64
		)
		if err := rows.Scan(&msg.ID, &eventID, &msg.AggregateType, &aggregateID, &msg.RoutingKey,
			&payload, &metadata, &createdAt, &retryCount, &lastError, &nextRetryAt); err != nil {
			return nil, fmt.Errorf("scan outbox row: %w", err)
		}

		msg.EventID, _ = uuid.Parse(eventID)
		msg.AggregateID, _ = uuid.Parse(aggregateID)
		msg.Payload = []byte(payload)
		msg.Metadata = []byte(metadata)
		msg.CreatedAt = time.UnixMilli(createdAt).UTC()
		msg.RetryCount = convert.Int64ToIntClamped(retryCount)
		if lastError.Valid {
			msg.LastError = &lastError.String
		}
		if nextRetryAt.Valid {
			t := time.UnixMilli(nextRetryAt.Int64).UTC()
			msg.NextRetryAt = &t
		}
		msgs = append(msgs, &msg)
	}
	return msgs, rows.Err()
}

// MarkPublished stamps the message as delivered.
func (r *SQLRepository) MarkPublished(ctx context.Context, id int64) error {
	_, err := r.exec(ctx).Exec(ctx, r.q(`UPDATE outbox SET published_at = ? WHERE id = ?`), r.now().UnixMilli(), id)
	return err
}

// MarkFailed records a failed attempt and when to try again.
func (r *SQLRepository) MarkFailed(ctx context.Context, id int64, reason string, nextRetryAt time.Time) error {
	_, err := r.exec(ctx).Exec(ctx,
		r.q(`UPDATE outbox SET retry_count = retry_count + 1, last_error = ?, next_retry_at = ? WHERE id = ?`),
		reason, nextRetryAt.UnixMilli(), id)
	return err
}

// MarkDead moves the message out of the publish queue for good.
func (r *SQLRepository) MarkDead(ctx context.Context, id int64, reason string) error {
	_, err := r.exec(ctx).Exec(ctx,
		r.q(`UPDATE outbox SET retry_count = retry_count + 1, dead_lettered_at = ?, dead_letter_reason = ? WHERE id = ?`),
		r.now().UnixMilli(), reason, id)
	return err
}

// DeleteOld purges published messages older than olderThan.
func (r *SQLRepository) DeleteOld(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := r.now().Add(-olderThan).UnixMilli()
	result, err := r.exec(ctx).Exec(ctx,
		r.q(`DELETE FROM outbox WHERE published_at IS NOT NULL AND published_at < ?`), cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
