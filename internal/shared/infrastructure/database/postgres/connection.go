package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/felixgeelhaar/stride/internal/shared/infrastructure/convert"
	"github.com/felixgeelhaar/stride/internal/shared/infrastructure/database"
)

func init() {
	database.RegisterPostgresDriver(NewConnection)
}

// SQLSTATE codes Postgres raises when statement_timeout or lock_timeout
// fires.
const (
	codeQueryCanceled    = "57014"
	codeLockNotAvailable = "55P03"
)

// Connection is the shared multi-user store behind a pgx pool.
type Connection struct {
	executor
	pool *pgxpool.Pool
}

// NewConnection opens a pool for cfg.URL and checks it answers.
func NewConnection(ctx context.Context, cfg database.Config) (database.Connection, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("database URL is required for PostgreSQL")
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = convert.IntToInt32Clamped(cfg.MaxConns)
	}
	applyTimeout(poolConfig.ConnConfig.RuntimeParams, cfg.Timeout)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach PostgreSQL: %w", err)
	}

	return &Connection{executor: executor{q: pool}, pool: pool}, nil
}

// applyTimeout makes the server cancel statements and lock waits that
// outlive the persistence timeout. Values already in the URL win.
func applyTimeout(params map[string]string, timeout time.Duration) {
	if timeout <= 0 {
		return
	}
	ms := strconv.FormatInt(timeout.Milliseconds(), 10)
	for _, key := range []string{"statement_timeout", "lock_timeout"} {
		if _, ok := params[key]; !ok {
			params[key] = ms
		}
	}
}

// isTimeout reports client-side timeouts and the server's cancellations.
func isTimeout(err error) bool {
	if pgconn.Timeout(err) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == codeQueryCanceled || pgErr.Code == codeLockNotAvailable
	}
	return false
}

func (c *Connection) Driver() database.Driver {
	return database.DriverPostgres
}

func (c *Connection) Close() error {
	c.pool.Close()
	return nil
}

func (c *Connection) Ping(ctx context.Context) error {
	return database.Translate(c.pool.Ping(ctx), isTimeout)
}

func (c *Connection) BeginTx(ctx context.Context) (database.Transaction, error) {
	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return nil, database.Translate(err, isTimeout)
	}
	return &Transaction{executor: executor{q: tx}, tx: tx}, nil
}

// Transaction is a unit of work on one pooled connection.
type Transaction struct {
	executor
	tx pgx.Tx
}

func (t *Transaction) Commit(ctx context.Context) error {
	return database.Translate(t.tx.Commit(ctx), isTimeout)
}

func (t *Transaction) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type executor struct {
	q querier
}

func (e executor) Exec(ctx context.Context, query string, args ...any) (database.Result, error) {
	tag, err := e.q.Exec(ctx, query, args...)
	if err != nil {
		return nil, database.Translate(err, isTimeout)
	}
	return result(tag), nil
}

func (e executor) QueryRow(ctx context.Context, query string, args ...any) database.Row {
	return database.TranslatedRow(e.q.QueryRow(ctx, query, args...), isTimeout)
}

func (e executor) Query(ctx context.Context, query string, args ...any) (database.Rows, error) {
	rows, err := e.q.Query(ctx, query, args...)
	if err != nil {
		return nil, database.Translate(err, isTimeout)
	}
	return database.TranslatedRows(pgxRows{rows}, isTimeout), nil
}

type result pgconn.CommandTag

func (r result) RowsAffected() (int64, error) {
	return pgconn.CommandTag(r).RowsAffected(), nil
}

// pgxRows gives pgx.Rows the error-returning Close of database.Rows.
type pgxRows struct {
	pgx.Rows
}

func (r pgxRows) Close() error {
	r.Rows.Close()
	return nil
}
