package database

import (
	"context"
	"database/sql"
)

// Row is a single result row. A missing row satisfies IsNoRows.
type Row interface {
	Scan(dest ...any) error
}

// Rows iterates a result set.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Close() error
	Err() error
}

// Result reports how many rows a statement touched.
type Result interface {
	RowsAffected() (int64, error)
}

// Executor is what the block, goal, constraints and outbox repositories
// query through. Errors that mean the store gave up waiting surface as
// application.ErrPersistenceTimeout whatever the driver.
type Executor interface {
	Exec(ctx context.Context, query string, args ...any) (Result, error)
	QueryRow(ctx context.Context, query string, args ...any) Row
	Query(ctx context.Context, query string, args ...any) (Rows, error)
}

// Transaction is an Executor scoped to one unit of work.
type Transaction interface {
	Executor
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Connection is an open store.
type Connection interface {
	Executor
	BeginTx(ctx context.Context) (Transaction, error)
	Close() error
	Ping(ctx context.Context) error
	Driver() Driver
}

// SQLQuerier is the part of *sql.DB and *sql.Tx an SQLExecutor needs.
type SQLQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLExecutor runs statements on a database/sql handle. IsTimeout names
// the driver's own wait errors (lock or busy timeouts) for Translate.
type SQLExecutor struct {
	Q         SQLQuerier
	IsTimeout func(error) bool
}

// Exec runs a statement that returns no rows.
func (e SQLExecutor) Exec(ctx context.Context, query string, args ...any) (Result, error) {
	res, err := e.Q.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, Translate(err, e.IsTimeout)
	}
	return res, nil
}

// QueryRow runs a query expected to return at most one row.
func (e SQLExecutor) QueryRow(ctx context.Context, query string, args ...any) Row {
	return TranslatedRow(e.Q.QueryRowContext(ctx, query, args...), e.IsTimeout)
}

// Query runs a query returning any number of rows.
func (e SQLExecutor) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	rows, err := e.Q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, Translate(err, e.IsTimeout)
	}
	return TranslatedRows(rows, e.IsTimeout), nil
}

type translatedRow struct {
	row       Row
	isTimeout func(error) bool
}

func (r translatedRow) Scan(dest ...any) error {
	return Translate(r.row.Scan(dest...), r.isTimeout)
}

// TranslatedRow passes Scan errors through Translate.
func TranslatedRow(row Row, isTimeout func(error) bool) Row {
	return translatedRow{row: row, isTimeout: isTimeout}
}

type translatedRows struct {
	Rows
	isTimeout func(error) bool
}

func (r translatedRows) Scan(dest ...any) error {
	return Translate(r.Rows.Scan(dest...), r.isTimeout)
}

func (r translatedRows) Err() error {
	return Translate(r.Rows.Err(), r.isTimeout)
}

// TranslatedRows passes Scan and Err errors through Translate.
func TranslatedRows(rows Rows, isTimeout func(error) bool) Rows {
	return translatedRows{Rows: rows, isTimeout: isTimeout}
}
