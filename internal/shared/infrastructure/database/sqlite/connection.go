package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/felixgeelhaar/stride/internal/shared/infrastructure/database"
)

func init() {
	database.RegisterSQLiteDriver(NewConnection)
}

const defaultBusyTimeout = 5 * time.Second

// Connection is the embedded single-user store.
type Connection struct {
	database.SQLExecutor
	db *sql.DB
}

// NewConnection opens the SQLite file at cfg.SQLitePath, creating its
// directory when needed.
func NewConnection(ctx context.Context, cfg database.Config) (database.Connection, error) {
	path := cfg.SQLitePath
	if path == "" {
		path = database.DefaultSQLitePath()
	}
	if err := database.EnsureDirectory(path); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(path, cfg.Timeout))
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// One writer at a time; the pool must not hand out a second connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	return &Connection{
		SQLExecutor: database.SQLExecutor{Q: db, IsTimeout: isBusy},
		db:          db,
	}, nil
}

// dsn appends the pragmas every connection needs. busy_timeout follows
// the persistence timeout so a locked file fails as a timeout, not a hang.
func dsn(path string, timeout time.Duration) string {
	if timeout <= 0 {
		timeout = defaultBusyTimeout
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%s_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)",
		path, sep, timeout.Milliseconds())
}

// isBusy reports SQLITE_BUSY and SQLITE_LOCKED, including extended codes.
func isBusy(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return true
	}
	return false
}

func (c *Connection) Driver() database.Driver {
	return database.DriverSQLite
}

func (c *Connection) Close() error {
	return c.db.Close()
}

func (c *Connection) Ping(ctx context.Context) error {
	return database.Translate(c.db.PingContext(ctx), isBusy)
}

// BeginTx opens a transaction on the single pooled connection.
func (c *Connection) BeginTx(ctx context.Context) (database.Transaction, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, database.Translate(err, isBusy)
	}
	return &Transaction{
		SQLExecutor: database.SQLExecutor{Q: tx, IsTimeout: isBusy},
		tx:          tx,
	}, nil
}

// Transaction is a unit of work on the SQLite file.
type Transaction struct {
	database.SQLExecutor
	tx *sql.Tx
}

func (t *Transaction) Commit(context.Context) error {
	return database.Translate(t.tx.Commit(), isBusy)
}

func (t *Transaction) Rollback(context.Context) error {
	return t.tx.Rollback()
}
