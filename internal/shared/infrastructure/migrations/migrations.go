// Package migrations applies the embedded schema for the configured driver.
package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/felixgeelhaar/stride/internal/shared/infrastructure/database"
)

//go:embed sqlite/*.sql postgres/*.sql
var migrationFS embed.FS

const createVersionTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
    version    TEXT PRIMARY KEY,
    applied_at BIGINT NOT NULL
)`

// Run applies every *.up.sql file for the connection's driver that has not
// been recorded in schema_migrations. Each file runs in its own transaction.
func Run(ctx context.Context, conn database.Connection, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	dir := string(conn.Driver())
	files, err := upFiles(dir)
	if err != nil {
		return err
	}

	if _, err := conn.Exec(ctx, createVersionTable); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	applied, err := appliedVersions(ctx, conn)
	if err != nil {
		return err
	}

	uow := database.NewUnitOfWork(conn)
	for _, file := range files {
		version := strings.TrimSuffix(file, ".up.sql")
		if applied[version] {
			continue
		}

		body, err := migrationFS.ReadFile(dir + "/" + file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}

		txCtx, err := uow.Begin(ctx)
		if err != nil {
			return err
		}
		exec := database.ExecutorFromContext(txCtx, conn)
		if _, err := exec.Exec(txCtx, string(body)); err != nil {
			_ = uow.Rollback(txCtx)
			return fmt.Errorf("apply migration %s: %w", file, err)
		}
		if _, err := exec.Exec(txCtx,
			database.Rebind(conn.Driver(), `INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)`),
			version, time.Now().Unix()); err != nil {
			_ = uow.Rollback(txCtx)
			return fmt.Errorf("record migration %s: %w", file, err)
		}
		if err := uow.Commit(txCtx); err != nil {
			return fmt.Errorf("commit migration %s: %w", file, err)
		}

		logger.Info("applied migration", "version", version, "driver", dir)
	}
	return nil
}

func upFiles(dir string) ([]string, error) {
	entries, err := fs.ReadDir(migrationFS, dir)
	if err != nil {
		return nil, fmt.Errorf("no migrations for driver %s: %w", dir, err)
	}
	var files []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

func appliedVersions(ctx context.Context, conn database.Connection) (map[string]bool, error) {
	rows, err := conn.Query(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("read schema_migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		applied[v] = true
	}
	return applied, rows.Err()
}
