// Package storage persists conversations in a local sqlite database.
package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"slices"
	"strings"

	_ "modernc.org/sqlite"
)

//go:embed migrations/sqlite/001_initial_schema.sql
var initialSchema string

type migration struct {
	version int
	sql     string
}

var migrations = []migration{
	{1, extractUpMigration(initialSchema)},
}

// DB is an open sqlite database with the schema applied.
type DB struct {
	path string
	db   *sql.DB
}

// Open opens (creating if needed) the database at path and applies pending migrations.
func Open(ctx context.Context, path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// sqlite serialises writers; one connection avoids SQLITE_BUSY and keeps
	// ":memory:" databases on a single handle.
	db.SetMaxOpenConns(1)

	store := &DB{path: path, db: db}
	if err := store.runMigrations(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return store, nil
}

// DB returns the underlying handle.
func (d *DB) DB() *sql.DB {
	return d.db
}

// Path returns the path the database was opened with.
func (d *DB) Path() string {
	return d.path
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) runMigrations(ctx context.Context) error {
	createMigrationsTable := `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`
	if _, err := d.db.ExecContext(ctx, createMigrationsTable); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := d.appliedVersions(ctx)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if slices.Contains(applied, m.version) {
			continue
		}
		if err := d.apply(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func (d *DB) appliedVersions(ctx context.Context) ([]int, error) {
	rows, err := d.db.QueryContext(ctx, "SELECT version FROM schema_migrations ORDER BY version")
	if err != nil {
		return nil, fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()

	var versions []int
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("failed to scan migration version: %w", err)
		}
		versions = append(versions, version)
	}
	return versions, rows.Err()
}

func (d *DB) apply(ctx context.Context, m migration) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, m.sql); err != nil {
		return fmt.Errorf("failed to execute migration %d: %w", m.version, err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES (?)", m.version); err != nil {
		return fmt.Errorf("failed to record migration %d: %w", m.version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %d: %w", m.version, err)
	}
	return nil
}

// extractUpMigration returns the statements of the goose Up section.
func extractUpMigration(content string) string {
	var up []string
	inUp, inStatement := false, false

	for _, line := range strings.Split(content, "\n") {
		switch {
		case strings.Contains(line, "-- +goose Up"):
			inUp = true
		case strings.Contains(line, "-- +goose Down"):
			return strings.Join(up, "\n")
		case strings.Contains(line, "-- +goose StatementBegin"):
			inStatement = true
		case strings.Contains(line, "-- +goose StatementEnd"):
			inStatement = false
		case inUp && inStatement:
			up = append(up, line)
		}
	}
	return strings.Join(up, "\n")
}
