// Package sqlite is the embedded single-file backend.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

const memoryPath = ":memory:"

// OpenDB opens a SQLite database at path and runs the migrations.
// ":memory:" keeps the database in memory on a single connection.
func OpenDB(path string) (*sql.DB, error) {
	if path != memoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if path == memoryPath {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{"PRAGMA journal_mode = WAL", "PRAGMA busy_timeout = 5000"}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", strings.ToLower(p), err)
		}
	}

	if err := Migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return db, nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS eggs (
		id                 TEXT PRIMARY KEY,
		name               TEXT NOT NULL,
		type_id            TEXT NOT NULL DEFAULT '',
		type               TEXT NOT NULL DEFAULT '',
		weight             REAL NOT NULL,
		coefficient        REAL NOT NULL DEFAULT 0,
		incubation_start   TEXT NOT NULL,
		incubation_days    INTEGER NOT NULL,
		high_humidity_loss REAL NOT NULL DEFAULT 0,
		mid_humidity_loss  REAL NOT NULL DEFAULT 0,
		low_humidity_loss  REAL NOT NULL DEFAULT 0,
		notes              TEXT NOT NULL DEFAULT '',
		daily_weights      TEXT NOT NULL DEFAULT '[]',
		created_at         TEXT NOT NULL,
		updated_at         TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS egg_types (
		id                TEXT PRIMARY KEY,
		name              TEXT NOT NULL,
		incubation_period INTEGER NOT NULL,
		coefficient       REAL NOT NULL DEFAULT 0,
		notes             TEXT NOT NULL DEFAULT '',
		created_at        TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS pin_hole_types (
		id                       TEXT PRIMARY KEY,
		name                     TEXT NOT NULL,
		daily_loss_rate_increase REAL NOT NULL,
		description              TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS recommendation_settings (
		id                        TEXT PRIMARY KEY CHECK(id = 'global'),
		min_day_for_first_pin_hole INTEGER NOT NULL,
		days_between_pin_holes     INTEGER NOT NULL
	)`,
}

// Migrate creates the schema. It is safe to run repeatedly.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
