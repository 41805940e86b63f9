// Package sqlite provides SQLite-backed stores.
package sqlite

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// DB wraps a sqlx connection with the casa schema applied.
type DB struct {
	*sqlx.DB
}

// Config configures the database connection.
type Config struct {
	Path string
}

// Open connects to the database at cfg.Path and runs migrations.
func Open(cfg Config) (*DB, error) {
	if cfg.Path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite3", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// One connection: an in-memory database exists per connection, and
	// SQLite serializes writers anyway.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA foreign_keys = ON", "PRAGMA journal_mode = WAL"} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("exec %q: %w", pragma, err)
		}
	}

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &DB{DB: db}, nil
}

func migrate(db *sqlx.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS recent_lists (
		name TEXT PRIMARY KEY,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,

		CHECK(name != '')
	);

	CREATE TABLE IF NOT EXISTS recent_entries (
		list TEXT NOT NULL REFERENCES recent_lists(name) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		query TEXT NOT NULL,

		PRIMARY KEY (list, position)
	);
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}
