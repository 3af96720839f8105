package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// OpenSQLite opens (and creates if needed) the SQLite database at path and
// ensures required tables exist.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// Basic health check + apply a few safe pragmas.
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := db.ExecContext(pctx, "PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign_keys: %w", err)
	}
	if _, err := db.ExecContext(pctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy_timeout: %w", err)
	}
	if err := BootstrapSQLite(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// BootstrapSQLite creates tables/indexes if missing.
func BootstrapSQLite(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS folder_config_cache (
  owner        TEXT NOT NULL,
  repo         TEXT NOT NULL,
  config       JSON NOT NULL,
  content_hash TEXT NOT NULL,
  branch       TEXT NOT NULL,
  fetched_at   INTEGER NOT NULL,
  PRIMARY KEY (owner, repo)
);`,
		`CREATE TABLE IF NOT EXISTS settings (
  key        TEXT PRIMARY KEY,
  value      TEXT NOT NULL,
  updated_at TEXT
);`,
		`CREATE TABLE IF NOT EXISTS project_state (
  owner      TEXT NOT NULL,
  repo       TEXT NOT NULL,
  enabled    INTEGER NOT NULL DEFAULT 1,
  updated_at TEXT,
  PRIMARY KEY (owner, repo)
);`,
		`CREATE TABLE IF NOT EXISTS folder_state (
  owner       TEXT NOT NULL,
  repo        TEXT NOT NULL,
  folder      TEXT NOT NULL,
  expanded    INTEGER NOT NULL DEFAULT 1,
  updated_at  TEXT,
  PRIMARY KEY (owner, repo, folder)
);`,
		`CREATE TABLE IF NOT EXISTS rate_limit (
  resource    TEXT PRIMARY KEY,
  remaining   INTEGER NOT NULL,
  ceiling     INTEGER NOT NULL,
  reset_at    INTEGER NOT NULL,
  observed_at TEXT NOT NULL
);`,
		`CREATE INDEX IF NOT EXISTS folder_config_cache_fetched_at_idx ON folder_config_cache(fetched_at);`,
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("bootstrap sqlite: %w", err)
		}
	}
	return nil
}
