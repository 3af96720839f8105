package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ProjectStore persists per-project preferences: the enable flag and the
// per-folder expanded/collapsed map.
type ProjectStore struct {
	db *sql.DB
}

func NewProjectStore(db *sql.DB) *ProjectStore {
	return &ProjectStore{db: db}
}

// Enabled reports whether folder organization is enabled for owner/repo.
// Projects with no stored row default to enabled.
func (s *ProjectStore) Enabled(ctx context.Context, owner, repo string) (bool, error) {
	if owner == "" || repo == "" {
		return false, fmt.Errorf("owner and repo are required")
	}

	var enabled int
	err := s.db.QueryRowContext(ctx,
		"SELECT enabled FROM project_state WHERE owner = ? AND repo = ?;",
		owner, repo).Scan(&enabled)
	if errors.Is(err, sql.ErrNoRows) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("read project state: %w", err)
	}
	return enabled != 0, nil
}

// SetEnabled stores the enable flag for owner/repo.
func (s *ProjectStore) SetEnabled(ctx context.Context, owner, repo string, enabled bool) error {
	if owner == "" || repo == "" {
		return fmt.Errorf("owner and repo are required")
	}

	val := 0
	if enabled {
		val = 1
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx, `
INSERT INTO project_state(owner, repo, enabled, updated_at)
VALUES(?, ?, ?, ?)
ON CONFLICT(owner, repo) DO UPDATE SET
  enabled = excluded.enabled,
  updated_at = excluded.updated_at;
`, owner, repo, val, now)
	if err != nil {
		return fmt.Errorf("upsert project state: %w", err)
	}
	return nil
}

// FolderExpanded returns the expanded/collapsed map for owner/repo.
// Folders with no stored row are absent; callers choose their own default.
func (s *ProjectStore) FolderExpanded(ctx context.Context, owner, repo string) (map[string]bool, error) {
	if owner == "" || repo == "" {
		return nil, fmt.Errorf("owner and repo are required")
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT folder, expanded FROM folder_state WHERE owner = ? AND repo = ?;",
		owner, repo)
	if err != nil {
		return nil, fmt.Errorf("read folder state: %w", err)
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var folder string
		var expanded int
		if err := rows.Scan(&folder, &expanded); err != nil {
			return nil, fmt.Errorf("scan folder state: %w", err)
		}
		out[folder] = expanded != 0
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate folder state: %w", err)
	}
	return out, nil
}

// SetFolderExpanded stores the expanded flag for one folder of owner/repo.
func (s *ProjectStore) SetFolderExpanded(ctx context.Context, owner, repo, folder string, expanded bool) error {
	if owner == "" || repo == "" || folder == "" {
		return fmt.Errorf("owner, repo and folder are required")
	}

	val := 0
	if expanded {
		val = 1
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx, `
INSERT INTO folder_state(owner, repo, folder, expanded, updated_at)
VALUES(?, ?, ?, ?, ?)
ON CONFLICT(owner, repo, folder) DO UPDATE SET
  expanded = excluded.expanded,
  updated_at = excluded.updated_at;
`, owner, repo, folder, val, now)
	if err != nil {
		return fmt.Errorf("upsert folder state: %w", err)
	}
	return nil
}
