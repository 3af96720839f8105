package foldercfg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Entry is one cached folder config for an (owner, repo) pair.
type Entry struct {
	Owner       string
	Repo        string
	Config      *Config
	ContentHash string
	Branch      string
	FetchedAt   time.Time
}

// Store persists fetched folder configs in SQLite, keyed by (owner, repo).
// Freshness is the fetcher's concern; the store only records fetch times.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Get returns the cached entry for owner/repo, or nil when none exists.
func (s *Store) Get(ctx context.Context, owner, repo string) (*Entry, error) {
	if owner == "" || repo == "" {
		return nil, fmt.Errorf("owner and repo are required")
	}

	var (
		raw       string
		hash      string
		branch    string
		fetchedAt int64
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT config, content_hash, branch, fetched_at FROM folder_config_cache WHERE owner = ? AND repo = ?;",
		owner, repo).Scan(&raw, &hash, &branch, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config cache: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return nil, fmt.Errorf("stored config is invalid JSON for %s/%s: %w", owner, repo, err)
	}

	return &Entry{
		Owner:       owner,
		Repo:        repo,
		Config:      &cfg,
		ContentHash: hash,
		Branch:      branch,
		FetchedAt:   time.UnixMilli(fetchedAt).UTC(),
	}, nil
}

// Put creates or overwrites the entry for owner/repo. Entries are never
// partially updated.
func (s *Store) Put(ctx context.Context, e Entry) error {
	if e.Owner == "" || e.Repo == "" {
		return fmt.Errorf("owner and repo are required")
	}
	if e.Config == nil {
		return fmt.Errorf("config is nil")
	}

	raw, err := json.Marshal(e.Config)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO folder_config_cache(owner, repo, config, content_hash, branch, fetched_at)
VALUES(?, ?, ?, ?, ?, ?)
ON CONFLICT(owner, repo) DO UPDATE SET
  config = excluded.config,
  content_hash = excluded.content_hash,
  branch = excluded.branch,
  fetched_at = excluded.fetched_at;
`, e.Owner, e.Repo, string(raw), e.ContentHash, e.Branch, e.FetchedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("upsert config cache: %w", err)
	}
	return nil
}

// Clear removes the entry for owner/repo. Clearing an absent entry is not an
// error.
func (s *Store) Clear(ctx context.Context, owner, repo string) error {
	if owner == "" || repo == "" {
		return fmt.Errorf("owner and repo are required")
	}
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM folder_config_cache WHERE owner = ? AND repo = ?;", owner, repo); err != nil {
		return fmt.Errorf("clear config cache: %w", err)
	}
	return nil
}

// ClearAll wipes the whole cache and returns how many entries were removed.
func (s *Store) ClearAll(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM folder_config_cache;")
	if err != nil {
		return 0, fmt.Errorf("clear config cache: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clear config cache: %w", err)
	}
	return int(n), nil
}

// Count returns the number of cached entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM folder_config_cache;").Scan(&n); err != nil {
		return 0, fmt.Errorf("count config cache: %w", err)
	}
	return n, nil
}
