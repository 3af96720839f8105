package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// RateLimit is the last-observed API quota snapshot for a resource class.
type RateLimit struct {
	Resource   string
	Remaining  int
	Ceiling    int
	ResetAt    time.Time
	ObservedAt time.Time
}

// RateLimitStore persists the quota snapshot read from API response headers.
type RateLimitStore struct {
	db *sql.DB
}

func NewRateLimitStore(db *sql.DB) *RateLimitStore {
	return &RateLimitStore{db: db}
}

// Record overwrites the snapshot for rl.Resource.
func (s *RateLimitStore) Record(ctx context.Context, rl RateLimit) error {
	if rl.Resource == "" {
		return fmt.Errorf("rate limit resource is empty")
	}

	_, err := s.db.ExecContext(ctx, `
INSERT INTO rate_limit(resource, remaining, ceiling, reset_at, observed_at)
VALUES(?, ?, ?, ?, ?)
ON CONFLICT(resource) DO UPDATE SET
  remaining = excluded.remaining,
  ceiling = excluded.ceiling,
  reset_at = excluded.reset_at,
  observed_at = excluded.observed_at;
`, rl.Resource, rl.Remaining, rl.Ceiling, rl.ResetAt.Unix(),
		rl.ObservedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("upsert rate limit: %w", err)
	}
	return nil
}

// Get returns the snapshot for resource, or nil if none has been recorded.
func (s *RateLimitStore) Get(ctx context.Context, resource string) (*RateLimit, error) {
	if resource == "" {
		return nil, fmt.Errorf("rate limit resource is empty")
	}

	var (
		rl       RateLimit
		resetAt  int64
		observed string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT resource, remaining, ceiling, reset_at, observed_at FROM rate_limit WHERE resource = ?;",
		resource).Scan(&rl.Resource, &rl.Remaining, &rl.Ceiling, &resetAt, &observed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read rate limit: %w", err)
	}

	rl.ResetAt = time.Unix(resetAt, 0).UTC()
	if t, err := time.Parse(time.RFC3339Nano, observed); err == nil {
		rl.ObservedAt = t
	}
	return &rl, nil
}
