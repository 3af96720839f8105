package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Setting keys. The token is the only credential the tool stores.
const (
	KeyForgeToken = "forge_token"
)

// SettingsStore persists small key/value settings (the stored credential,
// mostly).
type SettingsStore struct {
	db *sql.DB
}

func NewSettingsStore(db *sql.DB) *SettingsStore {
	return &SettingsStore{db: db}
}

// Get returns the value for key, or "" if unset.
func (s *SettingsStore) Get(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("setting key is empty")
	}

	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?;", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read setting %q: %w", key, err)
	}
	return value, nil
}

// Set stores or replaces the value for key.
func (s *SettingsStore) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return fmt.Errorf("setting key is empty")
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx, `
INSERT INTO settings(key, value, updated_at)
VALUES(?, ?, ?)
ON CONFLICT(key) DO UPDATE SET
  value = excluded.value,
  updated_at = excluded.updated_at;
`, key, value, now)
	if err != nil {
		return fmt.Errorf("upsert setting %q: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *SettingsStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return fmt.Errorf("setting key is empty")
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM settings WHERE key = ?;", key); err != nil {
		return fmt.Errorf("delete setting %q: %w", key, err)
	}
	return nil
}

// Token returns the stored forge credential, or "" if none is configured.
func (s *SettingsStore) Token(ctx context.Context) (string, error) {
	return s.Get(ctx, KeyForgeToken)
}

// SetToken stores the forge credential.
func (s *SettingsStore) SetToken(ctx context.Context, token string) error {
	return s.Set(ctx, KeyForgeToken, token)
}

// ClearToken removes the stored forge credential.
func (s *SettingsStore) ClearToken(ctx context.Context) error {
	return s.Delete(ctx, KeyForgeToken)
}
