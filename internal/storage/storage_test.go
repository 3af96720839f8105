package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *SettingsStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "workfold.db")
	db, err := OpenSQLite(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewSettingsStore(db)
}

func TestSettingsGetMissingReturnsEmpty(t *testing.T) {
	t.Parallel()

	s := openTestDB(t)
	got, err := s.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "" {
		t.Fatalf("expected empty value, got %q", got)
	}
}

func TestSettingsTokenRoundTrip(t *testing.T) {
	t.Parallel()

	s := openTestDB(t)
	ctx := context.Background()

	if err := s.SetToken(ctx, "tok-abc"); err != nil {
		t.Fatalf("SetToken: %v", err)
	}
	tok, err := s.Token(ctx)
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	if tok != "tok-abc" {
		t.Fatalf("expected tok-abc, got %q", tok)
	}

	if err := s.ClearToken(ctx); err != nil {
		t.Fatalf("ClearToken: %v", err)
	}
	tok, err = s.Token(ctx)
	if err != nil {
		t.Fatalf("Token after clear: %v", err)
	}
	if tok != "" {
		t.Fatalf("expected empty token after clear, got %q", tok)
	}
}

func TestProjectEnabledDefaultsTrue(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "workfold.db")
	db, err := OpenSQLite(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	ps := NewProjectStore(db)
	ctx := context.Background()

	enabled, err := ps.Enabled(ctx, "octo", "widgets")
	if err != nil {
		t.Fatalf("Enabled: %v", err)
	}
	if !enabled {
		t.Fatal("expected unset project to default to enabled")
	}

	if err := ps.SetEnabled(ctx, "octo", "widgets", false); err != nil {
		t.Fatalf("SetEnabled: %v", err)
	}
	enabled, err = ps.Enabled(ctx, "octo", "widgets")
	if err != nil {
		t.Fatalf("Enabled: %v", err)
	}
	if enabled {
		t.Fatal("expected project to be disabled")
	}
}

func TestFolderExpandedRoundTrip(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "workfold.db")
	db, err := OpenSQLite(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	ps := NewProjectStore(db)
	ctx := context.Background()

	if err := ps.SetFolderExpanded(ctx, "octo", "widgets", "Build", false); err != nil {
		t.Fatalf("SetFolderExpanded: %v", err)
	}
	if err := ps.SetFolderExpanded(ctx, "octo", "widgets", "Deploy", true); err != nil {
		t.Fatalf("SetFolderExpanded: %v", err)
	}

	m, err := ps.FolderExpanded(ctx, "octo", "widgets")
	if err != nil {
		t.Fatalf("FolderExpanded: %v", err)
	}
	if len(m) != 2 {
		t.Fatalf("expected 2 folders, got %d", len(m))
	}
	if m["Build"] {
		t.Error("expected Build collapsed")
	}
	if !m["Deploy"] {
		t.Error("expected Deploy expanded")
	}
}

func TestRateLimitRoundTrip(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "workfold.db")
	db, err := OpenSQLite(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	rs := NewRateLimitStore(db)
	ctx := context.Background()

	missing, err := rs.Get(ctx, "core")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for unrecorded resource, got %+v", missing)
	}

	reset := time.Now().Add(30 * time.Minute).Truncate(time.Second)
	err = rs.Record(ctx, RateLimit{
		Resource:   "core",
		Remaining:  42,
		Ceiling:    5000,
		ResetAt:    reset,
		ObservedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	got, err := rs.Get(ctx, "core")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil {
		t.Fatal("expected snapshot, got nil")
	}
	if got.Remaining != 42 || got.Ceiling != 5000 {
		t.Errorf("unexpected snapshot: %+v", got)
	}
	if !got.ResetAt.Equal(reset.UTC()) {
		t.Errorf("reset_at mismatch: got %v, want %v", got.ResetAt, reset.UTC())
	}
}
