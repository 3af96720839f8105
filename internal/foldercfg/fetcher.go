package foldercfg

import (
	"context"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"github.com/zeebo/blake3"

	"github.com/workfold/workfold/internal/forge"
	"github.com/workfold/workfold/internal/log"
)

// DefaultTTL is the cache validity window.
const DefaultTTL = 5 * time.Minute

// RawClient fetches file content from the forge's raw host.
type RawClient interface {
	RawFile(ctx context.Context, owner, repo, branch, path string) ([]byte, error)
}

// FetchResult is a fetched (or cache-served) folder config.
type FetchResult struct {
	Config *Config
	// FromCache is true when the result was served without a network call.
	FromCache bool
	// Branch is the branch the config was found on.
	Branch string
	// ContentHash is the blake3 hash of the raw document.
	ContentHash string
}

// Fetcher retrieves folder configs with branch fallback and a TTL cache.
type Fetcher struct {
	client     RawClient
	store      *Store
	branches   []string
	configPath string
	ttl        time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

// FetcherOptions configures a Fetcher. Zero values take defaults.
type FetcherOptions struct {
	Branches   []string
	ConfigPath string
	TTL        time.Duration
}

func NewFetcher(client RawClient, store *Store, opts FetcherOptions) *Fetcher {
	if len(opts.Branches) == 0 {
		opts.Branches = []string{"main", "master"}
	}
	if opts.ConfigPath == "" {
		opts.ConfigPath = ".github/workflow-folders.json"
	}
	if opts.TTL == 0 {
		opts.TTL = DefaultTTL
	}
	return &Fetcher{
		client:     client,
		store:      store,
		branches:   opts.Branches,
		configPath: opts.ConfigPath,
		ttl:        opts.TTL,
		logger:     log.WithComponent("foldercfg"),
		now:        time.Now,
	}
}

// Fetch returns the folder config for owner/repo. A valid cache entry is
// returned without any network call. Otherwise every branch is tried in
// priority order; the first response that parses wins and is written to the
// cache. When no branch yields a config the result is ErrNoConfig.
func (f *Fetcher) Fetch(ctx context.Context, owner, repo string) (*FetchResult, error) {
	entry, err := f.store.Get(ctx, owner, repo)
	if err != nil {
		// A broken cache row must not take the feature down; fall through to
		// a fresh fetch.
		f.logger.Warn("config cache read failed", "owner", owner, "repo", repo, "error", err)
	}
	if entry != nil && f.now().Sub(entry.FetchedAt) < f.ttl {
		f.logger.Debug("config cache hit", "owner", owner, "repo", repo, "age", f.now().Sub(entry.FetchedAt))
		return &FetchResult{
			Config:      entry.Config,
			FromCache:   true,
			Branch:      entry.Branch,
			ContentHash: entry.ContentHash,
		}, nil
	}

	for _, branch := range f.branches {
		data, err := f.client.RawFile(ctx, owner, repo, branch, f.configPath)
		if err != nil {
			if !errors.Is(err, forge.ErrNotFound) {
				f.logger.Debug("config fetch attempt failed", "owner", owner, "repo", repo, "branch", branch, "error", err)
			}
			continue
		}

		cfg, err := Parse(data)
		if err != nil {
			// Malformed content is this branch's attempt failing; no repair.
			f.logger.Debug("config parse failed", "owner", owner, "repo", repo, "branch", branch, "error", err)
			continue
		}

		for _, warning := range cfg.Validate() {
			f.logger.Warn("folder config defect", "owner", owner, "repo", repo, "warning", warning)
		}

		sum := blake3.Sum256(data)
		hash := hex.EncodeToString(sum[:])
		if entry != nil && entry.ContentHash != hash {
			f.logger.Debug("folder config changed since last fetch", "owner", owner, "repo", repo, "branch", branch)
		}

		if err := f.store.Put(ctx, Entry{
			Owner:       owner,
			Repo:        repo,
			Config:      cfg,
			ContentHash: hash,
			Branch:      branch,
			FetchedAt:   f.now().UTC(),
		}); err != nil {
			f.logger.Warn("config cache write failed", "owner", owner, "repo", repo, "error", err)
		}

		return &FetchResult{Config: cfg, Branch: branch, ContentHash: hash}, nil
	}

	return nil, ErrNoConfig
}

// Invalidate drops the cached entry for owner/repo.
func (f *Fetcher) Invalidate(ctx context.Context, owner, repo string) error {
	return f.store.Clear(ctx, owner, repo)
}
