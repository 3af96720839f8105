// Package workflows resolves a project's workflow list, preferring the API
// and falling back to scraping the rendered workflows page.
package workflows

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"time"

	"github.com/workfold/workfold/internal/events"
	"github.com/workfold/workfold/internal/forge"
	"github.com/workfold/workfold/internal/log"
	"github.com/workfold/workfold/internal/scrape"
	"github.com/workfold/workfold/internal/storage"
)

// Source tags where a workflow list came from, so callers can make trust
// decisions: the API is authoritative, scraped markup is best-effort.
type Source string

const (
	SourceAPI    Source = "api"
	SourceScrape Source = "scrape"
)

// Result is a resolved workflow list plus its provenance.
type Result struct {
	Workflows []forge.Workflow `json:"workflows"`
	Source    Source           `json:"source"`
}

// Authoritative reports whether the list came from the API.
func (r *Result) Authoritative() bool { return r.Source == SourceAPI }

// APIClient is the primary-path dependency.
type APIClient interface {
	ListWorkflows(ctx context.Context, owner, repo string) ([]forge.Workflow, *forge.RateLimit, error)
}

// PageClient is the fallback-path dependency.
type PageClient interface {
	Page(ctx context.Context, path string) (io.ReadCloser, error)
}

// maxScrapePages bounds pagination-following on the fallback path.
const maxScrapePages = 10

// Lister resolves workflow lists. The primary strategy is the metadata API;
// any primary failure (HTTP error, transport error, bad JSON shape) falls
// through to scraping the rendered page.
type Lister struct {
	api      APIClient
	pages    PageClient
	limits   *storage.RateLimitStore // optional
	hub      *events.Hub             // optional
	lowWater int
	logger   *slog.Logger
}

// ListerOptions configures a Lister.
type ListerOptions struct {
	// RateLimits, when set, receives the quota snapshot of every API response.
	RateLimits *storage.RateLimitStore
	// Hub, when set, receives a quota.low event whenever remaining quota
	// drops below LowWater.
	Hub *events.Hub
	// LowWater triggers a warning when remaining quota drops below it.
	LowWater int
}

func NewLister(api APIClient, pages PageClient, opts ListerOptions) *Lister {
	if opts.LowWater == 0 {
		opts.LowWater = 10
	}
	return &Lister{
		api:      api,
		pages:    pages,
		limits:   opts.RateLimits,
		hub:      opts.Hub,
		lowWater: opts.LowWater,
		logger:   log.WithComponent("workflows"),
	}
}

// Fetch resolves the workflow list for owner/repo. The scrape fallback is
// best-effort and may legitimately return an empty list; an error means both
// strategies failed outright.
func (l *Lister) Fetch(ctx context.Context, owner, repo string) (*Result, error) {
	workflows, rl, err := l.api.ListWorkflows(ctx, owner, repo)
	l.recordRateLimit(ctx, rl)
	if err == nil {
		return &Result{Workflows: workflows, Source: SourceAPI}, nil
	}
	l.logger.Debug("workflow API failed, falling back to scrape",
		"owner", owner, "repo", repo, "error", err)

	scraped, err := l.scrapeAll(ctx, owner, repo)
	if err != nil {
		return nil, fmt.Errorf("scrape workflows: %w", err)
	}
	return &Result{Workflows: scraped, Source: SourceScrape}, nil
}

// scrapeAll reads the rendered workflows listing, following the pagination
// link when the listing does not fit on one page (the rendered site's "show
// more" control).
func (l *Lister) scrapeAll(ctx context.Context, owner, repo string) ([]forge.Workflow, error) {
	path := fmt.Sprintf("/%s/%s/actions", url.PathEscape(owner), url.PathEscape(repo))

	var all []forge.Workflow
	seen := make(map[string]bool)

	for page := 0; path != "" && page < maxScrapePages; page++ {
		body, err := l.pages.Page(ctx, path)
		if err != nil {
			if page == 0 {
				return nil, err
			}
			// A broken later page does not discard what was already found.
			l.logger.Debug("pagination fetch failed", "owner", owner, "repo", repo, "path", path, "error", err)
			break
		}

		listing, err := scrape.Workflows(body, owner, repo)
		_ = body.Close()
		if err != nil {
			if page == 0 {
				return nil, err
			}
			break
		}

		for _, wf := range listing.Workflows {
			if seen[wf.Filename] {
				continue
			}
			seen[wf.Filename] = true
			all = append(all, wf)
		}
		path = listing.NextPage
	}

	return all, nil
}

func (l *Lister) recordRateLimit(ctx context.Context, rl *forge.RateLimit) {
	if rl == nil {
		return
	}
	if rl.Remaining < l.lowWater {
		l.logger.Warn("API quota low", "remaining", rl.Remaining, "limit", rl.Limit, "reset", rl.Reset)
		if l.hub != nil {
			l.hub.Publish(events.TypeQuotaLow, map[string]any{
				"remaining": rl.Remaining,
				"limit":     rl.Limit,
				"reset":     rl.Reset,
			})
		}
	}
	if l.limits == nil {
		return
	}
	err := l.limits.Record(ctx, storage.RateLimit{
		Resource:   "core",
		Remaining:  rl.Remaining,
		Ceiling:    rl.Limit,
		ResetAt:    rl.Reset,
		ObservedAt: time.Now().UTC(),
	})
	if err != nil {
		l.logger.Debug("rate limit record failed", "error", err)
	}
}
