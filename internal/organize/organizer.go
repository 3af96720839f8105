// Package organize runs the whole pipeline for one project: folder config
// and workflow list fetched concurrently, joined by the grouping engine,
// with the access prober gating the create-config affordance.
package organize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/workfold/workfold/internal/events"
	"github.com/workfold/workfold/internal/foldercfg"
	"github.com/workfold/workfold/internal/grouping"
	"github.com/workfold/workfold/internal/log"
	"github.com/workfold/workfold/internal/workflows"
)

//go:generate mockgen -source=organizer.go -destination=mocks/mocks.go -package=mocks

// ConfigFetcher resolves the folder config for a project.
type ConfigFetcher interface {
	Fetch(ctx context.Context, owner, repo string) (*foldercfg.FetchResult, error)
}

// WorkflowLister resolves the workflow list for a project.
type WorkflowLister interface {
	Fetch(ctx context.Context, owner, repo string) (*workflows.Result, error)
}

// AccessChecker reports whether the viewer can write to a project.
type AccessChecker interface {
	CheckWriteAccess(ctx context.Context, owner, repo string) bool
}

// View is everything presentation needs for one project. It is recomputed
// per request and never persisted.
type View struct {
	Owner string `json:"owner"`
	Repo  string `json:"repo"`

	Grouping *grouping.Grouping `json:"grouping"`
	// Source tags the workflow list's provenance; empty when no workflow
	// data could be resolved at all.
	Source workflows.Source `json:"source,omitempty"`

	// HasConfig is false when no folder config exists on any branch.
	HasConfig bool `json:"has_config"`
	// ConfigFromCache is true when the config was served without a network
	// call.
	ConfigFromCache bool   `json:"config_from_cache,omitempty"`
	ConfigBranch    string `json:"config_branch,omitempty"`

	// OfferCreateConfig is set only when HasConfig is false and the viewer
	// appears to have write access.
	OfferCreateConfig bool `json:"offer_create_config,omitempty"`

	// Degraded is true when workflow data could not be resolved and the view
	// shows an empty list.
	Degraded bool `json:"degraded,omitempty"`
}

// Organizer wires the pipeline together.
type Organizer struct {
	configs ConfigFetcher
	lister  WorkflowLister
	access  AccessChecker
	hub     *events.Hub // optional
	logger  *slog.Logger
}

func New(configs ConfigFetcher, lister WorkflowLister, access AccessChecker, hub *events.Hub) *Organizer {
	return &Organizer{
		configs: configs,
		lister:  lister,
		access:  access,
		hub:     hub,
		logger:  log.WithComponent("organize"),
	}
}

// Build computes the view for owner/repo. It never fails: anything thrown
// deep in the pipeline degrades to the plain, ungrouped list. The config and
// workflow fetches run concurrently; neither orders before the other.
func (o *Organizer) Build(ctx context.Context, owner, repo string) (view *View) {
	fetchID := uuid.NewString()
	logger := o.logger.With("fetch_id", fetchID, "owner", owner, "repo", repo)

	view = &View{Owner: owner, Repo: repo, Grouping: &grouping.Grouping{}, Degraded: true}
	defer func() {
		if r := recover(); r != nil {
			logger.Error("organize pipeline panicked", "panic", r)
			view = &View{Owner: owner, Repo: repo, Grouping: &grouping.Grouping{}, Degraded: true}
		}
	}()

	var (
		wg     sync.WaitGroup
		cfgRes *foldercfg.FetchResult
		cfgErr error
		wfRes  *workflows.Result
		wfErr  error
	)

	// Each fetch runs in its own goroutine, so the boundary recover above
	// cannot see a panic raised inside one; convert it to a fetch error here.
	wg.Add(2)
	go func() {
		defer wg.Done()
		defer func() {
			if r := recover(); r != nil {
				logger.Error("config fetch panicked", "panic", r)
				cfgErr = fmt.Errorf("config fetch panicked: %v", r)
			}
		}()
		cfgRes, cfgErr = o.configs.Fetch(ctx, owner, repo)
	}()
	go func() {
		defer wg.Done()
		defer func() {
			if r := recover(); r != nil {
				logger.Error("workflow fetch panicked", "panic", r)
				wfErr = fmt.Errorf("workflow fetch panicked: %v", r)
			}
		}()
		wfRes, wfErr = o.lister.Fetch(ctx, owner, repo)
	}()
	wg.Wait()

	var cfg *foldercfg.Config
	switch {
	case cfgErr == nil:
		cfg = cfgRes.Config
		view.HasConfig = true
		view.ConfigFromCache = cfgRes.FromCache
		view.ConfigBranch = cfgRes.Branch
		if cfgRes.FromCache {
			o.publish(events.TypeConfigCacheHit, owner, repo, fetchID)
		} else {
			o.publish(events.TypeConfigFetched, owner, repo, fetchID)
		}
	case errors.Is(cfgErr, foldercfg.ErrNoConfig):
		// Expected: the project simply has no configuration.
		logger.Debug("no folder config")
		o.publish(events.TypeConfigMissing, owner, repo, fetchID)
	default:
		logger.Warn("config fetch failed", "error", cfgErr)
	}

	if wfErr != nil {
		logger.Warn("workflow fetch failed", "error", wfErr)
		return view
	}

	view.Degraded = false
	view.Source = wfRes.Source
	view.Grouping = grouping.Group(cfg, wfRes.Workflows)
	o.publish(events.TypeWorkflowsLoaded, owner, repo, fetchID)

	// The prober only runs on the no-config path, to decide whether a
	// create-config affordance is worth surfacing.
	if !view.HasConfig && o.access != nil {
		view.OfferCreateConfig = o.access.CheckWriteAccess(ctx, owner, repo)
	}

	return view
}

func (o *Organizer) publish(eventType, owner, repo, fetchID string) {
	if o.hub == nil {
		return
	}
	o.hub.Publish(eventType, map[string]string{
		"owner":    owner,
		"repo":     repo,
		"fetch_id": fetchID,
	})
}
