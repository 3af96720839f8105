// Package access answers "can the viewer write to this project?" on a
// best-effort basis. It gates a single UI affordance and is never a
// security boundary: false negatives and positives are tolerated.
package access

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/workfold/workfold/internal/log"
	"github.com/workfold/workfold/internal/scrape"
)

// Outcome is one strategy's verdict.
type Outcome int

const (
	Inconclusive Outcome = iota
	Grant
	Deny
)

func (o Outcome) String() string {
	switch o {
	case Grant:
		return "grant"
	case Deny:
		return "deny"
	default:
		return "inconclusive"
	}
}

// Strategy is one link in the probe chain. Strategies must not fail outward;
// anything they cannot determine is Inconclusive.
type Strategy interface {
	Name() string
	Probe(ctx context.Context, owner, repo string) Outcome
}

// Client is the forge surface the built-in strategies need.
type Client interface {
	HasToken() bool
	Viewer(ctx context.Context) (string, error)
	CollaboratorPermission(ctx context.Context, owner, repo, user string) (string, error)
	Head(ctx context.Context, path string) (int, error)
	Page(ctx context.Context, path string) (io.ReadCloser, error)
}

// Prober runs strategies in order and stops at the first conclusive verdict.
type Prober struct {
	strategies []Strategy
	logger     *slog.Logger
}

// NewProber builds the default chain: authenticated API probe, privileged
// page probe, rendered-page heuristics.
func NewProber(client Client) *Prober {
	return &Prober{
		strategies: []Strategy{
			&apiProbe{client: client},
			&pageProbe{client: client},
			&domProbe{client: client},
		},
		logger: log.WithComponent("access"),
	}
}

// NewProberWithStrategies builds a prober over an explicit chain.
func NewProberWithStrategies(strategies ...Strategy) *Prober {
	return &Prober{strategies: strategies, logger: log.WithComponent("access")}
}

// CheckWriteAccess reports whether the viewer appears to have write
// permission on owner/repo. It never returns an error; an exhausted chain is
// a deny.
func (p *Prober) CheckWriteAccess(ctx context.Context, owner, repo string) bool {
	for _, s := range p.strategies {
		outcome := s.Probe(ctx, owner, repo)
		p.logger.Debug("write access probe", "owner", owner, "repo", repo,
			"strategy", s.Name(), "outcome", outcome.String())
		switch outcome {
		case Grant:
			return true
		case Deny:
			return false
		}
	}
	return false
}

// apiProbe asks the permissions endpoint for the token's own user.
type apiProbe struct {
	client Client
}

func (s *apiProbe) Name() string { return "api" }

func (s *apiProbe) Probe(ctx context.Context, owner, repo string) Outcome {
	if !s.client.HasToken() {
		return Inconclusive
	}

	viewer, err := s.client.Viewer(ctx)
	if err != nil {
		return Inconclusive
	}

	perm, err := s.client.CollaboratorPermission(ctx, owner, repo, viewer)
	if err != nil {
		return Inconclusive
	}
	switch perm {
	case "admin", "maintain", "write":
		return Grant
	case "":
		return Inconclusive
	default:
		return Deny
	}
}

// pageProbe issues a header-only request to the admin settings page without
// following redirects. Reaching it means write access; being bounced means
// not.
type pageProbe struct {
	client Client
}

func (s *pageProbe) Name() string { return "settings-page" }

func (s *pageProbe) Probe(ctx context.Context, owner, repo string) Outcome {
	path := fmt.Sprintf("/%s/%s/settings", url.PathEscape(owner), url.PathEscape(repo))
	code, err := s.client.Head(ctx, path)
	if err != nil {
		return Inconclusive
	}

	switch {
	case code >= 200 && code <= 299:
		return Grant
	case code == http.StatusMovedPermanently,
		code == http.StatusFound,
		code == http.StatusSeeOther,
		code == http.StatusForbidden,
		code == http.StatusNotFound:
		return Deny
	default:
		return Inconclusive
	}
}

// domProbe inspects the rendered project page for affordances the site only
// shows privileged viewers.
type domProbe struct {
	client Client
}

func (s *domProbe) Name() string { return "dom" }

func (s *domProbe) Probe(ctx context.Context, owner, repo string) Outcome {
	path := fmt.Sprintf("/%s/%s", url.PathEscape(owner), url.PathEscape(repo))
	body, err := s.client.Page(ctx, path)
	if err != nil {
		return Inconclusive
	}
	defer body.Close()

	sig, err := scrape.ProjectSignals(body, owner, repo)
	if err != nil {
		return Inconclusive
	}
	// No logged-in indicator at all: nothing privileged can be rendered.
	if !sig.SignedIn {
		return Deny
	}
	if sig.SettingsLink || sig.AdminHotkey {
		return Grant
	}
	return Deny
}
