package scrape

import (
	"strings"
	"testing"
)

const workflowsPage = `<!DOCTYPE html>
<html><body>
<nav aria-label="Workflows">
  <a href="/octo/widgets/actions/workflows/ci.yml">CI</a>
  <a href="/octo/widgets/actions/workflows/deploy.yml">
    Deploy to prod
  </a>
  <a href="/octo/widgets/actions/workflows/ci.yml?query=branch%3Amain">CI filtered</a>
  <a href="/octo/widgets/actions/workflows/nightly.yml"></a>
  <a href="/octo/widgets/actions/runs/12345">a run</a>
  <a href="/octo/other/actions/workflows/foreign.yml">foreign</a>
</nav>
</body></html>`

func TestWorkflows(t *testing.T) {
	listing, err := Workflows(strings.NewReader(workflowsPage), "octo", "widgets")
	if err != nil {
		t.Fatalf("Workflows: %v", err)
	}

	if len(listing.Workflows) != 3 {
		t.Fatalf("expected 3 workflows, got %d: %+v", len(listing.Workflows), listing.Workflows)
	}
	if listing.Workflows[0].Name != "CI" || listing.Workflows[0].Filename != "ci.yml" {
		t.Errorf("unexpected first workflow: %+v", listing.Workflows[0])
	}
	if listing.Workflows[1].Name != "Deploy to prod" {
		t.Errorf("anchor text should be trimmed: %q", listing.Workflows[1].Name)
	}
	// Empty anchor text falls back to the filename.
	if listing.Workflows[2].Name != "nightly.yml" {
		t.Errorf("expected filename fallback name, got %q", listing.Workflows[2].Name)
	}
	if listing.NextPage != "" {
		t.Errorf("expected no pagination, got %q", listing.NextPage)
	}
}

func TestWorkflowsPagination(t *testing.T) {
	page := `<html><body>
	  <a href="/octo/widgets/actions/workflows/a.yml">A</a>
	  <a class="next_page" href="/octo/widgets/actions?page=2">Next</a>
	</body></html>`

	listing, err := Workflows(strings.NewReader(page), "octo", "widgets")
	if err != nil {
		t.Fatalf("Workflows: %v", err)
	}
	if listing.NextPage != "/octo/widgets/actions?page=2" {
		t.Errorf("expected next page link, got %q", listing.NextPage)
	}
}

func TestWorkflowsEmptyPage(t *testing.T) {
	listing, err := Workflows(strings.NewReader("<html><body></body></html>"), "octo", "widgets")
	if err != nil {
		t.Fatalf("Workflows: %v", err)
	}
	if len(listing.Workflows) != 0 {
		t.Fatalf("expected empty listing, got %+v", listing.Workflows)
	}
}

func TestProjectSignalsPrivileged(t *testing.T) {
	page := `<html><head>
	  <meta name="user-login" content="alice">
	</head><body>
	  <a href="/octo/widgets/settings" data-hotkey="g s">Settings</a>
	</body></html>`

	sig, err := ProjectSignals(strings.NewReader(page), "octo", "widgets")
	if err != nil {
		t.Fatalf("ProjectSignals: %v", err)
	}
	if !sig.SignedIn || sig.Viewer != "alice" {
		t.Errorf("expected signed-in alice, got %+v", sig)
	}
	if !sig.SettingsLink {
		t.Error("expected settings link detected")
	}
	if !sig.AdminHotkey {
		t.Error("expected settings hotkey detected")
	}
}

func TestProjectSignalsAnonymous(t *testing.T) {
	page := `<html><head><meta name="user-login" content=""></head><body>
	  <a href="/octo/widgets">code</a>
	</body></html>`

	sig, err := ProjectSignals(strings.NewReader(page), "octo", "widgets")
	if err != nil {
		t.Fatalf("ProjectSignals: %v", err)
	}
	if sig.SignedIn || sig.SettingsLink || sig.AdminHotkey {
		t.Errorf("expected no signals, got %+v", sig)
	}
}

func TestProjectSignalsForeignSettingsIgnored(t *testing.T) {
	page := `<html><body>
	  <a href="/octo/other/settings">other project settings</a>
	</body></html>`

	sig, err := ProjectSignals(strings.NewReader(page), "octo", "widgets")
	if err != nil {
		t.Fatalf("ProjectSignals: %v", err)
	}
	if sig.SettingsLink {
		t.Error("settings link for another project must not count")
	}
}
