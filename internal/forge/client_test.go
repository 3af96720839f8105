package forge

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testClient(handler http.Handler) (*Client, *httptest.Server) {
	ts := httptest.NewServer(handler)
	c := New(Config{
		APIBase: ts.URL,
		RawBase: ts.URL,
		WebBase: ts.URL,
	})
	return c, ts
}

func TestListWorkflows_Success(t *testing.T) {
	var gotAuth string
	c, ts := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("X-RateLimit-Remaining", "55")
		w.Header().Set("X-RateLimit-Limit", "60")
		w.Header().Set("X-RateLimit-Reset", "1700000000")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"total_count": 2,
			"workflows": [
				{"name": "CI", "path": ".github/workflows/ci.yml"},
				{"name": "Deploy", "path": ".github/workflows/deploy.yml"}
			]
		}`))
	}))
	defer ts.Close()

	c.SetToken("tok-1")
	workflows, rl, err := c.ListWorkflows(context.Background(), "octo", "widgets")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "Bearer tok-1" {
		t.Errorf("expected bearer header, got %q", gotAuth)
	}
	if len(workflows) != 2 {
		t.Fatalf("expected 2 workflows, got %d", len(workflows))
	}
	if workflows[0].Filename != "ci.yml" {
		t.Errorf("expected filename ci.yml, got %q", workflows[0].Filename)
	}
	if rl == nil || rl.Remaining != 55 || rl.Limit != 60 {
		t.Errorf("unexpected rate limit: %+v", rl)
	}
}

func TestListWorkflows_StatusErrorCarriesRateLimit(t *testing.T) {
	c, ts := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.WriteHeader(http.StatusForbidden)
	}))
	defer ts.Close()

	_, rl, err := c.ListWorkflows(context.Background(), "octo", "widgets")
	if err == nil {
		t.Fatal("expected error")
	}
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusForbidden {
		t.Fatalf("expected 403 StatusError, got %v", err)
	}
	if rl == nil || rl.Remaining != 0 {
		t.Errorf("expected zero-remaining rate limit on error, got %+v", rl)
	}
}

func TestListWorkflows_NotFound(t *testing.T) {
	c, ts := testClient(http.NotFoundHandler())
	defer ts.Close()

	_, _, err := c.ListWorkflows(context.Background(), "octo", "widgets")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRawFile_BranchPath(t *testing.T) {
	var gotPath string
	c, ts := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"folders":[]}`))
	}))
	defer ts.Close()

	data, err := c.RawFile(context.Background(), "octo", "widgets", "main", ".github/workflow-folders.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != `{"folders":[]}` {
		t.Errorf("unexpected content: %s", data)
	}
	if gotPath != "/octo/widgets/main/.github/workflow-folders.json" {
		t.Errorf("unexpected raw path: %s", gotPath)
	}
}

func TestRawFile_NotFound(t *testing.T) {
	c, ts := testClient(http.NotFoundHandler())
	defer ts.Close()

	_, err := c.RawFile(context.Background(), "octo", "widgets", "main", "x.json")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestHead_DoesNotFollowRedirect(t *testing.T) {
	c, ts := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/login", http.StatusFound)
	}))
	defer ts.Close()

	code, err := c.Head(context.Background(), "/octo/widgets/settings")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code != http.StatusFound {
		t.Fatalf("expected 302, got %d", code)
	}
}

func TestCollaboratorPermission(t *testing.T) {
	c, ts := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/octo/widgets/collaborators/alice/permission" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"permission":"write"}`))
	}))
	defer ts.Close()

	perm, err := c.CollaboratorPermission(context.Background(), "octo", "widgets", "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if perm != "write" {
		t.Fatalf("expected write, got %q", perm)
	}
}

func TestViewer(t *testing.T) {
	c, ts := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"login":"alice"}`))
	}))
	defer ts.Close()

	login, err := c.Viewer(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if login != "alice" {
		t.Fatalf("expected alice, got %q", login)
	}
}

func TestFilenameOf(t *testing.T) {
	cases := map[string]string{
		".github/workflows/ci.yml": "ci.yml",
		"ci.yml":                   "ci.yml",
		"a/b/c.yaml":               "c.yaml",
	}
	for in, want := range cases {
		if got := FilenameOf(in); got != want {
			t.Errorf("FilenameOf(%q) = %q, want %q", in, got, want)
		}
	}
}
