package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/workfold/workfold/internal/auth"
	"github.com/workfold/workfold/internal/events"
	"github.com/workfold/workfold/internal/grouping"
	"github.com/workfold/workfold/internal/log"
	"github.com/workfold/workfold/internal/organize"
	"github.com/workfold/workfold/internal/storage"
)

type fakeViews struct {
	lastOwner, lastRepo string
}

func (f *fakeViews) Build(_ context.Context, owner, repo string) *organize.View {
	f.lastOwner, f.lastRepo = owner, repo
	return &organize.View{
		Owner:    owner,
		Repo:     repo,
		Grouping: &grouping.Grouping{},
		Source:   "api",
	}
}

type fakeCache struct {
	cleared    []string
	clearedAll bool
	count      int
}

func (f *fakeCache) Clear(_ context.Context, owner, repo string) error {
	f.cleared = append(f.cleared, owner+"/"+repo)
	return nil
}

func (f *fakeCache) ClearAll(_ context.Context) (int, error) {
	f.clearedAll = true
	return 3, nil
}

func (f *fakeCache) Count(_ context.Context) (int, error) { return f.count, nil }

type fakeLimits struct {
	rl *storage.RateLimit
}

func (f *fakeLimits) Get(_ context.Context, _ string) (*storage.RateLimit, error) {
	return f.rl, nil
}

func newTestServer(t *testing.T, cfg Config) (*httptest.Server, *fakeViews, *fakeCache) {
	t.Helper()
	views := &fakeViews{}
	cache := &fakeCache{count: 2}
	limits := &fakeLimits{rl: &storage.RateLimit{
		Resource:   "core",
		Remaining:  42,
		Ceiling:    60,
		ResetAt:    time.Now().Add(time.Hour),
		ObservedAt: time.Now(),
	}}
	srv := New(cfg, views, cache, limits, events.NewHub(16), log.Get())
	ts := httptest.NewServer(srv.setupRoutes())
	t.Cleanup(ts.Close)
	return ts, views, cache
}

func doReq(t *testing.T, method, url, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealthzNoAuth(t *testing.T) {
	ts, _, _ := newTestServer(t, Config{APIKey: "admin"})

	resp := doReq(t, "GET", ts.URL+"/healthz", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body HealthzResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, 2, body.CachedConfigs)
}

func TestFoldersRequiresAuth(t *testing.T) {
	ts, _, _ := newTestServer(t, Config{APIKey: "admin"})

	resp := doReq(t, "GET", ts.URL+"/project/octo/widgets/folders", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doReq(t, "GET", ts.URL+"/project/octo/widgets/folders", "wrong")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestFoldersReturnsView(t *testing.T) {
	ts, views, _ := newTestServer(t, Config{APIKey: "admin"})

	resp := doReq(t, "GET", ts.URL+"/project/octo/widgets/folders", "admin")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var view organize.View
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	assert.Equal(t, "octo", view.Owner)
	assert.Equal(t, "widgets", view.Repo)
	assert.Equal(t, "octo", views.lastOwner)
}

func TestScopedTokenEnforcement(t *testing.T) {
	cfg := Config{
		APIKey: "admin",
		Tokens: []auth.TokenConfig{
			{Token: "read-only", Scopes: []string{"folders:ro"}},
			{Token: "cache-admin", Scopes: []string{"cache:rw"}},
		},
	}
	ts, _, cache := newTestServer(t, cfg)

	// folders:ro can read views but not clear the cache.
	resp := doReq(t, "GET", ts.URL+"/project/octo/widgets/folders", "read-only")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp = doReq(t, "POST", ts.URL+"/cache/clear", "read-only")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// cache:rw can clear but not read views.
	resp = doReq(t, "POST", ts.URL+"/project/octo/widgets/cache/clear", "cache-admin")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"octo/widgets"}, cache.cleared)

	resp = doReq(t, "GET", ts.URL+"/project/octo/widgets/folders", "cache-admin")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestCacheClearAll(t *testing.T) {
	ts, _, cache := newTestServer(t, Config{APIKey: "admin"})

	resp := doReq(t, "POST", ts.URL+"/cache/clear", "admin")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body CacheClearResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 3, body.Cleared)
	assert.True(t, cache.clearedAll)
}

func TestCacheClearPublishesEvents(t *testing.T) {
	hub := events.NewHub(16)
	srv := New(Config{APIKey: "admin"}, &fakeViews{}, &fakeCache{}, &fakeLimits{}, hub, log.Get())
	ts := httptest.NewServer(srv.setupRoutes())
	t.Cleanup(ts.Close)

	resp := doReq(t, "POST", ts.URL+"/project/octo/widgets/cache/clear", "admin")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = doReq(t, "POST", ts.URL+"/cache/clear", "admin")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	evs := hub.SnapshotSince(0)
	require.Len(t, evs, 2)
	for _, ev := range evs {
		assert.Equal(t, events.TypeCacheCleared, ev.Type)
	}
}

func TestRateLimitEndpoint(t *testing.T) {
	ts, _, _ := newTestServer(t, Config{APIKey: "admin"})

	resp := doReq(t, "GET", ts.URL+"/ratelimit", "admin")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body RateLimitResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "core", body.Resource)
	assert.Equal(t, 42, body.Remaining)
}

func TestParseLastEventID(t *testing.T) {
	t.Parallel()

	assert.Equal(t, int64(0), parseLastEventID(""))
	assert.Equal(t, int64(0), parseLastEventID("nope"))
	assert.Equal(t, int64(0), parseLastEventID("-4"))
	assert.Equal(t, int64(7), parseLastEventID("7"))
}
