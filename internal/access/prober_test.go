package access

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
)

type fakeClient struct {
	hasToken bool
	viewer   string
	viewErr  error
	perm     string
	permErr  error
	headCode int
	headErr  error
	page     string
	pageErr  error

	permCalls int
	headCalls int
	pageCalls int
}

func (f *fakeClient) HasToken() bool { return f.hasToken }

func (f *fakeClient) Viewer(ctx context.Context) (string, error) {
	return f.viewer, f.viewErr
}

func (f *fakeClient) CollaboratorPermission(ctx context.Context, owner, repo, user string) (string, error) {
	f.permCalls++
	return f.perm, f.permErr
}

func (f *fakeClient) Head(ctx context.Context, path string) (int, error) {
	f.headCalls++
	return f.headCode, f.headErr
}

func (f *fakeClient) Page(ctx context.Context, path string) (io.ReadCloser, error) {
	f.pageCalls++
	if f.pageErr != nil {
		return nil, f.pageErr
	}
	return io.NopCloser(strings.NewReader(f.page)), nil
}

func TestAPIProbeGrantsOnWritePermission(t *testing.T) {
	c := &fakeClient{hasToken: true, viewer: "alice", perm: "write"}
	p := NewProber(c)

	if !p.CheckWriteAccess(context.Background(), "octo", "widgets") {
		t.Fatal("expected grant for write permission")
	}
	if c.headCalls != 0 || c.pageCalls != 0 {
		t.Error("later strategies must not run after a conclusive probe")
	}
}

func TestAPIProbeDeniesOnReadPermission(t *testing.T) {
	c := &fakeClient{hasToken: true, viewer: "alice", perm: "read"}
	p := NewProber(c)

	if p.CheckWriteAccess(context.Background(), "octo", "widgets") {
		t.Fatal("expected deny for read permission")
	}
	if c.headCalls != 0 {
		t.Error("deny is conclusive; chain must stop")
	}
}

func TestNoTokenSkipsToPageProbe(t *testing.T) {
	c := &fakeClient{hasToken: false, headCode: http.StatusOK}
	p := NewProber(c)

	if !p.CheckWriteAccess(context.Background(), "octo", "widgets") {
		t.Fatal("expected grant from settings-page probe")
	}
	if c.permCalls != 0 {
		t.Error("api probe must not query permissions without a token")
	}
}

func TestPageProbeRedirectIsDeny(t *testing.T) {
	c := &fakeClient{hasToken: false, headCode: http.StatusFound}
	p := NewProber(c)

	if p.CheckWriteAccess(context.Background(), "octo", "widgets") {
		t.Fatal("redirect away from settings means deny")
	}
	if c.pageCalls != 0 {
		t.Error("deny is conclusive; dom probe must not run")
	}
}

func TestChainFallsThroughToDOM(t *testing.T) {
	c := &fakeClient{
		hasToken: true,
		viewErr:  errors.New("bad token"),
		headCode: http.StatusServiceUnavailable,
		page: `<html><head><meta name="user-login" content="alice"></head>
		  <body><a href="/octo/widgets/settings">Settings</a></body></html>`,
	}
	p := NewProber(c)

	if !p.CheckWriteAccess(context.Background(), "octo", "widgets") {
		t.Fatal("expected grant from dom heuristics")
	}
	if c.headCalls != 1 || c.pageCalls != 1 {
		t.Errorf("expected full chain traversal, head=%d page=%d", c.headCalls, c.pageCalls)
	}
}

func TestDOMProbeAnonymousIsDeny(t *testing.T) {
	c := &fakeClient{
		headCode: http.StatusServiceUnavailable,
		page:     `<html><body><a href="/octo/widgets">code</a></body></html>`,
	}
	p := NewProber(c)

	if p.CheckWriteAccess(context.Background(), "octo", "widgets") {
		t.Fatal("anonymous viewer must be denied")
	}
}

func TestExhaustedChainDegradesToFalse(t *testing.T) {
	c := &fakeClient{
		headCode: http.StatusServiceUnavailable,
		pageErr:  errors.New("site down"),
	}
	p := NewProber(c)

	if p.CheckWriteAccess(context.Background(), "octo", "widgets") {
		t.Fatal("all-inconclusive chain must degrade to false")
	}
}
