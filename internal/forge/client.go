// Package forge is the HTTP client for the hosting forge: the workflow
// metadata API, raw file content, and the rendered site used by the scrape
// and probe fallbacks.
package forge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// ErrNotFound marks a resource the forge reports as absent (404).
var ErrNotFound = errors.New("not found")

// StatusError is a non-success HTTP status from the forge. Header is kept so
// callers can still read the rate-limit snapshot off a failed response.
type StatusError struct {
	Code   int
	URL    string
	Header http.Header
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("forge returned %d for %s", e.Code, e.URL)
}

// Config holds client configuration.
type Config struct {
	APIBase string
	RawBase string
	WebBase string
	Token   string
	Timeout time.Duration
}

// Client talks to the forge. Safe for concurrent use.
type Client struct {
	apiBase string
	rawBase string
	webBase string

	httpClient *http.Client
	// probeClient never follows redirects; the privileged-page probe needs
	// the redirect itself as the answer.
	probeClient *http.Client

	mu    sync.RWMutex
	token string
}

// New creates a new forge client.
func New(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        20,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	return &Client{
		apiBase: strings.TrimRight(cfg.APIBase, "/"),
		rawBase: strings.TrimRight(cfg.RawBase, "/"),
		webBase: strings.TrimRight(cfg.WebBase, "/"),
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		probeClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		token: cfg.Token,
	}
}

// SetToken sets the bearer credential for API requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// HasToken reports whether a credential is configured.
func (c *Client) HasToken() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token != ""
}

// applyAuth adds the auth header to a request if a token is set.
func (c *Client) applyAuth(req *http.Request) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// apiGet issues an authenticated GET against the API base and returns the
// response. Callers own the body. 404 maps to ErrNotFound, other non-2xx to
// StatusError.
func (c *Client) apiGet(ctx context.Context, path string) (*http.Response, error) {
	url := c.apiBase + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	c.applyAuth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api request: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		drain(resp)
		return nil, fmt.Errorf("%s: %w", url, ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		drain(resp)
		return nil, &StatusError{Code: resp.StatusCode, URL: url, Header: resp.Header}
	}
	return resp, nil
}

// Page fetches a rendered HTML page from the site and returns its body.
// Non-2xx statuses are a StatusError.
func (c *Client) Page(ctx context.Context, path string) (io.ReadCloser, error) {
	url := c.webBase + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/html")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("page request: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		drain(resp)
		return nil, &StatusError{Code: resp.StatusCode, URL: url}
	}
	return resp.Body, nil
}

// Head issues a header-only request against the site without following
// redirects and returns the raw status code.
func (c *Client) Head(ctx context.Context, path string) (int, error) {
	url := c.webBase + path
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return 0, err
	}

	resp, err := c.probeClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("head request: %w", err)
	}
	drain(resp)
	return resp.StatusCode, nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	_ = resp.Body.Close()
}
