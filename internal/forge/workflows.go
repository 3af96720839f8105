package forge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Workflow is one automation definition known to the forge.
type Workflow struct {
	Name string `json:"name"`
	Path string `json:"path"`
	// Filename is the trailing segment of Path.
	Filename string `json:"filename"`
}

// RateLimit is the quota snapshot read from API response headers.
type RateLimit struct {
	Remaining int
	Limit     int
	Reset     time.Time
}

type workflowsResponse struct {
	TotalCount int `json:"total_count"`
	Workflows  []struct {
		Name string `json:"name"`
		Path string `json:"path"`
	} `json:"workflows"`
}

// ListWorkflows fetches the workflow list for owner/repo from the API.
// The returned RateLimit is non-nil whenever the response carried quota
// headers, including on error responses.
func (c *Client) ListWorkflows(ctx context.Context, owner, repo string) ([]Workflow, *RateLimit, error) {
	path := fmt.Sprintf("/repos/%s/%s/actions/workflows?per_page=100",
		url.PathEscape(owner), url.PathEscape(repo))

	resp, err := c.apiGet(ctx, path)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) {
			return nil, parseRateLimit(se.Header), err
		}
		return nil, nil, err
	}
	defer resp.Body.Close()

	rl := parseRateLimit(resp.Header)

	var body workflowsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, rl, fmt.Errorf("decode workflows response: %w", err)
	}

	out := make([]Workflow, 0, len(body.Workflows))
	for _, w := range body.Workflows {
		out = append(out, Workflow{
			Name:     w.Name,
			Path:     w.Path,
			Filename: FilenameOf(w.Path),
		})
	}
	return out, rl, nil
}

// FilenameOf returns the trailing path segment of a definition path.
func FilenameOf(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}

// parseRateLimit reads X-RateLimit-* headers, returning nil when absent.
func parseRateLimit(h http.Header) *RateLimit {
	if h == nil {
		return nil
	}
	remaining := h.Get("X-RateLimit-Remaining")
	if remaining == "" {
		return nil
	}

	rl := &RateLimit{}
	if n, err := strconv.Atoi(remaining); err == nil {
		rl.Remaining = n
	}
	if n, err := strconv.Atoi(h.Get("X-RateLimit-Limit")); err == nil {
		rl.Limit = n
	}
	if sec, err := strconv.ParseInt(h.Get("X-RateLimit-Reset"), 10, 64); err == nil {
		rl.Reset = time.Unix(sec, 0).UTC()
	}
	return rl
}
