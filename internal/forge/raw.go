package forge

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const maxRawFileBytes = 1 << 20 // folder configs are tiny; anything bigger is wrong

// RawFile fetches the content of path on branch from the raw content host.
// A missing file is ErrNotFound.
func (c *Client) RawFile(ctx context.Context, owner, repo, branch, path string) ([]byte, error) {
	segments := make([]string, 0, 8)
	segments = append(segments, url.PathEscape(owner), url.PathEscape(repo), url.PathEscape(branch))
	for _, seg := range strings.Split(path, "/") {
		segments = append(segments, url.PathEscape(seg))
	}
	rawURL := c.rawBase + "/" + strings.Join(segments, "/")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	c.applyAuth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("raw request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%s: %w", rawURL, ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, URL: rawURL, Header: resp.Header}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxRawFileBytes))
	if err != nil {
		return nil, fmt.Errorf("read raw content: %w", err)
	}
	return data, nil
}
