package forge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

// Viewer returns the login of the user the configured token belongs to.
func (c *Client) Viewer(ctx context.Context) (string, error) {
	resp, err := c.apiGet(ctx, "/user")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var body struct {
		Login string `json:"login"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode viewer response: %w", err)
	}
	if body.Login == "" {
		return "", fmt.Errorf("viewer response has no login")
	}
	return body.Login, nil
}

// CollaboratorPermission returns the permission level string the forge
// reports for user on owner/repo (e.g. "admin", "write", "read", "none").
func (c *Client) CollaboratorPermission(ctx context.Context, owner, repo, user string) (string, error) {
	path := fmt.Sprintf("/repos/%s/%s/collaborators/%s/permission",
		url.PathEscape(owner), url.PathEscape(repo), url.PathEscape(user))

	resp, err := c.apiGet(ctx, path)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var body struct {
		Permission string `json:"permission"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode permission response: %w", err)
	}
	return body.Permission, nil
}
