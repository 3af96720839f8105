// Package scrape extracts workflow listings and viewer signals from the
// forge's rendered HTML. It is the best-effort fallback when the API is
// unavailable; results are whatever the markup happens to contain.
package scrape

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/workfold/workfold/internal/forge"
)

// Listing is the workflow list read from a rendered workflows page.
type Listing struct {
	Workflows []forge.Workflow
	// NextPage is the path of the pagination "next" link, or "" when the
	// listing fits on one page.
	NextPage string
}

// Workflows reads workflow links from a rendered workflows page. Anchors
// whose href is /{owner}/{repo}/actions/workflows/<file> become descriptors;
// the anchor text is the display name, the trailing href segment the
// filename.
func Workflows(r io.Reader, owner, repo string) (*Listing, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse workflows page: %w", err)
	}

	prefix := fmt.Sprintf("/%s/%s/actions/workflows/", owner, repo)
	listing := &Listing{}
	seen := make(map[string]bool)

	walk(doc, func(n *html.Node) {
		if n.Type != html.ElementNode || n.Data != "a" {
			return
		}
		href := attr(n, "href")

		if attr(n, "rel") == "next" || hasClass(n, "next_page") {
			if listing.NextPage == "" && href != "" {
				listing.NextPage = href
			}
			return
		}

		if !strings.HasPrefix(href, prefix) {
			return
		}
		rest := strings.TrimPrefix(href, prefix)
		// Run links and query-suffixed duplicates are not the listing.
		if i := strings.IndexAny(rest, "?#"); i >= 0 {
			rest = rest[:i]
		}
		if rest == "" || strings.Contains(rest, "/") {
			return
		}
		if seen[rest] {
			return
		}
		seen[rest] = true

		name := strings.TrimSpace(text(n))
		if name == "" {
			name = rest
		}
		listing.Workflows = append(listing.Workflows, forge.Workflow{
			Name:     name,
			Path:     strings.TrimPrefix(href, "/"),
			Filename: rest,
		})
	})

	return listing, nil
}

// Signals are the privileged-viewer hints a rendered project page carries.
// They are advisory UI markers, never a security boundary.
type Signals struct {
	// SignedIn is true when the page embeds a logged-in user login.
	SignedIn bool
	// Viewer is the embedded login, when present.
	Viewer string
	// SettingsLink is true when the admin settings nav entry is rendered.
	SettingsLink bool
	// AdminHotkey is true when a settings keyboard-shortcut binding exists.
	AdminHotkey bool
}

// ProjectSignals reads viewer signals from a rendered project page.
func ProjectSignals(r io.Reader, owner, repo string) (*Signals, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse project page: %w", err)
	}

	settingsPath := fmt.Sprintf("/%s/%s/settings", owner, repo)
	sig := &Signals{}

	walk(doc, func(n *html.Node) {
		if n.Type != html.ElementNode {
			return
		}
		switch n.Data {
		case "meta":
			if attr(n, "name") == "user-login" {
				if login := attr(n, "content"); login != "" {
					sig.SignedIn = true
					sig.Viewer = login
				}
			}
		case "a":
			href := attr(n, "href")
			if href == settingsPath || strings.HasPrefix(href, settingsPath+"/") {
				sig.SettingsLink = true
			}
			if attr(n, "data-hotkey") == "g s" {
				sig.AdminHotkey = true
			}
		}
	})

	return sig, nil
}

func walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func text(n *html.Node) string {
	var b strings.Builder
	walk(n, func(c *html.Node) {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	})
	return b.String()
}
