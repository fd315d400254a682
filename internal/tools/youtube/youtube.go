// Package youtube searches and plays videos in the shared browser tab.
package youtube

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/antoniostano/rin/internal/tools"
	"github.com/antoniostano/rin/internal/tools/markup"
)

const (
	defaultBaseURL = "https://www.youtube.com"
	resultSelector = "a#video-title"
	maxResults     = 10
)

// Renderer is the part of the browser the client drives.
type Renderer interface {
	Open(ctx context.Context, url string) error
	Render(ctx context.Context, url, waitSelector string) (string, error)
}

type Client struct {
	browser Renderer
	baseURL string
}

func New(browser Renderer) *Client {
	return &Client{browser: browser, baseURL: defaultBaseURL}
}

// Search returns up to ten results from the results page, plus a prompt
// asking which one to play.
func (c *Client) Search(ctx context.Context, query string) ([]tools.MediaItem, string, error) {
	target := c.baseURL + "/results?search_query=" + url.QueryEscape(query)
	doc, err := c.browser.Render(ctx, target, resultSelector)
	if err != nil {
		return nil, "", fmt.Errorf("youtube search: %w", err)
	}
	items, err := c.parseResults(doc)
	if err != nil {
		return nil, "", err
	}
	if len(items) == 0 {
		return nil, "", tools.ErrNotFound
	}
	return items, fmt.Sprintf("I found %d videos. Which one do you want to play? (1-%d)", len(items), len(items)), nil
}

// Play navigates the shared tab to a previously returned locator.
func (c *Client) Play(ctx context.Context, locator string) (string, error) {
	if err := c.browser.Open(ctx, locator); err != nil {
		return "", fmt.Errorf("youtube play: %w", err)
	}
	return "", nil
}

// Open shows the home page.
func (c *Client) Open(ctx context.Context) (string, error) {
	if err := c.browser.Open(ctx, c.baseURL); err != nil {
		return "", fmt.Errorf("youtube open: %w", err)
	}
	return "Opening YouTube.", nil
}

func (c *Client) parseResults(doc string) ([]tools.MediaItem, error) {
	root, err := markup.Parse(doc)
	if err != nil {
		return nil, fmt.Errorf("parse results page: %w", err)
	}
	links := markup.FindAll(root, 0, func(n *html.Node) bool {
		return markup.Element("a")(n) && markup.Attr(n, "id") == "video-title"
	})

	items := make([]tools.MediaItem, 0, maxResults)
	for _, link := range links {
		href := markup.Attr(link, "href")
		if href == "" {
			continue
		}
		title := strings.TrimSpace(markup.Attr(link, "title"))
		if title == "" {
			title = markup.Text(link)
		}
		items = append(items, tools.MediaItem{Title: title, Locator: c.absolute(href)})
		if len(items) == maxResults {
			break
		}
	}
	return items, nil
}

func (c *Client) absolute(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	return c.baseURL + "/" + strings.TrimPrefix(href, "/")
}
