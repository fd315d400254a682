// Package websearch answers open questions with the first DuckDuckGo
// result and, when a browser is available, shows the Google results page.
package websearch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/antoniostano/rin/internal/reliability"
	"github.com/antoniostano/rin/internal/tools"
	"github.com/antoniostano/rin/internal/tools/markup"
)

const (
	defaultDuckDuckGoURL = "https://html.duckduckgo.com/html/"
	defaultGoogleURL     = "https://www.google.com/search"
	userAgent            = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	maxBodyBytes         = 1 << 20
)

// Opener shows a page to the user.
type Opener interface {
	Open(ctx context.Context, url string) error
}

type Options struct {
	HTTPClient *http.Client
	// Opener is optional; without it results are only summarized.
	Opener        Opener
	DuckDuckGoURL string
	GoogleURL     string
	Logger        *zap.Logger
}

type Searcher struct {
	client    *http.Client
	opener    Opener
	ddgURL    string
	googleURL string
	logger    *zap.Logger
}

func New(opts Options) *Searcher {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 5 * time.Second}
	}
	if opts.DuckDuckGoURL == "" {
		opts.DuckDuckGoURL = defaultDuckDuckGoURL
	}
	if opts.GoogleURL == "" {
		opts.GoogleURL = defaultGoogleURL
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Searcher{
		client:    opts.HTTPClient,
		opener:    opts.Opener,
		ddgURL:    opts.DuckDuckGoURL,
		googleURL: opts.GoogleURL,
		logger:    opts.Logger,
	}
}

// Result is the first organic hit.
type Result struct {
	Title string
	URL   string
}

// Search opens the Google results page (best effort) and returns a
// "title\nLink: url" summary of the first DuckDuckGo hit.
func (s *Searcher) Search(ctx context.Context, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", tools.ErrNotFound
	}
	if s.opener != nil {
		target := s.googleURL + "?q=" + url.QueryEscape(query)
		if err := s.opener.Open(ctx, target); err != nil {
			s.logger.Warn("open search page failed", zap.String("query", query), zap.Error(err))
		}
	}

	var result Result
	err := reliability.Retry(ctx, 2, 200*time.Millisecond, time.Second, func(ctx context.Context) error {
		var err error
		result, err = s.firstResult(ctx, query)
		return err
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s\nLink: %s", result.Title, result.URL), nil
}

func (s *Searcher) firstResult(ctx context.Context, query string) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.ddgURL+"?q="+url.QueryEscape(query), nil)
	if err != nil {
		return Result{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := s.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("duckduckgo request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Result{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Result{}, &reliability.StatusError{Code: resp.StatusCode, Body: string(body)}
	}

	results, err := ParseResults(string(body), 1)
	if err != nil {
		return Result{}, reliability.Permanent(err)
	}
	if len(results) == 0 {
		return Result{}, reliability.Permanent(tools.ErrNotFound)
	}
	return results[0], nil
}

// ParseResults extracts up to max result links from a DuckDuckGo HTML
// results page.
func ParseResults(doc string, max int) ([]Result, error) {
	root, err := markup.Parse(doc)
	if err != nil {
		return nil, fmt.Errorf("parse results page: %w", err)
	}
	var results []Result
	for _, link := range markup.FindAll(root, 0, func(n *html.Node) bool {
		return markup.Element("a")(n) && markup.HasClass(n, "result__a")
	}) {
		r := Result{Title: markup.Text(link), URL: decodeRedirect(markup.Attr(link, "href"))}
		if r.Title == "" || r.URL == "" {
			continue
		}
		results = append(results, r)
		if max > 0 && len(results) == max {
			break
		}
	}
	return results, nil
}

// decodeRedirect unwraps "//duckduckgo.com/l/?uddg=<target>&rut=..." links.
func decodeRedirect(href string) string {
	const prefix = "//duckduckgo.com/l/?uddg="
	if !strings.HasPrefix(href, prefix) {
		return href
	}
	raw := strings.TrimPrefix(href, prefix)
	if idx := strings.Index(raw, "&"); idx > 0 {
		raw = raw[:idx]
	}
	decoded, err := url.QueryUnescape(raw)
	if err != nil {
		return href
	}
	return decoded
}
