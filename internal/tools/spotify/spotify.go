// Package spotify starts playback through the Spotify Web API.
package spotify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"

	"github.com/antoniostano/rin/internal/reliability"
	"github.com/antoniostano/rin/internal/tools"
)

const (
	defaultAPIBase  = "https://api.spotify.com"
	defaultTokenURL = "https://accounts.spotify.com/api/token"
	defaultAuthURL  = "https://accounts.spotify.com/authorize"
)

// Scopes the refresh token must carry.
var Scopes = []string{"user-read-playback-state", "user-modify-playback-state"}

type Credentials struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	// TokenURL overrides the accounts service endpoint.
	TokenURL string
}

// Configured reports whether all three credentials are present.
func (c Credentials) Configured() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.RefreshToken != ""
}

type Client struct {
	http    *http.Client
	apiBase string
}

// New returns a client that refreshes its access token from the stored
// refresh token as needed. ctx scopes the token refresh requests.
func New(ctx context.Context, creds Credentials) (*Client, error) {
	if !creds.Configured() {
		return nil, fmt.Errorf("%w: spotify credentials missing", tools.ErrUnavailable)
	}
	tokenURL := creds.TokenURL
	if tokenURL == "" {
		tokenURL = defaultTokenURL
	}
	cfg := &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		Scopes:       Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   defaultAuthURL,
			TokenURL:  tokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}
	src := cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: creds.RefreshToken})
	return NewWithHTTPClient(oauth2.NewClient(ctx, src), ""), nil
}

// NewWithHTTPClient uses an already authorized client. An empty apiBase
// selects the public API.
func NewWithHTTPClient(client *http.Client, apiBase string) *Client {
	if apiBase == "" {
		apiBase = defaultAPIBase
	}
	return &Client{http: client, apiBase: strings.TrimRight(apiBase, "/")}
}

type catalogItem struct {
	Name string `json:"name"`
	URI  string `json:"uri"`
}

type page struct {
	// Playlist pages can contain null entries.
	Items []*catalogItem `json:"items"`
}

type searchResponse struct {
	Tracks    *page `json:"tracks"`
	Albums    *page `json:"albums"`
	Playlists *page `json:"playlists"`
	Artists   *page `json:"artists"`
}

type playRequest struct {
	URIs       []string `json:"uris,omitempty"`
	ContextURI string   `json:"context_uri,omitempty"`
}

type apiError struct {
	Error struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
		Reason  string `json:"reason"`
	} `json:"error"`
}

// Play searches for the best match of kind and starts it on the user's
// active device.
func (c *Client) Play(ctx context.Context, kind tools.MusicKind, query string) (string, error) {
	item, err := c.search(ctx, kind, query)
	if err != nil {
		return "", err
	}

	body := playRequest{ContextURI: item.URI}
	if kind == tools.MusicTrack {
		body = playRequest{URIs: []string{item.URI}}
	}
	if err := c.do(ctx, http.MethodPut, "/v1/me/player/play", body, nil); err != nil {
		return "", err
	}
	return fmt.Sprintf("Playing %s %q on Spotify.", kind.Label(), item.Name), nil
}

func (c *Client) search(ctx context.Context, kind tools.MusicKind, query string) (*catalogItem, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("type", string(kind))
	q.Set("limit", "1")

	var resp searchResponse
	if err := c.do(ctx, http.MethodGet, "/v1/search?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	var p *page
	switch kind {
	case tools.MusicTrack:
		p = resp.Tracks
	case tools.MusicAlbum:
		p = resp.Albums
	case tools.MusicPlaylist:
		p = resp.Playlists
	case tools.MusicArtist:
		p = resp.Artists
	default:
		return nil, fmt.Errorf("unsupported music kind %q", kind)
	}
	if p == nil {
		return nil, tools.ErrNotFound
	}
	for _, item := range p.Items {
		if item != nil && item.URI != "" {
			return item, nil
		}
	}
	return nil, tools.ErrNotFound
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.apiBase+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("spotify %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr apiError
		_ = json.Unmarshal(raw, &apiErr)
		if apiErr.Error.Reason == "NO_ACTIVE_DEVICE" || (resp.StatusCode == http.StatusNotFound && strings.Contains(path, "/me/player")) {
			return tools.ErrNoActiveDevice
		}
		return &reliability.StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(apiErr.Error.Message)}
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
