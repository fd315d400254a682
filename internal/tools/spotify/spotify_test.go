package spotify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antoniostano/rin/internal/reliability"
	"github.com/antoniostano/rin/internal/tools"
)

type fakeAPI struct {
	search    string
	playCode  int
	playBody  string
	plays     []playRequest
	authSeen  []string
	searchHit func(r *http.Request)
}

func (f *fakeAPI) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/search", func(w http.ResponseWriter, r *http.Request) {
		f.authSeen = append(f.authSeen, r.Header.Get("Authorization"))
		if f.searchHit != nil {
			f.searchHit(r)
		}
		_, _ = w.Write([]byte(f.search))
	})
	mux.HandleFunc("/v1/me/player/play", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("play method = %s, want PUT", r.Method)
		}
		var body playRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode play body: %v", err)
		}
		f.plays = append(f.plays, body)
		if f.playCode != 0 {
			w.WriteHeader(f.playCode)
			_, _ = w.Write([]byte(f.playBody))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}

func TestPlayTrackUsesURIs(t *testing.T) {
	api := &fakeAPI{search: `{"tracks":{"items":[{"name":"Shape of You","uri":"spotify:track:1"}]}}`}
	api.searchHit = func(r *http.Request) {
		assert.Equal(t, "shape of you", r.URL.Query().Get("q"))
		assert.Equal(t, "track", r.URL.Query().Get("type"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
	}
	srv := httptest.NewServer(api.handler(t))
	defer srv.Close()

	c := NewWithHTTPClient(srv.Client(), srv.URL)
	msg, err := c.Play(context.Background(), tools.MusicTrack, "shape of you")
	require.NoError(t, err)
	assert.Equal(t, `Playing song "Shape of You" on Spotify.`, msg)
	require.Len(t, api.plays, 1)
	assert.Equal(t, []string{"spotify:track:1"}, api.plays[0].URIs)
	assert.Empty(t, api.plays[0].ContextURI)
}

func TestPlayPlaylistSkipsNullItemsAndUsesContext(t *testing.T) {
	api := &fakeAPI{search: `{"playlists":{"items":[null,{"name":"Focus","uri":"spotify:playlist:9"}]}}`}
	srv := httptest.NewServer(api.handler(t))
	defer srv.Close()

	c := NewWithHTTPClient(srv.Client(), srv.URL)
	_, err := c.Play(context.Background(), tools.MusicPlaylist, "focus")
	require.NoError(t, err)
	require.Len(t, api.plays, 1)
	assert.Equal(t, "spotify:playlist:9", api.plays[0].ContextURI)
}

func TestPlayNotFound(t *testing.T) {
	api := &fakeAPI{search: `{"albums":{"items":[]}}`}
	srv := httptest.NewServer(api.handler(t))
	defer srv.Close()

	c := NewWithHTTPClient(srv.Client(), srv.URL)
	_, err := c.Play(context.Background(), tools.MusicAlbum, "nothing")
	assert.ErrorIs(t, err, tools.ErrNotFound)
	assert.Empty(t, api.plays)
}

func TestPlayWithoutActiveDevice(t *testing.T) {
	api := &fakeAPI{
		search:   `{"artists":{"items":[{"name":"Queen","uri":"spotify:artist:q"}]}}`,
		playCode: http.StatusNotFound,
		playBody: `{"error":{"status":404,"message":"Player command failed: No active device found","reason":"NO_ACTIVE_DEVICE"}}`,
	}
	srv := httptest.NewServer(api.handler(t))
	defer srv.Close()

	c := NewWithHTTPClient(srv.Client(), srv.URL)
	_, err := c.Play(context.Background(), tools.MusicArtist, "queen")
	assert.ErrorIs(t, err, tools.ErrNoActiveDevice)
}

func TestPlayReportsUpstreamStatus(t *testing.T) {
	api := &fakeAPI{
		search:   `{"tracks":{"items":[{"name":"x","uri":"spotify:track:x"}]}}`,
		playCode: http.StatusForbidden,
		playBody: `{"error":{"status":403,"message":"Premium required"}}`,
	}
	srv := httptest.NewServer(api.handler(t))
	defer srv.Close()

	c := NewWithHTTPClient(srv.Client(), srv.URL)
	_, err := c.Play(context.Background(), tools.MusicTrack, "x")
	var se *reliability.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusForbidden, se.Code)
	assert.Equal(t, "Premium required", se.Body)
}

func TestNewRefreshesAccessToken(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		assert.Equal(t, "stored-refresh", r.PostForm.Get("refresh_token"))
		user, _, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "client", user)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"fresh","token_type":"Bearer","expires_in":3600}`))
	}))
	defer tokenSrv.Close()

	api := &fakeAPI{search: `{"tracks":{"items":[{"name":"a","uri":"spotify:track:a"}]}}`}
	apiSrv := httptest.NewServer(api.handler(t))
	defer apiSrv.Close()

	c, err := New(context.Background(), Credentials{
		ClientID:     "client",
		ClientSecret: "secret",
		RefreshToken: "stored-refresh",
		TokenURL:     tokenSrv.URL,
	})
	require.NoError(t, err)
	c.apiBase = apiSrv.URL

	_, err = c.Play(context.Background(), tools.MusicTrack, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"Bearer fresh"}, api.authSeen)
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(context.Background(), Credentials{ClientID: "id"})
	assert.ErrorIs(t, err, tools.ErrUnavailable)
}
