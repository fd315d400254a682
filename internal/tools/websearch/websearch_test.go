package websearch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antoniostano/rin/internal/reliability"
	"github.com/antoniostano/rin/internal/tools"
)

const resultsPage = `<html><body>
<div class="result results_links">
  <a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fgo.dev%2Fdoc%2F&amp;rut=abc">The Go <b>Programming</b> Language</a>
  <a class="result__snippet">Docs</a>
</div>
<div class="result results_links">
  <a class="result__a" href="https://example.com/second">Second</a>
</div>
</body></html>`

type recordingOpener struct {
	urls []string
	err  error
}

func (o *recordingOpener) Open(_ context.Context, url string) error {
	o.urls = append(o.urls, url)
	return o.err
}

func TestParseResultsDecodesRedirects(t *testing.T) {
	results, err := ParseResults(resultsPage, 0)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, Result{Title: "The Go Programming Language", URL: "https://go.dev/doc/"}, results[0])
	assert.Equal(t, "https://example.com/second", results[1].URL)
}

func TestSearchSummarizesFirstResultAndOpensGoogle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "golang docs", r.URL.Query().Get("q"))
		assert.Contains(t, r.Header.Get("User-Agent"), "Mozilla/5.0")
		_, _ = w.Write([]byte(resultsPage))
	}))
	defer srv.Close()

	opener := &recordingOpener{err: tools.ErrUnavailable}
	s := New(Options{HTTPClient: srv.Client(), DuckDuckGoURL: srv.URL, Opener: opener})

	got, err := s.Search(context.Background(), "golang docs")
	require.NoError(t, err)
	assert.Equal(t, "The Go Programming Language\nLink: https://go.dev/doc/", got)
	assert.Equal(t, []string{"https://www.google.com/search?q=golang+docs"}, opener.urls)
}

func TestSearchNoResultsIsNotFoundWithoutRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte("<html><body>No results.</body></html>"))
	}))
	defer srv.Close()

	s := New(Options{HTTPClient: srv.Client(), DuckDuckGoURL: srv.URL})
	_, err := s.Search(context.Background(), "qwzx")
	assert.ErrorIs(t, err, tools.ErrNotFound)
	assert.EqualValues(t, 1, calls.Load())
}

func TestSearchRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(resultsPage))
	}))
	defer srv.Close()

	s := New(Options{HTTPClient: srv.Client(), DuckDuckGoURL: srv.URL})
	_, err := s.Search(context.Background(), "go")
	require.NoError(t, err)
	assert.EqualValues(t, 2, calls.Load())
}

func TestSearchReportsClientErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	s := New(Options{HTTPClient: srv.Client(), DuckDuckGoURL: srv.URL})
	_, err := s.Search(context.Background(), "go")
	var se *reliability.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusForbidden, se.Code)
}
