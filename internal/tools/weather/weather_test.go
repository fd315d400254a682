package weather

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/antoniostano/rin/internal/reliability"
	"github.com/antoniostano/rin/internal/tools"
)

func TestCurrentFormatsSummary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("q") != "Monterrey,MX" || q.Get("appid") != "key" || q.Get("units") != "metric" || q.Get("lang") != "en" {
			t.Errorf("query = %v", q)
		}
		_, _ = w.Write([]byte(`{"weather":[{"description":"overcast clouds"}],"main":{"temp":22.46,"humidity":60},"wind":{"speed":3.2}}`))
	}))
	defer srv.Close()

	c, err := New("key", "Monterrey,MX", 0, WithEndpoint(srv.URL))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	got, err := c.Current(context.Background())
	if err != nil {
		t.Fatalf("Current() error = %v", err)
	}
	if want := "Overcast clouds, 22.5°C, humidity 60%, wind 3.2 m/s"; got != want {
		t.Fatalf("Current() = %q, want %q", got, want)
	}
}

func TestCurrentRejectsIncompletePayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"weather":[]}`))
	}))
	defer srv.Close()

	c, _ := New("key", "x", 0, WithEndpoint(srv.URL))
	if _, err := c.Current(context.Background()); err == nil {
		t.Fatalf("Current() error = nil, want error")
	}
}

func TestCurrentSurfacesStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"cod":401,"message":"Invalid API key"}`))
	}))
	defer srv.Close()

	c, _ := New("bad", "x", 0, WithEndpoint(srv.URL), WithLanguage("es"))
	_, err := c.Current(context.Background())
	var se *reliability.StatusError
	if !errors.As(err, &se) || se.Code != http.StatusUnauthorized || se.Body != "Invalid API key" {
		t.Fatalf("Current() error = %v, want 401 status error", err)
	}
}

func TestNewRequiresKey(t *testing.T) {
	if _, err := New(" ", "x", 0); !errors.Is(err, tools.ErrUnavailable) {
		t.Fatalf("New() error = %v, want ErrUnavailable", err)
	}
}
