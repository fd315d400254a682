package dispatch

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/antoniostano/rin/internal/intent"
	"github.com/antoniostano/rin/internal/memory"
	"github.com/antoniostano/rin/internal/tools"
)

type fakeCalculator struct{}

func (fakeCalculator) Evaluate(expr string) (string, bool) {
	if expr == "2 + 2" {
		return "4", true
	}
	return expr, false
}

type fakeMedia struct {
	items []tools.MediaItem
	err   error
}

func (f *fakeMedia) Search(context.Context, string) ([]tools.MediaItem, string, error) {
	return f.items, "", f.err
}

type fakePlayer struct {
	played []string
	err    error
}

func (f *fakePlayer) Play(_ context.Context, locator string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.played = append(f.played, locator)
	return "ok", nil
}

type musicCall struct {
	kind  tools.MusicKind
	query string
}

type fakeMusic struct {
	calls []musicCall
	err   error
}

func (f *fakeMusic) Play(_ context.Context, kind tools.MusicKind, query string) (string, error) {
	f.calls = append(f.calls, musicCall{kind, query})
	return "", f.err
}

type fakeTranslator struct{}

func (fakeTranslator) Translate(_ context.Context, text string, dir tools.Direction) string {
	return fmt.Sprintf("[%s] %s", dir.Target(), text)
}

type fakeAgenda struct {
	entries []string
	err     error
}

func (f *fakeAgenda) Add(_ context.Context, d string) error {
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, d)
	return nil
}

func (f *fakeAgenda) List(context.Context) (string, error) {
	return strings.Join(f.entries, "\n"), f.err
}

type fakeWeather struct{}

func (fakeWeather) Current(context.Context) (string, error) {
	return "clear sky, 22.5°C, humidity 60%, wind 3.2 m/s", nil
}

type fakeWeb struct{ summary string }

func (f fakeWeb) Search(context.Context, string) (string, error) { return f.summary, nil }

func newTestDispatcher(t *testing.T, registry Tools) (*Dispatcher, *memory.Store) {
	t.Helper()
	store, err := memory.Open(context.Background(), memory.NewInMemoryStorage(), memory.Options{
		MaxHistory: 5,
		Kinds:      intent.NewDefaultDetector().Kinds(),
	})
	if err != nil {
		t.Fatalf("memory.Open() error = %v", err)
	}
	d := New(store, registry, Options{
		Rand: rand.New(rand.NewSource(7)),
		Now:  func() time.Time { return time.Date(2026, 10, 17, 9, 5, 0, 0, time.Local) },
	})
	return d, store
}

func threeVideos() []tools.MediaItem {
	return []tools.MediaItem{
		{Title: "First", Locator: "https://youtube.test/1"},
		{Title: "Second", Locator: "https://youtube.test/2"},
		{Title: "Third", Locator: "https://youtube.test/3"},
	}
}
