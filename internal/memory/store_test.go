package memory

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

var testKinds = []string{"calculate", "media_search", "music_play", "web_search"}

type failingStorage struct {
	InMemoryStorage
	err error
}

func (f *failingStorage) Save(context.Context, ConversationState) error { return f.err }

type corruptStorage struct{ InMemoryStorage }

func (*corruptStorage) Load(context.Context) (ConversationState, error) {
	return ConversationState{}, fmt.Errorf("%w: bad json", ErrCorruptState)
}

func openTestStore(t *testing.T, storage Storage) *Store {
	t.Helper()
	clock := time.Unix(1700000000, 0)
	s, err := Open(context.Background(), storage, Options{
		MaxHistory: 5,
		Kinds:      testKinds,
		Now: func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		},
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return s
}

func TestHistoryBoundEvictsOldestFirst(t *testing.T) {
	s := openTestStore(t, NewInMemoryStorage())
	ctx := context.Background()
	for i := 1; i <= 13; i++ {
		s.AppendTurn(ctx, SpeakerUser, fmt.Sprintf("turn %d", i))
	}

	turns := s.History(0)
	if len(turns) != 10 {
		t.Fatalf("len(History) = %d, want 10", len(turns))
	}
	if turns[0].Text != "turn 4" {
		t.Fatalf("oldest turn = %q, want %q", turns[0].Text, "turn 4")
	}
	if turns[9].Text != "turn 13" {
		t.Fatalf("newest turn = %q, want %q", turns[9].Text, "turn 13")
	}
	for _, tr := range turns {
		for _, gone := range []string{"turn 1", "turn 2", "turn 3"} {
			if tr.Text == gone {
				t.Fatalf("%q should have been evicted", gone)
			}
		}
	}
}

func TestAppendExchangeFlushesOnce(t *testing.T) {
	storage := NewInMemoryStorage()
	s := openTestStore(t, storage)
	s.AppendExchange(context.Background(), "hi", "hello")

	if storage.Saves() != 1 {
		t.Fatalf("Saves() = %d, want 1", storage.Saves())
	}
	saved, _ := storage.Load(context.Background())
	if len(saved.Turns) != 2 || saved.Turns[0].Speaker != SpeakerUser || saved.Turns[1].Speaker != SpeakerAssistant {
		t.Fatalf("saved turns = %+v", saved.Turns)
	}
	if saved.Turns[0].Timestamp >= saved.Turns[1].Timestamp {
		t.Fatalf("timestamps not increasing: %v", saved.Turns)
	}
}

func TestHistoryLimit(t *testing.T) {
	s := openTestStore(t, NewInMemoryStorage())
	ctx := context.Background()
	s.AppendExchange(ctx, "a", "b")
	s.AppendExchange(ctx, "c", "d")

	got := s.History(3)
	want := []string{"b", "c", "d"}
	for i := range want {
		if got[i].Text != want[i] {
			t.Fatalf("History(3)[%d] = %q, want %q", i, got[i].Text, want[i])
		}
	}
}

func TestCommandCountsOnlyKnownKinds(t *testing.T) {
	s := openTestStore(t, NewInMemoryStorage())
	ctx := context.Background()
	if !s.IncrementCommand(ctx, "calculate") {
		t.Fatalf("IncrementCommand(calculate) = false")
	}
	s.IncrementCommand(ctx, "calculate")
	s.IncrementCommand(ctx, "web_search")
	if s.IncrementCommand(ctx, "dance") {
		t.Fatalf("IncrementCommand(dance) = true, want false")
	}

	snap := s.Snapshot()
	if len(snap.CommandCounts) != len(testKinds) {
		t.Fatalf("command_counts keys = %v, want %v", snap.CommandCounts, testKinds)
	}
	top := s.TopCommands(3)
	want := []CommandCount{{Kind: "calculate", Count: 2}, {Kind: "web_search", Count: 1}}
	if diff := cmp.Diff(want, top); diff != "" {
		t.Fatalf("TopCommands mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadDropsUnknownCommandKinds(t *testing.T) {
	storage := NewInMemoryStorage()
	_ = storage.Save(context.Background(), ConversationState{
		OwnerName:     "Ana",
		CommandCounts: map[string]int{"calculate": 4, "legacy": 9},
		Preferences:   []string{"rock", "rock", "jazz"},
	})
	s := openTestStore(t, storage)

	snap := s.Snapshot()
	if _, ok := snap.CommandCounts["legacy"]; ok {
		t.Fatalf("legacy kind survived load")
	}
	if snap.CommandCounts["calculate"] != 4 {
		t.Fatalf("calculate = %d, want 4", snap.CommandCounts["calculate"])
	}
	if diff := cmp.Diff([]string{"rock", "jazz"}, snap.Preferences); diff != "" {
		t.Fatalf("preferences mismatch (-want +got):\n%s", diff)
	}
	if owner, ok := s.Owner(); !ok || owner != "Ana" {
		t.Fatalf("Owner() = %q, %v; want Ana, true", owner, ok)
	}
}

func TestCorruptStateStartsEmpty(t *testing.T) {
	s := openTestStore(t, &corruptStorage{})
	if got := len(s.History(0)); got != 0 {
		t.Fatalf("len(History) = %d, want 0", got)
	}
}

func TestPersistFailureKeepsMemoryState(t *testing.T) {
	var reported error
	storage := &failingStorage{err: errors.New("disk full")}
	s, err := Open(context.Background(), storage, Options{
		MaxHistory:     5,
		Kinds:          testKinds,
		OnPersistError: func(err error) { reported = err },
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	s.AppendExchange(context.Background(), "hi", "hello")
	if reported == nil {
		t.Fatalf("persist error not reported")
	}
	if got := len(s.History(0)); got != 2 {
		t.Fatalf("len(History) = %d, want 2", got)
	}
}

func TestTransientIsSingleSlotAndNotPersisted(t *testing.T) {
	storage := NewInMemoryStorage()
	s := openTestStore(t, storage)
	s.SetTransient(KeyPendingPlaybackQuery, "first")
	s.SetTransient(KeyPendingPlaybackQuery, "second")

	v, ok := s.TakeTransient(KeyPendingPlaybackQuery)
	if !ok || v != "second" {
		t.Fatalf("TakeTransient = %v, %v; want second, true", v, ok)
	}
	if _, ok := s.Transient(KeyPendingPlaybackQuery); ok {
		t.Fatalf("slot still set after TakeTransient")
	}

	s.SetTransient(KeyLastSearchResults, []string{"x"})
	s.AppendTurn(context.Background(), SpeakerUser, "hi")
	reopened := openTestStore(t, storage)
	if _, ok := reopened.Transient(KeyLastSearchResults); ok {
		t.Fatalf("transient state was persisted")
	}
}

func TestSuggestRecommendation(t *testing.T) {
	s := openTestStore(t, NewInMemoryStorage())
	ctx := context.Background()

	if _, err := s.SuggestRecommendation(ctx); !errors.Is(err, ErrNoPreferences) {
		t.Fatalf("err = %v, want ErrNoPreferences", err)
	}
	s.AddPreference(ctx, "anime")
	if s.AddPreference(ctx, "anime") {
		t.Fatalf("duplicate preference accepted")
	}
	s.AddPreference(ctx, "jazz")

	for _, want := range []string{"anime", "jazz"} {
		got, err := s.SuggestRecommendation(ctx)
		if err != nil || got != want {
			t.Fatalf("SuggestRecommendation() = %q, %v; want %q", got, err, want)
		}
	}
	if _, err := s.SuggestRecommendation(ctx); !errors.Is(err, ErrSuggestionsExhausted) {
		t.Fatalf("err = %v, want ErrSuggestionsExhausted", err)
	}
}

func TestOwnerPromptAndReset(t *testing.T) {
	s := openTestStore(t, NewInMemoryStorage())
	ctx := context.Background()
	rng := rand.New(rand.NewSource(1))

	if s.OwnerPrompt(rng) == "" {
		t.Fatalf("OwnerPrompt() empty with unknown owner")
	}
	s.SetOwner(ctx, "  Ana ")
	if got := s.OwnerPrompt(rng); got != "" {
		t.Fatalf("OwnerPrompt() = %q, want empty", got)
	}
	s.AppendExchange(ctx, "a", "b")
	s.IncrementCommand(ctx, "calculate")
	s.SetTransient(KeyPendingPlaybackQuery, "x")

	s.Reset(ctx)
	snap := s.Snapshot()
	if snap.OwnerName != "" || len(snap.Turns) != 0 || snap.CommandCounts["calculate"] != 0 {
		t.Fatalf("state after Reset = %+v", snap)
	}
	if _, ok := s.Transient(KeyPendingPlaybackQuery); ok {
		t.Fatalf("transient survived Reset")
	}
}
