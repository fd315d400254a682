package memory

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	ErrNoPreferences        = errors.New("memory: no preferences recorded")
	ErrSuggestionsExhausted = errors.New("memory: every preference was already suggested")
)

var ownerPrompts = []string{
	"Hi, I'm Rin. What's your name?",
	"Hi, I'm Rin. What should I call you?",
	"Hi, I'm Rin. I don't know your name yet; tell me who I'm supposed to bother.",
	"Hi, I'm Rin. Tell me your name already.",
	"Hi, I'm Rin. Who are you? Tell me your name.",
}

// Options configures a Store.
type Options struct {
	// MaxHistory is the number of exchanges kept; 2*MaxHistory turns.
	MaxHistory int
	// Kinds is the exact key set of the command counters.
	Kinds          []string
	Logger         *zap.Logger
	OnPersistError func(error)
	Now            func() time.Time
}

// Store owns the ConversationState. Every durable mutation is flushed to the
// storage before the call returns; write failures are logged and the
// in-memory state stays authoritative.
type Store struct {
	mu      sync.Mutex
	state   ConversationState
	storage Storage

	maxHistory     int
	kinds          map[string]struct{}
	logger         *zap.Logger
	onPersistError func(error)
	now            func() time.Time
}

// Open loads the state from storage. A missing or corrupt document yields an
// empty conversation.
func Open(ctx context.Context, storage Storage, opts Options) (*Store, error) {
	if storage == nil {
		storage = NewInMemoryStorage()
	}
	if opts.MaxHistory <= 0 {
		opts.MaxHistory = 5
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Store{
		storage:        storage,
		maxHistory:     opts.MaxHistory,
		kinds:          make(map[string]struct{}, len(opts.Kinds)),
		logger:         opts.Logger,
		onPersistError: opts.OnPersistError,
		now:            opts.Now,
	}
	for _, k := range opts.Kinds {
		s.kinds[k] = struct{}{}
	}

	state, err := storage.Load(ctx)
	switch {
	case errors.Is(err, ErrCorruptState):
		s.logger.Warn("conversation state unreadable, starting empty", zap.Error(err))
		state = ConversationState{}
	case err != nil:
		return nil, fmt.Errorf("load conversation state: %w", err)
	}
	s.state = s.normalize(state)
	return s, nil
}

func (s *Store) normalize(in ConversationState) ConversationState {
	out := ConversationState{
		OwnerName:          strings.TrimSpace(in.OwnerName),
		Turns:              s.bound(in.Turns),
		Preferences:        dedupe(in.Preferences),
		Favorites:          dedupe(in.Favorites),
		PendingSuggestions: append([]string(nil), in.PendingSuggestions...),
		CommandCounts:      make(map[string]int, len(s.kinds)),
		Transient:          make(map[string]any),
	}
	for k := range s.kinds {
		if n := in.CommandCounts[k]; n > 0 {
			out.CommandCounts[k] = n
		} else {
			out.CommandCounts[k] = 0
		}
	}
	return out
}

func (s *Store) bound(turns []Turn) []Turn {
	limit := 2 * s.maxHistory
	if len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	return append([]Turn(nil), turns...)
}

func dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		it = strings.TrimSpace(it)
		if it == "" {
			continue
		}
		if _, ok := seen[it]; ok {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
	}
	return out
}

// persist must be called with s.mu held.
func (s *Store) persist(ctx context.Context) {
	if err := s.storage.Save(ctx, s.state.clone()); err != nil {
		s.logger.Error("persist conversation state", zap.Error(err))
		if s.onPersistError != nil {
			s.onPersistError(err)
		}
	}
}

func (s *Store) timestamp() float64 {
	return float64(s.now().UnixNano()) / 1e9
}

// AppendTurn records one turn, evicting the oldest beyond 2*MaxHistory.
func (s *Store) AppendTurn(ctx context.Context, speaker Speaker, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendLocked(speaker, text)
	s.persist(ctx)
}

// AppendExchange records a user turn followed by the assistant's reply with
// a single flush.
func (s *Store) AppendExchange(ctx context.Context, userText, assistantText string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendLocked(SpeakerUser, userText)
	s.appendLocked(SpeakerAssistant, assistantText)
	s.persist(ctx)
}

func (s *Store) appendLocked(speaker Speaker, text string) {
	s.state.Turns = append(s.state.Turns, Turn{Speaker: speaker, Text: text, Timestamp: s.timestamp()})
	if limit := 2 * s.maxHistory; len(s.state.Turns) > limit {
		s.state.Turns = append([]Turn(nil), s.state.Turns[len(s.state.Turns)-limit:]...)
	}
}

// History returns the most recent n turns in chronological order. n <= 0
// returns every retained turn.
func (s *Store) History(n int) []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	turns := s.state.Turns
	if n > 0 && n < len(turns) {
		turns = turns[len(turns)-n:]
	}
	return append([]Turn(nil), turns...)
}

func (s *Store) MaxHistory() int { return s.maxHistory }

func (s *Store) Owner() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.OwnerName, s.state.OwnerName != ""
}

func (s *Store) SetOwner(ctx context.Context, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.OwnerName = strings.TrimSpace(name)
	s.persist(ctx)
}

// OwnerPrompt returns a question asking for the owner's name, or "" when the
// name is already known.
func (s *Store) OwnerPrompt(rng *rand.Rand) string {
	if _, ok := s.Owner(); ok {
		return ""
	}
	return ownerPrompts[rng.Intn(len(ownerPrompts))]
}

// IncrementCommand bumps the counter for kind. Unknown kinds are ignored.
func (s *Store) IncrementCommand(ctx context.Context, kind string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.kinds[kind]; !ok {
		return false
	}
	s.state.CommandCounts[kind]++
	s.persist(ctx)
	return true
}

func (s *Store) CommandCount(kind string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.CommandCounts[kind]
}

// TopCommands returns up to n used commands, most frequent first.
func (s *Store) TopCommands(n int) []CommandCount {
	s.mu.Lock()
	out := make([]CommandCount, 0, len(s.state.CommandCounts))
	for k, v := range s.state.CommandCounts {
		if v > 0 {
			out = append(out, CommandCount{Kind: k, Count: v})
		}
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Kind < out[j].Kind
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func (s *Store) AddPreference(ctx context.Context, category string) bool {
	return s.addToSet(ctx, &s.state.Preferences, category)
}

func (s *Store) AddFavorite(ctx context.Context, item string) bool {
	return s.addToSet(ctx, &s.state.Favorites, item)
}

func (s *Store) addToSet(ctx context.Context, set *[]string, item string) bool {
	item = strings.TrimSpace(item)
	if item == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range *set {
		if existing == item {
			return false
		}
	}
	*set = append(*set, item)
	s.persist(ctx)
	return true
}

func (s *Store) Preferences() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.state.Preferences...)
}

func (s *Store) Favorites() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.state.Favorites...)
}

// SuggestRecommendation returns the first preference that has not been
// suggested yet and remembers it as suggested.
func (s *Store) SuggestRecommendation(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.state.Preferences) == 0 {
		return "", ErrNoPreferences
	}
	done := make(map[string]struct{}, len(s.state.PendingSuggestions))
	for _, p := range s.state.PendingSuggestions {
		done[p] = struct{}{}
	}
	for _, p := range s.state.Preferences {
		if _, ok := done[p]; ok {
			continue
		}
		s.state.PendingSuggestions = append(s.state.PendingSuggestions, p)
		s.persist(ctx)
		return p, nil
	}
	return "", ErrSuggestionsExhausted
}

// SetTransient stores scratch state for a later turn, overwriting any
// previous value under key.
func (s *Store) SetTransient(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Transient[key] = value
}

func (s *Store) Transient(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.state.Transient[key]
	return v, ok
}

// TakeTransient returns and removes the value under key.
func (s *Store) TakeTransient(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.state.Transient[key]
	delete(s.state.Transient, key)
	return v, ok
}

func (s *Store) DeleteTransient(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.state.Transient, key)
}

func (s *Store) ClearTransient() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Transient = make(map[string]any)
}

// Reset wipes the whole conversation, owner name included.
func (s *Store) Reset(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = s.normalize(ConversationState{})
	s.persist(ctx)
}

// Snapshot returns a deep copy of the durable state.
func (s *Store) Snapshot() ConversationState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

func (s *Store) Close() error {
	return s.storage.Close()
}
