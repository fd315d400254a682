package memory

import (
	"context"
	"errors"
)

// Speaker identifies who produced a turn.
type Speaker string

const (
	SpeakerUser      Speaker = "user"
	SpeakerAssistant Speaker = "assistant"
)

// Transient keys shared between the dispatcher and the orchestrator.
const (
	KeyLastSearchResults    = "last_search_results"
	KeyPendingPlaybackQuery = "pending_playback_query"
)

// ErrCorruptState is returned by storages when the persisted document cannot
// be decoded. The store treats it as an empty conversation.
var ErrCorruptState = errors.New("memory: corrupt conversation state")

// Turn stores a single user or assistant utterance. Timestamp is unix
// seconds with fractional part.
type Turn struct {
	Speaker   Speaker `json:"speaker"`
	Text      string  `json:"text"`
	Timestamp float64 `json:"timestamp"`
}

// ConversationState is the persisted root of the assistant's memory.
// Transient is turn-scoped scratch and is never serialized.
type ConversationState struct {
	OwnerName          string         `json:"owner_name,omitempty"`
	Turns              []Turn         `json:"turns"`
	Preferences        []string       `json:"preferences"`
	Favorites          []string       `json:"favorites"`
	PendingSuggestions []string       `json:"pending_suggestions"`
	CommandCounts      map[string]int `json:"command_counts"`
	Transient          map[string]any `json:"-"`
}

// CommandCount pairs a command kind with its usage count.
type CommandCount struct {
	Kind  string `json:"kind"`
	Count int    `json:"count"`
}

// Storage loads and saves the full conversation state.
type Storage interface {
	Load(ctx context.Context) (ConversationState, error)
	Save(ctx context.Context, state ConversationState) error
	Close() error
}

func (s ConversationState) clone() ConversationState {
	out := ConversationState{
		OwnerName:          s.OwnerName,
		Turns:              append([]Turn(nil), s.Turns...),
		Preferences:        append([]string(nil), s.Preferences...),
		Favorites:          append([]string(nil), s.Favorites...),
		PendingSuggestions: append([]string(nil), s.PendingSuggestions...),
		CommandCounts:      make(map[string]int, len(s.CommandCounts)),
	}
	for k, v := range s.CommandCounts {
		out.CommandCounts[k] = v
	}
	return out
}
