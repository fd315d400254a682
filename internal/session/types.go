package session

import (
	"errors"
	"time"
)

type Status string

const (
	StatusActive Status = "active"
	StatusEnded  Status = "ended"
)

// End reasons.
const (
	ReasonExitPhrase = "exit_phrase"
	ReasonExplicit   = "explicit"
	ReasonInactivity = "inactivity"
	ReasonReplaced   = "replaced"
	ReasonShutdown   = "shutdown"
)

var (
	ErrNotFound = errors.New("session not found")
	ErrEnded    = errors.New("session ended")
)

// Session is the metadata of one conversation with the assistant.
type Session struct {
	ID             string    `json:"session_id"`
	Status         Status    `json:"status"`
	Turns          int       `json:"turns"`
	EndReason      string    `json:"end_reason,omitempty"`
	StartedAt      time.Time `json:"started_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
}

// StartResponse is returned when a conversation is opened.
type StartResponse struct {
	Session
	InactivityTTLMS int64  `json:"inactivity_ttl_ms"`
	Greeting        string `json:"greeting"`
}
