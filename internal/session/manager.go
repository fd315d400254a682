// Package session tracks the single active conversation and ends it on
// request or after inactivity.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Manager holds at most one conversation. Starting a new one ends the
// previous one.
type Manager struct {
	mu                sync.Mutex
	current           *Session
	inactivityTimeout time.Duration
	now               func() time.Time
	onEnd             func(Session)
}

func NewManager(inactivityTimeout time.Duration) *Manager {
	if inactivityTimeout <= 0 {
		inactivityTimeout = 30 * time.Minute
	}
	return &Manager{
		inactivityTimeout: inactivityTimeout,
		now:               func() time.Time { return time.Now().UTC() },
	}
}

// InactivityTimeout is the idle time after which the janitor ends the
// conversation.
func (m *Manager) InactivityTimeout() time.Duration { return m.inactivityTimeout }

// SetEndHook registers a callback run, outside the lock, whenever a
// conversation ends for any reason.
func (m *Manager) SetEndHook(hook func(Session)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onEnd = hook
}

// Start opens a new conversation.
func (m *Manager) Start() Session {
	now := m.now()
	s := &Session{
		ID:             uuid.NewString(),
		Status:         StatusActive,
		StartedAt:      now,
		LastActivityAt: now,
	}

	m.mu.Lock()
	replaced, hadActive := m.endLocked(ReasonReplaced)
	m.current = s
	hook := m.onEnd
	m.mu.Unlock()

	if hadActive && hook != nil {
		hook(replaced)
	}
	return *s
}

// Current returns the latest conversation, active or ended.
func (m *Manager) Current() (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return Session{}, ErrNotFound
	}
	return *m.current, nil
}

// Active returns the active conversation, starting one when there is none.
func (m *Manager) Active() (Session, bool) {
	m.mu.Lock()
	if m.current != nil && m.current.Status == StatusActive {
		s := *m.current
		m.mu.Unlock()
		return s, false
	}
	m.mu.Unlock()
	return m.Start(), true
}

// RecordTurn counts a turn against sessionID and refreshes its activity
// time.
func (m *Manager) RecordTurn(sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil || m.current.ID != sessionID {
		return ErrNotFound
	}
	if m.current.Status != StatusActive {
		return ErrEnded
	}
	m.current.Turns++
	m.current.LastActivityAt = m.now()
	return nil
}

// End closes sessionID with reason.
func (m *Manager) End(sessionID, reason string) (Session, error) {
	m.mu.Lock()
	if m.current == nil || m.current.ID != sessionID {
		m.mu.Unlock()
		return Session{}, ErrNotFound
	}
	if m.current.Status != StatusActive {
		s := *m.current
		m.mu.Unlock()
		return s, ErrEnded
	}
	ended, _ := m.endLocked(reason)
	hook := m.onEnd
	m.mu.Unlock()

	if hook != nil {
		hook(ended)
	}
	return ended, nil
}

// EndCurrent closes whatever conversation is active.
func (m *Manager) EndCurrent(reason string) (Session, bool) {
	m.mu.Lock()
	ended, ok := m.endLocked(reason)
	hook := m.onEnd
	m.mu.Unlock()

	if ok && hook != nil {
		hook(ended)
	}
	return ended, ok
}

func (m *Manager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil && m.current.Status == StatusActive {
		return 1
	}
	return 0
}

// RunJanitor ends the conversation after InactivityTimeout of idleness. It
// blocks until ctx is done.
func (m *Manager) RunJanitor(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.expireInactive()
		}
	}
}

func (m *Manager) expireInactive() {
	m.mu.Lock()
	if m.current == nil || m.current.Status != StatusActive || m.now().Sub(m.current.LastActivityAt) < m.inactivityTimeout {
		m.mu.Unlock()
		return
	}
	ended, _ := m.endLocked(ReasonInactivity)
	hook := m.onEnd
	m.mu.Unlock()

	if hook != nil {
		hook(ended)
	}
}

func (m *Manager) endLocked(reason string) (Session, bool) {
	if m.current == nil || m.current.Status != StatusActive {
		return Session{}, false
	}
	m.current.Status = StatusEnded
	m.current.EndReason = reason
	m.current.LastActivityAt = m.now()
	return *m.current, true
}
