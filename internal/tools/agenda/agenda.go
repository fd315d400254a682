// Package agenda keeps timestamped reminders.
package agenda

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

const timestampLayout = "2006-01-02 15:04"

// Entry is one reminder.
type Entry struct {
	At          time.Time
	Description string
}

func (e Entry) String() string {
	return fmt.Sprintf("%s: %s", e.At.Format(timestampLayout), e.Description)
}

// render joins entries one per line; no entries yields "".
func render(entries []Entry) string {
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, e.String())
	}
	return strings.Join(lines, "\n")
}

// Memory is a process-local agenda.
type Memory struct {
	now func() time.Time

	mu      sync.Mutex
	entries []Entry
}

func NewMemory(now func() time.Time) *Memory {
	if now == nil {
		now = time.Now
	}
	return &Memory{now: now}
}

func (m *Memory) Add(_ context.Context, description string) error {
	description = strings.TrimSpace(description)
	if description == "" {
		return fmt.Errorf("empty agenda description")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, Entry{At: m.now(), Description: description})
	return nil
}

func (m *Memory) List(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return render(m.entries), nil
}

func (m *Memory) Close() error { return nil }
