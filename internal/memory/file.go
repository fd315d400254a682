package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileStorage keeps the conversation as an indented JSON document.
type FileStorage struct {
	path string
}

func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

func (f *FileStorage) Path() string { return f.path }

// Load returns an empty state when the file does not exist yet.
func (f *FileStorage) Load(_ context.Context) (ConversationState, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ConversationState{}, nil
		}
		return ConversationState{}, fmt.Errorf("read %s: %w", f.path, err)
	}
	var state ConversationState
	if err := json.Unmarshal(data, &state); err != nil {
		return ConversationState{}, fmt.Errorf("%w: %s: %v", ErrCorruptState, f.path, err)
	}
	return state, nil
}

// Save overwrites the document through a temp file and rename so a crash
// never leaves a truncated file behind.
func (f *FileStorage) Save(_ context.Context, state ConversationState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".rin-memory-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replace %s: %w", f.path, err)
	}
	return nil
}

func (f *FileStorage) Close() error { return nil }
