package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileStorageRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "memoria_rin.json")
	fs := NewFileStorage(path)
	ctx := context.Background()

	state, err := fs.Load(ctx)
	require.NoError(t, err)
	require.Empty(t, state.Turns)

	in := ConversationState{
		OwnerName:     "Ana",
		Turns:         []Turn{{Speaker: SpeakerUser, Text: "hola", Timestamp: 1.5}},
		CommandCounts: map[string]int{"calculate": 1},
		Transient:     map[string]any{KeyPendingPlaybackQuery: "x"},
	}
	require.NoError(t, fs.Save(ctx, in))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(raw), "\n  \"owner_name\": \"Ana\"")
	require.NotContains(t, string(raw), KeyPendingPlaybackQuery)

	out, err := fs.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, "Ana", out.OwnerName)
	require.Equal(t, in.Turns, out.Turns)
	require.Nil(t, out.Transient)
}

func TestFileStorageCorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memoria_rin.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewFileStorage(path).Load(context.Background())
	require.True(t, errors.Is(err, ErrCorruptState), "err = %v", err)
}

func TestNewStorageSelection(t *testing.T) {
	ctx := context.Background()
	s, err := NewStorage(ctx, "", "", "")
	require.NoError(t, err)
	require.IsType(t, &InMemoryStorage{}, s)

	s, err = NewStorage(ctx, "", filepath.Join(t.TempDir(), "m.json"), "")
	require.NoError(t, err)
	require.IsType(t, &FileStorage{}, s)
}
