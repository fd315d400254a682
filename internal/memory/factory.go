package memory

import (
	"context"
	"strings"
)

// NewStorage creates a postgres-backed storage when a database URL is
// configured, a JSON file when a path is set, otherwise in-memory.
func NewStorage(ctx context.Context, databaseURL, path, profileID string) (Storage, error) {
	if strings.TrimSpace(databaseURL) != "" {
		if strings.TrimSpace(profileID) == "" {
			profileID = "default"
		}
		return NewPostgresStorage(ctx, databaseURL, profileID)
	}
	if strings.TrimSpace(path) != "" {
		return NewFileStorage(path), nil
	}
	return NewInMemoryStorage(), nil
}
