package brain

import (
	"context"
	"fmt"
	"strings"
)

// MockAdapter provides deterministic local replies.
type MockAdapter struct{}

func NewMockAdapter() *MockAdapter { return &MockAdapter{} }

func (a *MockAdapter) Generate(ctx context.Context, req Request) (Response, error) {
	select {
	case <-ctx.Done():
		return Response{}, ctx.Err()
	default:
	}

	base := strings.TrimSpace(req.InputText)
	if base == "" {
		base = "nothing"
	}
	return Response{Text: fmt.Sprintf("I heard you: %s", base)}, nil
}
