package brain

import (
	"context"
	"errors"
	"fmt"
)

// FallbackAdapter attempts a primary adapter first and falls back on error.
// Cancellation and deadline errors are returned without trying the fallback.
type FallbackAdapter struct {
	primary  Adapter
	fallback Adapter
}

func NewFallbackAdapter(primary Adapter, fallback Adapter) *FallbackAdapter {
	return &FallbackAdapter{
		primary:  primary,
		fallback: fallback,
	}
}

// Primary returns the preferred adapter used before fallback.
func (a *FallbackAdapter) Primary() Adapter { return a.primary }

// Secondary returns the fallback adapter.
func (a *FallbackAdapter) Secondary() Adapter { return a.fallback }

func (a *FallbackAdapter) Generate(ctx context.Context, req Request) (Response, error) {
	if a.primary == nil {
		if a.fallback != nil {
			return a.fallback.Generate(ctx, req)
		}
		return Response{}, newError(CodeConfig, errors.New("fallback adapter misconfigured"))
	}
	resp, err := a.primary.Generate(ctx, req)
	if err == nil {
		return resp, nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Response{}, err
	}
	if a.fallback == nil {
		return Response{}, err
	}
	fallbackResp, fallbackErr := a.fallback.Generate(ctx, req)
	if fallbackErr != nil {
		return Response{}, &Error{
			Code: Code(fallbackErr),
			Err:  fmt.Errorf("primary adapter error: %w; fallback adapter error: %v", err, fallbackErr),
		}
	}
	return fallbackResp, nil
}
