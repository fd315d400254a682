// Package brain provides the generative responder used when no command or
// canned reply matches.
package brain

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Request is the normalized generation request.
type Request struct {
	TurnID string `json:"turn_id,omitempty"`
	// Prompt is the full context: persona, recent exchanges and the new
	// utterance, already in the model's language.
	Prompt    string `json:"prompt"`
	InputText string `json:"input_text"`
}

type Response struct {
	Text string `json:"text"`
}

// Adapter generates a reply for a prompt.
type Adapter interface {
	Generate(ctx context.Context, req Request) (Response, error)
}

// Config controls adapter construction.
type Config struct {
	Mode          string
	HTTPURL       string
	OllamaAPIBase string
	OllamaModel   string
	GeminiAPIKey  string
	GeminiModel   string
	Timeout       time.Duration
}

// NewAdapter builds the adapter for cfg.Mode. Mode "off" returns a nil
// adapter and no error.
func NewAdapter(ctx context.Context, cfg Config) (Adapter, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = "auto"
	}

	switch mode {
	case "off", "none":
		return nil, nil
	case "auto":
		return newAutoAdapter(ctx, cfg)
	case "http":
		if strings.TrimSpace(cfg.HTTPURL) == "" {
			return nil, fmt.Errorf("brain HTTP url is required for http mode")
		}
		return NewHTTPAdapter(cfg.HTTPURL, cfg.Timeout), nil
	case "ollama":
		return NewOllamaAdapter(cfg.OllamaAPIBase, cfg.OllamaModel, cfg.Timeout), nil
	case "gemini":
		return NewGeminiAdapter(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	case "mock":
		return NewMockAdapter(), nil
	default:
		return nil, fmt.Errorf("unsupported brain mode %q", cfg.Mode)
	}
}

// newAutoAdapter prefers Gemini when a key is set, then a custom HTTP
// endpoint; a local Ollama serves as fallback for both and as the default.
func newAutoAdapter(ctx context.Context, cfg Config) (Adapter, error) {
	local := NewOllamaAdapter(cfg.OllamaAPIBase, cfg.OllamaModel, cfg.Timeout)

	if strings.TrimSpace(cfg.GeminiAPIKey) != "" {
		gem, err := NewGeminiAdapter(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err == nil {
			return NewFallbackAdapter(gem, local), nil
		}
	}
	if strings.TrimSpace(cfg.HTTPURL) != "" {
		return NewFallbackAdapter(NewHTTPAdapter(cfg.HTTPURL, cfg.Timeout), local), nil
	}
	return local, nil
}
