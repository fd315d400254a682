// Package translate provides the one-way Spanish/English translators. No
// translator ever fails: on any problem the input comes back unchanged.
package translate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/antoniostano/rin/internal/brain"
	"github.com/antoniostano/rin/internal/tools"
)

type Translator interface {
	Translate(ctx context.Context, text string, dir tools.Direction) string
}

// Identity returns its input.
type Identity struct{}

func (Identity) Translate(_ context.Context, text string, _ tools.Direction) string { return text }

type Config struct {
	// Mode is auto, libretranslate, gemini (any generative model) or off.
	Mode              string
	LibreTranslateURL string
	LibreTranslateKey string
	Timeout           time.Duration
}

// New picks a translator for cfg.Mode. model may be nil. In auto mode
// LibreTranslate wins when configured, then the model, then Identity.
func New(cfg Config, model brain.Adapter, logger *zap.Logger) (Translator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	switch mode {
	case "", "auto":
		if cfg.LibreTranslateURL != "" {
			return NewLibreTranslate(cfg.LibreTranslateURL, cfg.LibreTranslateKey, cfg.Timeout, logger), nil
		}
		if model != nil {
			return NewModelTranslator(model, logger), nil
		}
		return Identity{}, nil
	case "libretranslate":
		if cfg.LibreTranslateURL == "" {
			return nil, fmt.Errorf("libretranslate mode requires LIBRETRANSLATE_URL")
		}
		return NewLibreTranslate(cfg.LibreTranslateURL, cfg.LibreTranslateKey, cfg.Timeout, logger), nil
	case "gemini", "model":
		if model == nil {
			return nil, fmt.Errorf("%s translation requires a generative model", mode)
		}
		return NewModelTranslator(model, logger), nil
	case "off", "none", "identity":
		return Identity{}, nil
	default:
		return nil, fmt.Errorf("unsupported translate mode %q", cfg.Mode)
	}
}

var languageNames = map[string]string{"en": "English", "es": "Spanish"}

// ModelTranslator asks a generative model for a literal translation.
type ModelTranslator struct {
	model  brain.Adapter
	logger *zap.Logger
}

func NewModelTranslator(model brain.Adapter, logger *zap.Logger) *ModelTranslator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ModelTranslator{model: model, logger: logger}
}

func (t *ModelTranslator) Translate(ctx context.Context, text string, dir tools.Direction) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	prompt := fmt.Sprintf(
		"Translate the following text from %s to %s. Reply with the translation only, no quotes or notes.\n\n%s",
		languageNames[dir.Source()], languageNames[dir.Target()], text,
	)
	resp, err := t.model.Generate(ctx, brain.Request{Prompt: prompt, InputText: text})
	if err != nil {
		t.logger.Warn("model translation failed", zap.Stringer("direction", dir), zap.String("code", brain.Code(err)))
		return text
	}
	out := strings.Trim(strings.TrimSpace(resp.Text), "\"")
	if out == "" {
		return text
	}
	return out
}
