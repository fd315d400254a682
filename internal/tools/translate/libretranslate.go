package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/antoniostano/rin/internal/reliability"
	"github.com/antoniostano/rin/internal/tools"
)

// LibreTranslate calls a LibreTranslate server's /translate endpoint.
type LibreTranslate struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *zap.Logger
}

func NewLibreTranslate(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *LibreTranslate {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LibreTranslate{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type libreRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
	APIKey string `json:"api_key,omitempty"`
}

type libreResponse struct {
	TranslatedText string `json:"translatedText"`
	Error          string `json:"error"`
}

func (l *LibreTranslate) Translate(ctx context.Context, text string, dir tools.Direction) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	var out string
	err := reliability.Retry(ctx, 2, 200*time.Millisecond, time.Second, func(ctx context.Context) error {
		var err error
		out, err = l.translate(ctx, text, dir)
		return err
	})
	if err != nil {
		l.logger.Warn("libretranslate failed", zap.Stringer("direction", dir), zap.Error(err))
		return text
	}
	return out
}

func (l *LibreTranslate) translate(ctx context.Context, text string, dir tools.Direction) (string, error) {
	raw, err := json.Marshal(libreRequest{
		Q:      text,
		Source: dir.Source(),
		Target: dir.Target(),
		Format: "text",
		APIKey: l.apiKey,
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.baseURL+"/translate", bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("libretranslate request: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var decoded libreResponse
	_ = json.Unmarshal(body, &decoded)
	if resp.StatusCode != http.StatusOK {
		return "", &reliability.StatusError{Code: resp.StatusCode, Body: decoded.Error}
	}
	if strings.TrimSpace(decoded.TranslatedText) == "" {
		return "", reliability.Permanent(fmt.Errorf("libretranslate returned no text"))
	}
	return decoded.TranslatedText, nil
}
