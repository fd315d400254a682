package brain

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/antoniostano/rin/internal/reliability"
)

// OllamaAdapter talks to a local Ollama server through /api/chat.
type OllamaAdapter struct {
	endpoint string
	model    string
	client   *http.Client
}

func NewOllamaAdapter(apiBase, model string, timeout time.Duration) *OllamaAdapter {
	if strings.TrimSpace(apiBase) == "" {
		apiBase = "http://127.0.0.1:11434"
	}
	if strings.TrimSpace(model) == "" {
		model = "llama3.2:3b"
	}
	if timeout < time.Second {
		timeout = 60 * time.Second
	}
	return &OllamaAdapter{
		endpoint: strings.TrimRight(strings.TrimSpace(apiBase), "/") + "/api/chat",
		model:    model,
		client:   &http.Client{Timeout: timeout},
	}
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Stream   bool            `json:"stream"`
	Messages []ollamaMessage `json:"messages"`
	Options  map[string]any  `json:"options,omitempty"`
}

func (a *OllamaAdapter) Generate(ctx context.Context, req Request) (Response, error) {
	buf, err := json.Marshal(ollamaChatRequest{
		Model:    a.model,
		Stream:   false,
		Messages: []ollamaMessage{{Role: "user", Content: req.Prompt}},
		Options:  map[string]any{"temperature": 0.7},
	})
	if err != nil {
		return Response{}, newError(CodeDecode, err)
	}

	var content string
	err = reliability.Retry(ctx, 2, 250*time.Millisecond, time.Second, func(ctx context.Context) error {
		var callErr error
		content, callErr = a.call(ctx, buf)
		return callErr
	})
	if err != nil {
		var be *Error
		if errors.As(err, &be) {
			return Response{}, err
		}
		return Response{}, wrapTransport(err)
	}
	return Response{Text: content}, nil
}

func (a *OllamaAdapter) call(ctx context.Context, body []byte) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := a.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("ollama request failed on /api/chat: %w", err)
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &reliability.StatusError{Code: resp.StatusCode, Body: compactSingleLine(string(payload), 240)}
	}
	var parsed struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return "", newError(CodeDecode, errors.New("ollama returned non-json payload"))
	}
	content := strings.TrimSpace(parsed.Message.Content)
	if content == "" {
		return "", newError(CodeEmpty, errors.New("ollama returned empty response content"))
	}
	return content, nil
}

func compactSingleLine(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
