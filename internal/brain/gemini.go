package brain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// contentGenerator is the slice of *genai.Models the adapter uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiAdapter generates replies with the Gemini API.
type GeminiAdapter struct {
	models contentGenerator
	model  string
}

func NewGeminiAdapter(ctx context.Context, apiKey, model string) (*GeminiAdapter, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, newError(CodeConfig, errors.New("gemini API key is required"))
	}
	if strings.TrimSpace(model) == "" {
		model = "gemini-2.0-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, newError(CodeConfig, fmt.Errorf("create genai client: %w", err))
	}
	return &GeminiAdapter{models: client.Models, model: model}, nil
}

func (a *GeminiAdapter) Generate(ctx context.Context, req Request) (Response, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(req.Prompt, genai.RoleUser),
	}
	result, err := a.models.GenerateContent(ctx, a.model, contents, nil)
	if err != nil {
		if Code(err) == CodeTimeout || Code(err) == CodeCanceled {
			return Response{}, err
		}
		return Response{}, newError(CodeUpstream, fmt.Errorf("gemini generate: %w", err))
	}
	text := strings.TrimSpace(result.Text())
	if text == "" {
		return Response{}, newError(CodeEmpty, errors.New("gemini returned no text"))
	}
	return Response{Text: text}, nil
}
