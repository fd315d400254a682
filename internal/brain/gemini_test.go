package brain

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/genai"
)

type fakeModels struct {
	text  string
	err   error
	model string
	got   string
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, _ *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.got = contents[0].Parts[0].Text
	}
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: f.text}}},
		}},
	}, nil
}

func TestGeminiAdapterGenerate(t *testing.T) {
	fake := &fakeModels{text: "Fine, I'll answer."}
	a := &GeminiAdapter{models: fake, model: "gemini-test"}

	resp, err := a.Generate(context.Background(), Request{Prompt: "question"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if resp.Text != "Fine, I'll answer." {
		t.Fatalf("resp.Text = %q", resp.Text)
	}
	if fake.model != "gemini-test" || fake.got != "question" {
		t.Fatalf("model = %q, prompt = %q", fake.model, fake.got)
	}
}

func TestGeminiAdapterErrors(t *testing.T) {
	a := &GeminiAdapter{models: &fakeModels{err: errors.New("quota")}, model: "m"}
	if _, err := a.Generate(context.Background(), Request{}); Code(err) != CodeUpstream {
		t.Fatalf("Code() = %q, want %q", Code(err), CodeUpstream)
	}

	a = &GeminiAdapter{models: &fakeModels{text: "   "}, model: "m"}
	if _, err := a.Generate(context.Background(), Request{}); Code(err) != CodeEmpty {
		t.Fatalf("Code() = %q, want %q", Code(err), CodeEmpty)
	}
}
