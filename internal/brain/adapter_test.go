package brain

import (
	"context"
	"errors"
	"testing"
)

func TestNewAdapterModes(t *testing.T) {
	ctx := context.Background()

	a, err := NewAdapter(ctx, Config{Mode: "off"})
	if err != nil || a != nil {
		t.Fatalf("NewAdapter(off) = %v, %v; want nil, nil", a, err)
	}

	a, err = NewAdapter(ctx, Config{Mode: "auto"})
	if err != nil {
		t.Fatalf("NewAdapter(auto) error = %v", err)
	}
	if _, ok := a.(*OllamaAdapter); !ok {
		t.Fatalf("NewAdapter(auto) = %T, want *OllamaAdapter", a)
	}

	a, err = NewAdapter(ctx, Config{Mode: "auto", HTTPURL: "http://brain.test/reply"})
	if err != nil {
		t.Fatalf("NewAdapter(auto+http) error = %v", err)
	}
	fb, ok := a.(*FallbackAdapter)
	if !ok {
		t.Fatalf("NewAdapter(auto+http) = %T, want *FallbackAdapter", a)
	}
	if _, ok := fb.Primary().(*HTTPAdapter); !ok {
		t.Fatalf("primary = %T, want *HTTPAdapter", fb.Primary())
	}

	if _, err := NewAdapter(ctx, Config{Mode: "http"}); err == nil {
		t.Fatalf("NewAdapter(http) without url error = nil")
	}
	if _, err := NewAdapter(ctx, Config{Mode: "gemini"}); Code(err) != CodeConfig {
		t.Fatalf("NewAdapter(gemini) without key code = %q, want %q", Code(err), CodeConfig)
	}
	if _, err := NewAdapter(ctx, Config{Mode: "telepathy"}); err == nil {
		t.Fatalf("NewAdapter(telepathy) error = nil")
	}
}

func TestMockAdapterEchoes(t *testing.T) {
	resp, err := NewMockAdapter().Generate(context.Background(), Request{InputText: "hello"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if resp.Text != "I heard you: hello" {
		t.Fatalf("resp.Text = %q", resp.Text)
	}
}

func TestFallbackAdapterUsesFallback(t *testing.T) {
	a := NewFallbackAdapter(errAdapter{}, okAdapter{text: "fallback"})
	resp, err := a.Generate(context.Background(), Request{InputText: "x"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if resp.Text != "fallback" {
		t.Fatalf("resp.Text = %q, want fallback", resp.Text)
	}
}

func TestFallbackAdapterSkipsFallbackOnCanceledContext(t *testing.T) {
	fb := &countingAdapter{text: "fallback"}
	a := NewFallbackAdapter(cancelAdapter{}, fb)
	_, err := a.Generate(context.Background(), Request{InputText: "x"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if fb.calls != 0 {
		t.Fatalf("fallback should not be called, calls = %d", fb.calls)
	}
}

func TestFallbackAdapterBothFail(t *testing.T) {
	a := NewFallbackAdapter(errAdapter{}, errAdapter{})
	_, err := a.Generate(context.Background(), Request{})
	if Code(err) != CodeTransport {
		t.Fatalf("Code() = %q, want %q (err = %v)", Code(err), CodeTransport, err)
	}
}

func TestCode(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{context.DeadlineExceeded, CodeTimeout},
		{newError(CodeEmpty, errors.New("x")), CodeEmpty},
		{errors.New("other"), CodeUpstream},
	}
	for _, tc := range cases {
		if got := Code(tc.err); got != tc.want {
			t.Fatalf("Code(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

type errAdapter struct{}

func (errAdapter) Generate(context.Context, Request) (Response, error) {
	return Response{}, newError(CodeTransport, errors.New("boom"))
}

type okAdapter struct {
	text string
}

func (a okAdapter) Generate(context.Context, Request) (Response, error) {
	return Response{Text: a.text}, nil
}

type cancelAdapter struct{}

func (cancelAdapter) Generate(context.Context, Request) (Response, error) {
	return Response{}, context.Canceled
}

type countingAdapter struct {
	text  string
	calls int
}

func (a *countingAdapter) Generate(context.Context, Request) (Response, error) {
	a.calls++
	return Response{Text: a.text}, nil
}
