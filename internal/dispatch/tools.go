package dispatch

import (
	"context"

	"github.com/antoniostano/rin/internal/tools"
)

// Calculator evaluates an expression. ok is false when no real computation
// happened.
type Calculator interface {
	Evaluate(expr string) (result string, ok bool)
}

type MediaSearcher interface {
	Search(ctx context.Context, query string) ([]tools.MediaItem, string, error)
}

type MediaPlayer interface {
	Play(ctx context.Context, locator string) (string, error)
}

type MediaOpener interface {
	Open(ctx context.Context) (string, error)
}

type WebSearcher interface {
	Search(ctx context.Context, query string) (string, error)
}

type MusicPlayer interface {
	Play(ctx context.Context, kind tools.MusicKind, query string) (string, error)
}

// Translator must return the input text when it cannot translate.
type Translator interface {
	Translate(ctx context.Context, text string, dir tools.Direction) string
}

type Agenda interface {
	Add(ctx context.Context, description string) error
	List(ctx context.Context) (string, error)
}

type Weather interface {
	Current(ctx context.Context) (string, error)
}

// Tools is the collaborator registry. Nil members take the soft-failure
// path.
type Tools struct {
	Calculator  Calculator
	MediaSearch MediaSearcher
	MediaPlayer MediaPlayer
	MediaOpener MediaOpener
	WebSearch   WebSearcher
	Music       MusicPlayer
	Translator  Translator
	Agenda      Agenda
	Weather     Weather
}
