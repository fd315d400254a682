// Package dialogue runs one conversational turn: exit check, command
// dispatch, canned replies, pending music disambiguation and finally
// generation.
package dialogue

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/antoniostano/rin/internal/brain"
	"github.com/antoniostano/rin/internal/dispatch"
	"github.com/antoniostano/rin/internal/intent"
	"github.com/antoniostano/rin/internal/memory"
	"github.com/antoniostano/rin/internal/observability"
	"github.com/antoniostano/rin/internal/tools"
)

// Route names the step that produced a reply.
type Route string

const (
	RouteExit        Route = "exit"
	RouteCommand     Route = "command"
	RouteCanned      Route = "canned"
	RoutePending     Route = "pending"
	RouteGeneration  Route = "generation"
	RouteUnavailable Route = "unavailable"
	RouteFailed      Route = "generation_failed"
	RouteEnded       Route = "ended"
	RouteError       Route = "error"
)

// Reply is the outcome of one turn.
type Reply struct {
	TurnID string `json:"turn_id"`
	Text   string `json:"text"`
	Route  Route  `json:"route"`
	// Kind is the command kind for command and pending routes.
	Kind string `json:"kind,omitempty"`
	// ErrorCode is set when generation failed.
	ErrorCode string `json:"error_code,omitempty"`
	Ended     bool   `json:"ended"`
}

// Translator converts text between the working language and the
// generator's language. It must return its input on failure.
type Translator interface {
	Translate(ctx context.Context, text string, dir tools.Direction) string
}

// Observer is notified at turn boundaries. Implementations must not block.
type Observer interface {
	GenerationStarted(turnID string)
	ResponseReady(turnID string, reply Reply)
}

type nopObserver struct{}

func (nopObserver) GenerationStarted(string)     {}
func (nopObserver) ResponseReady(string, Reply) {}

type Options struct {
	AssistantName string
	Persona       string
	// ContextExchanges is how many user/assistant pairs go into the
	// generation prompt.
	ContextExchanges int
	Flourish         bool
	RedactContext    bool
	// PlainReplies flattens markdown and stalling openers in generated text.
	PlainReplies     bool
	WorkingLanguage  string
	BrainLanguage    string

	// Brain may be nil; generation then answers "not available".
	Brain      brain.Adapter
	Translator Translator
	Rand       *rand.Rand
	Logger     *zap.Logger
	Metrics    *observability.Metrics
	Observer   Observer
}

// Orchestrator serializes turns against one memory store.
type Orchestrator struct {
	store      *memory.Store
	detector   *intent.Detector
	dispatcher *dispatch.Dispatcher
	opts       Options
	logger     *zap.Logger

	mu       sync.Mutex
	rng      *rand.Rand
	observer Observer
	ended    bool
}

func New(store *memory.Store, detector *intent.Detector, dispatcher *dispatch.Dispatcher, opts Options) *Orchestrator {
	if opts.AssistantName == "" {
		opts.AssistantName = "Rin"
	}
	if opts.ContextExchanges < 0 {
		opts.ContextExchanges = 0
	}
	if opts.WorkingLanguage == "" {
		opts.WorkingLanguage = "en"
	}
	if opts.BrainLanguage == "" {
		opts.BrainLanguage = opts.WorkingLanguage
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	return &Orchestrator{
		store:      store,
		detector:   detector,
		dispatcher: dispatcher,
		opts:       opts,
		logger:     opts.Logger,
		rng:        opts.Rand,
		observer:   opts.Observer,
	}
}

// SetObserver replaces the turn observer; nil restores the no-op observer.
func (o *Orchestrator) SetObserver(obs Observer) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if obs == nil {
		obs = nopObserver{}
	}
	o.observer = obs
}

// Ended reports whether an exit phrase closed the conversation.
func (o *Orchestrator) Ended() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.ended
}

// Resume reopens an ended conversation. History is kept; turn scratch from
// the previous conversation is not.
func (o *Orchestrator) Resume() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.store.ClearTransient()
	o.ended = false
}

// EndSession drops pending disambiguations and cached results when the
// hosting session ends without an exit phrase.
func (o *Orchestrator) EndSession() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.store.ClearTransient()
}

// Greet records and returns the opening line: a greeting when the owner is
// known, otherwise a question asking for their name.
func (o *Orchestrator) Greet(ctx context.Context) string {
	o.mu.Lock()
	defer o.mu.Unlock()
	if owner, ok := o.store.Owner(); ok {
		text := fmt.Sprintf(msgGreeting, owner)
		o.store.AppendTurn(ctx, memory.SpeakerAssistant, text)
		return text
	}
	return o.store.OwnerPrompt(o.rng)
}

// Owner, SetOwner, History and Reset pass through to the memory store under
// the turn lock.
func (o *Orchestrator) Owner() (string, bool) {
	return o.store.Owner()
}

func (o *Orchestrator) SetOwner(ctx context.Context, name string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.store.SetOwner(ctx, name)
}

func (o *Orchestrator) History(n int) []memory.Turn {
	return o.store.History(n)
}

func (o *Orchestrator) Reset(ctx context.Context) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.store.Reset(ctx)
	o.ended = false
}

// HandleTurn processes one user utterance. It never returns an error;
// failures become apology text.
func (o *Orchestrator) HandleTurn(ctx context.Context, text string) (reply Reply) {
	o.mu.Lock()
	defer o.mu.Unlock()

	turnID := uuid.NewString()
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("turn panicked", zap.String("turn_id", turnID), zap.Any("panic", r))
			reply = Reply{TurnID: turnID, Text: msgGenericApology, Route: RouteError}
		}
		if o.opts.Metrics != nil {
			o.opts.Metrics.Turns.WithLabelValues(string(reply.Route)).Inc()
		}
		o.observer.ResponseReady(turnID, reply)
	}()

	reply = o.handle(ctx, turnID, strings.TrimSpace(text))
	reply.TurnID = turnID
	o.logger.Debug("turn handled",
		zap.String("turn_id", turnID),
		zap.String("route", string(reply.Route)),
		zap.String("kind", reply.Kind),
	)
	return reply
}

func (o *Orchestrator) handle(ctx context.Context, turnID, text string) Reply {
	if o.ended {
		return Reply{Text: msgConversationEnd, Route: RouteEnded, Ended: true}
	}
	simplified := intent.Simplify(text)

	if _, ok := exitPhrases[simplified]; ok {
		farewell := pick(o.rng, farewells)
		o.store.AppendExchange(ctx, text, farewell)
		o.store.ClearTransient()
		o.ended = true
		return Reply{Text: farewell, Route: RouteExit, Ended: true}
	}

	if match, ok := o.detector.Detect(text); ok {
		res := o.dispatcher.Execute(ctx, match.Kind, match.Argument)
		return o.commandReply(ctx, text, match.Kind, RouteCommand, res)
	}

	if canned, ok := cannedReply(simplified, o.rng); ok {
		o.store.AppendExchange(ctx, text, canned)
		return Reply{Text: canned, Route: RouteCanned}
	}

	if pending, ok := o.store.Transient(memory.KeyPendingPlaybackQuery); ok {
		query, _ := pending.(string)
		kind, resolved := dispatch.ResolveKind(text)
		if !resolved {
			return Reply{Text: dispatch.MusicKindQuestion, Route: RoutePending, Kind: intent.KindMusicPlay}
		}
		o.store.DeleteTransient(memory.KeyPendingPlaybackQuery)
		res := o.dispatcher.PlayMusic(ctx, kind, query)
		return o.commandReply(ctx, text, intent.KindMusicPlay, RoutePending, res)
	}

	return o.generate(ctx, turnID, text)
}

func (o *Orchestrator) commandReply(ctx context.Context, userText, kind string, route Route, res dispatch.Result) Reply {
	o.store.AppendExchange(ctx, userText, res.Text)
	out := res.Text
	if res.TriggersFollowup && o.opts.Flourish {
		if owner, ok := o.store.Owner(); ok {
			out = out + " " + fmt.Sprintf(pick(o.rng, flourishes), owner)
		}
	}
	return Reply{Text: out, Route: route, Kind: kind}
}

func (o *Orchestrator) generate(ctx context.Context, turnID, text string) Reply {
	if o.opts.Brain == nil {
		return Reply{Text: msgNotAvailable, Route: RouteUnavailable}
	}

	o.observer.GenerationStarted(turnID)
	prompt := o.buildPrompt(text)
	toBrain, toWorking, translate := o.directions()
	if translate {
		prompt = o.opts.Translator.Translate(ctx, prompt, toBrain)
	}

	start := time.Now()
	resp, err := o.opts.Brain.Generate(ctx, brain.Request{TurnID: turnID, Prompt: prompt, InputText: text})
	if o.opts.Metrics != nil {
		o.opts.Metrics.ObserveGenerationLatency(time.Since(start))
	}
	if err == nil && strings.TrimSpace(resp.Text) == "" {
		err = &brain.Error{Code: brain.CodeEmpty, Err: fmt.Errorf("empty generation")}
	}
	if err != nil {
		code := brain.Code(err)
		o.logger.Warn("generation failed", zap.String("turn_id", turnID), zap.String("code", code), zap.Error(err))
		if o.opts.Metrics != nil {
			o.opts.Metrics.CollaboratorErrors.WithLabelValues("brain").Inc()
		}
		return Reply{Text: fmt.Sprintf(msgGenerationError, code), Route: RouteFailed, ErrorCode: code}
	}

	answer := strings.TrimSpace(resp.Text)
	if o.opts.PlainReplies {
		answer = plainReply(answer)
	}
	if translate {
		answer = o.opts.Translator.Translate(ctx, answer, toWorking)
	}
	o.store.AppendExchange(ctx, text, answer)
	return Reply{Text: answer, Route: RouteGeneration}
}

// directions reports the translation pair needed to talk to the brain, if
// any.
func (o *Orchestrator) directions() (toBrain, toWorking tools.Direction, needed bool) {
	if o.opts.Translator == nil || o.opts.BrainLanguage == o.opts.WorkingLanguage {
		return 0, 0, false
	}
	if o.opts.BrainLanguage == "es" {
		return tools.ToSpanish, tools.ToEnglish, true
	}
	return tools.ToEnglish, tools.ToSpanish, true
}
