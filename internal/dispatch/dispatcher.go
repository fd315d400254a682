// Package dispatch executes detected commands against the collaborator
// registry and turns every outcome into user-facing text.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/antoniostano/rin/internal/intent"
	"github.com/antoniostano/rin/internal/memory"
	"github.com/antoniostano/rin/internal/observability"
	"github.com/antoniostano/rin/internal/tools"
)

// MaxMediaResults caps cached media search results.
const MaxMediaResults = 10

type Options struct {
	Rand    *rand.Rand
	Now     func() time.Time
	Logger  *zap.Logger
	Metrics *observability.Metrics
}

// Dispatcher is not safe for concurrent use; the orchestrator serializes
// turns.
type Dispatcher struct {
	tools   Tools
	store   *memory.Store
	rng     *rand.Rand
	now     func() time.Time
	logger  *zap.Logger
	metrics *observability.Metrics
}

func New(store *memory.Store, registry Tools, opts Options) *Dispatcher {
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Dispatcher{
		tools:   registry,
		store:   store,
		rng:     opts.Rand,
		now:     opts.Now,
		logger:  opts.Logger,
		metrics: opts.Metrics,
	}
}

// Execute runs kind with its argument. Successful commands bump the
// command counter in the memory store.
func (d *Dispatcher) Execute(ctx context.Context, kind, arg string) Result {
	res := d.execute(ctx, kind, strings.TrimSpace(arg))
	d.record(ctx, kind, res)
	return res
}

// PlayMusic runs a music request whose kind is already known, as when a
// pending disambiguation is answered.
func (d *Dispatcher) PlayMusic(ctx context.Context, kind tools.MusicKind, query string) Result {
	var res Result
	if d.tools.Music == nil {
		res = d.softFailure()
	} else {
		res = d.playMusic(ctx, kind, query)
	}
	d.record(ctx, intent.KindMusicPlay, res)
	return res
}

func (d *Dispatcher) record(ctx context.Context, kind string, res Result) {
	if d.metrics != nil {
		d.metrics.Commands.WithLabelValues(kind, res.Outcome.String()).Inc()
	}
	if res.Outcome == OutcomeSuccess {
		d.store.IncrementCommand(ctx, kind)
	}
	d.logger.Debug("command executed", zap.String("kind", kind), zap.Stringer("outcome", res.Outcome))
}

func (d *Dispatcher) execute(ctx context.Context, kind, arg string) Result {
	switch kind {
	case intent.KindCalculate:
		if d.tools.Calculator == nil {
			return d.softFailure()
		}
		return d.calculate(arg)
	case intent.KindMediaSearch:
		if d.tools.MediaSearch == nil {
			return d.softFailure()
		}
		return d.mediaSearch(ctx, arg)
	case intent.KindMediaPlayIndex:
		if d.tools.MediaPlayer == nil {
			return d.softFailure()
		}
		return d.mediaPlayIndex(ctx, arg)
	case intent.KindMediaOpen:
		if d.tools.MediaOpener == nil {
			return d.softFailure()
		}
		return d.mediaOpen(ctx)
	case intent.KindWebSearch:
		if d.tools.WebSearch == nil {
			return d.softFailure()
		}
		return d.webSearch(ctx, arg)
	case intent.KindMusicPlay:
		if d.tools.Music == nil {
			return d.softFailure()
		}
		return d.musicPlay(ctx, arg)
	case intent.KindTranslateToEnglish, intent.KindTranslateToSpanish:
		if d.tools.Translator == nil {
			return d.softFailure()
		}
		return d.translate(ctx, kind, arg)
	case intent.KindAgendaAdd:
		if d.tools.Agenda == nil {
			return d.softFailure()
		}
		return d.agendaAdd(ctx, arg)
	case intent.KindAgendaList:
		if d.tools.Agenda == nil {
			return d.softFailure()
		}
		return d.agendaList(ctx)
	case intent.KindTime:
		return success(fmt.Sprintf(msgTime, d.now().Format("15:04")))
	case intent.KindWeather:
		if d.tools.Weather == nil {
			return d.softFailure()
		}
		return d.weather(ctx)
	default:
		return d.softFailure()
	}
}

func success(text string) Result {
	return Result{Text: text, TriggersFollowup: true, Outcome: OutcomeSuccess}
}

func reply(text string, outcome Outcome) Result {
	return Result{Text: text, TriggersFollowup: true, Outcome: outcome}
}

func (d *Dispatcher) softFailure() Result {
	return Result{Text: softFailures[d.rng.Intn(len(softFailures))], Outcome: OutcomeUnavailable}
}

func (d *Dispatcher) collaboratorFailed(collaborator string, err error, text string) Result {
	d.logger.Warn("collaborator failed", zap.String("collaborator", collaborator), zap.Error(err))
	if d.metrics != nil {
		d.metrics.CollaboratorErrors.WithLabelValues(collaborator).Inc()
	}
	return reply(text, OutcomeFailed)
}

func (d *Dispatcher) calculate(arg string) Result {
	result, computed := d.tools.Calculator.Evaluate(arg)
	if !computed || strings.TrimSpace(result) == "" {
		return reply(msgCannotCompute, OutcomeEmpty)
	}
	return success(fmt.Sprintf(msgCalculated, result))
}

func (d *Dispatcher) mediaSearch(ctx context.Context, query string) Result {
	items, summary, err := d.tools.MediaSearch.Search(ctx, query)
	if err != nil && !errors.Is(err, tools.ErrNotFound) {
		return d.collaboratorFailed("media_search", err, msgSearchFailed)
	}
	if len(items) == 0 {
		return reply(fmt.Sprintf(msgNothingFound, query), OutcomeEmpty)
	}
	if len(items) > MaxMediaResults {
		items = items[:MaxMediaResults]
	}
	d.store.SetTransient(memory.KeyLastSearchResults, append([]tools.MediaItem(nil), items...))
	if strings.TrimSpace(summary) == "" {
		summary = fmt.Sprintf(msgVideosFound, len(items), len(items))
	}
	return success(summary)
}

func (d *Dispatcher) mediaPlayIndex(ctx context.Context, arg string) Result {
	cached, found := d.store.Transient(memory.KeyLastSearchResults)
	items, typed := cached.([]tools.MediaItem)
	if !found || !typed || len(items) == 0 {
		return reply(msgSearchFirst, OutcomeInvalid)
	}
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(items) {
		return reply(msgInvalidNumber, OutcomeInvalid)
	}
	item := items[n-1]
	if _, err := d.tools.MediaPlayer.Play(ctx, item.Locator); err != nil {
		return d.collaboratorFailed("media_player", err, msgPlaybackFailed)
	}
	d.store.DeleteTransient(memory.KeyLastSearchResults)
	return success(fmt.Sprintf(msgPlayingVideo, item.Title))
}

func (d *Dispatcher) mediaOpen(ctx context.Context) Result {
	msg, err := d.tools.MediaOpener.Open(ctx)
	if err != nil {
		return d.collaboratorFailed("media_player", err, msgPlaybackFailed)
	}
	if strings.TrimSpace(msg) == "" {
		msg = msgOpenedMedia
	}
	return success(msg)
}

func (d *Dispatcher) webSearch(ctx context.Context, query string) Result {
	summary, err := d.tools.WebSearch.Search(ctx, query)
	if errors.Is(err, tools.ErrNotFound) || (err == nil && strings.TrimSpace(summary) == "") {
		return reply(fmt.Sprintf(msgNothingFound, query), OutcomeEmpty)
	}
	if err != nil {
		return d.collaboratorFailed("web_search", err, msgSearchFailed)
	}
	return success(fmt.Sprintf(msgWebResult, summary))
}

func (d *Dispatcher) musicPlay(ctx context.Context, arg string) Result {
	if arg == "" {
		return reply(msgWhatToPlay, OutcomeInvalid)
	}
	kind, query, inferred := InferMusicKind(arg)
	if !inferred {
		d.store.SetTransient(memory.KeyPendingPlaybackQuery, arg)
		return reply(msgAskMusicKind, OutcomePending)
	}
	return d.playMusic(ctx, kind, query)
}

func (d *Dispatcher) playMusic(ctx context.Context, kind tools.MusicKind, query string) Result {
	if strings.TrimSpace(query) == "" {
		return reply(msgWhatToPlay, OutcomeInvalid)
	}
	msg, err := d.tools.Music.Play(ctx, kind, query)
	switch {
	case errors.Is(err, tools.ErrNoActiveDevice):
		return reply(msgNoActiveDevice, OutcomeFailed)
	case errors.Is(err, tools.ErrNotFound):
		return reply(fmt.Sprintf(msgMusicNotFound, kind.Label()), OutcomeEmpty)
	case err != nil:
		return d.collaboratorFailed("music", err, fmt.Sprintf(msgMusicFailed, kind.Label()))
	}
	if strings.TrimSpace(msg) == "" {
		msg = fmt.Sprintf(msgPlayingMusic, kind.Label(), query)
	}
	return success(msg)
}

func (d *Dispatcher) translate(ctx context.Context, kind, text string) Result {
	if kind == intent.KindTranslateToSpanish {
		return success(fmt.Sprintf(msgInSpanish, d.tools.Translator.Translate(ctx, text, tools.ToSpanish)))
	}
	return success(fmt.Sprintf(msgInEnglish, d.tools.Translator.Translate(ctx, text, tools.ToEnglish)))
}

func (d *Dispatcher) agendaAdd(ctx context.Context, description string) Result {
	if err := d.tools.Agenda.Add(ctx, description); err != nil {
		return d.collaboratorFailed("agenda", err, msgAgendaAddFailed)
	}
	return success(msgAgendaAdded)
}

func (d *Dispatcher) agendaList(ctx context.Context) Result {
	events, err := d.tools.Agenda.List(ctx)
	if err != nil {
		return d.collaboratorFailed("agenda", err, msgAgendaReadFailed)
	}
	if strings.TrimSpace(events) == "" {
		return reply(msgAgendaEmpty, OutcomeEmpty)
	}
	return success(events)
}

func (d *Dispatcher) weather(ctx context.Context) Result {
	summary, err := d.tools.Weather.Current(ctx)
	if err != nil {
		return d.collaboratorFailed("weather", err, msgWeatherFailed)
	}
	return success(fmt.Sprintf(msgWeather, summary))
}
