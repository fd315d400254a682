package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/antoniostano/rin/internal/brain"
	"github.com/antoniostano/rin/internal/config"
	"github.com/antoniostano/rin/internal/dialogue"
	"github.com/antoniostano/rin/internal/dispatch"
	"github.com/antoniostano/rin/internal/httpapi"
	"github.com/antoniostano/rin/internal/intent"
	"github.com/antoniostano/rin/internal/memory"
	"github.com/antoniostano/rin/internal/observability"
	"github.com/antoniostano/rin/internal/session"
	"github.com/antoniostano/rin/internal/tools"
	"github.com/antoniostano/rin/internal/tools/agenda"
	"github.com/antoniostano/rin/internal/tools/browser"
	"github.com/antoniostano/rin/internal/tools/calculator"
	"github.com/antoniostano/rin/internal/tools/spotify"
	"github.com/antoniostano/rin/internal/tools/translate"
	"github.com/antoniostano/rin/internal/tools/weather"
	"github.com/antoniostano/rin/internal/tools/websearch"
	"github.com/antoniostano/rin/internal/tools/youtube"
)

type BuildResult struct {
	Config       config.Config
	API          *httpapi.Server
	Sessions     *session.Manager
	Orchestrator *dialogue.Orchestrator
	Store        *memory.Store
	Metrics      *observability.Metrics
	// BrainMode is the generator that ended up wired, "off" when none.
	BrainMode string

	// Cleanup should be called on shutdown to release external resources (DB, browser, agenda).
	Cleanup func() error
}

type closer interface{ Close() error }

func Build(ctx context.Context, cfg config.Config, logger *zap.Logger) (*BuildResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	var closers []closer
	fail := func(err error) (*BuildResult, error) {
		_ = closeAll(closers)
		return nil, err
	}

	detector, err := intent.NewDetectorFromConfig(cfg.IntentRulesFile)
	if err != nil {
		return nil, fmt.Errorf("intent rules init failed: %w", err)
	}

	store, err := OpenStore(ctx, cfg, detector, logger, func(error) {
		metrics.PersistenceFailures.Inc()
	})
	if err != nil {
		return nil, err
	}
	closers = append(closers, store)

	generator, err := brain.NewAdapter(ctx, brain.Config{
		Mode:          cfg.BrainMode,
		HTTPURL:       cfg.BrainHTTPURL,
		OllamaAPIBase: cfg.OllamaAPIBase,
		OllamaModel:   cfg.OllamaModel,
		GeminiAPIKey:  cfg.GeminiAPIKey,
		GeminiModel:   cfg.GeminiModel,
		Timeout:       cfg.BrainTimeout,
	})
	if err != nil {
		return fail(fmt.Errorf("brain adapter init failed: %w", err))
	}
	brainMode := strings.ToLower(strings.TrimSpace(cfg.BrainMode))
	if generator == nil {
		brainMode = "off"
	}

	translator, err := translate.New(translate.Config{
		Mode:              cfg.TranslateMode,
		LibreTranslateURL: cfg.LibreTranslateURL,
		LibreTranslateKey: cfg.LibreTranslateKey,
		Timeout:           cfg.HTTPToolTimeout,
	}, generator, logger.Named("translate"))
	if err != nil {
		return fail(fmt.Errorf("translator init failed: %w", err))
	}

	registry, toolClosers, err := buildTools(ctx, cfg, translator, logger)
	closers = append(closers, toolClosers...)
	if err != nil {
		return fail(err)
	}

	seed := cfg.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	// Dispatcher and orchestrator share one source; both run under the turn lock.
	rng := rand.New(rand.NewSource(seed))

	dispatcher := dispatch.New(store, registry, dispatch.Options{
		Rand:    rng,
		Logger:  logger.Named("dispatch"),
		Metrics: metrics,
	})
	orchestrator := dialogue.New(store, detector, dispatcher, dialogue.Options{
		AssistantName:    cfg.AssistantName,
		Persona:          cfg.Persona,
		ContextExchanges: cfg.ContextExchanges,
		Flourish:         cfg.Flourish,
		RedactContext:    cfg.RedactContext,
		PlainReplies:     cfg.PlainReplies,
		WorkingLanguage:  cfg.WorkingLanguage,
		BrainLanguage:    cfg.BrainLanguage,
		Brain:            generator,
		Translator:       translator,
		Rand:             rng,
		Logger:           logger.Named("dialogue"),
		Metrics:          metrics,
	})

	sessions := session.NewManager(cfg.SessionInactivityTimeout)
	api := httpapi.New(cfg, sessions, orchestrator, store, metrics, logger.Named("http"))

	logger.Info("assistant wired",
		zap.String("brain_mode", brainMode),
		zap.String("translate_mode", cfg.TranslateMode),
		zap.Bool("browser", cfg.BrowserEnabled),
		zap.Bool("spotify", registry.Music != nil),
		zap.Bool("weather", registry.Weather != nil),
		zap.Int("intent_kinds", len(detector.Kinds())),
	)

	return &BuildResult{
		Config:       cfg,
		API:          api,
		Sessions:     sessions,
		Orchestrator: orchestrator,
		Store:        store,
		Metrics:      metrics,
		BrainMode:    brainMode,
		Cleanup: func() error {
			return closeAll(closers)
		},
	}, nil
}

// OpenStore opens the conversation memory configured by cfg. onPersistError
// may be nil.
func OpenStore(ctx context.Context, cfg config.Config, detector *intent.Detector, logger *zap.Logger, onPersistError func(error)) (*memory.Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	storage, err := memory.NewStorage(ctx, cfg.DatabaseURL, cfg.MemoryPath, cfg.ProfileID)
	if err != nil {
		return nil, fmt.Errorf("memory storage init failed: %w", err)
	}
	store, err := memory.Open(ctx, storage, memory.Options{
		MaxHistory:     cfg.MaxHistory,
		Kinds:          detector.Kinds(),
		Logger:         logger.Named("memory"),
		OnPersistError: onPersistError,
	})
	if err != nil {
		_ = storage.Close()
		return nil, fmt.Errorf("memory store init failed: %w", err)
	}
	return store, nil
}

// buildTools wires every configured collaborator. Unconfigured ones stay nil
// so the dispatcher answers with its soft failure.
func buildTools(ctx context.Context, cfg config.Config, translator translate.Translator, logger *zap.Logger) (dispatch.Tools, []closer, error) {
	var closers []closer
	registry := dispatch.Tools{
		Calculator: calculator.New(),
		Translator: translator,
	}
	httpClient := &http.Client{Timeout: cfg.HTTPToolTimeout}

	searchOpts := websearch.Options{HTTPClient: httpClient, Logger: logger.Named("websearch")}
	if cfg.BrowserEnabled {
		b := browser.New(browser.Config{
			Enabled:  true,
			Bin:      cfg.BrowserBin,
			Headless: cfg.BrowserHeadless,
		}, logger.Named("browser"))
		closers = append(closers, b)

		media := youtube.New(b)
		registry.MediaSearch = media
		registry.MediaPlayer = media
		registry.MediaOpener = media
		searchOpts.Opener = b
	}
	registry.WebSearch = websearch.New(searchOpts)

	creds := spotify.Credentials{
		ClientID:     cfg.SpotifyClientID,
		ClientSecret: cfg.SpotifyClientSecret,
		RefreshToken: cfg.SpotifyRefreshToken,
	}
	if creds.Configured() {
		player, err := spotify.New(ctx, creds)
		if err != nil {
			return registry, closers, fmt.Errorf("spotify init failed: %w", err)
		}
		registry.Music = player
	}

	forecast, err := weather.New(cfg.OpenWeatherAPIKey, cfg.OpenWeatherLocation, cfg.HTTPToolTimeout,
		weather.WithLanguage(cfg.WorkingLanguage))
	switch {
	case err == nil:
		registry.Weather = forecast
	case errors.Is(err, tools.ErrUnavailable):
	default:
		return registry, closers, fmt.Errorf("weather init failed: %w", err)
	}

	if cfg.AgendaDBPath != "" {
		book, err := agenda.OpenSQLite(ctx, cfg.AgendaDBPath, time.Now)
		if err != nil {
			return registry, closers, fmt.Errorf("agenda init failed: %w", err)
		}
		closers = append(closers, book)
		registry.Agenda = book
	} else {
		registry.Agenda = agenda.NewMemory(time.Now)
	}

	return registry, closers, nil
}

// closeAll closes in reverse order of creation.
func closeAll(closers []closer) error {
	var errs []string
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].Close(); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}
