package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const defaultPersona = "You are Rin, a virtual assistant with a playful personality. " +
	"Your replies should be cheeky and a bit bossy, but still caring."

// Config contains all runtime settings for the assistant service.
type Config struct {
	BindAddr                 string
	ShutdownTimeout          time.Duration
	SessionInactivityTimeout time.Duration
	MetricsNamespace         string
	AllowAnyOrigin           bool

	LogLevel string
	LogJSON  bool

	AssistantName    string
	Persona          string
	MaxHistory       int
	ContextExchanges int
	Flourish         bool
	RedactContext    bool
	PlainReplies     bool
	RandomSeed       int64
	WorkingLanguage  string

	MemoryPath      string
	DatabaseURL     string
	ProfileID       string
	IntentRulesFile string

	BrainMode     string
	BrainHTTPURL  string
	BrainLanguage string
	BrainTimeout  time.Duration
	OllamaAPIBase string
	OllamaModel   string
	GeminiAPIKey  string
	GeminiModel   string

	TranslateMode     string
	LibreTranslateURL string
	LibreTranslateKey string

	BrowserEnabled  bool
	BrowserBin      string
	BrowserHeadless bool

	SpotifyClientID     string
	SpotifyClientSecret string
	SpotifyRefreshToken string

	OpenWeatherAPIKey   string
	OpenWeatherLocation string

	AgendaDBPath    string
	HTTPToolTimeout time.Duration
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:         envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace: envOrDefault("APP_METRICS_NAMESPACE", "rin"),
		LogLevel:         envOrDefault("APP_LOG_LEVEL", "info"),
		AssistantName:    envOrDefault("RIN_ASSISTANT_NAME", "Rin"),
		Persona:          envOrDefault("RIN_PERSONA", defaultPersona),
		WorkingLanguage:  strings.ToLower(envOrDefault("RIN_WORKING_LANGUAGE", "en")),
		MemoryPath:       envOrDefault("RIN_MEMORY_PATH", "memoria_rin.json"),
		DatabaseURL:      stringsTrimSpace("DATABASE_URL"),
		ProfileID:        envOrDefault("RIN_PROFILE_ID", "default"),
		IntentRulesFile:  stringsTrimSpace("RIN_INTENT_RULES_FILE"),
		BrainMode:        envOrDefault("BRAIN_MODE", "auto"),
		BrainHTTPURL:     stringsTrimSpace("BRAIN_HTTP_URL"),
		BrainLanguage:    strings.ToLower(envOrDefault("BRAIN_LANGUAGE", "en")),
		OllamaAPIBase:    envOrDefault("OLLAMA_API_BASE", "http://127.0.0.1:11434"),
		OllamaModel:      envOrDefault("OLLAMA_MODEL", "llama3.2:3b"),
		GeminiAPIKey:     stringsTrimSpace("GEMINI_API_KEY"),
		GeminiModel:      envOrDefault("GEMINI_MODEL", "gemini-2.0-flash"),
		TranslateMode:    envOrDefault("TRANSLATE_MODE", "auto"),
		// LibreTranslate is opt-in; the public instance needs an API key.
		LibreTranslateURL:   stringsTrimSpace("LIBRETRANSLATE_URL"),
		LibreTranslateKey:   stringsTrimSpace("LIBRETRANSLATE_API_KEY"),
		BrowserBin:          stringsTrimSpace("BROWSER_BIN"),
		SpotifyClientID:     stringsTrimSpace("SPOTIFY_CLIENT_ID"),
		SpotifyClientSecret: stringsTrimSpace("SPOTIFY_CLIENT_SECRET"),
		SpotifyRefreshToken: stringsTrimSpace("SPOTIFY_REFRESH_TOKEN"),
		OpenWeatherAPIKey:   stringsTrimSpace("OPENWEATHER_API_KEY"),
		OpenWeatherLocation: envOrDefault("OPENWEATHER_LOCATION", "Monterrey,MX"),
		AgendaDBPath:        stringsTrimSpace("AGENDA_DB_PATH"),

		MaxHistory:               5,
		ContextExchanges:         4,
		Flourish:                 true,
		RedactContext:            true,
		PlainReplies:             true,
		ShutdownTimeout:          15 * time.Second,
		SessionInactivityTimeout: 30 * time.Minute,
		BrainTimeout:             60 * time.Second,
		HTTPToolTimeout:          5 * time.Second,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.SessionInactivityTimeout, err = durationFromEnv("APP_SESSION_INACTIVITY_TIMEOUT", cfg.SessionInactivityTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.BrainTimeout, err = durationFromEnv("BRAIN_TIMEOUT", cfg.BrainTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.HTTPToolTimeout, err = durationFromEnv("HTTP_TOOL_TIMEOUT", cfg.HTTPToolTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}
	cfg.LogJSON, err = boolFromEnv("APP_LOG_JSON", cfg.LogJSON)
	if err != nil {
		return Config{}, err
	}
	cfg.Flourish, err = boolFromEnv("RIN_FLOURISH", cfg.Flourish)
	if err != nil {
		return Config{}, err
	}
	cfg.RedactContext, err = boolFromEnv("RIN_REDACT_CONTEXT", cfg.RedactContext)
	if err != nil {
		return Config{}, err
	}
	cfg.PlainReplies, err = boolFromEnv("RIN_PLAIN_REPLIES", cfg.PlainReplies)
	if err != nil {
		return Config{}, err
	}
	cfg.BrowserEnabled, err = boolFromEnv("BROWSER_ENABLED", cfg.BrowserEnabled)
	if err != nil {
		return Config{}, err
	}
	cfg.BrowserHeadless, err = boolFromEnv("BROWSER_HEADLESS", cfg.BrowserHeadless)
	if err != nil {
		return Config{}, err
	}
	cfg.MaxHistory, err = intFromEnv("RIN_MAX_HISTORY", cfg.MaxHistory)
	if err != nil {
		return Config{}, err
	}
	cfg.ContextExchanges, err = intFromEnv("RIN_CONTEXT_EXCHANGES", cfg.ContextExchanges)
	if err != nil {
		return Config{}, err
	}
	cfg.RandomSeed, err = int64FromEnv("RIN_RANDOM_SEED", cfg.RandomSeed)
	if err != nil {
		return Config{}, err
	}

	if cfg.SessionInactivityTimeout < 5*time.Second {
		return Config{}, fmt.Errorf("APP_SESSION_INACTIVITY_TIMEOUT must be at least 5s")
	}
	if cfg.MaxHistory <= 0 {
		return Config{}, fmt.Errorf("RIN_MAX_HISTORY must be positive")
	}
	if cfg.ContextExchanges < 0 {
		return Config{}, fmt.Errorf("RIN_CONTEXT_EXCHANGES must be >= 0")
	}
	if !supportedLanguage(cfg.WorkingLanguage) {
		return Config{}, fmt.Errorf("RIN_WORKING_LANGUAGE must be en or es, got %q", cfg.WorkingLanguage)
	}
	if !supportedLanguage(cfg.BrainLanguage) {
		return Config{}, fmt.Errorf("BRAIN_LANGUAGE must be en or es, got %q", cfg.BrainLanguage)
	}

	return cfg, nil
}

func supportedLanguage(lang string) bool {
	return lang == "en" || lang == "es"
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func stringsTrimSpace(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func int64FromEnv(key string, fallback int64) (int64, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(stringsTrimSpace(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
