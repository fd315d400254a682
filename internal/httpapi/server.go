package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/antoniostano/rin/internal/config"
	"github.com/antoniostano/rin/internal/dialogue"
	"github.com/antoniostano/rin/internal/memory"
	"github.com/antoniostano/rin/internal/observability"
	"github.com/antoniostano/rin/internal/protocol"
	"github.com/antoniostano/rin/internal/session"
)

// Assistant is the conversational surface the server drives.
type Assistant interface {
	HandleTurn(ctx context.Context, text string) dialogue.Reply
	Greet(ctx context.Context) string
	Resume()
	EndSession()
	Reset(ctx context.Context)
	Owner() (string, bool)
	SetOwner(ctx context.Context, name string)
	History(n int) []memory.Turn
	SetObserver(obs dialogue.Observer)
}

// Profile exposes the learned user profile.
type Profile interface {
	Preferences() []string
	Favorites() []string
	AddPreference(ctx context.Context, category string) bool
	AddFavorite(ctx context.Context, item string) bool
	SuggestRecommendation(ctx context.Context) (string, error)
	TopCommands(n int) []memory.CommandCount
}

type Server struct {
	cfg       config.Config
	sessions  *session.Manager
	assistant Assistant
	profile   Profile
	metrics   *observability.Metrics
	logger    *zap.Logger
	events    *eventHub
	upgrader  websocket.Upgrader
}

func New(cfg config.Config, sessions *session.Manager, assistant Assistant, profile Profile, metrics *observability.Metrics, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		cfg:       cfg,
		sessions:  sessions,
		assistant: assistant,
		profile:   profile,
		metrics:   metrics,
		logger:    logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Browsers may only connect from the same origin unless configured otherwise.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
	s.events = newEventHub(sessions, metrics)
	if assistant != nil {
		assistant.SetObserver(s.events)
	}
	sessions.SetEndHook(s.sessionEnded)
	return s
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Route("/v1", func(r chi.Router) {
		r.Post("/session", s.handleStartSession)
		r.Post("/session/end", s.handleEndSession)
		r.Get("/session/ws", s.handleSessionWS)
		r.Post("/turn", s.handleTurn)
		r.Get("/history", s.handleHistory)
		r.Post("/reset", s.handleReset)
		r.Get("/owner", s.handleGetOwner)
		r.Put("/owner", s.handleSetOwner)

		r.Post("/preferences", s.handleAddPreference)
		r.Post("/favorites", s.handleAddFavorite)
		r.Get("/profile", s.handleProfile)
		r.Get("/recommendation", s.handleRecommendation)
		r.Get("/commands/top", s.handleTopCommands)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	if s.assistant == nil {
		respondError(w, http.StatusServiceUnavailable, "unavailable", "assistant not configured")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"status":          "ready",
		"active_sessions": s.sessions.ActiveCount(),
	})
}

// runTurn routes text through the assistant on behalf of sessionID. An
// empty sessionID uses the active conversation, starting one if needed.
func (s *Server) runTurn(ctx context.Context, sessionID, text string) (string, dialogue.Reply, error) {
	if sessionID == "" {
		sess, created := s.sessions.Active()
		if created {
			s.sessionStarted(sess)
		}
		sessionID = sess.ID
	}
	if err := s.sessions.RecordTurn(sessionID); err != nil {
		return sessionID, dialogue.Reply{}, err
	}

	return sessionID, s.assistant.HandleTurn(ctx, text), nil
}

// finishTurn ends the session once an exit phrase has been answered.
func (s *Server) finishTurn(sessionID string, reply dialogue.Reply) {
	if reply.Route != dialogue.RouteExit {
		return
	}
	if _, err := s.sessions.End(sessionID, session.ReasonExitPhrase); err != nil && !errors.Is(err, session.ErrEnded) {
		s.logger.Warn("end session after exit phrase", zap.String("session_id", sessionID), zap.Error(err))
	}
}

func (s *Server) sessionStarted(sess session.Session) {
	s.assistant.Resume()
	s.metrics.ActiveSessions.Set(float64(s.sessions.ActiveCount()))
	s.metrics.SessionEvents.WithLabelValues("started").Inc()
	s.events.publish(protocol.SystemEvent{
		Type:      protocol.TypeSystemEvent,
		SessionID: sess.ID,
		Code:      protocol.EventSessionStarted,
	})
	s.logger.Info("session started", zap.String("session_id", sess.ID))
}

func (s *Server) sessionEnded(sess session.Session) {
	if s.assistant != nil {
		s.assistant.EndSession()
	}
	s.metrics.ActiveSessions.Set(float64(s.sessions.ActiveCount()))
	s.metrics.SessionEvents.WithLabelValues("ended_" + sess.EndReason).Inc()
	s.events.publish(protocol.SystemEvent{
		Type:      protocol.TypeSystemEvent,
		SessionID: sess.ID,
		Code:      protocol.EventSessionEnded,
		Detail:    sess.EndReason,
	})
	s.logger.Info("session ended",
		zap.String("session_id", sess.ID),
		zap.String("reason", sess.EndReason),
		zap.Int("turns", sess.Turns),
	)
}

func respondSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		respondError(w, http.StatusNotFound, "session_not_found", err.Error())
	case errors.Is(err, session.ErrEnded):
		respondError(w, http.StatusConflict, "session_ended", err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal", err.Error())
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}

func messageTypeOf(v any) (protocol.MessageType, bool) {
	switch m := v.(type) {
	case protocol.ClientUtterance:
		return m.Type, true
	case protocol.ClientControl:
		return m.Type, true
	case protocol.AssistantReply:
		return m.Type, true
	case protocol.SystemEvent:
		return m.Type, true
	case protocol.ErrorEvent:
		return m.Type, true
	default:
		return "", false
	}
}
