package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/antoniostano/rin/internal/dialogue"
	"github.com/antoniostano/rin/internal/memory"
	"github.com/antoniostano/rin/internal/session"
)

type sessionRequest struct {
	SessionID string `json:"session_id"`
}

type turnRequest struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
}

type turnResponse struct {
	SessionID string `json:"session_id"`
	dialogue.Reply
}

type ownerRequest struct {
	Name string `json:"name"`
}

type ownerResponse struct {
	Name  string `json:"name"`
	Known bool   `json:"known"`
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Start()
	s.sessionStarted(sess)
	greeting := s.assistant.Greet(r.Context())

	respondJSON(w, http.StatusCreated, session.StartResponse{
		Session:         sess,
		InactivityTTLMS: s.sessions.InactivityTimeout().Milliseconds(),
		Greeting:        greeting,
	})
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	id := strings.TrimSpace(req.SessionID)
	if id == "" {
		sess, ok := s.sessions.EndCurrent(session.ReasonExplicit)
		if !ok {
			respondError(w, http.StatusNotFound, "session_not_found", "no active session")
			return
		}
		respondJSON(w, http.StatusOK, sess)
		return
	}

	sess, err := s.sessions.End(id, session.ReasonExplicit)
	if err != nil {
		respondSessionError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sess)
}

func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	var req turnRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		respondError(w, http.StatusBadRequest, "empty_text", "text is required")
		return
	}

	sessionID, reply, err := s.runTurn(r.Context(), strings.TrimSpace(req.SessionID), req.Text)
	if err != nil {
		respondSessionError(w, err)
		return
	}
	s.finishTurn(sessionID, reply)
	respondJSON(w, http.StatusOK, turnResponse{SessionID: sessionID, Reply: reply})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "invalid_limit", "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	turns := s.assistant.History(limit)
	if turns == nil {
		turns = []memory.Turn{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"turns": turns})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.assistant.Reset(r.Context())
	s.metrics.SessionEvents.WithLabelValues("reset").Inc()
	respondJSON(w, http.StatusOK, map[string]any{"status": "reset"})
}

func (s *Server) handleGetOwner(w http.ResponseWriter, _ *http.Request) {
	name, ok := s.assistant.Owner()
	respondJSON(w, http.StatusOK, ownerResponse{Name: name, Known: ok})
}

func (s *Server) handleSetOwner(w http.ResponseWriter, r *http.Request) {
	var req ownerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		respondError(w, http.StatusBadRequest, "empty_name", "name is required")
		return
	}
	s.assistant.SetOwner(r.Context(), name)
	respondJSON(w, http.StatusOK, ownerResponse{Name: name, Known: true})
}
