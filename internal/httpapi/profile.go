package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/antoniostano/rin/internal/memory"
)

type itemRequest struct {
	Value string `json:"value"`
}

type profileResponse struct {
	Owner       string                `json:"owner,omitempty"`
	Preferences []string              `json:"preferences"`
	Favorites   []string              `json:"favorites"`
	TopCommands []memory.CommandCount `json:"top_commands"`
}

func (s *Server) handleAddPreference(w http.ResponseWriter, r *http.Request) {
	value, ok := readItem(w, r)
	if !ok {
		return
	}
	added := s.profile.AddPreference(r.Context(), value)
	respondJSON(w, http.StatusOK, map[string]any{
		"added":       added,
		"preferences": nonNil(s.profile.Preferences()),
	})
}

func (s *Server) handleAddFavorite(w http.ResponseWriter, r *http.Request) {
	value, ok := readItem(w, r)
	if !ok {
		return
	}
	added := s.profile.AddFavorite(r.Context(), value)
	respondJSON(w, http.StatusOK, map[string]any{
		"added":     added,
		"favorites": nonNil(s.profile.Favorites()),
	})
}

func (s *Server) handleProfile(w http.ResponseWriter, _ *http.Request) {
	owner, _ := s.assistant.Owner()
	top := s.profile.TopCommands(5)
	if top == nil {
		top = []memory.CommandCount{}
	}
	respondJSON(w, http.StatusOK, profileResponse{
		Owner:       owner,
		Preferences: nonNil(s.profile.Preferences()),
		Favorites:   nonNil(s.profile.Favorites()),
		TopCommands: top,
	})
}

func (s *Server) handleRecommendation(w http.ResponseWriter, r *http.Request) {
	suggestion, err := s.profile.SuggestRecommendation(r.Context())
	switch {
	case errors.Is(err, memory.ErrNoPreferences):
		respondError(w, http.StatusNotFound, "no_preferences", err.Error())
	case errors.Is(err, memory.ErrSuggestionsExhausted):
		respondError(w, http.StatusNotFound, "suggestions_exhausted", err.Error())
	case err != nil:
		respondError(w, http.StatusInternalServerError, "internal", err.Error())
	default:
		respondJSON(w, http.StatusOK, map[string]any{"suggestion": suggestion})
	}
}

func (s *Server) handleTopCommands(w http.ResponseWriter, r *http.Request) {
	n := 3
	if raw := strings.TrimSpace(r.URL.Query().Get("n")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			respondError(w, http.StatusBadRequest, "invalid_n", "n must be a positive integer")
			return
		}
		n = v
	}
	top := s.profile.TopCommands(n)
	if top == nil {
		top = []memory.CommandCount{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"commands": top})
}

func readItem(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req itemRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return "", false
	}
	value := strings.TrimSpace(req.Value)
	if value == "" {
		respondError(w, http.StatusBadRequest, "empty_value", "value is required")
		return "", false
	}
	return value, true
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
