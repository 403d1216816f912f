package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleListSuggestions(w http.ResponseWriter, r *http.Request) {
	memorialID := chi.URLParam(r, "memorialID")
	if _, err := s.ownedMemorial(r, memorialID); err != nil {
		s.writeError(w, r, err)
		return
	}

	sugs, err := s.suggestions.HandleList(r.Context(), memorialID, r.URL.Query().Get("status"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"memorial_id": memorialID,
		"suggestions": sugs,
	})
}

func (s *Server) handleGenerateSuggestions(w http.ResponseWriter, r *http.Request) {
	memorialID := chi.URLParam(r, "memorialID")
	if _, err := s.ownedMemorial(r, memorialID); err != nil {
		s.writeError(w, r, err)
		return
	}

	created, err := s.deps.Suggestions.Generate(r.Context(), memorialID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"memorial_id": memorialID,
		"created":     created,
	})
}

func (s *Server) handleArchiveSuggestions(w http.ResponseWriter, r *http.Request) {
	memorialID := chi.URLParam(r, "memorialID")
	count, err := s.deps.Suggestions.ArchiveAll(r.Context(), memorialID, userID(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"memorial_id": memorialID,
		"archived":    count,
	})
}

// handleAcceptSuggestion accepts a suggestion. An optional
// {"relationship_type": "..."} body also proposes the edge.
func (s *Server) handleAcceptSuggestion(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RelationshipType string `json:"relationship_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(w, "invalid json")
		return
	}

	res, err := s.suggestions.HandleAccept(r.Context(),
		chi.URLParam(r, "memorialID"), chi.URLParam(r, "suggestedID"), req.RelationshipType, userID(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleDismissSuggestion(w http.ResponseWriter, r *http.Request) {
	sug, err := s.deps.Suggestions.Dismiss(r.Context(),
		chi.URLParam(r, "memorialID"), chi.URLParam(r, "suggestedID"), userID(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sug)
}
