package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ersonp/memora/internal/application/handlers"
)

func relationshipListOptions(r *http.Request) handlers.ListOptions {
	q := r.URL.Query()
	return handlers.ListOptions{
		Status: q.Get("status"),
		Type:   q.Get("type"),
	}
}

func (s *Server) handleSuggestRelationship(w http.ResponseWriter, r *http.Request) {
	var req handlers.SuggestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid json")
		return
	}

	res, err := s.rels.HandleSuggest(r.Context(), req, userID(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, res)
}

func (s *Server) handleGetRelationship(w http.ResponseWriter, r *http.Request) {
	rel, err := s.deps.Relationships.Get(r.Context(), chi.URLParam(r, "relationshipID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rel)
}

func (s *Server) handlePendingRelationships(w http.ResponseWriter, r *http.Request) {
	pending, err := s.rels.HandlePending(r.Context(), userID(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"relationships": pending})
}

func (s *Server) handleDecideRelationship(decision string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rel, err := s.rels.HandleDecide(r.Context(), chi.URLParam(r, "relationshipID"), decision, userID(r))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, rel)
	}
}
