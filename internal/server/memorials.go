package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ersonp/memora/internal/domain/entities"
	"github.com/ersonp/memora/internal/domain/ports"
	"github.com/ersonp/memora/internal/domain/services"
)

const maxPageSize = 200

// handleListMemorials lists approved memorials. ?mine=true lists the
// caller's own memorials, approved or not.
func (s *Server) handleListMemorials(w http.ResponseWriter, r *http.Request) {
	limit, ok := intParam(r, "limit", 50)
	if !ok || limit > maxPageSize {
		badRequest(w, "limit must be between 0 and 200")
		return
	}
	offset, ok := intParam(r, "offset", 0)
	if !ok {
		badRequest(w, "offset must be a non-negative integer")
		return
	}

	filter := ports.MemorialFilter{
		ApprovedOnly: true,
		CreatedBy:    r.URL.Query().Get("created_by"),
		Limit:        limit,
		Offset:       offset,
	}
	if boolParam(r, "mine") {
		user := userID(r)
		if user == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": UserHeader + " header required"})
			return
		}
		filter.ApprovedOnly = false
		filter.CreatedBy = user
	}

	memorials, err := s.deps.Memorials.List(r.Context(), filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"memorials": memorials})
}

func (s *Server) handleCreateMemorial(w http.ResponseWriter, r *http.Request) {
	var in services.MemorialInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		badRequest(w, "invalid json")
		return
	}
	// Publishing is moderated; the API never self-approves.
	in.Approved = false

	m, err := s.deps.Memorials.Create(r.Context(), in, userID(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// handleGetMemorial hides unapproved memorials from everyone but their creator.
func (s *Server) handleGetMemorial(w http.ResponseWriter, r *http.Request) {
	m, ok := s.visibleMemorial(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleUpdateMemorial(w http.ResponseWriter, r *http.Request) {
	var in services.MemorialInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		badRequest(w, "invalid json")
		return
	}

	m, err := s.deps.Memorials.Update(r.Context(), chi.URLParam(r, "memorialID"), in, userID(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	m, ok := s.visibleMemorial(w, r)
	if !ok {
		return
	}

	neighbors, err := s.rels.HandleList(r.Context(), m.ID, relationshipListOptions(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"memorial_id":   m.ID,
		"relationships": neighbors,
	})
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	depth, ok := intParam(r, "depth", s.deps.TreeDepth)
	if !ok {
		badRequest(w, "depth must be a non-negative integer")
		return
	}
	m, ok := s.visibleMemorial(w, r)
	if !ok {
		return
	}

	tree, err := s.deps.Tree.Build(r.Context(), m.ID, depth)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tree)
}

func (s *Server) handleMatches(w http.ResponseWriter, r *http.Request) {
	limit, ok := intParam(r, "limit", s.deps.MatchLimit)
	if !ok {
		badRequest(w, "limit must be a non-negative integer")
		return
	}
	m, ok := s.visibleMemorial(w, r)
	if !ok {
		return
	}

	matches, err := s.deps.Matching.FindMatches(r.Context(), m.ID, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"memorial_id": m.ID,
		"matches":     matches,
	})
}

// visibleMemorial loads the {memorialID} memorial and writes a 404 when it
// does not exist or the caller may not see it.
func (s *Server) visibleMemorial(w http.ResponseWriter, r *http.Request) (*entities.Memorial, bool) {
	m, err := s.deps.Memorials.Get(r.Context(), chi.URLParam(r, "memorialID"))
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	if !m.Approved && !m.OwnedBy(userID(r)) {
		s.writeError(w, r, fmt.Errorf("%w: memorial %s", entities.ErrNotFound, m.ID))
		return nil, false
	}
	return m, true
}
