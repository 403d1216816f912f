package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ersonp/memora/internal/application/handlers"
	"github.com/ersonp/memora/internal/domain/entities"
	"github.com/ersonp/memora/internal/domain/services"
)

const maxImportBytes = 10 << 20

func (s *Server) ownedMemorial(r *http.Request, memorialID string) (*entities.Memorial, error) {
	m, err := s.deps.Memorials.Get(r.Context(), memorialID)
	if err != nil {
		return nil, err
	}
	if !m.OwnedBy(userID(r)) {
		return nil, fmt.Errorf("%w: memorial %s belongs to another user", entities.ErrPermissionDenied, memorialID)
	}
	return m, nil
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	limit, ok := intParam(r, "limit", services.DefaultSearchLimit)
	if !ok {
		badRequest(w, "limit must be a non-negative integer")
		return
	}

	results, err := s.deps.Search.Search(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

// handleAnniversaries lists upcoming anniversaries. ?days=1,7 picks the
// lead times and ?date=YYYY-MM-DD overrides today.
func (s *Server) handleAnniversaries(w http.ResponseWriter, r *http.Request) {
	if s.deps.Anniversaries == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "anniversaries not configured"})
		return
	}

	today := time.Now()
	if raw := r.URL.Query().Get("date"); raw != "" {
		d, err := time.Parse(entities.DateLayout, raw)
		if err != nil {
			badRequest(w, "date must be YYYY-MM-DD")
			return
		}
		today = d
	}

	days, err := parseDays(r.URL.Query().Get("days"))
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	reminders, err := s.deps.Anniversaries.Upcoming(r.Context(), today, days)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	type item struct {
		services.Reminder
		Message string `json:"message"`
	}
	items := make([]item, len(reminders))
	for i, rem := range reminders {
		items[i] = item{Reminder: rem, Message: rem.Message()}
	}
	writeJSON(w, http.StatusOK, map[string]any{"reminders": items})
}

// handleImport imports memorials from the request body. ?format=csv|json is
// required; ?dry_run=true validates only.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if s.deps.Import == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "import not configured"})
		return
	}
	format := r.URL.Query().Get("format")
	if format != "csv" && format != "json" {
		badRequest(w, "format must be csv or json")
		return
	}

	body := http.MaxBytesReader(w, r.Body, maxImportBytes)
	result, err := s.deps.Import.HandleReader(r.Context(), body, userID(r), handlers.ImportOptions{
		Format: format,
		DryRun: boolParam(r, "dry_run"),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func parseDays(raw string) ([]int, error) {
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	days := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid day count %q", p)
		}
		days = append(days, n)
	}
	return days, nil
}
