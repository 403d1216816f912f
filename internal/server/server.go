// Package server exposes the memorial graph over a JSON HTTP API.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ersonp/memora/internal/application/handlers"
	"github.com/ersonp/memora/internal/domain/services"
)

// Pinger reports whether the backing database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the services the API is built on. Search and Anniversaries may
// be nil.
type Deps struct {
	DB            Pinger
	Memorials     *services.MemorialService
	Resolver      *services.ResolverService
	Tree          *services.TreeService
	Matching      *services.MatchingService
	Suggestions   *services.SuggestionService
	Relationships *services.RelationshipService
	Search        *services.StorySearchService
	Anniversaries *services.AnniversaryService
	Import        *handlers.ImportHandler

	// TreeDepth is the default depth for tree requests without ?depth.
	TreeDepth int
	// MatchLimit is the default limit for match requests without ?limit.
	MatchLimit int
}

// Server is the memora HTTP API server.
type Server struct {
	deps        Deps
	rels        *handlers.RelationshipHandler
	suggestions *handlers.SuggestionHandler
	logger      *slog.Logger
	router      chi.Router
	version     string
	started     time.Time
}

// New creates a new Server.
func New(deps Deps, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if deps.TreeDepth <= 0 {
		deps.TreeDepth = services.DefaultTreeDepth
	}
	rels := handlers.NewRelationshipHandler(deps.Relationships, deps.Resolver)
	s := &Server{
		deps:        deps,
		rels:        rels,
		suggestions: handlers.NewSuggestionHandler(deps.Suggestions, rels),
		logger:      logger,
		version:     version,
		started:     time.Now(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(identify)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Route("/memorials", func(r chi.Router) {
			r.Get("/", s.handleListMemorials)
			r.With(requireUser).Post("/", s.handleCreateMemorial)

			r.Route("/{memorialID}", func(r chi.Router) {
				r.Get("/", s.handleGetMemorial)
				r.With(requireUser).Put("/", s.handleUpdateMemorial)
				r.Get("/relationships", s.handleResolve)
				r.Get("/tree", s.handleTree)
				r.Get("/matches", s.handleMatches)

				r.Route("/suggestions", func(r chi.Router) {
					r.Use(requireUser)
					r.Get("/", s.handleListSuggestions)
					r.Post("/generate", s.handleGenerateSuggestions)
					r.Post("/archive", s.handleArchiveSuggestions)
					r.Post("/{suggestedID}/accept", s.handleAcceptSuggestion)
					r.Post("/{suggestedID}/dismiss", s.handleDismissSuggestion)
				})
			})
		})

		r.Route("/relationships", func(r chi.Router) {
			r.Use(requireUser)
			r.Post("/", s.handleSuggestRelationship)
			r.Get("/pending", s.handlePendingRelationships)
			r.Get("/{relationshipID}", s.handleGetRelationship)
			r.Post("/{relationshipID}/approve", s.handleDecideRelationship("approve"))
			r.Post("/{relationshipID}/reject", s.handleDecideRelationship("reject"))
		})

		r.Get("/search", s.handleSearch)
		r.Get("/anniversaries", s.handleAnniversaries)
		r.With(requireUser).Post("/import", s.handleImport)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbOK := s.deps.DB == nil || s.deps.DB.Ping(r.Context()) == nil

	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"version":      s.version,
		"uptime":       time.Since(s.started).Seconds(),
		"db":           dbOK,
		"story_search": s.deps.Search.Enabled(),
	})
}
