package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ersonp/memora/internal/application/handlers"
	"github.com/ersonp/memora/internal/domain/services"
	"github.com/ersonp/memora/internal/infrastructure/config"
	embedder "github.com/ersonp/memora/internal/infrastructure/embedder/openai"
	"github.com/ersonp/memora/internal/infrastructure/notify"
	"github.com/ersonp/memora/internal/infrastructure/relationaldb/sqlite"
	"github.com/ersonp/memora/internal/infrastructure/vectordb/qdrant"
)

// Deps holds the services commands operate on.
type Deps struct {
	Config *config.Config
	Logger *slog.Logger

	Memorials     *services.MemorialService
	Resolver      *services.ResolverService
	Tree          *services.TreeService
	Matching      *services.MatchingService
	Suggestions   *services.SuggestionService
	Relationships *services.RelationshipService
	Scheduler     *services.MatchScheduler
	Search        *services.StorySearchService
	Anniversaries *services.AnniversaryService

	RelationshipHandler *handlers.RelationshipHandler
	SuggestionHandler   *handlers.SuggestionHandler
	ImportHandler       *handlers.ImportHandler

	store *sqlite.Repository
}

// withDeps loads config and builds dependencies, then calls the provided function.
// Background match jobs are drained and connections closed when fn returns.
func withDeps(ctx context.Context, fn func(*Deps) error) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	cfg, err := config.Load(cwd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger := newLogger(os.Stderr, cfg.Log)

	store, err := sqlite.NewRepository(cfg.SQLite)
	if err != nil {
		return fmt.Errorf("creating sqlite repository: %w", err)
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensuring sqlite schema: %w", err)
	}

	search, closeSearch, err := newStorySearch(cfg, store, logger)
	if err != nil {
		return err
	}
	defer closeSearch()

	notifier := notify.NewLogNotifier(logger)
	matching := services.NewMatchingService(store, logger)
	suggestions := services.NewSuggestionService(store, matching, notifier, cfg.Matching.Limit, logger)
	scheduler := services.NewMatchScheduler(ctx, store, suggestions, cfg.Matching.Workers, logger)
	defer scheduler.Wait()

	var queue services.MatchQueue
	if cfg.Matching.GenerateOnApproval {
		queue = scheduler
	}
	var indexer services.StoryIndexer
	if search.Enabled() {
		indexer = search
	}

	memorials := services.NewMemorialService(store, queue, indexer, logger)
	resolver := services.NewResolverService(store, logger)
	relationships := services.NewRelationshipService(store, notifier, logger)
	relHandler := handlers.NewRelationshipHandler(relationships, resolver)

	return fn(&Deps{
		Config:              cfg,
		Logger:              logger,
		Memorials:           memorials,
		Resolver:            resolver,
		Tree:                services.NewTreeService(store, resolver, logger),
		Matching:            matching,
		Suggestions:         suggestions,
		Relationships:       relationships,
		Scheduler:           scheduler,
		Search:              search,
		Anniversaries:       services.NewAnniversaryService(store, notifier, logger),
		RelationshipHandler: relHandler,
		SuggestionHandler:   handlers.NewSuggestionHandler(suggestions, relHandler),
		ImportHandler:       handlers.NewImportHandler(services.NewImportService(store, memorials, logger)),
		store:               store,
	})
}

// newStorySearch wires the embedder and Qdrant index when an embedder key
// is configured. The returned service is nil otherwise.
func newStorySearch(
	cfg *config.Config,
	store *sqlite.Repository,
	logger *slog.Logger,
) (*services.StorySearchService, func(), error) {
	if !cfg.StorySearchEnabled() {
		return nil, func() {}, nil
	}

	emb, err := embedder.NewEmbedder(cfg.Embedder)
	if err != nil {
		return nil, nil, fmt.Errorf("creating embedder: %w", err)
	}
	index, err := qdrant.NewRepository(cfg.Qdrant)
	if err != nil {
		return nil, nil, fmt.Errorf("creating qdrant repository: %w", err)
	}

	closeFn := func() {
		if err := index.Close(); err != nil {
			logger.Warn("closing qdrant connection", "error", err)
		}
	}
	return services.NewStorySearchService(store, emb, index, logger), closeFn, nil
}

// newLogger builds the process logger from the log config.
func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// requireUser returns the --user value or an error when it is missing.
func requireUser() (string, error) {
	if globalUser == "" {
		return "", errors.New("user is required (use --user or MEMORA_USER)")
	}
	return globalUser, nil
}
