// Package handlers contains application use case handlers shared by the CLI
// and the HTTP API.
package handlers

import (
	"context"
	"fmt"

	"github.com/ersonp/memora/internal/domain/ports"
	"github.com/ersonp/memora/internal/infrastructure/config"
	embedder "github.com/ersonp/memora/internal/infrastructure/embedder/openai"
)

// StoreOpener opens the graph store described by cfg.
type StoreOpener func(cfg *config.Config) (ports.GraphStore, error)

// CollectionOpener connects to the story index described by cfg. The
// returned close function releases the connection.
type CollectionOpener func(cfg *config.Config) (ports.CollectionManager, func() error, error)

// InitHandler handles workspace initialization.
type InitHandler struct {
	openStore       StoreOpener
	openCollections CollectionOpener
}

// NewInitHandler creates a new init handler. openCollections may be nil,
// which skips creating the story index collection.
func NewInitHandler(openStore StoreOpener, openCollections CollectionOpener) *InitHandler {
	return &InitHandler{
		openStore:       openStore,
		openCollections: openCollections,
	}
}

// InitResult contains the result of initialization.
type InitResult struct {
	ConfigPath     string
	DatabasePath   string
	CollectionName string // Empty when story search is not configured
}

// Handle writes the default config under basePath, creates the database
// schema and, when story search is configured, the vector collection.
func (h *InitHandler) Handle(ctx context.Context, basePath string) (*InitResult, error) {
	if config.Exists(basePath) {
		return nil, fmt.Errorf("memora already initialized in %s", basePath)
	}

	if err := config.WriteDefault(basePath); err != nil {
		return nil, fmt.Errorf("writing default config: %w", err)
	}

	cfg, err := config.Load(basePath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	store, err := h.openStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	result := &InitResult{
		ConfigPath:   config.ConfigFilePath(basePath),
		DatabasePath: cfg.SQLite.Path,
	}

	if h.openCollections == nil || !cfg.StorySearchEnabled() {
		return result, nil
	}

	collections, closeFn, err := h.openCollections(cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to story index: %w", err)
	}
	defer closeFn()

	if err := collections.EnsureCollection(ctx, embedder.VectorSize); err != nil {
		return nil, fmt.Errorf("creating collection: %w", err)
	}
	result.CollectionName = cfg.Qdrant.Collection

	return result, nil
}
