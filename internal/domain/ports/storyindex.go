package ports

import (
	"context"

	"github.com/ersonp/memora/internal/domain/entities"
)

// StoryHit is a memorial found by semantic story search.
type StoryHit struct {
	MemorialID string  `json:"memorial_id"`
	Score      float32 `json:"score"`
}

// StoryIndex stores memorial story embeddings for semantic search.
type StoryIndex interface {
	// Upsert stores or replaces the embedding of a memorial.
	Upsert(ctx context.Context, memorial *entities.Memorial, embedding []float32) error

	// Search returns approved memorials closest to the embedding.
	Search(ctx context.Context, embedding []float32, limit int) ([]StoryHit, error)

	// Delete removes a memorial from the index.
	Delete(ctx context.Context, memorialID string) error
}
