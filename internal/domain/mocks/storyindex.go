package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/ersonp/memora/internal/domain/entities"
	"github.com/ersonp/memora/internal/domain/ports"
)

// StoryIndex is an in-memory mock of ports.StoryIndex scoring by dot product.
type StoryIndex struct {
	Err error

	mu       sync.Mutex
	vectors  map[string][]float32
	approved map[string]bool
}

// NewStoryIndex creates an empty mock index.
func NewStoryIndex() *StoryIndex {
	return &StoryIndex{
		vectors:  make(map[string][]float32),
		approved: make(map[string]bool),
	}
}

// Upsert stores the embedding of a memorial.
func (m *StoryIndex) Upsert(_ context.Context, memorial *entities.Memorial, embedding []float32) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vectors[memorial.ID] = embedding
	m.approved[memorial.ID] = memorial.Approved
	return nil
}

// Search returns approved memorials ordered by dot product with the embedding.
func (m *StoryIndex) Search(_ context.Context, embedding []float32, limit int) ([]ports.StoryHit, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	hits := make([]ports.StoryHit, 0, len(m.vectors))
	for id, v := range m.vectors {
		if !m.approved[id] {
			continue
		}
		var score float32
		for i := range v {
			if i < len(embedding) {
				score += v[i] * embedding[i]
			}
		}
		hits = append(hits, ports.StoryHit{MemorialID: id, Score: score})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].MemorialID < hits[j].MemorialID
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// Delete removes a memorial from the index.
func (m *StoryIndex) Delete(_ context.Context, memorialID string) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.vectors, memorialID)
	delete(m.approved, memorialID)
	return nil
}

// Len returns the number of indexed memorials.
func (m *StoryIndex) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.vectors)
}
