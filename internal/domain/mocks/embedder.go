// Package mocks provides mock implementations for testing.
package mocks

import (
	"context"
	"sync"
)

// Embedder is a mock implementation of ports.Embedder.
// Vectors maps exact input text to a vector; other texts get EmbeddingResult.
type Embedder struct {
	EmbeddingResult []float32
	Vectors         map[string][]float32
	Err             error

	mu    sync.Mutex
	Texts []string // Every text embedded, in call order
}

// Embed returns the configured embedding or error.
func (m *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	result, err := m.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return result[0], nil
}

// EmbedBatch returns embeddings for multiple texts.
func (m *Embedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	m.Texts = append(m.Texts, texts...)
	m.mu.Unlock()

	result := make([][]float32, len(texts))
	for i, t := range texts {
		if v, ok := m.Vectors[t]; ok {
			result[i] = v
			continue
		}
		result[i] = m.EmbeddingResult
	}
	return result, nil
}
