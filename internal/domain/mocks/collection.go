package mocks

import "context"

// CollectionManager is a mock implementation of ports.CollectionManager.
type CollectionManager struct {
	EnsureCollectionErr error
	DeleteCollectionErr error

	EnsureCollectionCallCount int
	DeleteCollectionCallCount int
	VectorSize                uint64
}

// EnsureCollection records the call and returns the configured error.
func (m *CollectionManager) EnsureCollection(_ context.Context, vectorSize uint64) error {
	m.EnsureCollectionCallCount++
	m.VectorSize = vectorSize
	return m.EnsureCollectionErr
}

// DeleteCollection records the call and returns the configured error.
func (m *CollectionManager) DeleteCollection(_ context.Context) error {
	m.DeleteCollectionCallCount++
	return m.DeleteCollectionErr
}
