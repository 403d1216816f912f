package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/memora/internal/domain/entities"
	"github.com/ersonp/memora/internal/domain/mocks"
)

type stubGenerator struct {
	mu    sync.Mutex
	calls map[string]int
	err   error
}

func (g *stubGenerator) Generate(_ context.Context, id string) ([]entities.Suggestion, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.calls == nil {
		g.calls = map[string]int{}
	}
	g.calls[id]++
	if g.err != nil {
		return nil, g.err
	}
	return []entities.Suggestion{{ID: "s-" + id}}, nil
}

func TestMatchScheduler_Enqueue(t *testing.T) {
	gen := &stubGenerator{}
	sched := NewMatchScheduler(context.Background(), mocks.NewGraphStore(), gen, 2, testLogger())

	for _, id := range []string{"a", "b", "c", "a"} {
		sched.Enqueue(id)
	}
	sched.Wait()

	assert.Equal(t, map[string]int{"a": 2, "b": 1, "c": 1}, gen.calls)
}

func TestMatchScheduler_Enqueue_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	gen := &stubGenerator{}
	sched := NewMatchScheduler(ctx, mocks.NewGraphStore(), gen, 1, testLogger())

	// Fill the only slot so the next job must wait for it.
	sched.sem <- struct{}{}
	sched.Enqueue("a")
	cancel()
	sched.Wait()
	<-sched.sem

	assert.Empty(t, gen.calls)
}

func TestMatchScheduler_RegenerateAll(t *testing.T) {
	store := mocks.NewGraphStore()
	draft := memorial("draft", "Draft", "u1")
	draft.Approved = false
	seedMemorials(t, store,
		memorial("a", "A", "u1"),
		memorial("b", "B", "u2"),
		memorial("c", "C", "u3"),
		draft,
	)

	gen := &stubGenerator{}
	sched := NewMatchScheduler(context.Background(), store, gen, 2, testLogger())

	result, err := sched.RegenerateAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, RegenerateResult{Memorials: 3, Created: 3}, result)
	assert.NotContains(t, gen.calls, "draft")
}

func TestMatchScheduler_RegenerateAll_Error(t *testing.T) {
	store := mocks.NewGraphStore()
	seedMemorials(t, store, memorial("a", "A", "u1"))

	gen := &stubGenerator{err: errors.New("boom")}
	sched := NewMatchScheduler(context.Background(), store, gen, 0, testLogger())

	_, err := sched.RegenerateAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "generating for a")
}

func TestMatchScheduler_WithSuggestionService(t *testing.T) {
	store := mocks.NewGraphStore()
	john, jon := johnAndJon()
	seedMemorials(t, store, john, jon)

	logger := testLogger()
	suggestions := NewSuggestionService(store, NewMatchingService(store, logger), &mocks.Notifier{}, 5, logger)
	sched := NewMatchScheduler(context.Background(), store, suggestions, 4, logger)

	// Concurrent runs for the same memorial still store one suggestion per pair.
	for range 5 {
		sched.Enqueue("john")
	}
	sched.Wait()

	result, err := sched.RegenerateAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Memorials)

	// john->jon from the enqueued runs, jon->john from the batch.
	assert.Equal(t, 2, store.SuggestionCount())
}
