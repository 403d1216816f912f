package handlers

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ersonp/memora/internal/domain/entities"
	"github.com/ersonp/memora/internal/domain/mocks"
	"github.com/ersonp/memora/internal/domain/services"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fixture wires the services over an in-memory store seeded with three
// approved memorials: john (u1), jon (u2) and jane (u1).
type fixture struct {
	store         *mocks.GraphStore
	notifier      *mocks.Notifier
	relationships *RelationshipHandler
	suggestions   *SuggestionHandler
	suggestionSvc *services.SuggestionService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := mocks.NewGraphStore()
	birth := func(s string) *time.Time {
		d, err := entities.ParseDate(s)
		require.NoError(t, err)
		return d
	}
	for _, m := range []entities.Memorial{
		{ID: "john", FullName: "John Smith", DateOfBirth: birth("1950-01-01"), Country: "US", Approved: true, CreatedBy: "u1"},
		{ID: "jon", FullName: "Jon Smith", DateOfBirth: birth("1951-06-15"), Country: "US", Approved: true, CreatedBy: "u2"},
		{ID: "jane", FullName: "Jane Smith", Country: "US", Approved: true, CreatedBy: "u1"},
	} {
		require.NoError(t, store.SaveMemorial(context.Background(), &m))
	}

	logger := testLogger()
	notifier := &mocks.Notifier{}
	relSvc := services.NewRelationshipService(store, notifier, logger)
	resolver := services.NewResolverService(store, logger)
	sugSvc := services.NewSuggestionService(store, services.NewMatchingService(store, logger), notifier, 0, logger)

	relHandler := NewRelationshipHandler(relSvc, resolver)
	return &fixture{
		store:         store,
		notifier:      notifier,
		relationships: relHandler,
		suggestions:   NewSuggestionHandler(sugSvc, relHandler),
		suggestionSvc: sugSvc,
	}
}
