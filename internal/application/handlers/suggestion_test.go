package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/memora/internal/domain/entities"
)

func TestSuggestionHandler_HandleAccept(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.suggestionSvc.Generate(ctx, "john")
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, "jon", created[0].SuggestedMemorialID)

	t.Run("invalid type leaves suggestion pending", func(t *testing.T) {
		_, err := f.suggestions.HandleAccept(ctx, "john", "jon", "ally", "u1")
		require.ErrorIs(t, err, entities.ErrValidation)

		sug, err := f.store.FindSuggestion(ctx, "john", "jon")
		require.NoError(t, err)
		assert.Equal(t, entities.SuggestionPending, sug.Status)
	})

	t.Run("accept and propose", func(t *testing.T) {
		res, err := f.suggestions.HandleAccept(ctx, "john", "jon", "sibling", "u1")
		require.NoError(t, err)
		assert.Equal(t, entities.SuggestionAccepted, res.Suggestion.Status)
		require.NotNil(t, res.Relationship)
		assert.True(t, res.Relationship.Created)
		assert.Equal(t, entities.StatusPending, res.Relationship.Relationship.Status)
		assert.Len(t, f.notifier.SentOfKind(entities.NotifyRelationshipSuggested), 1)
	})

	t.Run("accept without type", func(t *testing.T) {
		res, err := f.suggestions.HandleAccept(ctx, "john", "jon", "", "u1")
		require.NoError(t, err)
		assert.Nil(t, res.Relationship)
	})

	t.Run("non-owner", func(t *testing.T) {
		_, err := f.suggestions.HandleAccept(ctx, "john", "jon", "", "u2")
		require.ErrorIs(t, err, entities.ErrPermissionDenied)
	})
}

func TestSuggestionHandler_HandleList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.suggestionSvc.Generate(ctx, "john")
	require.NoError(t, err)

	pending, err := f.suggestions.HandleList(ctx, "john", "pending")
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	accepted, err := f.suggestions.HandleList(ctx, "john", "accepted")
	require.NoError(t, err)
	assert.Empty(t, accepted)

	_, err = f.suggestions.HandleList(ctx, "john", "bogus")
	require.ErrorIs(t, err, entities.ErrValidation)
}
