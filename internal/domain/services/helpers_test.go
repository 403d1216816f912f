package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ersonp/memora/internal/domain/entities"
	"github.com/ersonp/memora/internal/domain/mocks"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func date(s string) *time.Time {
	t, err := time.Parse(entities.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return &t
}

// memorial returns an approved memorial owned by creator.
func memorial(id, name, creator string) entities.Memorial {
	return entities.Memorial{
		ID:        id,
		FullName:  name,
		Approved:  true,
		CreatedBy: creator,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func seedMemorials(t *testing.T, store *mocks.GraphStore, ms ...entities.Memorial) {
	t.Helper()
	for i := range ms {
		m := ms[i]
		require.NoError(t, store.SaveMemorial(context.Background(), &m))
	}
}

func seedEdge(
	t *testing.T,
	store *mocks.GraphStore,
	id, a, b string,
	relType entities.RelationType,
	status entities.RelationStatus,
) *entities.Relationship {
	t.Helper()
	rel := &entities.Relationship{
		ID:           id,
		PersonAID:    a,
		PersonBID:    b,
		Type:         relType,
		Status:       status,
		Verification: entities.VerificationUserSuggested,
		CreatedBy:    "seed",
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	require.NoError(t, store.CreateRelationship(context.Background(), rel))
	return rel
}
