package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/memora/internal/domain/entities"
	"github.com/ersonp/memora/internal/domain/ports"
	"github.com/ersonp/memora/internal/infrastructure/config"
)

// setupTestRepo creates an in-memory SQLite repository for testing.
func setupTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(config.SQLiteConfig{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	err = repo.EnsureSchema(context.Background())
	require.NoError(t, err)

	return repo
}

func mustDate(t *testing.T, s string) *time.Time {
	t.Helper()
	d, err := entities.ParseDate(s)
	require.NoError(t, err)
	return d
}

func newMemorial(id, name, creator string, approved bool) *entities.Memorial {
	now := time.Now().UTC().Truncate(time.Second)
	return &entities.Memorial{
		ID:        id,
		FullName:  name,
		Approved:  approved,
		CreatedBy: creator,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func newEdge(id, a, b string, relType entities.RelationType, status entities.RelationStatus) *entities.Relationship {
	now := time.Now().UTC()
	return &entities.Relationship{
		ID:           id,
		PersonAID:    a,
		PersonBID:    b,
		Type:         relType,
		Status:       status,
		Verification: entities.VerificationUserSuggested,
		CreatedBy:    "u1",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func seed(t *testing.T, repo *Repository, memorials ...*entities.Memorial) {
	t.Helper()
	for _, m := range memorials {
		require.NoError(t, repo.SaveMemorial(context.Background(), m))
	}
}

func TestNewRepository(t *testing.T) {
	t.Run("success with memory database", func(t *testing.T) {
		repo, err := NewRepository(config.SQLiteConfig{Path: ":memory:"})
		require.NoError(t, err)
		defer repo.Close()
		assert.NotNil(t, repo)
		assert.Equal(t, ":memory:", repo.Path())
		require.NoError(t, repo.Ping(context.Background()))
	})

	t.Run("error with empty path", func(t *testing.T) {
		_, err := NewRepository(config.SQLiteConfig{Path: ""})
		require.Error(t, err)
	})
}

func TestRepository_EnsureSchema(t *testing.T) {
	repo := setupTestRepo(t)

	tables := []string{"memorials", "family_relationships", "smart_match_suggestions", "audit_log"}
	for _, table := range tables {
		var count int
		err := repo.db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count, "table %s should exist", table)
	}
}

func TestRepository_EnsureSchema_Idempotent(t *testing.T) {
	repo := setupTestRepo(t)

	err := repo.EnsureSchema(context.Background())
	require.NoError(t, err)
}

func TestRepository_Memorials(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	m := newMemorial("m1", "John Smith", "u1", false)
	m.DateOfBirth = mustDate(t, "1920-03-11")
	m.DateOfDeath = mustDate(t, "1990-07-02")
	m.Country = "US"
	m.Region = "Ohio"
	m.Biography = "Carpenter and father of three."
	require.NoError(t, repo.SaveMemorial(ctx, m))

	t.Run("find by id", func(t *testing.T) {
		got, err := repo.FindMemorialByID(ctx, "m1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "John Smith", got.FullName)
		assert.Equal(t, "Ohio", got.Region)
		assert.False(t, got.Approved)
		require.NotNil(t, got.DateOfBirth)
		assert.Equal(t, 1920, got.BirthYear())
		assert.Equal(t, 1990, got.DeathYear())
	})

	t.Run("missing returns nil", func(t *testing.T) {
		got, err := repo.FindMemorialByID(ctx, "nope")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("save updates in place", func(t *testing.T) {
		m.Biography = "Carpenter."
		require.NoError(t, repo.SaveMemorial(ctx, m))

		got, err := repo.FindMemorialByID(ctx, "m1")
		require.NoError(t, err)
		assert.Equal(t, "Carpenter.", got.Biography)

		count, err := repo.CountMemorials(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("approve", func(t *testing.T) {
		require.NoError(t, repo.SetMemorialApproved(ctx, "m1", true))
		got, err := repo.FindMemorialByID(ctx, "m1")
		require.NoError(t, err)
		assert.True(t, got.Approved)

		err = repo.SetMemorialApproved(ctx, "nope", true)
		require.ErrorIs(t, err, entities.ErrNotFound)
	})

	t.Run("no dates round trip as nil", func(t *testing.T) {
		require.NoError(t, repo.SaveMemorial(ctx, newMemorial("m2", "Ann Lee", "u2", true)))
		got, err := repo.FindMemorialByID(ctx, "m2")
		require.NoError(t, err)
		assert.Nil(t, got.DateOfBirth)
		assert.Nil(t, got.DateOfDeath)
	})
}

func TestRepository_FindMemorialsByIDs(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	seed(t, repo,
		newMemorial("b", "B", "u1", true),
		newMemorial("a", "A", "u1", true),
		newMemorial("c", "C", "u1", true),
	)

	got, err := repo.FindMemorialsByIDs(ctx, []string{"c", "a", "missing"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "c", got[1].ID)

	empty, err := repo.FindMemorialsByIDs(ctx, nil)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestRepository_ListMemorials(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	seed(t, repo,
		newMemorial("m1", "One", "u1", true),
		newMemorial("m2", "Two", "u1", false),
		newMemorial("m3", "Three", "u2", true),
		newMemorial("m4", "Four", "u3", true),
	)

	ids := func(ms []*entities.Memorial) []string {
		out := make([]string, len(ms))
		for i, m := range ms {
			out[i] = m.ID
		}
		return out
	}

	tests := []struct {
		name   string
		filter ports.MemorialFilter
		want   []string
	}{
		{"all", ports.MemorialFilter{}, []string{"m1", "m2", "m3", "m4"}},
		{"approved only", ports.MemorialFilter{ApprovedOnly: true}, []string{"m1", "m3", "m4"}},
		{"by creator", ports.MemorialFilter{CreatedBy: "u1"}, []string{"m1", "m2"}},
		{"exclude creator", ports.MemorialFilter{ExcludeCreator: "u1"}, []string{"m3", "m4"}},
		{"exclude ids", ports.MemorialFilter{ExcludeIDs: []string{"m1", "m4"}}, []string{"m2", "m3"}},
		{"paged", ports.MemorialFilter{Limit: 2, Offset: 1}, []string{"m2", "m3"}},
		{
			"candidate pool",
			ports.MemorialFilter{ApprovedOnly: true, ExcludeCreator: "u2", ExcludeIDs: []string{"m4"}},
			[]string{"m1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.ListMemorials(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestRepository_FindMemorialsByAnniversary(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	born := newMemorial("born", "Born March", "u1", true)
	born.DateOfBirth = mustDate(t, "1931-03-11")
	died := newMemorial("died", "Died March", "u1", true)
	died.DateOfBirth = mustDate(t, "1901-01-01")
	died.DateOfDeath = mustDate(t, "1970-03-11")
	hidden := newMemorial("hidden", "Unapproved", "u1", false)
	hidden.DateOfBirth = mustDate(t, "1950-03-11")
	other := newMemorial("other", "Other Day", "u1", true)
	other.DateOfBirth = mustDate(t, "1950-03-12")
	seed(t, repo, born, died, hidden, other)

	got, err := repo.FindMemorialsByAnniversary(ctx, time.March, 11)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "born", got[0].ID)
	assert.Equal(t, "died", got[1].ID)
}

func TestRepository_CreateRelationship(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	seed(t, repo,
		newMemorial("a", "A", "u1", true),
		newMemorial("b", "B", "u2", true),
		newMemorial("draft", "Draft", "u2", false),
	)

	rel := newEdge("r1", "a", "b", entities.RelationParent, entities.StatusPending)
	suggestedBy := "u1"
	rel.SuggestedBy = &suggestedBy
	rel.Note = "from the family bible"
	require.NoError(t, repo.CreateRelationship(ctx, rel))

	t.Run("round trip", func(t *testing.T) {
		got, err := repo.FindRelationshipByID(ctx, "r1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, entities.RelationParent, got.Type)
		assert.Equal(t, entities.StatusPending, got.Status)
		assert.Equal(t, entities.VerificationUserSuggested, got.Verification)
		require.NotNil(t, got.SuggestedBy)
		assert.Equal(t, "u1", *got.SuggestedBy)
		assert.Equal(t, "from the family bible", got.Note)
	})

	t.Run("find by triple", func(t *testing.T) {
		got, err := repo.FindRelationship(ctx, "a", "b", entities.RelationParent)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "r1", got.ID)

		got, err = repo.FindRelationship(ctx, "b", "a", entities.RelationParent)
		require.NoError(t, err)
		assert.Nil(t, got, "triples are directional")
	})

	t.Run("duplicate triple", func(t *testing.T) {
		err := repo.CreateRelationship(ctx, newEdge("r2", "a", "b", entities.RelationParent, entities.StatusApproved))
		require.ErrorIs(t, err, entities.ErrDuplicateEdge)
	})

	t.Run("different type is a new edge", func(t *testing.T) {
		err := repo.CreateRelationship(ctx, newEdge("r3", "a", "b", entities.RelationSpouse, entities.StatusApproved))
		require.NoError(t, err)
	})

	t.Run("missing endpoint", func(t *testing.T) {
		err := repo.CreateRelationship(ctx, newEdge("r4", "a", "ghost", entities.RelationSibling, entities.StatusApproved))
		require.ErrorIs(t, err, entities.ErrInvalidReference)
	})

	t.Run("unapproved endpoint", func(t *testing.T) {
		err := repo.CreateRelationship(ctx, newEdge("r5", "draft", "a", entities.RelationSibling, entities.StatusApproved))
		require.ErrorIs(t, err, entities.ErrInvalidReference)
	})

	count, err := repo.CountRelationships(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestRepository_FindRelationshipsByMemorial(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	seed(t, repo,
		newMemorial("a", "A", "u1", true),
		newMemorial("b", "B", "u2", true),
		newMemorial("c", "C", "u3", true),
	)
	require.NoError(t, repo.CreateRelationship(ctx, newEdge("r1", "a", "b", entities.RelationParent, entities.StatusApproved)))
	require.NoError(t, repo.CreateRelationship(ctx, newEdge("r2", "c", "a", entities.RelationSibling, entities.StatusPending)))
	require.NoError(t, repo.CreateRelationship(ctx, newEdge("r3", "b", "c", entities.RelationCousin, entities.StatusApproved)))

	all, err := repo.FindRelationshipsByMemorial(ctx, "a", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	approved, err := repo.FindRelationshipsByMemorial(ctx, "a", entities.StatusApproved)
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, "r1", approved[0].ID)

	none, err := repo.FindRelationshipsByMemorial(ctx, "ghost", "")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRepository_FindPendingRelationshipsForOwner(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	seed(t, repo,
		newMemorial("a", "A", "u1", true),
		newMemorial("b", "B", "u2", true),
		newMemorial("c", "C", "u3", true),
	)
	require.NoError(t, repo.CreateRelationship(ctx, newEdge("r1", "a", "b", entities.RelationParent, entities.StatusPending)))
	require.NoError(t, repo.CreateRelationship(ctx, newEdge("r2", "a", "c", entities.RelationSibling, entities.StatusApproved)))
	require.NoError(t, repo.CreateRelationship(ctx, newEdge("r3", "c", "a", entities.RelationCousin, entities.StatusPending)))

	got, err := repo.FindPendingRelationshipsForOwner(ctx, "u2")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "r1", got[0].ID)

	got, err = repo.FindPendingRelationshipsForOwner(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestRepository_UpdateRelationshipStatus(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	seed(t, repo, newMemorial("a", "A", "u1", true), newMemorial("b", "B", "u2", true))
	require.NoError(t, repo.CreateRelationship(ctx, newEdge("r1", "a", "b", entities.RelationParent, entities.StatusPending)))

	err := repo.UpdateRelationshipStatus(ctx, "r1",
		entities.StatusPending, entities.StatusApproved, entities.VerificationCreatorVerified)
	require.NoError(t, err)

	got, err := repo.FindRelationshipByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, entities.StatusApproved, got.Status)
	assert.Equal(t, entities.VerificationCreatorVerified, got.Verification)

	t.Run("stale from status", func(t *testing.T) {
		err := repo.UpdateRelationshipStatus(ctx, "r1",
			entities.StatusPending, entities.StatusRejected, entities.VerificationUserSuggested)
		require.ErrorIs(t, err, entities.ErrStaleStatus)

		got, err := repo.FindRelationshipByID(ctx, "r1")
		require.NoError(t, err)
		assert.Equal(t, entities.StatusApproved, got.Status, "unchanged")
	})

	t.Run("missing edge", func(t *testing.T) {
		err := repo.UpdateRelationshipStatus(ctx, "ghost",
			entities.StatusPending, entities.StatusApproved, entities.VerificationCreatorVerified)
		require.ErrorIs(t, err, entities.ErrNotFound)
	})
}

func newSuggestion(id, my, suggested string, score int) *entities.Suggestion {
	now := time.Now().UTC()
	return &entities.Suggestion{
		ID:                  id,
		MyMemorialID:        my,
		SuggestedMemorialID: suggested,
		ConfidenceScore:     score,
		Reasons:             []string{"Same family surname"},
		Status:              entities.SuggestionPending,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

func TestRepository_Suggestions(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	seed(t, repo,
		newMemorial("a", "A", "u1", true),
		newMemorial("b", "B", "u2", true),
		newMemorial("c", "C", "u3", true),
		newMemorial("d", "D", "u4", true),
	)
	require.NoError(t, repo.CreateSuggestion(ctx, newSuggestion("s1", "a", "b", 60)))
	require.NoError(t, repo.CreateSuggestion(ctx, newSuggestion("s2", "a", "c", 80)))
	require.NoError(t, repo.CreateSuggestion(ctx, newSuggestion("s3", "a", "d", 60)))

	t.Run("duplicate pair", func(t *testing.T) {
		err := repo.CreateSuggestion(ctx, newSuggestion("s4", "a", "b", 99))
		require.ErrorIs(t, err, entities.ErrDuplicateSuggestion)
	})

	t.Run("find pair", func(t *testing.T) {
		got, err := repo.FindSuggestion(ctx, "a", "b")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, 60, got.ConfidenceScore)
		assert.Equal(t, []string{"Same family surname"}, got.Reasons)
		assert.False(t, got.UserNotified)
		assert.Nil(t, got.NotificationSentAt)

		got, err = repo.FindSuggestion(ctx, "b", "a")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("list best first", func(t *testing.T) {
		got, err := repo.FindSuggestionsByMemorial(ctx, "a", "")
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, "c", got[0].SuggestedMemorialID)
		assert.Equal(t, "b", got[1].SuggestedMemorialID)
		assert.Equal(t, "d", got[2].SuggestedMemorialID)
	})

	t.Run("update status", func(t *testing.T) {
		require.NoError(t, repo.UpdateSuggestionStatus(ctx, "a", "c", entities.SuggestionDismissed))
		got, err := repo.FindSuggestion(ctx, "a", "c")
		require.NoError(t, err)
		assert.Equal(t, entities.SuggestionDismissed, got.Status)

		err = repo.UpdateSuggestionStatus(ctx, "a", "ghost", entities.SuggestionAccepted)
		require.ErrorIs(t, err, entities.ErrNotFound)
	})

	t.Run("mark notified", func(t *testing.T) {
		at := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
		require.NoError(t, repo.MarkSuggestionsNotified(ctx, []string{"s1", "s3"}, at))
		require.NoError(t, repo.MarkSuggestionsNotified(ctx, nil, at))

		got, err := repo.FindSuggestion(ctx, "a", "b")
		require.NoError(t, err)
		assert.True(t, got.UserNotified)
		require.NotNil(t, got.NotificationSentAt)
		assert.True(t, at.Equal(*got.NotificationSentAt))
	})

	t.Run("archive pending only", func(t *testing.T) {
		n, err := repo.ArchivePendingSuggestions(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		archived, err := repo.FindSuggestionsByMemorial(ctx, "a", entities.SuggestionArchived)
		require.NoError(t, err)
		assert.Len(t, archived, 2)

		dismissed, err := repo.FindSuggestion(ctx, "a", "c")
		require.NoError(t, err)
		assert.Equal(t, entities.SuggestionDismissed, dismissed.Status)

		n, err = repo.ArchivePendingSuggestions(ctx, "a")
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

func TestRepository_AuditLog(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.LogAction(ctx, entities.ActionRelationshipSuggested, "r1", "u1",
		map[string]any{"type": "parent"}))
	require.NoError(t, repo.LogAction(ctx, entities.ActionRelationshipApproved, "r1", "u2", nil))
	require.NoError(t, repo.LogAction(ctx, entities.ActionMemorialApproved, "m1", "", nil))

	entries, err := repo.FindAuditLog(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, entities.ActionRelationshipApproved, entries[0].Action)
	assert.Equal(t, "u2", entries[0].ActorID)
	assert.Nil(t, entries[0].Details)
	assert.Equal(t, entities.ActionRelationshipSuggested, entries[1].Action)
	assert.Equal(t, "parent", entries[1].Details["type"])

	entries, err = repo.FindAuditLog(ctx, "m1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Empty(t, entries[0].ActorID)
}
