package ports

import (
	"context"
	"time"

	"github.com/ersonp/memora/internal/domain/entities"
)

// MemorialFilter narrows memorial listings.
type MemorialFilter struct {
	CreatedBy      string   // Only memorials by this creator (empty = any)
	ExcludeCreator string   // Skip memorials by this creator (empty = none)
	ExcludeIDs     []string // Skip these memorial IDs
	ApprovedOnly   bool
	Limit          int // 0 = no limit
	Offset         int
}

// GraphStore holds memorial nodes, relationship edges and match suggestions.
// Lookups that find nothing return (nil, nil); mutations on a missing
// record return entities.ErrNotFound.
type GraphStore interface {
	// EnsureSchema creates the database schema if it doesn't exist.
	EnsureSchema(ctx context.Context) error

	// Close closes the database connection.
	Close() error

	// Memorial operations

	// SaveMemorial inserts or updates a memorial.
	SaveMemorial(ctx context.Context, memorial *entities.Memorial) error

	// FindMemorialByID finds a memorial by its ID.
	FindMemorialByID(ctx context.Context, id string) (*entities.Memorial, error)

	// FindMemorialsByIDs finds multiple memorials in a single query.
	FindMemorialsByIDs(ctx context.Context, ids []string) ([]*entities.Memorial, error)

	// ListMemorials lists memorials matching the filter, ordered by ID.
	ListMemorials(ctx context.Context, filter MemorialFilter) ([]*entities.Memorial, error)

	// SetMemorialApproved updates the approval flag.
	SetMemorialApproved(ctx context.Context, id string, approved bool) error

	// FindMemorialsByAnniversary finds approved memorials born or deceased on
	// the given month and day of any year.
	FindMemorialsByAnniversary(ctx context.Context, month time.Month, day int) ([]*entities.Memorial, error)

	// CountMemorials returns the number of memorials.
	CountMemorials(ctx context.Context) (int, error)

	// Relationship operations

	// CreateRelationship inserts a new edge. It fails with
	// entities.ErrDuplicateEdge when the (person_a, person_b, type) triple
	// exists and entities.ErrInvalidReference when an endpoint is missing
	// or unapproved.
	CreateRelationship(ctx context.Context, rel *entities.Relationship) error

	// FindRelationshipByID finds an edge by its ID.
	FindRelationshipByID(ctx context.Context, id string) (*entities.Relationship, error)

	// FindRelationship finds the edge for an exact triple.
	FindRelationship(ctx context.Context, personAID, personBID string, relType entities.RelationType) (*entities.Relationship, error)

	// FindRelationshipsByMemorial finds edges where the memorial is either
	// endpoint. An empty status matches every status.
	FindRelationshipsByMemorial(ctx context.Context, memorialID string, status entities.RelationStatus) ([]entities.Relationship, error)

	// FindPendingRelationshipsForOwner finds pending edges touching any
	// memorial created by userID.
	FindPendingRelationshipsForOwner(ctx context.Context, userID string) ([]entities.Relationship, error)

	// UpdateRelationshipStatus sets status and verification only when the
	// stored status equals from. It returns entities.ErrStaleStatus otherwise.
	UpdateRelationshipStatus(
		ctx context.Context,
		id string,
		from, to entities.RelationStatus,
		verification entities.VerificationStatus,
	) error

	// CountRelationships returns the total number of edges.
	CountRelationships(ctx context.Context) (int, error)

	// Suggestion operations

	// CreateSuggestion inserts a suggestion. It fails with
	// entities.ErrDuplicateSuggestion when the pair already has one.
	CreateSuggestion(ctx context.Context, s *entities.Suggestion) error

	// FindSuggestion finds the suggestion for a memorial pair.
	FindSuggestion(ctx context.Context, myMemorialID, suggestedMemorialID string) (*entities.Suggestion, error)

	// FindSuggestionsByMemorial lists suggestions for a memorial ordered by
	// score descending. An empty status matches every status.
	FindSuggestionsByMemorial(ctx context.Context, myMemorialID string, status entities.SuggestionStatus) ([]entities.Suggestion, error)

	// UpdateSuggestionStatus sets the status of the suggestion for a pair.
	UpdateSuggestionStatus(ctx context.Context, myMemorialID, suggestedMemorialID string, status entities.SuggestionStatus) error

	// ArchivePendingSuggestions moves every pending suggestion of a memorial
	// to archived and returns how many changed.
	ArchivePendingSuggestions(ctx context.Context, myMemorialID string) (int, error)

	// MarkSuggestionsNotified flags suggestions as notified.
	MarkSuggestionsNotified(ctx context.Context, ids []string, at time.Time) error

	// Audit operations

	// LogAction logs an action to the audit log.
	LogAction(ctx context.Context, action, subjectID, actorID string, details map[string]any) error

	// FindAuditLog finds audit log entries for a subject, newest first.
	FindAuditLog(ctx context.Context, subjectID string) ([]entities.AuditEntry, error)
}
