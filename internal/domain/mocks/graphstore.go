package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ersonp/memora/internal/domain/entities"
	"github.com/ersonp/memora/internal/domain/ports"
)

// GraphStore is an in-memory mock of ports.GraphStore. It enforces the same
// uniqueness, reference and compare-and-set rules as the SQLite store.
type GraphStore struct {
	// Err, when set, is returned by every operation.
	Err error
	// CreateSuggestionErr, when set, is returned by CreateSuggestion.
	CreateSuggestionErr error
	// BeforeStatusUpdate runs inside UpdateRelationshipStatus before the
	// compare-and-set, so tests can simulate a concurrent writer.
	BeforeStatusUpdate func(id string)

	mu            sync.Mutex
	memorials     map[string]entities.Memorial
	relationships []entities.Relationship
	suggestions   []entities.Suggestion
	audit         []entities.AuditEntry
}

var _ ports.GraphStore = (*GraphStore)(nil)

// NewGraphStore creates an empty mock store.
func NewGraphStore() *GraphStore {
	return &GraphStore{
		memorials: make(map[string]entities.Memorial),
	}
}

// EnsureSchema is a no-op.
func (m *GraphStore) EnsureSchema(_ context.Context) error {
	return m.Err
}

// Close is a no-op.
func (m *GraphStore) Close() error {
	return nil
}

// Memorial methods.

// SaveMemorial inserts or updates a memorial.
func (m *GraphStore) SaveMemorial(_ context.Context, memorial *entities.Memorial) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.memorials[memorial.ID] = *memorial
	return nil
}

// FindMemorialByID finds a memorial by its ID.
func (m *GraphStore) FindMemorialByID(_ context.Context, id string) (*entities.Memorial, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	memorial, ok := m.memorials[id]
	if !ok {
		return nil, nil
	}
	return &memorial, nil
}

// FindMemorialsByIDs finds multiple memorials, ordered by ID.
func (m *GraphStore) FindMemorialsByIDs(_ context.Context, ids []string) ([]*entities.Memorial, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*entities.Memorial, 0, len(ids))
	for _, id := range ids {
		if memorial, ok := m.memorials[id]; ok {
			result = append(result, &memorial)
		}
	}
	sortMemorials(result)
	return result, nil
}

// ListMemorials lists memorials matching the filter, ordered by ID.
func (m *GraphStore) ListMemorials(_ context.Context, filter ports.MemorialFilter) ([]*entities.Memorial, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	excluded := make(map[string]bool, len(filter.ExcludeIDs))
	for _, id := range filter.ExcludeIDs {
		excluded[id] = true
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*entities.Memorial, 0, len(m.memorials))
	for _, memorial := range m.memorials {
		switch {
		case filter.ApprovedOnly && !memorial.Approved:
			continue
		case filter.CreatedBy != "" && memorial.CreatedBy != filter.CreatedBy:
			continue
		case filter.ExcludeCreator != "" && memorial.CreatedBy == filter.ExcludeCreator:
			continue
		case excluded[memorial.ID]:
			continue
		}
		result = append(result, &memorial)
	}
	sortMemorials(result)

	if filter.Limit > 0 {
		if filter.Offset >= len(result) {
			return []*entities.Memorial{}, nil
		}
		end := min(filter.Offset+filter.Limit, len(result))
		result = result[filter.Offset:end]
	}
	return result, nil
}

// SetMemorialApproved updates the approval flag.
func (m *GraphStore) SetMemorialApproved(_ context.Context, id string, approved bool) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	memorial, ok := m.memorials[id]
	if !ok {
		return fmt.Errorf("%w: memorial %s", entities.ErrNotFound, id)
	}
	memorial.Approved = approved
	m.memorials[id] = memorial
	return nil
}

// FindMemorialsByAnniversary finds approved memorials born or deceased on month/day.
func (m *GraphStore) FindMemorialsByAnniversary(_ context.Context, month time.Month, day int) ([]*entities.Memorial, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	matches := func(t *time.Time) bool {
		return t != nil && t.Month() == month && t.Day() == day
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*entities.Memorial
	for _, memorial := range m.memorials {
		if memorial.Approved && (matches(memorial.DateOfBirth) || matches(memorial.DateOfDeath)) {
			result = append(result, &memorial)
		}
	}
	sortMemorials(result)
	return result, nil
}

// CountMemorials returns the number of memorials.
func (m *GraphStore) CountMemorials(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.memorials), m.Err
}

// Relationship methods.

// CreateRelationship inserts a new edge.
func (m *GraphStore) CreateRelationship(_ context.Context, rel *entities.Relationship) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range []string{rel.PersonAID, rel.PersonBID} {
		memorial, ok := m.memorials[id]
		if !ok {
			return fmt.Errorf("%w: memorial %s does not exist", entities.ErrInvalidReference, id)
		}
		if !memorial.Approved {
			return fmt.Errorf("%w: memorial %s is not approved", entities.ErrInvalidReference, id)
		}
	}
	for i := range m.relationships {
		existing := &m.relationships[i]
		if existing.PersonAID == rel.PersonAID && existing.PersonBID == rel.PersonBID && existing.Type == rel.Type {
			return fmt.Errorf("%w: %s -[%s]-> %s", entities.ErrDuplicateEdge, rel.PersonAID, rel.Type, rel.PersonBID)
		}
	}
	m.relationships = append(m.relationships, *rel)
	return nil
}

// FindRelationshipByID finds an edge by its ID.
func (m *GraphStore) FindRelationshipByID(_ context.Context, id string) (*entities.Relationship, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rel := range m.relationships {
		if rel.ID == id {
			return &rel, nil
		}
	}
	return nil, nil
}

// FindRelationship finds the edge for an exact triple.
func (m *GraphStore) FindRelationship(
	_ context.Context,
	personAID, personBID string,
	relType entities.RelationType,
) (*entities.Relationship, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rel := range m.relationships {
		if rel.PersonAID == personAID && rel.PersonBID == personBID && rel.Type == relType {
			return &rel, nil
		}
	}
	return nil, nil
}

// FindRelationshipsByMemorial finds edges touching the memorial, in insertion order.
func (m *GraphStore) FindRelationshipsByMemorial(
	_ context.Context,
	memorialID string,
	status entities.RelationStatus,
) ([]entities.Relationship, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []entities.Relationship
	for _, rel := range m.relationships {
		if rel.PersonAID != memorialID && rel.PersonBID != memorialID {
			continue
		}
		if status != "" && rel.Status != status {
			continue
		}
		result = append(result, rel)
	}
	return result, nil
}

// FindPendingRelationshipsForOwner finds pending edges touching memorials created by userID.
func (m *GraphStore) FindPendingRelationshipsForOwner(_ context.Context, userID string) ([]entities.Relationship, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []entities.Relationship
	for _, rel := range m.relationships {
		if rel.Status != entities.StatusPending {
			continue
		}
		if m.memorials[rel.PersonAID].CreatedBy == userID || m.memorials[rel.PersonBID].CreatedBy == userID {
			result = append(result, rel)
		}
	}
	return result, nil
}

// UpdateRelationshipStatus is a compare-and-set on the edge status.
func (m *GraphStore) UpdateRelationshipStatus(
	_ context.Context,
	id string,
	from, to entities.RelationStatus,
	verification entities.VerificationStatus,
) error {
	if m.Err != nil {
		return m.Err
	}
	if m.BeforeStatusUpdate != nil {
		m.BeforeStatusUpdate(id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.relationships {
		rel := &m.relationships[i]
		if rel.ID != id {
			continue
		}
		if rel.Status != from {
			return fmt.Errorf("%w: relationship %s is no longer %s", entities.ErrStaleStatus, id, from)
		}
		rel.Status = to
		rel.Verification = verification
		rel.UpdatedAt = time.Now()
		return nil
	}
	return fmt.Errorf("%w: relationship %s", entities.ErrNotFound, id)
}

// SetRelationshipStatus overwrites an edge status without checks (test helper).
func (m *GraphStore) SetRelationshipStatus(id string, status entities.RelationStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.relationships {
		if m.relationships[i].ID == id {
			m.relationships[i].Status = status
		}
	}
}

// CountRelationships returns the total number of edges.
func (m *GraphStore) CountRelationships(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.relationships), m.Err
}

// Suggestion methods.

// CreateSuggestion inserts a suggestion, failing on an existing pair.
func (m *GraphStore) CreateSuggestion(_ context.Context, s *entities.Suggestion) error {
	if m.Err != nil {
		return m.Err
	}
	if m.CreateSuggestionErr != nil {
		return m.CreateSuggestionErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.suggestions {
		if existing.MyMemorialID == s.MyMemorialID && existing.SuggestedMemorialID == s.SuggestedMemorialID {
			return fmt.Errorf("%w: %s -> %s", entities.ErrDuplicateSuggestion, s.MyMemorialID, s.SuggestedMemorialID)
		}
	}
	m.suggestions = append(m.suggestions, cloneSuggestion(*s))
	return nil
}

// FindSuggestion finds the suggestion for a memorial pair.
func (m *GraphStore) FindSuggestion(_ context.Context, myMemorialID, suggestedMemorialID string) (*entities.Suggestion, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.suggestions {
		if s.MyMemorialID == myMemorialID && s.SuggestedMemorialID == suggestedMemorialID {
			c := cloneSuggestion(s)
			return &c, nil
		}
	}
	return nil, nil
}

// FindSuggestionsByMemorial lists suggestions for a memorial, best first.
func (m *GraphStore) FindSuggestionsByMemorial(
	_ context.Context,
	myMemorialID string,
	status entities.SuggestionStatus,
) ([]entities.Suggestion, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []entities.Suggestion
	for _, s := range m.suggestions {
		if s.MyMemorialID != myMemorialID {
			continue
		}
		if status != "" && s.Status != status {
			continue
		}
		result = append(result, cloneSuggestion(s))
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].ConfidenceScore != result[j].ConfidenceScore {
			return result[i].ConfidenceScore > result[j].ConfidenceScore
		}
		return result[i].SuggestedMemorialID < result[j].SuggestedMemorialID
	})
	return result, nil
}

// UpdateSuggestionStatus sets the status of the suggestion for a pair.
func (m *GraphStore) UpdateSuggestionStatus(
	_ context.Context,
	myMemorialID, suggestedMemorialID string,
	status entities.SuggestionStatus,
) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.suggestions {
		s := &m.suggestions[i]
		if s.MyMemorialID == myMemorialID && s.SuggestedMemorialID == suggestedMemorialID {
			s.Status = status
			s.UpdatedAt = time.Now()
			return nil
		}
	}
	return fmt.Errorf("%w: suggestion %s->%s", entities.ErrNotFound, myMemorialID, suggestedMemorialID)
}

// ArchivePendingSuggestions moves pending suggestions of a memorial to archived.
func (m *GraphStore) ArchivePendingSuggestions(_ context.Context, myMemorialID string) (int, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for i := range m.suggestions {
		s := &m.suggestions[i]
		if s.MyMemorialID == myMemorialID && s.Status == entities.SuggestionPending {
			s.Status = entities.SuggestionArchived
			count++
		}
	}
	return count, nil
}

// MarkSuggestionsNotified flags suggestions as notified.
func (m *GraphStore) MarkSuggestionsNotified(_ context.Context, ids []string, at time.Time) error {
	if m.Err != nil {
		return m.Err
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.suggestions {
		s := &m.suggestions[i]
		if want[s.ID] {
			sentAt := at
			s.UserNotified = true
			s.NotificationSentAt = &sentAt
		}
	}
	return nil
}

// SuggestionCount returns the number of stored suggestions (test helper).
func (m *GraphStore) SuggestionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.suggestions)
}

// Audit methods.

// LogAction records an audit entry.
func (m *GraphStore) LogAction(_ context.Context, action, subjectID, actorID string, details map[string]any) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audit = append(m.audit, entities.AuditEntry{
		ID:        int64(len(m.audit) + 1),
		Action:    action,
		SubjectID: subjectID,
		ActorID:   actorID,
		Details:   details,
		CreatedAt: time.Now(),
	})
	return nil
}

// FindAuditLog finds audit entries for a subject, newest first.
func (m *GraphStore) FindAuditLog(_ context.Context, subjectID string) ([]entities.AuditEntry, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []entities.AuditEntry
	for i := len(m.audit) - 1; i >= 0; i-- {
		if m.audit[i].SubjectID == subjectID {
			result = append(result, m.audit[i])
		}
	}
	return result, nil
}

func sortMemorials(ms []*entities.Memorial) {
	sort.Slice(ms, func(i, j int) bool { return ms[i].ID < ms[j].ID })
}

func cloneSuggestion(s entities.Suggestion) entities.Suggestion {
	s.Reasons = append([]string(nil), s.Reasons...)
	return s
}
