// Package sqlite provides a SQLite implementation of the GraphStore interface.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ersonp/memora/internal/domain/entities"
	"github.com/ersonp/memora/internal/domain/ports"
	"github.com/ersonp/memora/internal/infrastructure/config"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// timeNow returns the current time (can be mocked in tests).
var timeNow = time.Now

// Repository implements ports.GraphStore using SQLite.
type Repository struct {
	db   *sql.DB
	path string
}

var _ ports.GraphStore = (*Repository)(nil)

// NewRepository creates a new SQLite repository.
func NewRepository(cfg config.SQLiteConfig) (*Repository, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlite path is required")
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	// One connection: pragmas apply to every statement, an in-memory
	// database is shared, and writes serialize without "database is locked".
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying %q: %w", p, err)
		}
	}

	return &Repository{
		db:   db,
		path: cfg.Path,
	}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Path returns the database file path.
func (r *Repository) Path() string {
	return r.path
}

// Ping checks the database connection.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// EnsureSchema creates the database schema if it doesn't exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	schema := `
	-- Memorials (person nodes)
	CREATE TABLE IF NOT EXISTS memorials (
		id TEXT PRIMARY KEY,
		full_name TEXT NOT NULL,
		date_of_birth TEXT,
		date_of_death TEXT,
		country TEXT NOT NULL DEFAULT '',
		region TEXT NOT NULL DEFAULT '',
		biography TEXT NOT NULL DEFAULT '',
		image_ref TEXT NOT NULL DEFAULT '',
		approved INTEGER NOT NULL DEFAULT 0,
		created_by TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_memorials_approved ON memorials(approved);
	CREATE INDEX IF NOT EXISTS idx_memorials_created_by ON memorials(created_by);
	CREATE INDEX IF NOT EXISTS idx_memorials_country ON memorials(country);

	-- Family relationships (typed, directional edges)
	CREATE TABLE IF NOT EXISTS family_relationships (
		id TEXT PRIMARY KEY,
		person_a_id TEXT NOT NULL REFERENCES memorials(id),
		person_b_id TEXT NOT NULL REFERENCES memorials(id),
		relationship_type TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		verification_status TEXT NOT NULL DEFAULT 'user_suggested',
		created_by TEXT NOT NULL,
		suggested_by TEXT,
		note TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(person_a_id, person_b_id, relationship_type)
	);
	CREATE INDEX IF NOT EXISTS idx_relationships_person_a ON family_relationships(person_a_id);
	CREATE INDEX IF NOT EXISTS idx_relationships_person_b ON family_relationships(person_b_id);
	CREATE INDEX IF NOT EXISTS idx_relationships_status ON family_relationships(status);

	-- Smart match suggestions
	CREATE TABLE IF NOT EXISTS smart_match_suggestions (
		id TEXT PRIMARY KEY,
		my_memorial_id TEXT NOT NULL REFERENCES memorials(id),
		suggested_memorial_id TEXT NOT NULL REFERENCES memorials(id),
		confidence_score INTEGER NOT NULL,
		match_reasons TEXT NOT NULL DEFAULT '[]',
		status TEXT NOT NULL DEFAULT 'pending',
		user_notified INTEGER NOT NULL DEFAULT 0,
		notification_sent_at TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(my_memorial_id, suggested_memorial_id)
	);
	CREATE INDEX IF NOT EXISTS idx_suggestions_my ON smart_match_suggestions(my_memorial_id, status);

	-- Audit log (tracks lifecycle actions)
	CREATE TABLE IF NOT EXISTS audit_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		action TEXT NOT NULL,
		subject_id TEXT,
		actor_id TEXT,
		details TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_audit_log_subject ON audit_log(subject_id);
	CREATE INDEX IF NOT EXISTS idx_audit_log_action ON audit_log(action);
	`

	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

const memorialColumns = `id, full_name, date_of_birth, date_of_death, country, region,
	biography, image_ref, approved, created_by, created_at, updated_at`

// SaveMemorial inserts or updates a memorial.
func (r *Repository) SaveMemorial(ctx context.Context, m *entities.Memorial) error {
	query := `
		INSERT INTO memorials (` + memorialColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			full_name = excluded.full_name,
			date_of_birth = excluded.date_of_birth,
			date_of_death = excluded.date_of_death,
			country = excluded.country,
			region = excluded.region,
			biography = excluded.biography,
			image_ref = excluded.image_ref,
			approved = excluded.approved,
			updated_at = excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, query,
		m.ID,
		m.FullName,
		formatDate(m.DateOfBirth),
		formatDate(m.DateOfDeath),
		m.Country,
		m.Region,
		m.Biography,
		m.ImageRef,
		m.Approved,
		m.CreatedBy,
		m.CreatedAt,
		m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving memorial: %w", err)
	}
	return nil
}

// FindMemorialByID finds a memorial by its ID.
func (r *Repository) FindMemorialByID(ctx context.Context, id string) (*entities.Memorial, error) {
	query := `SELECT ` + memorialColumns + ` FROM memorials WHERE id = ?`
	m, err := scanMemorial(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return m, err
}

// FindMemorialsByIDs finds multiple memorials by their IDs in a single query.
func (r *Repository) FindMemorialsByIDs(ctx context.Context, ids []string) ([]*entities.Memorial, error) {
	if len(ids) == 0 {
		return []*entities.Memorial{}, nil
	}

	query := fmt.Sprintf(`SELECT %s FROM memorials WHERE id IN (%s) ORDER BY id`,
		memorialColumns, placeholders(len(ids)))
	return r.queryMemorials(ctx, query, stringArgs(ids)...)
}

// ListMemorials lists memorials matching the filter, ordered by ID.
func (r *Repository) ListMemorials(ctx context.Context, filter ports.MemorialFilter) ([]*entities.Memorial, error) {
	var (
		conds []string
		args  []any
	)
	if filter.ApprovedOnly {
		conds = append(conds, "approved = 1")
	}
	if filter.CreatedBy != "" {
		conds = append(conds, "created_by = ?")
		args = append(args, filter.CreatedBy)
	}
	if filter.ExcludeCreator != "" {
		conds = append(conds, "created_by != ?")
		args = append(args, filter.ExcludeCreator)
	}
	if len(filter.ExcludeIDs) > 0 {
		conds = append(conds, fmt.Sprintf("id NOT IN (%s)", placeholders(len(filter.ExcludeIDs))))
		args = append(args, stringArgs(filter.ExcludeIDs)...)
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(memorialColumns)
	sb.WriteString(" FROM memorials")
	if len(conds) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conds, " AND "))
	}
	sb.WriteString(" ORDER BY id")
	if filter.Limit > 0 {
		sb.WriteString(" LIMIT ? OFFSET ?")
		args = append(args, filter.Limit, filter.Offset)
	}

	return r.queryMemorials(ctx, sb.String(), args...)
}

// SetMemorialApproved updates the approval flag.
func (r *Repository) SetMemorialApproved(ctx context.Context, id string, approved bool) error {
	query := `UPDATE memorials SET approved = ?, updated_at = ? WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query, approved, timeNow(), id)
	if err != nil {
		return fmt.Errorf("updating memorial approval: %w", err)
	}
	return requireAffected(result, "memorial", id)
}

// FindMemorialsByAnniversary finds approved memorials born or deceased on
// the given month and day of any year.
func (r *Repository) FindMemorialsByAnniversary(ctx context.Context, month time.Month, day int) ([]*entities.Memorial, error) {
	monthDay := fmt.Sprintf("%02d-%02d", int(month), day)
	query := `
		SELECT ` + memorialColumns + `
		FROM memorials
		WHERE approved = 1
		  AND (substr(date_of_birth, 6, 5) = ? OR substr(date_of_death, 6, 5) = ?)
		ORDER BY id
	`
	return r.queryMemorials(ctx, query, monthDay, monthDay)
}

// CountMemorials returns the number of memorials.
func (r *Repository) CountMemorials(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memorials`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting memorials: %w", err)
	}
	return count, nil
}

// queryMemorials is a helper to execute memorial queries.
func (r *Repository) queryMemorials(ctx context.Context, query string, args ...any) ([]*entities.Memorial, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying memorials: %w", err)
	}
	defer rows.Close()

	result := make([]*entities.Memorial, 0, 16)
	for rows.Next() {
		m, err := scanMemorial(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

func scanMemorial(row rowScanner) (*entities.Memorial, error) {
	var (
		m        entities.Memorial
		dob, dod sql.NullString
	)
	err := row.Scan(
		&m.ID,
		&m.FullName,
		&dob,
		&dod,
		&m.Country,
		&m.Region,
		&m.Biography,
		&m.ImageRef,
		&m.Approved,
		&m.CreatedBy,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning memorial: %w", err)
	}

	if m.DateOfBirth, err = parseDate(dob); err != nil {
		return nil, err
	}
	if m.DateOfDeath, err = parseDate(dod); err != nil {
		return nil, err
	}
	return &m, nil
}

const relationshipColumns = `id, person_a_id, person_b_id, relationship_type, status,
	verification_status, created_by, suggested_by, note, created_at, updated_at`

// CreateRelationship inserts a new edge after checking that both endpoints
// exist and are approved. Both steps run in one transaction.
func (r *Repository) CreateRelationship(ctx context.Context, rel *entities.Relationship) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, id := range []string{rel.PersonAID, rel.PersonBID} {
		var approved bool
		err := tx.QueryRowContext(ctx, `SELECT approved FROM memorials WHERE id = ?`, id).Scan(&approved)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: memorial %s does not exist", entities.ErrInvalidReference, id)
		}
		if err != nil {
			return fmt.Errorf("checking memorial %s: %w", id, err)
		}
		if !approved {
			return fmt.Errorf("%w: memorial %s is not approved", entities.ErrInvalidReference, id)
		}
	}

	query := `
		INSERT INTO family_relationships (` + relationshipColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(person_a_id, person_b_id, relationship_type) DO NOTHING
	`
	result, err := tx.ExecContext(ctx, query,
		rel.ID,
		rel.PersonAID,
		rel.PersonBID,
		string(rel.Type),
		string(rel.Status),
		string(rel.Verification),
		rel.CreatedBy,
		nullString(rel.SuggestedBy),
		rel.Note,
		rel.CreatedAt,
		rel.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving relationship: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s -[%s]-> %s", entities.ErrDuplicateEdge, rel.PersonAID, rel.Type, rel.PersonBID)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing relationship: %w", err)
	}
	return nil
}

// FindRelationshipByID finds an edge by its ID.
func (r *Repository) FindRelationshipByID(ctx context.Context, id string) (*entities.Relationship, error) {
	query := `SELECT ` + relationshipColumns + ` FROM family_relationships WHERE id = ?`
	rel, err := scanRelationship(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return rel, err
}

// FindRelationship finds the edge for an exact triple.
func (r *Repository) FindRelationship(
	ctx context.Context,
	personAID, personBID string,
	relType entities.RelationType,
) (*entities.Relationship, error) {
	query := `
		SELECT ` + relationshipColumns + `
		FROM family_relationships
		WHERE person_a_id = ? AND person_b_id = ? AND relationship_type = ?
	`
	rel, err := scanRelationship(r.db.QueryRowContext(ctx, query, personAID, personBID, string(relType)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return rel, err
}

// FindRelationshipsByMemorial finds edges where the memorial is either endpoint.
func (r *Repository) FindRelationshipsByMemorial(
	ctx context.Context,
	memorialID string,
	status entities.RelationStatus,
) ([]entities.Relationship, error) {
	query := `
		SELECT ` + relationshipColumns + `
		FROM family_relationships
		WHERE (person_a_id = ? OR person_b_id = ?)
	`
	args := []any{memorialID, memorialID}
	if status != "" {
		query += " AND status = ?"
		args = append(args, string(status))
	}
	query += " ORDER BY created_at, id"
	return r.queryRelationships(ctx, query, args...)
}

// FindPendingRelationshipsForOwner finds pending edges touching any memorial created by userID.
func (r *Repository) FindPendingRelationshipsForOwner(ctx context.Context, userID string) ([]entities.Relationship, error) {
	query := `
		SELECT r.id, r.person_a_id, r.person_b_id, r.relationship_type, r.status,
			r.verification_status, r.created_by, r.suggested_by, r.note, r.created_at, r.updated_at
		FROM family_relationships r
		JOIN memorials a ON a.id = r.person_a_id
		JOIN memorials b ON b.id = r.person_b_id
		WHERE r.status = 'pending' AND (a.created_by = ? OR b.created_by = ?)
		ORDER BY r.created_at, r.id
	`
	return r.queryRelationships(ctx, query, userID, userID)
}

// UpdateRelationshipStatus is a compare-and-set on the edge status.
func (r *Repository) UpdateRelationshipStatus(
	ctx context.Context,
	id string,
	from, to entities.RelationStatus,
	verification entities.VerificationStatus,
) error {
	query := `
		UPDATE family_relationships
		SET status = ?, verification_status = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`
	result, err := r.db.ExecContext(ctx, query, string(to), string(verification), timeNow(), id, string(from))
	if err != nil {
		return fmt.Errorf("updating relationship status: %w", err)
	}
	if n, _ := result.RowsAffected(); n > 0 {
		return nil
	}

	var exists int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM family_relationships WHERE id = ?`, id).Scan(&exists); err != nil {
		return fmt.Errorf("checking relationship: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("%w: relationship %s", entities.ErrNotFound, id)
	}
	return fmt.Errorf("%w: relationship %s is no longer %s", entities.ErrStaleStatus, id, from)
}

// CountRelationships returns the total number of edges.
func (r *Repository) CountRelationships(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM family_relationships`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting relationships: %w", err)
	}
	return count, nil
}

// queryRelationships is a helper to execute relationship queries.
func (r *Repository) queryRelationships(ctx context.Context, query string, args ...any) ([]entities.Relationship, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying relationships: %w", err)
	}
	defer rows.Close()

	relationships := make([]entities.Relationship, 0, 16)
	for rows.Next() {
		rel, err := scanRelationship(rows)
		if err != nil {
			return nil, err
		}
		relationships = append(relationships, *rel)
	}
	return relationships, rows.Err()
}

func scanRelationship(row rowScanner) (*entities.Relationship, error) {
	var (
		rel                           entities.Relationship
		relType, status, verification string
		suggestedBy                   sql.NullString
	)
	err := row.Scan(
		&rel.ID,
		&rel.PersonAID,
		&rel.PersonBID,
		&relType,
		&status,
		&verification,
		&rel.CreatedBy,
		&suggestedBy,
		&rel.Note,
		&rel.CreatedAt,
		&rel.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning relationship: %w", err)
	}

	rel.Type = entities.RelationType(relType)
	rel.Status = entities.RelationStatus(status)
	rel.Verification = entities.VerificationStatus(verification)
	if suggestedBy.Valid {
		s := suggestedBy.String
		rel.SuggestedBy = &s
	}
	return &rel, nil
}

const suggestionColumns = `id, my_memorial_id, suggested_memorial_id, confidence_score, match_reasons,
	status, user_notified, notification_sent_at, created_at, updated_at`

// CreateSuggestion inserts a suggestion, failing on an existing pair.
func (r *Repository) CreateSuggestion(ctx context.Context, s *entities.Suggestion) error {
	reasons, err := json.Marshal(s.Reasons)
	if err != nil {
		return fmt.Errorf("marshaling reasons: %w", err)
	}

	query := `
		INSERT INTO smart_match_suggestions (` + suggestionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(my_memorial_id, suggested_memorial_id) DO NOTHING
	`
	result, err := r.db.ExecContext(ctx, query,
		s.ID,
		s.MyMemorialID,
		s.SuggestedMemorialID,
		s.ConfidenceScore,
		string(reasons),
		string(s.Status),
		s.UserNotified,
		nullTime(s.NotificationSentAt),
		s.CreatedAt,
		s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving suggestion: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s -> %s", entities.ErrDuplicateSuggestion, s.MyMemorialID, s.SuggestedMemorialID)
	}
	return nil
}

// FindSuggestion finds the suggestion for a memorial pair.
func (r *Repository) FindSuggestion(ctx context.Context, myMemorialID, suggestedMemorialID string) (*entities.Suggestion, error) {
	query := `
		SELECT ` + suggestionColumns + `
		FROM smart_match_suggestions
		WHERE my_memorial_id = ? AND suggested_memorial_id = ?
	`
	s, err := scanSuggestion(r.db.QueryRowContext(ctx, query, myMemorialID, suggestedMemorialID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

// FindSuggestionsByMemorial lists suggestions for a memorial, best first.
func (r *Repository) FindSuggestionsByMemorial(
	ctx context.Context,
	myMemorialID string,
	status entities.SuggestionStatus,
) ([]entities.Suggestion, error) {
	query := `SELECT ` + suggestionColumns + ` FROM smart_match_suggestions WHERE my_memorial_id = ?`
	args := []any{myMemorialID}
	if status != "" {
		query += " AND status = ?"
		args = append(args, string(status))
	}
	query += " ORDER BY confidence_score DESC, suggested_memorial_id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying suggestions: %w", err)
	}
	defer rows.Close()

	suggestions := make([]entities.Suggestion, 0, 8)
	for rows.Next() {
		s, err := scanSuggestion(rows)
		if err != nil {
			return nil, err
		}
		suggestions = append(suggestions, *s)
	}
	return suggestions, rows.Err()
}

// UpdateSuggestionStatus sets the status of the suggestion for a pair.
func (r *Repository) UpdateSuggestionStatus(
	ctx context.Context,
	myMemorialID, suggestedMemorialID string,
	status entities.SuggestionStatus,
) error {
	query := `
		UPDATE smart_match_suggestions
		SET status = ?, updated_at = ?
		WHERE my_memorial_id = ? AND suggested_memorial_id = ?
	`
	result, err := r.db.ExecContext(ctx, query, string(status), timeNow(), myMemorialID, suggestedMemorialID)
	if err != nil {
		return fmt.Errorf("updating suggestion status: %w", err)
	}
	return requireAffected(result, "suggestion", myMemorialID+"->"+suggestedMemorialID)
}

// ArchivePendingSuggestions moves every pending suggestion of a memorial to archived.
func (r *Repository) ArchivePendingSuggestions(ctx context.Context, myMemorialID string) (int, error) {
	query := `
		UPDATE smart_match_suggestions
		SET status = 'archived', updated_at = ?
		WHERE my_memorial_id = ? AND status = 'pending'
	`
	result, err := r.db.ExecContext(ctx, query, timeNow(), myMemorialID)
	if err != nil {
		return 0, fmt.Errorf("archiving suggestions: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting archived suggestions: %w", err)
	}
	return int(n), nil
}

// MarkSuggestionsNotified flags suggestions as notified.
func (r *Repository) MarkSuggestionsNotified(ctx context.Context, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	query := fmt.Sprintf(`
		UPDATE smart_match_suggestions
		SET user_notified = 1, notification_sent_at = ?, updated_at = ?
		WHERE id IN (%s)
	`, placeholders(len(ids)))

	args := append([]any{at, at}, stringArgs(ids)...)
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("marking suggestions notified: %w", err)
	}
	return nil
}

func scanSuggestion(row rowScanner) (*entities.Suggestion, error) {
	var (
		s       entities.Suggestion
		reasons string
		status  string
		sentAt  sql.NullTime
	)
	err := row.Scan(
		&s.ID,
		&s.MyMemorialID,
		&s.SuggestedMemorialID,
		&s.ConfidenceScore,
		&reasons,
		&status,
		&s.UserNotified,
		&sentAt,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning suggestion: %w", err)
	}

	s.Status = entities.SuggestionStatus(status)
	if sentAt.Valid {
		t := sentAt.Time
		s.NotificationSentAt = &t
	}
	if err := json.Unmarshal([]byte(reasons), &s.Reasons); err != nil {
		return nil, fmt.Errorf("unmarshaling reasons: %w", err)
	}
	return &s, nil
}

// LogAction logs an action to the audit log.
func (r *Repository) LogAction(ctx context.Context, action, subjectID, actorID string, details map[string]any) error {
	var detailsJSON sql.NullString
	if details != nil {
		data, err := json.Marshal(details)
		if err != nil {
			return fmt.Errorf("marshaling details: %w", err)
		}
		detailsJSON = sql.NullString{String: string(data), Valid: true}
	}

	query := `INSERT INTO audit_log (action, subject_id, actor_id, details, created_at) VALUES (?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, action, nullIfEmpty(subjectID), nullIfEmpty(actorID), detailsJSON, timeNow())
	if err != nil {
		return fmt.Errorf("logging action: %w", err)
	}
	return nil
}

// FindAuditLog finds audit log entries for a subject, newest first.
func (r *Repository) FindAuditLog(ctx context.Context, subjectID string) ([]entities.AuditEntry, error) {
	query := `
		SELECT id, action, subject_id, actor_id, details, created_at
		FROM audit_log
		WHERE subject_id = ?
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, query, subjectID)
	if err != nil {
		return nil, fmt.Errorf("querying audit log: %w", err)
	}
	defer rows.Close()

	var entries []entities.AuditEntry
	for rows.Next() {
		var (
			entry                   entities.AuditEntry
			subject, actor, details sql.NullString
		)
		if err := rows.Scan(&entry.ID, &entry.Action, &subject, &actor, &details, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}
		entry.SubjectID = subject.String
		entry.ActorID = actor.String

		if details.Valid && details.String != "" {
			if err := json.Unmarshal([]byte(details.String), &entry.Details); err != nil {
				return nil, fmt.Errorf("unmarshaling details: %w", err)
			}
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func requireAffected(result sql.Result, kind, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking %s update: %w", kind, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s %s", entities.ErrNotFound, kind, id)
	}
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func stringArgs(ss []string) []any {
	args := make([]any, len(ss))
	for i, s := range ss {
		args[i] = s
	}
	return args
}

func formatDate(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(entities.DateLayout), Valid: true}
}

func parseDate(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := time.Parse(entities.DateLayout, s.String)
	if err != nil {
		return nil, fmt.Errorf("parsing stored date %q: %w", s.String, err)
	}
	return &t, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
