package entities

import "time"

// Audit actions recorded by the lifecycle services.
const (
	ActionRelationshipSuggested = "relationship_suggested"
	ActionRelationshipApproved  = "relationship_approved"
	ActionRelationshipRejected  = "relationship_rejected"
	ActionSuggestionAccepted    = "suggestion_accepted"
	ActionSuggestionDismissed   = "suggestion_dismissed"
	ActionSuggestionsArchived   = "suggestions_archived"
	ActionMemorialApproved      = "memorial_approved"
	ActionAnniversaryNotified   = "anniversary_notified"
)

// AuditEntry represents a logged action in the system.
type AuditEntry struct {
	ID        int64          `json:"id"`
	Action    string         `json:"action"`
	SubjectID string         `json:"subject_id,omitempty"`
	ActorID   string         `json:"actor_id,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
