package entities

import (
	"fmt"
	"time"
)

// SuggestionStatus is the lifecycle state of a smart match suggestion.
type SuggestionStatus string

const (
	SuggestionPending   SuggestionStatus = "pending"
	SuggestionAccepted  SuggestionStatus = "accepted"
	SuggestionDismissed SuggestionStatus = "dismissed"
	SuggestionArchived  SuggestionStatus = "archived"
)

// ParseSuggestionStatus converts a string to a SuggestionStatus. Empty means any status.
func ParseSuggestionStatus(s string) (SuggestionStatus, error) {
	switch SuggestionStatus(s) {
	case "", SuggestionPending, SuggestionAccepted, SuggestionDismissed, SuggestionArchived:
		return SuggestionStatus(s), nil
	default:
		return "", fmt.Errorf("%w: invalid suggestion status %q", ErrValidation, s)
	}
}

// Suggestion is a proposed, unconfirmed connection produced by the matcher.
type Suggestion struct {
	ID                  string           `json:"id"`
	MyMemorialID        string           `json:"my_memorial_id"`
	SuggestedMemorialID string           `json:"suggested_memorial_id"`
	ConfidenceScore     int              `json:"confidence_score"`
	Reasons             []string         `json:"reasons"`
	Status              SuggestionStatus `json:"status"`
	UserNotified        bool             `json:"user_notified"`
	NotificationSentAt  *time.Time       `json:"notification_sent_at,omitempty"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`
}
