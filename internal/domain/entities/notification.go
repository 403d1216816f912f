package entities

// NotificationKind names the event a notification is about.
type NotificationKind string

const (
	NotifyRelationshipSuggested NotificationKind = "relationship_suggested"
	NotifyRelationshipApproved  NotificationKind = "relationship_approved"
	NotifyRelationshipRejected  NotificationKind = "relationship_rejected"
	NotifyMatchFound            NotificationKind = "match_found"
	NotifyBirthday              NotificationKind = "birthday"
	NotifyDeathAnniversary      NotificationKind = "death_anniversary"
)
