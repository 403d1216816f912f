package entities

import (
	"fmt"
	"time"
)

// RelationType defines the kind of family relationship between two memorials.
// It is read from person_a's perspective: "A is the parent of B".
type RelationType string

const (
	RelationParent      RelationType = "parent"
	RelationChild       RelationType = "child"
	RelationSpouse      RelationType = "spouse"
	RelationSibling     RelationType = "sibling"
	RelationGrandparent RelationType = "grandparent"
	RelationGrandchild  RelationType = "grandchild"
	RelationAuntUncle   RelationType = "aunt_uncle"
	RelationNieceNephew RelationType = "niece_nephew"
	RelationCousin      RelationType = "cousin"
)

// RelationTypes lists every valid relation type in display order.
var RelationTypes = []RelationType{
	RelationParent,
	RelationChild,
	RelationSpouse,
	RelationSibling,
	RelationGrandparent,
	RelationGrandchild,
	RelationAuntUncle,
	RelationNieceNephew,
	RelationCousin,
}

var inverseRelations = map[RelationType]RelationType{
	RelationParent:      RelationChild,
	RelationChild:       RelationParent,
	RelationSpouse:      RelationSpouse,
	RelationSibling:     RelationSibling,
	RelationGrandparent: RelationGrandchild,
	RelationGrandchild:  RelationGrandparent,
	RelationAuntUncle:   RelationNieceNephew,
	RelationNieceNephew: RelationAuntUncle,
	RelationCousin:      RelationCousin,
}

var relationLabels = map[RelationType]string{
	RelationParent:      "Parent",
	RelationChild:       "Child",
	RelationSpouse:      "Spouse",
	RelationSibling:     "Sibling",
	RelationGrandparent: "Grandparent",
	RelationGrandchild:  "Grandchild",
	RelationAuntUncle:   "Aunt/Uncle",
	RelationNieceNephew: "Niece/Nephew",
	RelationCousin:      "Cousin",
}

// ParseRelationType validates and converts a string to a RelationType.
func ParseRelationType(s string) (RelationType, error) {
	rt := RelationType(s)
	if !rt.IsValid() {
		return "", fmt.Errorf("%w: invalid relationship type %q", ErrValidation, s)
	}
	return rt, nil
}

// IsValid reports whether the type is one of the known relation types.
func (t RelationType) IsValid() bool {
	_, ok := inverseRelations[t]
	return ok
}

// Inverse returns the type as read from person_b's perspective.
// Unknown types are returned unchanged.
func (t RelationType) Inverse() RelationType {
	if inv, ok := inverseRelations[t]; ok {
		return inv
	}
	return t
}

// Label returns the human-readable name of the type.
func (t RelationType) Label() string {
	if l, ok := relationLabels[t]; ok {
		return l
	}
	return string(t)
}

// RelationStatus is the approval state of a relationship edge.
type RelationStatus string

const (
	StatusPending  RelationStatus = "pending"
	StatusApproved RelationStatus = "approved"
	StatusRejected RelationStatus = "rejected"
)

// ParseRelationStatus converts a string to a RelationStatus. Empty means approved.
func ParseRelationStatus(s string) (RelationStatus, error) {
	switch RelationStatus(s) {
	case "":
		return StatusApproved, nil
	case StatusPending, StatusApproved, StatusRejected:
		return RelationStatus(s), nil
	default:
		return "", fmt.Errorf("%w: invalid relationship status %q", ErrValidation, s)
	}
}

// VerificationStatus is the trust tier of an edge.
type VerificationStatus string

const (
	VerificationUserSuggested   VerificationStatus = "user_suggested"
	VerificationCreatorVerified VerificationStatus = "creator_verified"
	VerificationAutoApproved    VerificationStatus = "auto_approved"
)

var verificationBadges = map[VerificationStatus]string{
	VerificationUserSuggested:   "Suggested",
	VerificationCreatorVerified: "Verified by family",
	VerificationAutoApproved:    "Same creator",
}

// Badge returns the display badge for the verification tier.
func (v VerificationStatus) Badge() string {
	if b, ok := verificationBadges[v]; ok {
		return b
	}
	return string(v)
}

// Relationship is a typed, directional, status-gated edge between two memorials.
type Relationship struct {
	ID           string             `json:"id"`
	PersonAID    string             `json:"person_a_id"`
	PersonBID    string             `json:"person_b_id"`
	Type         RelationType       `json:"relationship_type"`
	Status       RelationStatus     `json:"status"`
	Verification VerificationStatus `json:"verification_status"`
	CreatedBy    string             `json:"created_by"`
	SuggestedBy  *string            `json:"suggested_by,omitempty"`
	Note         string             `json:"note,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// Validate checks the edge field invariants.
func (r *Relationship) Validate() error {
	if r.PersonAID == "" || r.PersonBID == "" {
		return fmt.Errorf("%w: both memorials are required", ErrValidation)
	}
	if r.PersonAID == r.PersonBID {
		return fmt.Errorf("%w: a memorial cannot be related to itself", ErrValidation)
	}
	if !r.Type.IsValid() {
		return fmt.Errorf("%w: invalid relationship type %q", ErrValidation, r.Type)
	}
	return nil
}

// Other returns the endpoint opposite memorialID.
func (r *Relationship) Other(memorialID string) string {
	if r.PersonAID == memorialID {
		return r.PersonBID
	}
	return r.PersonAID
}
