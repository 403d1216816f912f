package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ersonp/memora/internal/domain/entities"
	"github.com/ersonp/memora/internal/domain/ports"
)

// maxStatusAttempts bounds compare-and-set retries on an edge status.
const maxStatusAttempts = 3

// RelationshipInput describes a proposed family relationship.
type RelationshipInput struct {
	PersonAID string
	PersonBID string
	Type      entities.RelationType
	Note      string
	UserID    string
}

// RelationshipService manages family relationship edges and their approval.
type RelationshipService struct {
	store    ports.GraphStore
	notifier ports.Notifier
	logger   *slog.Logger
}

// NewRelationshipService creates a new RelationshipService.
func NewRelationshipService(store ports.GraphStore, notifier ports.Notifier, logger *slog.Logger) *RelationshipService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RelationshipService{
		store:    store,
		notifier: notifier,
		logger:   logger,
	}
}

// Suggest creates an edge from in.PersonAID to in.PersonBID. The user must
// own one of the endpoints. Edges between memorials of the same creator are
// approved at once; others wait for the other owner. When the triple already
// exists the stored edge is returned with created=false.
func (s *RelationshipService) Suggest(
	ctx context.Context,
	in RelationshipInput,
) (rel *entities.Relationship, created bool, err error) {
	candidate := entities.Relationship{PersonAID: in.PersonAID, PersonBID: in.PersonBID, Type: in.Type}
	if err := candidate.Validate(); err != nil {
		return nil, false, err
	}

	a, b, err := s.endpoints(ctx, in.PersonAID, in.PersonBID)
	if err != nil {
		return nil, false, err
	}
	if !a.Approved || !b.Approved {
		return nil, false, fmt.Errorf("%w: both memorials must be approved", entities.ErrInvalidReference)
	}
	if !a.OwnedBy(in.UserID) && !b.OwnedBy(in.UserID) {
		return nil, false, fmt.Errorf("%w: user %q owns neither memorial", entities.ErrPermissionDenied, in.UserID)
	}

	existing, err := s.store.FindRelationship(ctx, in.PersonAID, in.PersonBID, in.Type)
	if err != nil {
		return nil, false, fmt.Errorf("checking existing relationship: %w", err)
	}
	if existing != nil {
		return existing, false, nil
	}

	now := time.Now()
	rel = &entities.Relationship{
		ID:           uuid.New().String(),
		PersonAID:    in.PersonAID,
		PersonBID:    in.PersonBID,
		Type:         in.Type,
		Status:       entities.StatusPending,
		Verification: entities.VerificationUserSuggested,
		CreatedBy:    in.UserID,
		Note:         in.Note,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if a.CreatedBy == b.CreatedBy {
		rel.Status = entities.StatusApproved
		rel.Verification = entities.VerificationAutoApproved
	} else {
		suggestedBy := in.UserID
		rel.SuggestedBy = &suggestedBy
	}

	if err := s.store.CreateRelationship(ctx, rel); err != nil {
		if !errors.Is(err, entities.ErrDuplicateEdge) {
			return nil, false, fmt.Errorf("creating relationship: %w", err)
		}
		// Lost a race with an identical insert.
		existing, findErr := s.store.FindRelationship(ctx, in.PersonAID, in.PersonBID, in.Type)
		if findErr != nil || existing == nil {
			return nil, false, fmt.Errorf("creating relationship: %w", err)
		}
		return existing, false, nil
	}
	relationshipTransitions.WithLabelValues(string(rel.Status)).Inc()

	s.audit(ctx, entities.ActionRelationshipSuggested, rel.ID, in.UserID, map[string]any{
		"person_a_id":       rel.PersonAID,
		"person_b_id":       rel.PersonBID,
		"relationship_type": string(rel.Type),
		"status":            string(rel.Status),
	})

	if rel.Status == entities.StatusPending {
		recipient := b.CreatedBy
		if b.OwnedBy(in.UserID) {
			recipient = a.CreatedBy
		}
		s.notify(ctx, recipient, entities.NotifyRelationshipSuggested, rel, a, b)
	}

	s.logger.Info("relationship suggested",
		"relationship_id", rel.ID,
		"type", rel.Type,
		"status", rel.Status,
	)
	return rel, true, nil
}

// Approve approves an edge. The user must own either endpoint. A
// user-suggested edge becomes creator-verified. Approving an approved edge
// is a no-op.
func (s *RelationshipService) Approve(ctx context.Context, edgeID, userID string) (*entities.Relationship, error) {
	return s.transition(ctx, edgeID, userID, entities.StatusApproved)
}

// Reject rejects an edge. The edge is kept with status rejected so its
// history stays in the audit log. Rejecting a rejected edge is a no-op.
func (s *RelationshipService) Reject(ctx context.Context, edgeID, userID string) (*entities.Relationship, error) {
	return s.transition(ctx, edgeID, userID, entities.StatusRejected)
}

func (s *RelationshipService) transition(
	ctx context.Context,
	edgeID, userID string,
	to entities.RelationStatus,
) (*entities.Relationship, error) {
	rel, err := s.load(ctx, edgeID)
	if err != nil {
		return nil, err
	}

	a, b, err := s.endpoints(ctx, rel.PersonAID, rel.PersonBID)
	if err != nil {
		return nil, err
	}
	if !a.OwnedBy(userID) && !b.OwnedBy(userID) {
		return nil, fmt.Errorf("%w: user %q owns neither memorial of relationship %s",
			entities.ErrPermissionDenied, userID, edgeID)
	}

	for attempt := 1; ; attempt++ {
		if rel.Status == to {
			return rel, nil
		}

		verification := rel.Verification
		if to == entities.StatusApproved && verification == entities.VerificationUserSuggested {
			verification = entities.VerificationCreatorVerified
		}

		err := s.store.UpdateRelationshipStatus(ctx, rel.ID, rel.Status, to, verification)
		if err == nil {
			from := rel.Status
			rel.Status = to
			rel.Verification = verification
			rel.UpdatedAt = time.Now()
			s.afterTransition(ctx, rel, from, userID, a, b)
			return rel, nil
		}
		if !errors.Is(err, entities.ErrStaleStatus) || attempt >= maxStatusAttempts {
			return nil, fmt.Errorf("updating relationship status: %w", err)
		}

		s.logger.Debug("relationship status changed concurrently, retrying",
			"relationship_id", rel.ID,
			"attempt", attempt,
		)
		if rel, err = s.load(ctx, edgeID); err != nil {
			return nil, err
		}
	}
}

func (s *RelationshipService) afterTransition(
	ctx context.Context,
	rel *entities.Relationship,
	from entities.RelationStatus,
	userID string,
	a, b *entities.Memorial,
) {
	relationshipTransitions.WithLabelValues(string(rel.Status)).Inc()

	action, kind := entities.ActionRelationshipApproved, entities.NotifyRelationshipApproved
	if rel.Status == entities.StatusRejected {
		action, kind = entities.ActionRelationshipRejected, entities.NotifyRelationshipRejected
	}
	s.audit(ctx, action, rel.ID, userID, map[string]any{
		"from":         string(from),
		"to":           string(rel.Status),
		"verification": string(rel.Verification),
	})

	recipient := rel.CreatedBy
	if rel.SuggestedBy != nil {
		recipient = *rel.SuggestedBy
	}
	if recipient != userID {
		s.notify(ctx, recipient, kind, rel, a, b)
	}

	s.logger.Info("relationship status changed",
		"relationship_id", rel.ID,
		"from", from,
		"to", rel.Status,
		"user_id", userID,
	)
}

// Get returns an edge by ID.
func (s *RelationshipService) Get(ctx context.Context, edgeID string) (*entities.Relationship, error) {
	return s.load(ctx, edgeID)
}

// PendingFor lists pending edges awaiting a decision by userID, that is
// pending edges touching the user's memorials which someone else proposed.
func (s *RelationshipService) PendingFor(ctx context.Context, userID string) ([]entities.Relationship, error) {
	rels, err := s.store.FindPendingRelationshipsForOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("finding pending relationships: %w", err)
	}
	result := make([]entities.Relationship, 0, len(rels))
	for i := range rels {
		if rels[i].CreatedBy != userID {
			result = append(result, rels[i])
		}
	}
	return result, nil
}

func (s *RelationshipService) load(ctx context.Context, edgeID string) (*entities.Relationship, error) {
	rel, err := s.store.FindRelationshipByID(ctx, edgeID)
	if err != nil {
		return nil, fmt.Errorf("finding relationship: %w", err)
	}
	if rel == nil {
		return nil, fmt.Errorf("%w: relationship %s", entities.ErrNotFound, edgeID)
	}
	return rel, nil
}

func (s *RelationshipService) endpoints(ctx context.Context, aID, bID string) (a, b *entities.Memorial, err error) {
	if a, err = s.store.FindMemorialByID(ctx, aID); err != nil {
		return nil, nil, fmt.Errorf("finding memorial: %w", err)
	}
	if b, err = s.store.FindMemorialByID(ctx, bID); err != nil {
		return nil, nil, fmt.Errorf("finding memorial: %w", err)
	}
	if a == nil {
		return nil, nil, fmt.Errorf("%w: memorial %s does not exist", entities.ErrInvalidReference, aID)
	}
	if b == nil {
		return nil, nil, fmt.Errorf("%w: memorial %s does not exist", entities.ErrInvalidReference, bID)
	}
	return a, b, nil
}

func (s *RelationshipService) notify(
	ctx context.Context,
	userID string,
	kind entities.NotificationKind,
	rel *entities.Relationship,
	a, b *entities.Memorial,
) {
	if s.notifier == nil || userID == "" {
		return
	}
	err := s.notifier.Notify(ctx, userID, kind, map[string]any{
		"relationship_id":   rel.ID,
		"relationship_type": string(rel.Type),
		"label":             rel.Type.Label(),
		"person_a_id":       a.ID,
		"person_a_name":     a.FullName,
		"person_b_id":       b.ID,
		"person_b_name":     b.FullName,
		"status":            string(rel.Status),
	})
	if err != nil {
		s.logger.Warn("relationship notification failed",
			"relationship_id", rel.ID,
			"kind", kind,
			"error", err,
		)
	}
}

func (s *RelationshipService) audit(ctx context.Context, action, subjectID, actorID string, details map[string]any) {
	if err := s.store.LogAction(ctx, action, subjectID, actorID, details); err != nil {
		s.logger.Warn("audit log failed", "action", action, "subject_id", subjectID, "error", err)
	}
}
