package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/ersonp/memora/internal/domain/entities"
	"github.com/ersonp/memora/internal/domain/services"
)

// RelationshipHandler handles relationship operations.
type RelationshipHandler struct {
	relationships *services.RelationshipService
	resolver      *services.ResolverService
}

// NewRelationshipHandler creates a new RelationshipHandler.
func NewRelationshipHandler(
	relationships *services.RelationshipService,
	resolver *services.ResolverService,
) *RelationshipHandler {
	return &RelationshipHandler{
		relationships: relationships,
		resolver:      resolver,
	}
}

// SuggestRequest is a relationship proposal as entered by a user.
type SuggestRequest struct {
	PersonAID string `json:"person_a_id"`
	PersonBID string `json:"person_b_id"`
	Type      string `json:"relationship_type"`
	Note      string `json:"note,omitempty"`
}

// SuggestResult is the stored edge and whether this call created it.
type SuggestResult struct {
	Relationship *entities.Relationship `json:"relationship"`
	Created      bool                   `json:"created"`
}

// ListOptions configures relationship listing behavior.
type ListOptions struct {
	Status string // Edge status (empty = approved)
	Type   string // Label from the memorial's point of view (empty = all)
}

// HandleSuggest validates the relationship type and proposes the edge.
func (h *RelationshipHandler) HandleSuggest(ctx context.Context, req SuggestRequest, userID string) (*SuggestResult, error) {
	rt, err := entities.ParseRelationType(strings.TrimSpace(req.Type))
	if err != nil {
		return nil, err
	}

	rel, created, err := h.relationships.Suggest(ctx, services.RelationshipInput{
		PersonAID: strings.TrimSpace(req.PersonAID),
		PersonBID: strings.TrimSpace(req.PersonBID),
		Type:      rt,
		Note:      strings.TrimSpace(req.Note),
		UserID:    userID,
	})
	if err != nil {
		return nil, err
	}
	return &SuggestResult{Relationship: rel, Created: created}, nil
}

// HandleDecide applies "approve" or "reject" to an edge.
func (h *RelationshipHandler) HandleDecide(ctx context.Context, edgeID, decision, userID string) (*entities.Relationship, error) {
	switch strings.ToLower(decision) {
	case "approve":
		return h.relationships.Approve(ctx, edgeID, userID)
	case "reject":
		return h.relationships.Reject(ctx, edgeID, userID)
	default:
		return nil, fmt.Errorf("%w: unknown decision %q (want approve or reject)", entities.ErrValidation, decision)
	}
}

// HandleList returns the labeled neighbors of a memorial.
func (h *RelationshipHandler) HandleList(ctx context.Context, memorialID string, opts ListOptions) ([]services.Neighbor, error) {
	status, err := entities.ParseRelationStatus(opts.Status)
	if err != nil {
		return nil, err
	}

	neighbors, err := h.resolver.Resolve(ctx, memorialID, status)
	if err != nil {
		return nil, fmt.Errorf("resolving relationships: %w", err)
	}
	if opts.Type == "" {
		return neighbors, nil
	}

	rt, err := entities.ParseRelationType(opts.Type)
	if err != nil {
		return nil, err
	}
	filtered := make([]services.Neighbor, 0, len(neighbors))
	for _, n := range neighbors {
		if n.Label == rt {
			filtered = append(filtered, n)
		}
	}
	return filtered, nil
}

// HandlePending returns the pending edges waiting on userID.
func (h *RelationshipHandler) HandlePending(ctx context.Context, userID string) ([]entities.Relationship, error) {
	return h.relationships.PendingFor(ctx, userID)
}
