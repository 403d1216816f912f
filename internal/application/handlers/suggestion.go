package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/ersonp/memora/internal/domain/entities"
	"github.com/ersonp/memora/internal/domain/services"
)

// SuggestionHandler handles smart match suggestion operations.
type SuggestionHandler struct {
	suggestions   *services.SuggestionService
	relationships *RelationshipHandler
}

// NewSuggestionHandler creates a new SuggestionHandler.
func NewSuggestionHandler(suggestions *services.SuggestionService, relationships *RelationshipHandler) *SuggestionHandler {
	return &SuggestionHandler{
		suggestions:   suggestions,
		relationships: relationships,
	}
}

// AcceptResult is an accepted suggestion and the edge proposed from it, if any.
type AcceptResult struct {
	Suggestion   *entities.Suggestion `json:"suggestion"`
	Relationship *SuggestResult       `json:"relationship,omitempty"`
}

// HandleAccept accepts a suggestion. When relType is set it then proposes
// a relationship of that type from the memorial to the suggested one.
func (h *SuggestionHandler) HandleAccept(
	ctx context.Context,
	myMemorialID, suggestedMemorialID, relType, userID string,
) (*AcceptResult, error) {
	relType = strings.TrimSpace(relType)
	if relType != "" {
		if _, err := entities.ParseRelationType(relType); err != nil {
			return nil, err
		}
	}

	sug, err := h.suggestions.Accept(ctx, myMemorialID, suggestedMemorialID, userID)
	if err != nil {
		return nil, err
	}
	result := &AcceptResult{Suggestion: sug}
	if relType == "" {
		return result, nil
	}

	rel, err := h.relationships.HandleSuggest(ctx, SuggestRequest{
		PersonAID: myMemorialID,
		PersonBID: suggestedMemorialID,
		Type:      relType,
		Note:      "From smart match suggestion",
	}, userID)
	if err != nil {
		return nil, fmt.Errorf("proposing relationship: %w", err)
	}
	result.Relationship = rel
	return result, nil
}

// HandleList lists the suggestions of a memorial with an optional status.
func (h *SuggestionHandler) HandleList(ctx context.Context, memorialID, status string) ([]entities.Suggestion, error) {
	st, err := entities.ParseSuggestionStatus(status)
	if err != nil {
		return nil, err
	}
	return h.suggestions.List(ctx, memorialID, st)
}
