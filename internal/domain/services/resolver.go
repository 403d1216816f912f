// Package services holds the memorial graph domain logic.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/ersonp/memora/internal/domain/entities"
	"github.com/ersonp/memora/internal/domain/ports"
)

// Direction tells whether the resolved memorial is person_a or person_b of an edge.
type Direction string

const (
	DirectionOutgoing Direction = "outgoing"
	DirectionIncoming Direction = "incoming"
)

// Neighbor is a memorial related to the resolved one, labeled from the
// resolved memorial's point of view.
type Neighbor struct {
	Memorial     *entities.Memorial    `json:"memorial"`
	Label        entities.RelationType `json:"label"`
	Relationship entities.Relationship `json:"relationship"`
	Direction    Direction             `json:"direction"`
}

// ResolverService lists the labeled neighbors of a memorial.
type ResolverService struct {
	store  ports.GraphStore
	logger *slog.Logger
}

// NewResolverService creates a new ResolverService.
func NewResolverService(store ports.GraphStore, logger *slog.Logger) *ResolverService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResolverService{store: store, logger: logger}
}

// Resolve returns the neighbors of memorialID over edges with the given
// status (empty means approved). Outgoing edges come first, then incoming,
// each ordered by neighbor ID and edge ID. Incoming edges carry the inverse
// type. Edges whose other endpoint no longer exists are skipped.
func (s *ResolverService) Resolve(
	ctx context.Context,
	memorialID string,
	status entities.RelationStatus,
) ([]Neighbor, error) {
	if status == "" {
		status = entities.StatusApproved
	}

	rels, err := s.store.FindRelationshipsByMemorial(ctx, memorialID, status)
	if err != nil {
		return nil, fmt.Errorf("finding relationships: %w", err)
	}
	if len(rels) == 0 {
		return []Neighbor{}, nil
	}

	seen := make(map[string]bool, len(rels))
	ids := make([]string, 0, len(rels))
	for i := range rels {
		other := rels[i].Other(memorialID)
		if !seen[other] {
			seen[other] = true
			ids = append(ids, other)
		}
	}

	memorials, err := s.store.FindMemorialsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("loading neighbors: %w", err)
	}
	byID := make(map[string]*entities.Memorial, len(memorials))
	for _, m := range memorials {
		byID[m.ID] = m
	}

	var outgoing, incoming []Neighbor
	emitted := make(map[string]bool, len(rels))
	for i := range rels {
		rel := rels[i]
		if emitted[rel.ID] {
			continue
		}
		emitted[rel.ID] = true

		other := rel.Other(memorialID)
		m, ok := byID[other]
		if !ok {
			s.logger.Warn("relationship endpoint missing",
				"relationship_id", rel.ID,
				"memorial_id", other,
			)
			continue
		}

		if rel.PersonAID == memorialID {
			outgoing = append(outgoing, Neighbor{
				Memorial:     m,
				Label:        rel.Type,
				Relationship: rel,
				Direction:    DirectionOutgoing,
			})
		} else {
			incoming = append(incoming, Neighbor{
				Memorial:     m,
				Label:        rel.Type.Inverse(),
				Relationship: rel,
				Direction:    DirectionIncoming,
			})
		}
	}

	sortNeighbors(outgoing)
	sortNeighbors(incoming)

	result := make([]Neighbor, 0, len(outgoing)+len(incoming))
	result = append(result, outgoing...)
	result = append(result, incoming...)
	return result, nil
}

func sortNeighbors(ns []Neighbor) {
	sort.Slice(ns, func(i, j int) bool {
		if ns[i].Memorial.ID != ns[j].Memorial.ID {
			return ns[i].Memorial.ID < ns[j].Memorial.ID
		}
		return ns[i].Relationship.ID < ns[j].Relationship.ID
	})
}
