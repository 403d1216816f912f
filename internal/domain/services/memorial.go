package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ersonp/memora/internal/domain/entities"
	"github.com/ersonp/memora/internal/domain/ports"
)

// MatchQueue schedules suggestion generation for a memorial.
type MatchQueue interface {
	Enqueue(memorialID string)
}

// StoryIndexer makes a memorial findable by story search.
type StoryIndexer interface {
	Index(ctx context.Context, memorial *entities.Memorial) error
}

// MemorialInput carries user-supplied memorial fields. Dates use
// entities.DateLayout and may be empty.
type MemorialInput struct {
	FullName    string `json:"full_name"`
	DateOfBirth string `json:"date_of_birth,omitempty"`
	DateOfDeath string `json:"date_of_death,omitempty"`
	Country     string `json:"country"`
	Region      string `json:"region,omitempty"`
	Biography   string `json:"biography,omitempty"`
	ImageRef    string `json:"image_ref,omitempty"`
	Approved    bool   `json:"approved,omitempty"`
}

// MemorialService manages memorial records.
type MemorialService struct {
	store   ports.GraphStore
	queue   MatchQueue
	indexer StoryIndexer
	logger  *slog.Logger
}

// NewMemorialService creates a new MemorialService. queue and indexer may be
// nil, which disables match generation and story indexing on approval.
func NewMemorialService(
	store ports.GraphStore,
	queue MatchQueue,
	indexer StoryIndexer,
	logger *slog.Logger,
) *MemorialService {
	if logger == nil {
		logger = slog.Default()
	}
	return &MemorialService{
		store:   store,
		queue:   queue,
		indexer: indexer,
		logger:  logger,
	}
}

// Create validates and stores a new memorial owned by userID.
// in.Approved is honored so trusted paths (import, admin CLI) can publish
// directly.
func (s *MemorialService) Create(ctx context.Context, in MemorialInput, userID string) (*entities.Memorial, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: creator is required", entities.ErrValidation)
	}

	now := time.Now()
	m := &entities.Memorial{
		ID:        uuid.New().String(),
		CreatedBy: userID,
		Approved:  in.Approved,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := applyInput(m, in); err != nil {
		return nil, err
	}

	if err := s.store.SaveMemorial(ctx, m); err != nil {
		return nil, fmt.Errorf("saving memorial: %w", err)
	}
	s.logger.Info("memorial created", "memorial_id", m.ID, "approved", m.Approved)

	if m.Approved {
		s.afterApproval(ctx, m)
	}
	return m, nil
}

// Update replaces the editable fields of a memorial. Only its creator may
// update it; approval is left unchanged.
func (s *MemorialService) Update(
	ctx context.Context,
	id string,
	in MemorialInput,
	userID string,
) (*entities.Memorial, error) {
	m, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !m.OwnedBy(userID) {
		return nil, fmt.Errorf("%w: user %q does not own memorial %s", entities.ErrPermissionDenied, userID, id)
	}

	if err := applyInput(m, in); err != nil {
		return nil, err
	}
	m.UpdatedAt = time.Now()
	if err := s.store.SaveMemorial(ctx, m); err != nil {
		return nil, fmt.Errorf("saving memorial: %w", err)
	}

	if m.Approved {
		s.index(ctx, m)
	}
	return m, nil
}

// Approve publishes a memorial, making it visible to matching, trees and
// relationships. It is an administrative action and performs no ownership
// check. Approving an approved memorial is a no-op.
func (s *MemorialService) Approve(ctx context.Context, id, actorID string) (*entities.Memorial, error) {
	m, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.Approved {
		return m, nil
	}

	if err := s.store.SetMemorialApproved(ctx, id, true); err != nil {
		return nil, fmt.Errorf("approving memorial: %w", err)
	}
	m.Approved = true

	if err := s.store.LogAction(ctx, entities.ActionMemorialApproved, id, actorID, nil); err != nil {
		s.logger.Warn("audit log failed", "action", entities.ActionMemorialApproved, "subject_id", id, "error", err)
	}
	s.logger.Info("memorial approved", "memorial_id", id, "actor_id", actorID)

	s.afterApproval(ctx, m)
	return m, nil
}

// Get returns a memorial by ID.
func (s *MemorialService) Get(ctx context.Context, id string) (*entities.Memorial, error) {
	m, err := s.store.FindMemorialByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("finding memorial: %w", err)
	}
	if m == nil {
		return nil, fmt.Errorf("%w: memorial %s", entities.ErrNotFound, id)
	}
	return m, nil
}

// List returns memorials matching the filter.
func (s *MemorialService) List(ctx context.Context, filter ports.MemorialFilter) ([]*entities.Memorial, error) {
	ms, err := s.store.ListMemorials(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing memorials: %w", err)
	}
	if ms == nil {
		ms = []*entities.Memorial{}
	}
	return ms, nil
}

// Count returns the number of memorials.
func (s *MemorialService) Count(ctx context.Context) (int, error) {
	return s.store.CountMemorials(ctx)
}

func (s *MemorialService) afterApproval(ctx context.Context, m *entities.Memorial) {
	if s.queue != nil {
		s.queue.Enqueue(m.ID)
	}
	s.index(ctx, m)
}

// index failures never fail the write; search simply misses the memorial
// until the next update.
func (s *MemorialService) index(ctx context.Context, m *entities.Memorial) {
	if s.indexer == nil {
		return
	}
	if err := s.indexer.Index(ctx, m); err != nil {
		s.logger.Warn("indexing memorial story failed", "memorial_id", m.ID, "error", err)
	}
}

func applyInput(m *entities.Memorial, in MemorialInput) error {
	dob, err := entities.ParseDate(in.DateOfBirth)
	if err != nil {
		return err
	}
	dod, err := entities.ParseDate(in.DateOfDeath)
	if err != nil {
		return err
	}

	m.FullName = strings.TrimSpace(in.FullName)
	m.DateOfBirth = dob
	m.DateOfDeath = dod
	m.Country = strings.TrimSpace(in.Country)
	m.Region = strings.TrimSpace(in.Region)
	m.Biography = strings.TrimSpace(in.Biography)
	m.ImageRef = strings.TrimSpace(in.ImageRef)
	return m.Validate()
}
