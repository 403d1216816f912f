package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ersonp/memora/internal/domain/entities"
	"github.com/ersonp/memora/internal/domain/ports"
)

// DefaultSearchLimit is the number of story search results returned by default.
const DefaultSearchLimit = 10

// ErrStorySearchDisabled is returned when no embedder or index is configured.
var ErrStorySearchDisabled = errors.New("story search is not configured")

// StoryResult is a memorial found by story search.
type StoryResult struct {
	Memorial *entities.Memorial `json:"memorial"`
	Score    float32            `json:"score"`
}

// StorySearchService indexes memorial stories and searches them by meaning.
type StorySearchService struct {
	store    ports.GraphStore
	embedder ports.Embedder
	index    ports.StoryIndex
	logger   *slog.Logger
}

// NewStorySearchService creates a new StorySearchService. A nil embedder or
// index disables search.
func NewStorySearchService(
	store ports.GraphStore,
	embedder ports.Embedder,
	index ports.StoryIndex,
	logger *slog.Logger,
) *StorySearchService {
	if logger == nil {
		logger = slog.Default()
	}
	return &StorySearchService{
		store:    store,
		embedder: embedder,
		index:    index,
		logger:   logger,
	}
}

// Enabled reports whether search has an embedder and an index.
func (s *StorySearchService) Enabled() bool {
	return s != nil && s.embedder != nil && s.index != nil
}

// Index embeds the memorial's story and stores it in the index.
func (s *StorySearchService) Index(ctx context.Context, memorial *entities.Memorial) error {
	if !s.Enabled() {
		return ErrStorySearchDisabled
	}
	vec, err := s.embedder.Embed(ctx, storyText(memorial))
	if err != nil {
		return fmt.Errorf("embedding story: %w", err)
	}
	if err := s.index.Upsert(ctx, memorial, vec); err != nil {
		return fmt.Errorf("indexing story: %w", err)
	}
	return nil
}

// Reindex embeds and stores every approved memorial. It returns how many
// were indexed.
func (s *StorySearchService) Reindex(ctx context.Context) (int, error) {
	if !s.Enabled() {
		return 0, ErrStorySearchDisabled
	}
	memorials, err := s.store.ListMemorials(ctx, ports.MemorialFilter{ApprovedOnly: true})
	if err != nil {
		return 0, fmt.Errorf("listing memorials: %w", err)
	}
	if len(memorials) == 0 {
		return 0, nil
	}

	texts := make([]string, len(memorials))
	for i, m := range memorials {
		texts[i] = storyText(m)
	}
	vecs, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embedding stories: %w", err)
	}
	if len(vecs) != len(memorials) {
		return 0, fmt.Errorf("embedding stories: got %d vectors for %d memorials", len(vecs), len(memorials))
	}

	for i, m := range memorials {
		if err := s.index.Upsert(ctx, m, vecs[i]); err != nil {
			return i, fmt.Errorf("indexing %s: %w", m.ID, err)
		}
	}
	s.logger.Info("reindexed memorial stories", "count", len(memorials))
	return len(memorials), nil
}

// Search returns approved memorials whose stories are closest to query.
func (s *StorySearchService) Search(ctx context.Context, query string, limit int) ([]StoryResult, error) {
	if !s.Enabled() {
		return nil, ErrStorySearchDisabled
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: search query is required", entities.ErrValidation)
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	hits, err := s.index.Search(ctx, vec, limit)
	if err != nil {
		return nil, fmt.Errorf("searching stories: %w", err)
	}
	if len(hits) == 0 {
		return []StoryResult{}, nil
	}

	ids := make([]string, len(hits))
	for i := range hits {
		ids[i] = hits[i].MemorialID
	}
	memorials, err := s.store.FindMemorialsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("loading memorials: %w", err)
	}
	byID := make(map[string]*entities.Memorial, len(memorials))
	for _, m := range memorials {
		byID[m.ID] = m
	}

	// The index may lag behind approval changes; the store is authoritative.
	results := make([]StoryResult, 0, len(hits))
	for _, h := range hits {
		if m, ok := byID[h.MemorialID]; ok && m.Approved {
			results = append(results, StoryResult{Memorial: m, Score: h.Score})
		}
	}
	return results, nil
}

func storyText(m *entities.Memorial) string {
	var b strings.Builder
	b.WriteString(m.FullName)
	if m.Country != "" {
		b.WriteString(" (")
		b.WriteString(m.Country)
		b.WriteString(")")
	}
	if m.Biography != "" {
		b.WriteString(". ")
		b.WriteString(m.Biography)
	}
	return b.String()
}
