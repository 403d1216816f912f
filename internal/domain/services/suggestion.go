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

// SuggestionService stores matcher output as suggestions and moves them
// through their lifecycle on behalf of the memorial owner.
type SuggestionService struct {
	store    ports.GraphStore
	matcher  *MatchingService
	notifier ports.Notifier
	limit    int
	logger   *slog.Logger
}

// NewSuggestionService creates a new SuggestionService. limit caps the
// matches stored per generation; <= 0 uses DefaultMatchLimit.
func NewSuggestionService(
	store ports.GraphStore,
	matcher *MatchingService,
	notifier ports.Notifier,
	limit int,
	logger *slog.Logger,
) *SuggestionService {
	if logger == nil {
		logger = slog.Default()
	}
	if limit <= 0 {
		limit = DefaultMatchLimit
	}
	return &SuggestionService{
		store:    store,
		matcher:  matcher,
		notifier: notifier,
		limit:    limit,
		logger:   logger,
	}
}

// Generate runs the matcher for memorialID and stores each match as a
// pending suggestion. Pairs that already have a suggestion are skipped, so
// only newly created suggestions are returned and repeated calls create
// nothing. The owner is notified once per non-empty batch.
func (s *SuggestionService) Generate(ctx context.Context, memorialID string) ([]entities.Suggestion, error) {
	start := time.Now()
	defer func() { generateDuration.Observe(time.Since(start).Seconds()) }()

	memorial, err := s.store.FindMemorialByID(ctx, memorialID)
	if err != nil {
		return nil, fmt.Errorf("finding memorial: %w", err)
	}
	if memorial == nil {
		return nil, fmt.Errorf("%w: memorial %s does not exist", entities.ErrInvalidReference, memorialID)
	}

	matches, err := s.matcher.FindMatches(ctx, memorialID, s.limit)
	if err != nil {
		return nil, fmt.Errorf("finding matches: %w", err)
	}

	created := make([]entities.Suggestion, 0, len(matches))
	for i := range matches {
		now := time.Now()
		sug := entities.Suggestion{
			ID:                  uuid.New().String(),
			MyMemorialID:        memorialID,
			SuggestedMemorialID: matches[i].Memorial.ID,
			ConfidenceScore:     matches[i].Score,
			Reasons:             matches[i].Reasons,
			Status:              entities.SuggestionPending,
			CreatedAt:           now,
			UpdatedAt:           now,
		}
		if err := s.store.CreateSuggestion(ctx, &sug); err != nil {
			if errors.Is(err, entities.ErrDuplicateSuggestion) {
				s.logger.Debug("suggestion already exists",
					"memorial_id", memorialID,
					"suggested_id", sug.SuggestedMemorialID,
				)
				continue
			}
			return nil, fmt.Errorf("creating suggestion: %w", err)
		}
		created = append(created, sug)
	}
	suggestionsCreated.Add(float64(len(created)))

	if len(created) > 0 {
		s.notifyBatch(ctx, memorial, created, matches)
	}

	s.logger.Info("generated suggestions",
		"memorial_id", memorialID,
		"matches", len(matches),
		"created", len(created),
	)
	return created, nil
}

// notifyBatch tells the owner about new suggestions and flags them as
// notified. Failures are logged and leave the flags unset.
func (s *SuggestionService) notifyBatch(
	ctx context.Context,
	memorial *entities.Memorial,
	created []entities.Suggestion,
	matches []Match,
) {
	if s.notifier == nil || memorial.CreatedBy == "" {
		return
	}

	names := make(map[string]string, len(matches))
	for i := range matches {
		names[matches[i].Memorial.ID] = matches[i].Memorial.FullName
	}
	items := make([]map[string]any, 0, len(created))
	ids := make([]string, 0, len(created))
	for i := range created {
		items = append(items, map[string]any{
			"suggested_memorial_id": created[i].SuggestedMemorialID,
			"name":                  names[created[i].SuggestedMemorialID],
			"score":                 created[i].ConfidenceScore,
		})
		ids = append(ids, created[i].ID)
	}

	err := s.notifier.Notify(ctx, memorial.CreatedBy, entities.NotifyMatchFound, map[string]any{
		"memorial_id":   memorial.ID,
		"memorial_name": memorial.FullName,
		"count":         len(created),
		"suggestions":   items,
	})
	if err != nil {
		s.logger.Warn("match notification failed", "memorial_id", memorial.ID, "error", err)
		return
	}

	sentAt := time.Now()
	if err := s.store.MarkSuggestionsNotified(ctx, ids, sentAt); err != nil {
		s.logger.Warn("marking suggestions notified failed", "memorial_id", memorial.ID, "error", err)
		return
	}
	for i := range created {
		created[i].UserNotified = true
		created[i].NotificationSentAt = &sentAt
	}
}

// Accept marks a suggestion accepted. It does not create a relationship;
// the caller continues with RelationshipService.Suggest once the user has
// picked a relationship type.
func (s *SuggestionService) Accept(
	ctx context.Context,
	myMemorialID, suggestedMemorialID, userID string,
) (*entities.Suggestion, error) {
	return s.transition(ctx, myMemorialID, suggestedMemorialID, userID,
		entities.SuggestionAccepted, entities.ActionSuggestionAccepted)
}

// Dismiss marks a suggestion dismissed.
func (s *SuggestionService) Dismiss(
	ctx context.Context,
	myMemorialID, suggestedMemorialID, userID string,
) (*entities.Suggestion, error) {
	return s.transition(ctx, myMemorialID, suggestedMemorialID, userID,
		entities.SuggestionDismissed, entities.ActionSuggestionDismissed)
}

func (s *SuggestionService) transition(
	ctx context.Context,
	myMemorialID, suggestedMemorialID, userID string,
	to entities.SuggestionStatus,
	action string,
) (*entities.Suggestion, error) {
	if _, err := s.requireOwner(ctx, myMemorialID, userID); err != nil {
		return nil, err
	}

	sug, err := s.store.FindSuggestion(ctx, myMemorialID, suggestedMemorialID)
	if err != nil {
		return nil, fmt.Errorf("finding suggestion: %w", err)
	}
	if sug == nil {
		return nil, fmt.Errorf("%w: no suggestion of %s for %s", entities.ErrNotFound, suggestedMemorialID, myMemorialID)
	}
	if sug.Status == to {
		return sug, nil
	}

	if err := s.store.UpdateSuggestionStatus(ctx, myMemorialID, suggestedMemorialID, to); err != nil {
		return nil, fmt.Errorf("updating suggestion: %w", err)
	}
	suggestionTransitions.WithLabelValues(string(to)).Inc()
	s.audit(ctx, action, sug.ID, userID, map[string]any{
		"my_memorial_id":        myMemorialID,
		"suggested_memorial_id": suggestedMemorialID,
		"from":                  string(sug.Status),
	})

	sug.Status = to
	sug.UpdatedAt = time.Now()
	return sug, nil
}

// ArchiveAll archives every pending suggestion of a memorial and returns how
// many changed.
func (s *SuggestionService) ArchiveAll(ctx context.Context, memorialID, userID string) (int, error) {
	if _, err := s.requireOwner(ctx, memorialID, userID); err != nil {
		return 0, err
	}

	count, err := s.store.ArchivePendingSuggestions(ctx, memorialID)
	if err != nil {
		return 0, fmt.Errorf("archiving suggestions: %w", err)
	}
	if count > 0 {
		suggestionTransitions.WithLabelValues(string(entities.SuggestionArchived)).Add(float64(count))
		s.audit(ctx, entities.ActionSuggestionsArchived, memorialID, userID, map[string]any{"count": count})
	}
	return count, nil
}

// List returns the suggestions of a memorial, best first. An empty status
// lists every status.
func (s *SuggestionService) List(
	ctx context.Context,
	memorialID string,
	status entities.SuggestionStatus,
) ([]entities.Suggestion, error) {
	sugs, err := s.store.FindSuggestionsByMemorial(ctx, memorialID, status)
	if err != nil {
		return nil, fmt.Errorf("listing suggestions: %w", err)
	}
	if sugs == nil {
		sugs = []entities.Suggestion{}
	}
	return sugs, nil
}

func (s *SuggestionService) requireOwner(ctx context.Context, memorialID, userID string) (*entities.Memorial, error) {
	memorial, err := s.store.FindMemorialByID(ctx, memorialID)
	if err != nil {
		return nil, fmt.Errorf("finding memorial: %w", err)
	}
	if memorial == nil {
		return nil, fmt.Errorf("%w: memorial %s does not exist", entities.ErrInvalidReference, memorialID)
	}
	if !memorial.OwnedBy(userID) {
		return nil, fmt.Errorf("%w: user %q does not own memorial %s", entities.ErrPermissionDenied, userID, memorialID)
	}
	return memorial, nil
}

func (s *SuggestionService) audit(ctx context.Context, action, subjectID, actorID string, details map[string]any) {
	if err := s.store.LogAction(ctx, action, subjectID, actorID, details); err != nil {
		s.logger.Warn("audit log failed", "action", action, "subject_id", subjectID, "error", err)
	}
}
