package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ersonp/memora/internal/domain/entities"
	"github.com/ersonp/memora/internal/domain/ports"
	"github.com/ersonp/memora/internal/infrastructure/parsers"
)

// ImportOptions controls import behavior.
type ImportOptions struct {
	DryRun     bool // Validate without saving
	ApproveAll bool // Publish every imported memorial regardless of the row flag
}

// ImportError is a rejected row.
type ImportError struct {
	Line    int    // Line number (1-indexed, 0 if unknown)
	Field   string // Which field has the error
	Message string // Human-readable error message
}

func (e ImportError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// ImportResult contains the result of an import operation.
type ImportResult struct {
	Imported int           `json:"imported"`
	Skipped  int           `json:"skipped"`
	Errors   []ImportError `json:"errors,omitempty"`
}

// ImportService creates memorials in bulk from parsed rows.
type ImportService struct {
	store     ports.GraphStore
	memorials *MemorialService
	logger    *slog.Logger
}

// NewImportService creates a new ImportService.
func NewImportService(store ports.GraphStore, memorials *MemorialService, logger *slog.Logger) *ImportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImportService{store: store, memorials: memorials, logger: logger}
}

// Import validates every row and creates the valid ones for userID. Rows
// matching an existing memorial of the same creator (same name and birth
// date) are skipped. Invalid rows are reported, never fatal.
func (s *ImportService) Import(
	ctx context.Context,
	rows []parsers.RawMemorial,
	userID string,
	opts ImportOptions,
) (*ImportResult, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: creator is required", entities.ErrValidation)
	}

	existing, err := s.existingKeys(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{}
	for i := range rows {
		row := &rows[i]
		line := row.LineNum
		if line == 0 {
			line = i + 1
		}

		in := MemorialInput{
			FullName:    row.FullName,
			DateOfBirth: row.DateOfBirth,
			DateOfDeath: row.DateOfDeath,
			Country:     row.Country,
			Region:      row.Region,
			Biography:   row.Biography,
			ImageRef:    row.ImageRef,
			Approved:    row.Approved || opts.ApproveAll,
		}

		var scratch entities.Memorial
		if err := applyInput(&scratch, in); err != nil {
			result.Errors = append(result.Errors, rowError(line, err))
			continue
		}

		key := memorialKey(&scratch)
		if existing[key] {
			result.Skipped++
			continue
		}
		existing[key] = true

		if opts.DryRun {
			result.Imported++
			continue
		}

		if _, err := s.memorials.Create(ctx, in, userID); err != nil {
			if errors.Is(err, entities.ErrValidation) {
				result.Errors = append(result.Errors, rowError(line, err))
				continue
			}
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		result.Imported++
	}

	s.logger.Info("imported memorials",
		"user_id", userID,
		"imported", result.Imported,
		"skipped", result.Skipped,
		"errors", len(result.Errors),
		"dry_run", opts.DryRun,
	)
	return result, nil
}

func (s *ImportService) existingKeys(ctx context.Context, userID string) (map[string]bool, error) {
	ms, err := s.store.ListMemorials(ctx, ports.MemorialFilter{CreatedBy: userID})
	if err != nil {
		return nil, fmt.Errorf("listing existing memorials: %w", err)
	}
	keys := make(map[string]bool, len(ms))
	for _, m := range ms {
		keys[memorialKey(m)] = true
	}
	return keys, nil
}

func memorialKey(m *entities.Memorial) string {
	dob := ""
	if m.DateOfBirth != nil {
		dob = m.DateOfBirth.Format(entities.DateLayout)
	}
	return strings.ToLower(strings.TrimSpace(m.FullName)) + "|" + dob
}

func rowError(line int, err error) ImportError {
	msg := strings.TrimPrefix(err.Error(), entities.ErrValidation.Error()+": ")
	field := ""
	switch {
	case strings.Contains(msg, "full name"):
		field = "full_name"
	case strings.Contains(msg, "date"):
		field = "date"
	}
	return ImportError{Line: line, Field: field, Message: msg}
}
