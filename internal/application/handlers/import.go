package handlers

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/ersonp/memora/internal/domain/entities"
	"github.com/ersonp/memora/internal/domain/services"
	"github.com/ersonp/memora/internal/infrastructure/parsers"
)

// ImportHandler handles importing memorials from files.
type ImportHandler struct {
	service *services.ImportService
}

// NewImportHandler creates a new import handler.
func NewImportHandler(service *services.ImportService) *ImportHandler {
	return &ImportHandler{
		service: service,
	}
}

// ImportOptions controls import behavior.
type ImportOptions struct {
	Format     string // "json", "csv", or "auto"
	DryRun     bool
	ApproveAll bool
}

// Handle imports memorials from a file on behalf of userID.
func (h *ImportHandler) Handle(
	ctx context.Context,
	filePath string,
	userID string,
	opts ImportOptions,
) (*services.ImportResult, error) {
	parser := parserFor(filePath, opts.Format)
	if parser == nil {
		return nil, fmt.Errorf("unsupported format for file: %s", filePath)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer file.Close()

	return h.run(ctx, parser, file, userID, opts)
}

// HandleReader imports memorials from r in the given format.
func (h *ImportHandler) HandleReader(
	ctx context.Context,
	r io.Reader,
	userID string,
	opts ImportOptions,
) (*services.ImportResult, error) {
	parser := parsers.ForFormat(opts.Format)
	if parser == nil {
		return nil, fmt.Errorf("unsupported format: %q", opts.Format)
	}
	return h.run(ctx, parser, r, userID, opts)
}

func (h *ImportHandler) run(
	ctx context.Context,
	parser parsers.Parser,
	r io.Reader,
	userID string,
	opts ImportOptions,
) (*services.ImportResult, error) {
	rows, err := parser.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing file: %v", entities.ErrValidation, err)
	}
	if len(rows) == 0 {
		return &services.ImportResult{}, nil
	}

	return h.service.Import(ctx, rows, userID, services.ImportOptions{
		DryRun:     opts.DryRun,
		ApproveAll: opts.ApproveAll,
	})
}

func parserFor(filePath, format string) parsers.Parser {
	if format == "" || format == "auto" {
		return parsers.ForFile(filePath)
	}
	return parsers.ForFormat(format)
}
