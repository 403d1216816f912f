// Package parsers reads memorial records for bulk import.
package parsers

import (
	"io"
	"path/filepath"
	"strings"
)

// RawMemorial is a memorial row read from an external source before validation.
type RawMemorial struct {
	FullName    string `json:"full_name"`
	DateOfBirth string `json:"date_of_birth,omitempty"`
	DateOfDeath string `json:"date_of_death,omitempty"`
	Country     string `json:"country,omitempty"`
	Region      string `json:"region,omitempty"`
	Biography   string `json:"biography,omitempty"`
	ImageRef    string `json:"image_ref,omitempty"`
	Approved    bool   `json:"approved,omitempty"`
	LineNum     int    `json:"-"` // Line number in source file (set by parser)
}

// Parser reads memorial rows from a source format.
type Parser interface {
	Parse(r io.Reader) ([]RawMemorial, error)
}

// ForFormat returns the parser for a format name ("json" or "csv"), or nil.
func ForFormat(format string) Parser {
	switch strings.ToLower(format) {
	case "json":
		return &JSONParser{}
	case "csv":
		return &CSVParser{}
	default:
		return nil
	}
}

// ForFile returns the parser matching the file extension, or nil.
func ForFile(filename string) Parser {
	return ForFormat(strings.TrimPrefix(filepath.Ext(filename), "."))
}
