package entities

import "errors"

// Domain error conditions. Callers match them with errors.Is; every layer
// wraps them with context using fmt.Errorf("...: %w", err).
var (
	// ErrDuplicateEdge is returned when a (person_a, person_b, type) triple already exists.
	ErrDuplicateEdge = errors.New("duplicate relationship")

	// ErrDuplicateSuggestion is returned when a suggestion already exists for a memorial pair.
	ErrDuplicateSuggestion = errors.New("duplicate suggestion")

	// ErrInvalidReference is returned when an edge or suggestion points at a
	// missing or unapproved memorial.
	ErrInvalidReference = errors.New("invalid memorial reference")

	// ErrPermissionDenied is returned when the acting user owns none of the
	// memorials a mutation requires.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrValidation is returned when a memorial or relationship violates a
	// field invariant.
	ErrValidation = errors.New("validation failed")

	// ErrStaleStatus is returned by compare-and-set updates when the stored
	// status no longer matches the expected one.
	ErrStaleStatus = errors.New("status changed concurrently")

	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")
)
