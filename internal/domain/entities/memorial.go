// Package entities contains core domain data structures.
package entities

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar date format used for memorial dates.
const DateLayout = "2006-01-02"

// Memorial is a person-record node in the relationship graph.
type Memorial struct {
	ID          string     `json:"id"`
	FullName    string     `json:"full_name"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	DateOfDeath *time.Time `json:"date_of_death,omitempty"`
	Country     string     `json:"country"`
	Region      string     `json:"region,omitempty"` // Optional sub-region (state, province)
	Biography   string     `json:"biography,omitempty"`
	ImageRef    string     `json:"image_ref,omitempty"`
	Approved    bool       `json:"approved"`
	CreatedBy   string     `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Validate checks the memorial field invariants.
func (m *Memorial) Validate() error {
	if strings.TrimSpace(m.FullName) == "" {
		return fmt.Errorf("%w: full name is required", ErrValidation)
	}
	if m.DateOfBirth != nil && m.DateOfDeath != nil && m.DateOfDeath.Before(*m.DateOfBirth) {
		return fmt.Errorf("%w: date of death %s is before date of birth %s",
			ErrValidation,
			m.DateOfDeath.Format(DateLayout),
			m.DateOfBirth.Format(DateLayout),
		)
	}
	return nil
}

// OwnedBy reports whether userID created the memorial.
func (m *Memorial) OwnedBy(userID string) bool {
	return userID != "" && m.CreatedBy == userID
}

// BirthYear returns the birth year, or 0 when unknown.
func (m *Memorial) BirthYear() int {
	if m.DateOfBirth == nil {
		return 0
	}
	return m.DateOfBirth.Year()
}

// DeathYear returns the death year, or 0 when unknown.
func (m *Memorial) DeathYear() int {
	if m.DateOfDeath == nil {
		return 0
	}
	return m.DateOfDeath.Year()
}

// HasLifespan reports whether both birth and death dates are known.
func (m *Memorial) HasLifespan() bool {
	return m.DateOfBirth != nil && m.DateOfDeath != nil
}

// ParseDate parses an optional calendar date. Empty input yields nil.
func ParseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date %q (want YYYY-MM-DD)", ErrValidation, s)
	}
	return &t, nil
}
