// Package idgen generates and validates run identifiers: time-orderable
// UUIDv7 values carried in the fixed "run-<uuid>" shape.
package idgen

import (
	"fmt"
	"regexp"

	"github.com/google/uuid"
)

var runIDPattern = regexp.MustCompile(`^run-[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-7[0-9a-fA-F]{3}-[89abAB][0-9a-fA-F]{3}-[0-9a-fA-F]{12}$`)

// NewRunID allocates a fresh run-<uuidv7> identifier.
func NewRunID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("idgen: generate uuidv7: %w", err)
	}
	return "run-" + id.String(), nil
}

// NewEventID allocates a fresh event identifier. Event ids are plain
// UUIDv7 values; the "run-" prefix belongs to run identifiers only.
func NewEventID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("idgen: generate uuidv7: %w", err)
	}
	return id.String(), nil
}

// ValidRunID reports whether s is a well-formed run identifier.
func ValidRunID(s string) bool {
	return runIDPattern.MatchString(s)
}
