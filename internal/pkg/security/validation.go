// Package security provides input validation, sanitization and sensitive
// data masking for the HTTP and CLI surfaces.
package security

import (
	"fmt"
	"unicode/utf8"
)

// Validation limits.
const (
	// Query limits.
	MinQueryLength     = 1
	DefaultQueryLength = 200
	MaxQueryLength     = 1000

	// Result limits.
	MinMaxResults = 1
	MaxMaxResults = 50
)

// ValidationError represents a field validation error.
type ValidationError struct {
	Field      string
	Value      interface{}
	Constraint string
}

func (e *ValidationError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("validation failed for %s: %s (got: %v)", e.Field, e.Constraint, e.Value)
	}
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Constraint)
}

// ValidateQuery validates a search query string against maxLength runes.
// A maxLength outside 1..MaxQueryLength uses DefaultQueryLength.
// Requirements: Required, valid UTF-8, at most maxLength characters.
func ValidateQuery(query string, maxLength int) error {
	if maxLength < MinQueryLength || maxLength > MaxQueryLength {
		maxLength = DefaultQueryLength
	}

	if query == "" {
		return &ValidationError{
			Field:      "q",
			Constraint: "required",
		}
	}

	if !utf8.ValidString(query) {
		return &ValidationError{
			Field:      "q",
			Constraint: "must be valid UTF-8",
		}
	}

	length := utf8.RuneCountInString(query)
	if length > maxLength {
		return &ValidationError{
			Field:      "q",
			Value:      length,
			Constraint: fmt.Sprintf("maximum length is %d characters", maxLength),
		}
	}

	return nil
}

// ValidateMaxResults validates the result cap.
// Requirements: 1-50.
func ValidateMaxResults(n int) error {
	if n < MinMaxResults {
		return &ValidationError{
			Field:      "max_results",
			Value:      n,
			Constraint: fmt.Sprintf("minimum value is %d", MinMaxResults),
		}
	}

	if n > MaxMaxResults {
		return &ValidationError{
			Field:      "max_results",
			Value:      n,
			Constraint: fmt.Sprintf("maximum value is %d", MaxMaxResults),
		}
	}

	return nil
}
