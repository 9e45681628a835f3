package models

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ValidationError is returned for malformed or out-of-range input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

func ValidateTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if title == "" {
		return "", invalid("title", "title cannot be empty or whitespace")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return "", invalid("title", "title too long (max 200 chars)")
	}
	return title, nil
}

func ValidateDescription(desc *string) error {
	if desc != nil && utf8.RuneCountInString(*desc) > MaxDescriptionLength {
		return invalid("description", "description too long (max 2000 chars)")
	}
	return nil
}
