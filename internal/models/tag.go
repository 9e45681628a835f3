package models

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const MaxTagNameLength = 50

type Tag struct {
	ID        int64     `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// NormalizeTagName is the canonical stored form of a tag name.
func NormalizeTagName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func ValidateTagName(raw string) (string, error) {
	name := NormalizeTagName(raw)
	if name == "" {
		return "", invalid("name", "tag name cannot be empty or whitespace")
	}
	if utf8.RuneCountInString(name) > MaxTagNameLength {
		return "", invalid("name", "tag name too long (max 50 chars)")
	}
	return name, nil
}

// NormalizeTagNames normalizes a list of names coming with a task write,
// dropping blanks. Order is kept and duplicates are left for the store to
// collapse.
func NormalizeTagNames(raw []string) ([]string, error) {
	names := make([]string, 0, len(raw))
	for _, r := range raw {
		name := NormalizeTagName(r)
		if name == "" {
			continue
		}
		if utf8.RuneCountInString(name) > MaxTagNameLength {
			return nil, invalid("tags", "tag name too long (max 50 chars)")
		}
		names = append(names, name)
	}
	return names, nil
}

// ParseTagFilter splits the comma-separated ?tags= value into a deduplicated
// set of normalized names.
func ParseTagFilter(csv string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(csv, ",") {
		name := NormalizeTagName(part)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}
