package models

import (
	"time"

	"github.com/google/uuid"
)

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 2000
)

// Task is a todo item owned by a single user. Tags holds the names of the
// associated tags and is always non-nil once loaded from the store.
type Task struct {
	ID          int64     `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	IsCompleted bool      `json:"is_completed"`
	Priority    Priority  `json:"priority"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Tags        []string  `json:"tags"`
}

// TaskCreate is the decoded body of POST /api/tasks.
type TaskCreate struct {
	Title       string             `json:"title"`
	Description *string            `json:"description"`
	Priority    Optional[Priority] `json:"priority"`
	Tags        []string           `json:"tags"`
}

// Normalize trims and validates the input in place, filling defaults.
func (c *TaskCreate) Normalize() error {
	title, err := ValidateTitle(c.Title)
	if err != nil {
		return err
	}
	c.Title = title

	if err := ValidateDescription(c.Description); err != nil {
		return err
	}

	switch {
	case !c.Priority.Set:
		c.Priority = Some(PriorityMedium)
	case c.Priority.Null || !c.Priority.Value.Valid():
		return invalid("priority", "must be one of high, medium, low")
	}

	tags, err := NormalizeTagNames(c.Tags)
	if err != nil {
		return err
	}
	c.Tags = tags
	return nil
}

// TaskUpdate carries a partial update. A field is applied only when it was
// present in the request body.
type TaskUpdate struct {
	Title       Optional[string]   `json:"title"`
	Description Optional[string]   `json:"description"`
	Priority    Optional[Priority] `json:"priority"`
	IsCompleted Optional[bool]     `json:"is_completed"`
	Tags        Optional[[]string] `json:"tags"`
}

// Normalize validates present fields. An explicit null clears the
// description, leaves tags untouched and is rejected for every other field.
func (u *TaskUpdate) Normalize() error {
	if u.Title.Set {
		if u.Title.Null {
			return invalid("title", "cannot be null")
		}
		title, err := ValidateTitle(u.Title.Value)
		if err != nil {
			return err
		}
		u.Title.Value = title
	}

	if u.Description.Set && !u.Description.Null {
		if err := ValidateDescription(&u.Description.Value); err != nil {
			return err
		}
	}

	if u.Priority.Set && (u.Priority.Null || !u.Priority.Value.Valid()) {
		return invalid("priority", "must be one of high, medium, low")
	}

	if u.IsCompleted.Set && u.IsCompleted.Null {
		return invalid("is_completed", "cannot be null")
	}

	if u.Tags.Null {
		u.Tags = Optional[[]string]{}
	}
	if u.Tags.Set {
		tags, err := NormalizeTagNames(u.Tags.Value)
		if err != nil {
			return err
		}
		u.Tags.Value = tags
	}
	return nil
}

// Apply copies the present scalar fields onto t. Tags are handled by the store.
func (u *TaskUpdate) Apply(t *Task) {
	if u.Title.Set {
		t.Title = u.Title.Value
	}
	if u.Description.Set {
		if u.Description.Null {
			t.Description = nil
		} else {
			desc := u.Description.Value
			t.Description = &desc
		}
	}
	if u.Priority.Set {
		t.Priority = u.Priority.Value
	}
	if u.IsCompleted.Set {
		t.IsCompleted = u.IsCompleted.Value
	}
}

// TaskFilter describes a list query. Unrecognized values are ignored rather
// than rejected.
type TaskFilter struct {
	Status    string
	Priority  string
	Search    string
	Tags      string
	SortBy    string
	SortOrder string
}
