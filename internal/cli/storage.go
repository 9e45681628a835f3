package cli

import (
	"errors"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 1000
)

var (
	ErrTaskNotFound    = errors.New("task not found")
	ErrTitleRequired   = errors.New("title is required (1-200 characters)")
	ErrTitleTooLong    = errors.New("title must be 200 characters or less")
	ErrDescriptionLong = errors.New("description must be 1000 characters or less")
)

type Task struct {
	ID          int
	Title       string
	Description string // empty means none
	Completed   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Storage keeps tasks in memory only; nothing survives the process.
type Storage struct {
	tasks  map[int]Task
	nextID int
	now    func() time.Time
}

func NewStorage() *Storage {
	return &Storage{tasks: make(map[int]Task), nextID: 1, now: time.Now}
}

func validateTitle(title string) error {
	if title == "" {
		return ErrTitleRequired
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return ErrTitleTooLong
	}
	return nil
}

func validateDescription(desc string) error {
	if utf8.RuneCountInString(desc) > MaxDescriptionLength {
		return ErrDescriptionLong
	}
	return nil
}

// Add trims both fields and stores a pending task under the next id.
func (s *Storage) Add(title, description string) (Task, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	if err := validateTitle(title); err != nil {
		return Task{}, err
	}
	if err := validateDescription(description); err != nil {
		return Task{}, err
	}

	now := s.now()
	task := Task{
		ID:          s.nextID,
		Title:       title,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.tasks[task.ID] = task
	s.nextID++
	return task, nil
}

func (s *Storage) Get(id int) (Task, bool) {
	task, ok := s.tasks[id]
	return task, ok
}

// All returns every task ordered by id.
func (s *Storage) All() []Task {
	tasks := make([]Task, 0, len(s.tasks))
	for _, task := range s.tasks {
		tasks = append(tasks, task)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	return tasks
}

// Update replaces the given fields; nil leaves a field alone. When nothing
// is given the task is returned as is and UpdatedAt does not move.
func (s *Storage) Update(id int, title, description *string) (Task, error) {
	task, ok := s.tasks[id]
	if !ok {
		return Task{}, ErrTaskNotFound
	}
	if title == nil && description == nil {
		return task, nil
	}

	if title != nil {
		t := strings.TrimSpace(*title)
		if err := validateTitle(t); err != nil {
			return Task{}, err
		}
		task.Title = t
	}
	if description != nil {
		d := strings.TrimSpace(*description)
		if err := validateDescription(d); err != nil {
			return Task{}, err
		}
		task.Description = d
	}
	task.UpdatedAt = s.now()
	s.tasks[id] = task
	return task, nil
}

// Delete removes the task and returns what was stored.
func (s *Storage) Delete(id int) (Task, error) {
	task, ok := s.tasks[id]
	if !ok {
		return Task{}, ErrTaskNotFound
	}
	delete(s.tasks, id)
	return task, nil
}

func (s *Storage) MarkComplete(id int) (Task, error) {
	task, ok := s.tasks[id]
	if !ok {
		return Task{}, ErrTaskNotFound
	}
	task.Completed = true
	task.UpdatedAt = s.now()
	s.tasks[id] = task
	return task, nil
}
