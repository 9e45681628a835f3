package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chepyr/go-todo/internal/models"
	"github.com/google/uuid"
)

// defines methods for task db operations
type TaskRepositoryInterface interface {
	Create(ctx context.Context, ownerID uuid.UUID, task *models.Task, tagNames []string) error
	GetByID(ctx context.Context, ownerID uuid.UUID, id int64) (*models.Task, error)
	List(ctx context.Context, ownerID uuid.UUID, filter models.TaskFilter) ([]*models.Task, error)
	Update(ctx context.Context, ownerID uuid.UUID, id int64, update models.TaskUpdate) (*models.Task, error)
	ToggleComplete(ctx context.Context, ownerID uuid.UUID, id int64) (*models.Task, error)
	Delete(ctx context.Context, ownerID uuid.UUID, id int64) error
}

type TaskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

const taskColumns = `t.id, t.user_id, t.title, t.description, t.is_completed, t.priority, t.created_at, t.updated_at`

// columns accepted by ?sort_by=
var sortColumns = map[string]string{
	"id":           "t.id",
	"user_id":      "t.user_id",
	"title":        "t.title",
	"description":  "t.description",
	"is_completed": "t.is_completed",
	"priority":     "t.priority",
	"created_at":   "t.created_at",
	"updated_at":   "t.updated_at",
}

func scanTask(row interface{ Scan(...any) error }) (*models.Task, error) {
	task := &models.Task{Tags: []string{}}
	err := row.Scan(
		&task.ID, &task.UserID, &task.Title, &task.Description, &task.IsCompleted,
		&task.Priority, &task.CreatedAt, &task.UpdatedAt,
	)
	return task, err
}

// Create inserts the task and links its tags in one transaction. ID and Tags
// are filled in on success.
func (r *TaskRepository) Create(ctx context.Context, ownerID uuid.UUID, task *models.Task, tagNames []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	task.UserID = ownerID
	query := `INSERT INTO tasks (user_id, title, description, is_completed, priority, created_at, updated_at)
	 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	err = tx.QueryRowContext(ctx, query,
		task.UserID, task.Title, task.Description, task.IsCompleted, task.Priority,
		task.CreatedAt, task.UpdatedAt).Scan(&task.ID)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}

	tags, err := getOrCreateTags(ctx, tx, ownerID, tagNames)
	if err != nil {
		return err
	}
	if err := linkTags(ctx, tx, task.ID, tags); err != nil {
		return err
	}
	if err := loadTags(ctx, tx, []*models.Task{task}); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *TaskRepository) GetByID(ctx context.Context, ownerID uuid.UUID, id int64) (*models.Task, error) {
	task, err := getTask(ctx, r.db, ownerID, id)
	if err != nil {
		return nil, err
	}
	if err := loadTags(ctx, r.db, []*models.Task{task}); err != nil {
		return nil, err
	}
	return task, nil
}

func getTask(ctx context.Context, q querier, ownerID uuid.UUID, id int64) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks t WHERE t.id = $1 AND t.user_id = $2`
	task, err := scanTask(q.QueryRowContext(ctx, query, id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select task: %w", err)
	}
	return task, nil
}

// List applies the filter conjunctively. Unknown status, priority and sort
// values fall back to no restriction and created_at DESC. The tag filter
// matches tasks carrying any of the requested tags, each task at most once.
func (r *TaskRepository) List(ctx context.Context, ownerID uuid.UUID, filter models.TaskFilter) ([]*models.Task, error) {
	var b strings.Builder
	args := []any{ownerID}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	b.WriteString(`SELECT ` + taskColumns + ` FROM tasks t WHERE t.user_id = $1`)

	switch filter.Status {
	case "completed":
		b.WriteString(` AND t.is_completed = ` + arg(true))
	case "pending":
		b.WriteString(` AND t.is_completed = ` + arg(false))
	}

	if p := models.Priority(filter.Priority); p.Valid() {
		b.WriteString(` AND t.priority = ` + arg(string(p)))
	}

	if filter.Search != "" {
		pattern := arg("%" + escapeLike(strings.ToLower(filter.Search)) + "%")
		b.WriteString(` AND (LOWER(t.title) LIKE ` + pattern + ` ESCAPE '\'` +
			` OR LOWER(t.description) LIKE ` + pattern + ` ESCAPE '\')`)
	}

	if names := models.ParseTagFilter(filter.Tags); len(names) > 0 {
		placeholders := make([]string, len(names))
		for i, name := range names {
			placeholders[i] = arg(name)
		}
		b.WriteString(` AND EXISTS (SELECT 1 FROM task_tags tt JOIN tags g ON g.id = tt.tag_id` +
			` WHERE tt.task_id = t.id AND g.user_id = t.user_id AND g.name IN (` +
			strings.Join(placeholders, ", ") + `))`)
	}

	column, ok := sortColumns[filter.SortBy]
	if !ok {
		column = sortColumns["created_at"]
	}
	direction := "DESC"
	if filter.SortOrder == "asc" {
		direction = "ASC"
	}
	fmt.Fprintf(&b, ` ORDER BY %s %s, t.id %s`, column, direction, direction)

	rows, err := r.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []*models.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	if err := loadTags(ctx, r.db, tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// Update applies the present fields of update. When tags are present the
// task's links are replaced inside the same transaction.
func (r *TaskRepository) Update(ctx context.Context, ownerID uuid.UUID, id int64, update models.TaskUpdate) (*models.Task, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if err := lockTask(ctx, tx, ownerID, id); err != nil {
		return nil, err
	}
	task, err := getTask(ctx, tx, ownerID, id)
	if err != nil {
		return nil, err
	}
	update.Apply(task)
	task.UpdatedAt = touch(task)

	query := `UPDATE tasks SET title = $1, description = $2, is_completed = $3, priority = $4, updated_at = $5
	 WHERE id = $6 AND user_id = $7`
	_, err = tx.ExecContext(ctx, query,
		task.Title, task.Description, task.IsCompleted, task.Priority, task.UpdatedAt,
		task.ID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}

	if update.Tags.Set {
		if _, err := tx.ExecContext(ctx, `DELETE FROM task_tags WHERE task_id = $1`, task.ID); err != nil {
			return nil, fmt.Errorf("clear task tags: %w", err)
		}
		tags, err := getOrCreateTags(ctx, tx, ownerID, update.Tags.Value)
		if err != nil {
			return nil, err
		}
		if err := linkTags(ctx, tx, task.ID, tags); err != nil {
			return nil, err
		}
	}

	if err := loadTags(ctx, tx, []*models.Task{task}); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return task, nil
}

func (r *TaskRepository) ToggleComplete(ctx context.Context, ownerID uuid.UUID, id int64) (*models.Task, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if err := lockTask(ctx, tx, ownerID, id); err != nil {
		return nil, err
	}
	task, err := getTask(ctx, tx, ownerID, id)
	if err != nil {
		return nil, err
	}
	task.IsCompleted = !task.IsCompleted
	task.UpdatedAt = touch(task)

	_, err = tx.ExecContext(ctx,
		`UPDATE tasks SET is_completed = $1, updated_at = $2 WHERE id = $3 AND user_id = $4`,
		task.IsCompleted, task.UpdatedAt, task.ID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("toggle task: %w", err)
	}
	if err := loadTags(ctx, tx, []*models.Task{task}); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return task, nil
}

func (r *TaskRepository) Delete(ctx context.Context, ownerID uuid.UUID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return expectOneRow(res)
}

// lockTask takes the row's write lock before it is read, so concurrent
// read-modify-write transactions on the same task run one after another.
// A no-op UPDATE works as the lock on both postgres and sqlite3.
func lockTask(ctx context.Context, tx *sql.Tx, ownerID uuid.UUID, id int64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE tasks SET updated_at = updated_at WHERE id = $1 AND user_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("lock task: %w", err)
	}
	return expectOneRow(res)
}

// touch returns the new updated_at, never earlier than created_at.
func touch(task *models.Task) time.Time {
	t := now()
	if t.Before(task.CreatedAt) {
		return task.CreatedAt
	}
	return t
}

// tagBatchSize bounds the IN list of one tag query, well below the bind
// parameter limits of sqlite3 (32766) and postgres (65535).
const tagBatchSize = 500

// loadTags fills Tags for every task, ordered by tag name.
func loadTags(ctx context.Context, q querier, tasks []*models.Task) error {
	byID := make(map[int64]*models.Task, len(tasks))
	for _, task := range tasks {
		task.Tags = []string{}
		byID[task.ID] = task
	}
	for start := 0; start < len(tasks); start += tagBatchSize {
		end := min(start+tagBatchSize, len(tasks))
		if err := loadTagBatch(ctx, q, tasks[start:end], byID); err != nil {
			return err
		}
	}
	return nil
}

func loadTagBatch(ctx context.Context, q querier, tasks []*models.Task, byID map[int64]*models.Task) error {
	placeholders := make([]string, 0, len(tasks))
	args := make([]any, 0, len(tasks))
	for _, task := range tasks {
		args = append(args, task.ID)
		placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
	}

	query := `SELECT tt.task_id, g.name FROM task_tags tt JOIN tags g ON g.id = tt.tag_id
	 WHERE tt.task_id IN (` + strings.Join(placeholders, ", ") + `)
	 ORDER BY tt.task_id, g.name`
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("load task tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var taskID int64
		var name string
		if err := rows.Scan(&taskID, &name); err != nil {
			return err
		}
		if task, ok := byID[taskID]; ok {
			task.Tags = append(task.Tags, name)
		}
	}
	return rows.Err()
}
