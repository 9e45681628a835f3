package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/chepyr/go-todo/internal/models"
	"github.com/google/uuid"
)

// defines methods for tag db operations
type TagRepositoryInterface interface {
	List(ctx context.Context, ownerID uuid.UUID, search string) ([]*models.Tag, error)
	Create(ctx context.Context, ownerID uuid.UUID, name string) (*models.Tag, error)
	GetByID(ctx context.Context, ownerID uuid.UUID, id int64) (*models.Tag, error)
	Delete(ctx context.Context, ownerID uuid.UUID, id int64) error
}

type TagRepository struct {
	db *sql.DB
}

func NewTagRepository(db *sql.DB) *TagRepository {
	return &TagRepository{db: db}
}

// List returns the owner's tags by name. A non-empty search keeps only names
// starting with it, ignoring case.
func (r *TagRepository) List(ctx context.Context, ownerID uuid.UUID, search string) ([]*models.Tag, error) {
	query := `SELECT id, user_id, name, created_at FROM tags WHERE user_id = $1`
	args := []any{ownerID}
	if search != "" {
		query += ` AND name LIKE $2 ESCAPE '\'`
		args = append(args, escapeLike(strings.ToLower(search))+"%")
	}
	query += ` ORDER BY name ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	tags := []*models.Tag{}
	for rows.Next() {
		tag := &models.Tag{}
		if err := rows.Scan(&tag.ID, &tag.UserID, &tag.Name, &tag.CreatedAt); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tags, nil
}

// Create stores an already normalized name. Duplicates for the same owner,
// including ones lost to a concurrent insert, return ErrConflict.
func (r *TagRepository) Create(ctx context.Context, ownerID uuid.UUID, name string) (*models.Tag, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM tags WHERE user_id = $1 AND name = $2)`,
		ownerID, name).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("check tag: %w", err)
	}
	if exists {
		return nil, ErrConflict
	}

	tag := &models.Tag{UserID: ownerID, Name: name, CreatedAt: now()}
	err = r.db.QueryRowContext(ctx,
		`INSERT INTO tags (user_id, name, created_at) VALUES ($1, $2, $3) RETURNING id`,
		tag.UserID, tag.Name, tag.CreatedAt).Scan(&tag.ID)
	if isUniqueViolation(err) {
		return nil, ErrConflict
	}
	if err != nil {
		return nil, fmt.Errorf("insert tag: %w", err)
	}
	return tag, nil
}

func (r *TagRepository) GetByID(ctx context.Context, ownerID uuid.UUID, id int64) (*models.Tag, error) {
	tag := &models.Tag{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, created_at FROM tags WHERE id = $1 AND user_id = $2`,
		id, ownerID).Scan(&tag.ID, &tag.UserID, &tag.Name, &tag.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select tag: %w", err)
	}
	return tag, nil
}

func (r *TagRepository) Delete(ctx context.Context, ownerID uuid.UUID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM tags WHERE id = $1 AND user_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	return expectOneRow(res)
}

// getOrCreateTags resolves normalized names to the owner's tags, creating the
// missing ones. Input order is kept; a repeated name yields the same tag once.
func getOrCreateTags(ctx context.Context, q querier, ownerID uuid.UUID, names []string) ([]*models.Tag, error) {
	tags := make([]*models.Tag, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, raw := range names {
		name := models.NormalizeTagName(raw)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		// DO NOTHING keeps the transaction usable when a concurrent request
		// created the same tag first.
		_, err := q.ExecContext(ctx,
			`INSERT INTO tags (user_id, name, created_at) VALUES ($1, $2, $3)
			 ON CONFLICT (user_id, name) DO NOTHING`,
			ownerID, name, now())
		if err != nil {
			return nil, fmt.Errorf("insert tag %q: %w", name, err)
		}

		tag := &models.Tag{}
		err = q.QueryRowContext(ctx,
			`SELECT id, user_id, name, created_at FROM tags WHERE user_id = $1 AND name = $2`,
			ownerID, name).Scan(&tag.ID, &tag.UserID, &tag.Name, &tag.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("select tag %q: %w", name, err)
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

// linkTags attaches tags to a task. Both must belong to the same owner;
// getOrCreateTags guarantees that for its results.
func linkTags(ctx context.Context, q querier, taskID int64, tags []*models.Tag) error {
	for _, tag := range tags {
		_, err := q.ExecContext(ctx,
			`INSERT INTO task_tags (task_id, tag_id, created_at) VALUES ($1, $2, $3)
			 ON CONFLICT (task_id, tag_id) DO NOTHING`,
			taskID, tag.ID, now())
		if err != nil {
			return fmt.Errorf("link tag %d: %w", tag.ID, err)
		}
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
