package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/journify/core/internal/domain/entities"
	"github.com/journify/core/internal/ports"
)

// TagRepositoryImpl implements the TagRepository interface
type TagRepositoryImpl struct {
	db *sqlx.DB
}

// NewTagRepository creates a new tag repository
func NewTagRepository(db *sqlx.DB) ports.TagRepository {
	return &TagRepositoryImpl{db: db}
}

func (r *TagRepositoryImpl) Save(ctx context.Context, tag *entities.Tag) error {
	query := `
		INSERT INTO tags (id, user_id, name, type, color, description, parent_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, type = EXCLUDED.type, color = EXCLUDED.color,
			description = EXCLUDED.description, parent_id = EXCLUDED.parent_id,
			updated_at = EXCLUDED.updated_at`

	_, err := r.db.ExecContext(ctx, query,
		tag.ID, tag.UserID, tag.Name, string(tag.Type), tag.Color,
		tag.Description, tag.ParentID, tag.CreatedAt, tag.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save tag: %w", err)
	}
	return nil
}

func (r *TagRepositoryImpl) GetByID(ctx context.Context, id string) (*entities.Tag, error) {
	query := `
		SELECT id, user_id, name, type, color, description, parent_id, created_at, updated_at
		FROM tags
		WHERE id = $1`

	var tag entities.Tag
	if err := r.db.GetContext(ctx, &tag, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrTagNotFound
		}
		return nil, fmt.Errorf("get tag by id: %w", err)
	}
	return &tag, nil
}

func (r *TagRepositoryImpl) ListByUser(ctx context.Context, userID string) ([]entities.Tag, error) {
	query := `
		SELECT id, user_id, name, type, color, description, parent_id, created_at, updated_at
		FROM tags
		WHERE user_id = $1
		ORDER BY created_at, id`

	var tags []entities.Tag
	if err := r.db.SelectContext(ctx, &tags, query, userID); err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	if tags == nil {
		tags = []entities.Tag{}
	}
	return tags, nil
}

// Delete removes the tag. Entry links are kept so entries still carry the id.
func (r *TagRepositoryImpl) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tags WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entities.ErrTagNotFound
	}
	return nil
}
