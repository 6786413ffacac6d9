package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/journify/core/internal/domain/entities"
	"github.com/journify/core/internal/infrastructure/database"
	"github.com/journify/core/internal/ports"
)

// EntryRepositoryImpl implements the EntryRepository interface
type EntryRepositoryImpl struct {
	db *sqlx.DB
}

// NewEntryRepository creates a new entry repository
func NewEntryRepository(db *sqlx.DB) ports.EntryRepository {
	return &EntryRepositoryImpl{db: db}
}

type entryRow struct {
	ID          string    `db:"id"`
	UserID      string    `db:"user_id"`
	Title       *string   `db:"title"`
	Content     string    `db:"content"`
	Mood        *string   `db:"mood"`
	IsHighlight bool      `db:"is_highlight"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

type entryTagRow struct {
	EntryID string `db:"entry_id"`
	TagID   string `db:"tag_id"`
}

// Save upserts the entry and replaces its tag links and attachments.
func (r *EntryRepositoryImpl) Save(ctx context.Context, entry *entities.JournalEntry) error {
	var mood *string
	if entry.Mood != nil {
		m := string(*entry.Mood)
		mood = &m
	}

	return database.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		upsert := `
			INSERT INTO journal_entries (id, user_id, title, content, mood, is_highlight, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (id) DO UPDATE
			SET title = EXCLUDED.title, content = EXCLUDED.content, mood = EXCLUDED.mood,
				is_highlight = EXCLUDED.is_highlight, updated_at = EXCLUDED.updated_at`

		if _, err := tx.ExecContext(ctx, upsert,
			entry.ID, entry.UserID, entry.Title, entry.Content, mood,
			entry.IsHighlight, entry.CreatedAt, entry.UpdatedAt,
		); err != nil {
			return fmt.Errorf("save entry: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM entry_tags WHERE entry_id = $1`, entry.ID); err != nil {
			return fmt.Errorf("clear entry tags: %w", err)
		}
		if len(entry.TagIDs) > 0 {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO entry_tags (entry_id, tag_id, position)
				SELECT $1, t.tag_id, t.ord - 1
				FROM unnest($2::text[]) WITH ORDINALITY AS t(tag_id, ord)
				ON CONFLICT (entry_id, tag_id) DO NOTHING`,
				entry.ID, pq.Array(entry.TagIDs),
			); err != nil {
				return fmt.Errorf("link entry tags: %w", err)
			}
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM attachments WHERE entry_id = $1`, entry.ID); err != nil {
			return fmt.Errorf("clear attachments: %w", err)
		}
		for i, a := range entry.Attachments {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO attachments (id, entry_id, type, url, filename, size, position, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				a.ID, entry.ID, string(a.Type), a.URL, a.Filename, a.Size, i, a.CreatedAt,
			); err != nil {
				return fmt.Errorf("save attachment: %w", err)
			}
		}
		return nil
	})
}

func (r *EntryRepositoryImpl) GetByID(ctx context.Context, id string) (*entities.JournalEntry, error) {
	query := `
		SELECT id, user_id, title, content, mood, is_highlight, created_at, updated_at
		FROM journal_entries
		WHERE id = $1`

	var row entryRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrEntryNotFound
		}
		return nil, fmt.Errorf("get entry by id: %w", err)
	}

	var tagIDs []string
	if err := r.db.SelectContext(ctx, &tagIDs,
		`SELECT tag_id FROM entry_tags WHERE entry_id = $1 ORDER BY position`, id,
	); err != nil {
		return nil, fmt.Errorf("get entry tags: %w", err)
	}

	var attachments []entities.Attachment
	if err := r.db.SelectContext(ctx, &attachments, `
		SELECT id, entry_id, type, url, filename, size, created_at
		FROM attachments
		WHERE entry_id = $1
		ORDER BY position`, id,
	); err != nil {
		return nil, fmt.Errorf("get entry attachments: %w", err)
	}

	entry := row.toEntity(tagIDs, attachments)
	return &entry, nil
}

// ListByUser returns the user's entries newest first.
func (r *EntryRepositoryImpl) ListByUser(ctx context.Context, userID string) ([]entities.JournalEntry, error) {
	var rows []entryRow
	if err := r.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, title, content, mood, is_highlight, created_at, updated_at
		FROM journal_entries
		WHERE user_id = $1
		ORDER BY created_at DESC`, userID,
	); err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}

	var links []entryTagRow
	if err := r.db.SelectContext(ctx, &links, `
		SELECT et.entry_id, et.tag_id
		FROM entry_tags et
		JOIN journal_entries e ON e.id = et.entry_id
		WHERE e.user_id = $1
		ORDER BY et.entry_id, et.position`, userID,
	); err != nil {
		return nil, fmt.Errorf("list entry tags: %w", err)
	}

	var attachments []entities.Attachment
	if err := r.db.SelectContext(ctx, &attachments, `
		SELECT a.id, a.entry_id, a.type, a.url, a.filename, a.size, a.created_at
		FROM attachments a
		JOIN journal_entries e ON e.id = a.entry_id
		WHERE e.user_id = $1
		ORDER BY a.entry_id, a.position`, userID,
	); err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}

	tagsByEntry := make(map[string][]string)
	for _, l := range links {
		tagsByEntry[l.EntryID] = append(tagsByEntry[l.EntryID], l.TagID)
	}
	attachmentsByEntry := make(map[string][]entities.Attachment)
	for _, a := range attachments {
		attachmentsByEntry[a.EntryID] = append(attachmentsByEntry[a.EntryID], a)
	}

	entries := make([]entities.JournalEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, row.toEntity(tagsByEntry[row.ID], attachmentsByEntry[row.ID]))
	}
	return entries, nil
}

// Delete removes the entry; tag links and attachments cascade.
func (r *EntryRepositoryImpl) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM journal_entries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entities.ErrEntryNotFound
	}
	return nil
}

func (row entryRow) toEntity(tagIDs []string, attachments []entities.Attachment) entities.JournalEntry {
	var mood *entities.Mood
	if row.Mood != nil {
		m := entities.Mood(*row.Mood)
		mood = &m
	}
	if tagIDs == nil {
		tagIDs = []string{}
	}
	if attachments == nil {
		attachments = []entities.Attachment{}
	}
	return entities.JournalEntry{
		ID:          row.ID,
		UserID:      row.UserID,
		Title:       row.Title,
		Content:     row.Content,
		Mood:        mood,
		TagIDs:      tagIDs,
		IsHighlight: row.IsHighlight,
		Attachments: attachments,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}
