package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/linkstash/linkstash/models"
)

// GetOrCreateTag returns the tag with this exact case-sensitive name,
// creating it if absent. The no-op DO UPDATE makes RETURNING yield the
// existing row on conflict, so two concurrent creations of the same name
// converge on a single row without an application-level retry.
func (db *DB) GetOrCreateTag(ctx context.Context, name string) (*models.Tag, error) {
	tag := &models.Tag{}
	query := `
		INSERT INTO tags (id, name, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name, created_at
	`

	err := db.conn.QueryRowContext(ctx, query, uuid.New().String(), name, time.Now().UTC()).
		Scan(&tag.ID, &tag.Name, &tag.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create tag %q: %w", name, err)
	}

	return tag, nil
}

// ListTags returns every tag. Tags are shared globally, so the listing is
// not scoped to a user.
func (db *DB) ListTags(ctx context.Context) ([]models.Tag, error) {
	rows, err := db.conn.QueryContext(ctx, "SELECT id, name, created_at FROM tags ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	defer rows.Close()

	tags := []models.Tag{}
	for rows.Next() {
		var tag models.Tag
		if err := rows.Scan(&tag.ID, &tag.Name, &tag.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tags: %w", err)
	}

	return tags, nil
}

// ReplaceLinkTags replaces a link's tag associations with exactly tagIDs.
func (db *DB) ReplaceLinkTags(ctx context.Context, linkID string, tagIDs []string) error {
	return db.replaceAssociations(ctx, "link_tags", "link_id", linkID, tagIDs)
}

// ReplaceFolderTags replaces a folder's tag associations with exactly tagIDs.
func (db *DB) ReplaceFolderTags(ctx context.Context, folderID string, tagIDs []string) error {
	return db.replaceAssociations(ctx, "folder_tags", "folder_id", folderID, tagIDs)
}

// replaceAssociations syncs a join table to the given tag set: everything
// previous is removed, the new set inserted, atomically.
func (db *DB) replaceAssociations(ctx context.Context, table, ownerColumn, ownerID string, tagIDs []string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE %s = $1", table, ownerColumn), ownerID); err != nil {
		return fmt.Errorf("failed to clear associations: %w", err)
	}

	insert := fmt.Sprintf("INSERT INTO %s (%s, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING", table, ownerColumn)
	for _, tagID := range tagIDs {
		if _, err := tx.ExecContext(ctx, insert, ownerID, tagID); err != nil {
			return fmt.Errorf("failed to associate tag %s: %w", tagID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
