package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/linkstash/linkstash/models"
)

const folderColumns = "id, user_id, name, COALESCE(color, ''), COALESCE(icon, ''), created_at"

// CreateFolder persists a new folder row.
func (db *DB) CreateFolder(ctx context.Context, folder *models.Folder) error {
	query := `
		INSERT INTO folders (id, user_id, name, color, icon, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6)
	`
	_, err := db.conn.ExecContext(ctx, query,
		folder.ID, folder.UserID, folder.Name, folder.Color, folder.Icon, folder.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create folder: %w", err)
	}
	return nil
}

// GetFolderByID returns a folder with its tags, or nil when absent.
// Ownership is checked by the caller.
func (db *DB) GetFolderByID(ctx context.Context, id string) (*models.Folder, error) {
	row := db.conn.QueryRowContext(ctx, "SELECT "+folderColumns+" FROM folders WHERE id = $1", id)
	folder, err := scanFolder(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query folder: %w", err)
	}

	if err := db.attachFolderTags(ctx, []*models.Folder{folder}); err != nil {
		return nil, err
	}
	return folder, nil
}

// ListFolders returns the user's folders with tags attached.
func (db *DB) ListFolders(ctx context.Context, userID string) ([]*models.Folder, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT "+folderColumns+" FROM folders WHERE user_id = $1 ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query folders: %w", err)
	}
	defer rows.Close()

	folders := []*models.Folder{}
	for rows.Next() {
		folder, err := scanFolder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan folder: %w", err)
		}
		folders = append(folders, folder)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating folders: %w", err)
	}

	if err := db.attachFolderTags(ctx, folders); err != nil {
		return nil, err
	}
	return folders, nil
}

// UpdateFolder rewrites the mutable fields of a folder row.
func (db *DB) UpdateFolder(ctx context.Context, folder *models.Folder) error {
	query := "UPDATE folders SET name = $1, color = NULLIF($2, ''), icon = NULLIF($3, '') WHERE id = $4"
	result, err := db.conn.ExecContext(ctx, query, folder.Name, folder.Color, folder.Icon, folder.ID)
	if err != nil {
		return fmt.Errorf("failed to update folder: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("no folder found with id: %s", folder.ID)
	}
	return nil
}

// DeleteFolder removes a folder row; its tag associations cascade.
func (db *DB) DeleteFolder(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, "DELETE FROM folders WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete folder: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("no folder found with id: %s", id)
	}
	return nil
}

func scanFolder(row scannable) (*models.Folder, error) {
	folder := &models.Folder{Tags: []models.Tag{}}
	err := row.Scan(&folder.ID, &folder.UserID, &folder.Name, &folder.Color, &folder.Icon, &folder.CreatedAt)
	if err != nil {
		return nil, err
	}
	return folder, nil
}

// attachFolderTags loads tags for all given folders in one query.
func (db *DB) attachFolderTags(ctx context.Context, folders []*models.Folder) error {
	if len(folders) == 0 {
		return nil
	}

	ids := make([]string, len(folders))
	byID := make(map[string]*models.Folder, len(folders))
	for i, folder := range folders {
		ids[i] = folder.ID
		byID[folder.ID] = folder
	}

	query := `
		SELECT ft.folder_id, t.id, t.name, t.created_at
		FROM folder_tags ft
		JOIN tags t ON t.id = ft.tag_id
		WHERE ft.folder_id = ANY($1)
		ORDER BY t.name
	`
	rows, err := db.conn.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to query folder tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var folderID string
		var tag models.Tag
		if err := rows.Scan(&folderID, &tag.ID, &tag.Name, &tag.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan folder tag: %w", err)
		}
		if folder, ok := byID[folderID]; ok {
			folder.Tags = append(folder.Tags, tag)
		}
	}
	return rows.Err()
}
