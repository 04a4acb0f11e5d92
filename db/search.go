package db

import (
	"context"
	"fmt"

	"github.com/linkstash/linkstash/models"
)

// SearchLinks returns up to limit of the user's links whose title, summary
// or tag names contain the query substring, newest first.
func (db *DB) SearchLinks(ctx context.Context, userID, query string, limit int) ([]*models.Link, error) {
	pattern := "%" + query + "%"
	sqlQuery := `
		SELECT DISTINCT l.id, l.user_id, l.url, l.title, COALESCE(l.image_url, ''), l.summary, COALESCE(l.archive_path, ''), l.created_at
		FROM links l
		LEFT JOIN link_tags lt ON lt.link_id = l.id
		LEFT JOIN tags t ON t.id = lt.tag_id
		WHERE l.user_id = $1
		  AND (l.title ILIKE $2 OR l.summary ILIKE $2 OR t.name ILIKE $2)
		ORDER BY l.created_at DESC
		LIMIT $3
	`
	return db.queryLinks(ctx, sqlQuery, userID, pattern, limit)
}

// SearchFolders returns up to limit of the user's folders whose name or tag
// names contain the query substring, newest first.
func (db *DB) SearchFolders(ctx context.Context, userID, query string, limit int) ([]*models.Folder, error) {
	pattern := "%" + query + "%"
	sqlQuery := `
		SELECT DISTINCT f.id, f.user_id, f.name, COALESCE(f.color, ''), COALESCE(f.icon, ''), f.created_at
		FROM folders f
		LEFT JOIN folder_tags ft ON ft.folder_id = f.id
		LEFT JOIN tags t ON t.id = ft.tag_id
		WHERE f.user_id = $1
		  AND (f.name ILIKE $2 OR t.name ILIKE $2)
		ORDER BY f.created_at DESC
		LIMIT $3
	`
	rows, err := db.conn.QueryContext(ctx, sqlQuery, userID, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search folders: %w", err)
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
