package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/linkstash/linkstash/models"
)

const linkColumns = "id, user_id, url, title, COALESCE(image_url, ''), summary, COALESCE(archive_path, ''), created_at"

// CreateLink persists a new link row. Tag associations are written
// separately through ReplaceLinkTags.
func (db *DB) CreateLink(ctx context.Context, link *models.Link) error {
	query := `
		INSERT INTO links (id, user_id, url, title, image_url, summary, archive_path, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, NULLIF($7, ''), $8)
	`
	_, err := db.conn.ExecContext(ctx, query,
		link.ID, link.UserID, link.URL, link.Title, link.ImageURL, link.Summary, link.ArchivePath, link.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create link: %w", err)
	}
	return nil
}

// GetLinkByID returns a link with its tags, or nil when absent. Ownership is
// checked by the caller.
func (db *DB) GetLinkByID(ctx context.Context, id string) (*models.Link, error) {
	row := db.conn.QueryRowContext(ctx, "SELECT "+linkColumns+" FROM links WHERE id = $1", id)
	link, err := scanLink(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query link: %w", err)
	}

	if err := db.attachLinkTags(ctx, []*models.Link{link}); err != nil {
		return nil, err
	}
	return link, nil
}

// ListLinks returns the user's links, newest first, with tags attached.
func (db *DB) ListLinks(ctx context.Context, userID string) ([]*models.Link, error) {
	query := "SELECT " + linkColumns + " FROM links WHERE user_id = $1 ORDER BY created_at DESC"
	return db.queryLinks(ctx, query, userID)
}

// ListLinksByTagIDs returns the user's links associated with ANY of the
// given tags (union), newest first. An empty tag set matches nothing.
func (db *DB) ListLinksByTagIDs(ctx context.Context, userID string, tagIDs []string) ([]*models.Link, error) {
	if len(tagIDs) == 0 {
		return []*models.Link{}, nil
	}

	query := `
		SELECT DISTINCT l.id, l.user_id, l.url, l.title, COALESCE(l.image_url, ''), l.summary, COALESCE(l.archive_path, ''), l.created_at
		FROM links l
		JOIN link_tags lt ON lt.link_id = l.id
		WHERE l.user_id = $1 AND lt.tag_id = ANY($2)
		ORDER BY l.created_at DESC
	`
	return db.queryLinks(ctx, query, userID, pq.Array(tagIDs))
}

// UpdateLink rewrites the mutable fields of a link row.
func (db *DB) UpdateLink(ctx context.Context, link *models.Link) error {
	query := "UPDATE links SET title = $1, summary = $2, image_url = NULLIF($3, '') WHERE id = $4"
	result, err := db.conn.ExecContext(ctx, query, link.Title, link.Summary, link.ImageURL, link.ID)
	if err != nil {
		return fmt.Errorf("failed to update link: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("no link found with id: %s", link.ID)
	}
	return nil
}

// DeleteLink removes a link row. Join rows cascade; tag rows themselves are
// shared and never deleted here.
func (db *DB) DeleteLink(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, "DELETE FROM links WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete link: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("no link found with id: %s", id)
	}
	return nil
}

// queryLinks runs a link query and attaches tags to every result.
func (db *DB) queryLinks(ctx context.Context, query string, args ...interface{}) ([]*models.Link, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query links: %w", err)
	}
	defer rows.Close()

	links := []*models.Link{}
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating links: %w", err)
	}

	if err := db.attachLinkTags(ctx, links); err != nil {
		return nil, err
	}
	return links, nil
}

type scannable interface {
	Scan(dest ...interface{}) error
}

func scanLink(row scannable) (*models.Link, error) {
	link := &models.Link{Tags: []models.Tag{}}
	err := row.Scan(&link.ID, &link.UserID, &link.URL, &link.Title, &link.ImageURL, &link.Summary, &link.ArchivePath, &link.CreatedAt)
	if err != nil {
		return nil, err
	}
	return link, nil
}

// attachLinkTags loads tags for all given links in one query.
func (db *DB) attachLinkTags(ctx context.Context, links []*models.Link) error {
	if len(links) == 0 {
		return nil
	}

	ids := make([]string, len(links))
	byID := make(map[string]*models.Link, len(links))
	for i, link := range links {
		ids[i] = link.ID
		byID[link.ID] = link
	}

	query := `
		SELECT lt.link_id, t.id, t.name, t.created_at
		FROM link_tags lt
		JOIN tags t ON t.id = lt.tag_id
		WHERE lt.link_id = ANY($1)
		ORDER BY t.name
	`
	rows, err := db.conn.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to query link tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var linkID string
		var tag models.Tag
		if err := rows.Scan(&linkID, &tag.ID, &tag.Name, &tag.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan link tag: %w", err)
		}
		if link, ok := byID[linkID]; ok {
			link.Tags = append(link.Tags, tag)
		}
	}
	return rows.Err()
}
