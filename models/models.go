package models

import "time"

// User represents an account. Password hashes never leave the server.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Link is a saved bookmark enriched by the pipeline. Title, ImageURL and
// Summary are best-effort: a link is valid with every one of them at its
// placeholder/zero value.
type Link struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	ImageURL    string    `json:"image_url,omitempty"`
	Summary     string    `json:"summary"`
	ArchivePath string    `json:"archive_path,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	Tags        []Tag     `json:"tags"`
}

// Folder is a saved filter: its tags define a query over the owner's links,
// it does not contain links directly.
type Folder struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Color     string    `json:"color,omitempty"`
	Icon      string    `json:"icon,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Tags      []Tag     `json:"tags"`
}

// Tag is globally shared across users. Names are unique and matched
// case-sensitively.
type Tag struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Metadata is what the extractor pulls out of a fetched page. All fields are
// optional; absent sources yield zero values, never errors.
type Metadata struct {
	Title    string `json:"title"`
	ImageURL string `json:"image_url"`
	Text     string `json:"text"`
}

// Summary is the parsed result of a successful Gemini summarization call.
type Summary struct {
	Summary string   `json:"summary"`
	Tags    []string `json:"tags"`
}

// SearchResult groups the unified keyword search output.
type SearchResult struct {
	Links   []*Link   `json:"links"`
	Folders []*Folder `json:"folders"`
}
