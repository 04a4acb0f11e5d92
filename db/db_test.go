package db

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	_ "github.com/lib/pq"

	"github.com/linkstash/linkstash/models"
)

// setupTestDB connects to the database named by TEST_DATABASE_DSN and wipes
// all rows. Tests are skipped when the variable is unset so the suite runs
// without a local PostgreSQL.
func setupTestDB(t *testing.T) *DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set, skipping database integration test")
	}

	db, err := New(Config{DSN: dsn})
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	for _, table := range []string{"link_tags", "folder_tags", "links", "folders", "tags", "users"} {
		if _, err := db.conn.Exec("DELETE FROM " + table); err != nil {
			t.Fatalf("failed to clear table %s: %v", table, err)
		}
	}
	return db
}

func createTestUser(t *testing.T, db *DB, id string) *models.User {
	t.Helper()
	user := &models.User{
		ID:           id,
		Email:        id + "@example.com",
		PasswordHash: "x",
		CreatedAt:    time.Now().UTC(),
	}
	if err := db.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

func createTestLink(t *testing.T, db *DB, id, userID, title string) *models.Link {
	t.Helper()
	link := &models.Link{
		ID:        id,
		UserID:    userID,
		URL:       fmt.Sprintf("https://example.com/%s", id),
		Title:     title,
		Summary:   "summary of " + title,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.CreateLink(context.Background(), link); err != nil {
		t.Fatalf("failed to create link: %v", err)
	}
	return link
}

func TestGetOrCreateTagIdempotent(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	first, err := db.GetOrCreateTag(ctx, "golang")
	if err != nil {
		t.Fatalf("failed to create tag: %v", err)
	}
	second, err := db.GetOrCreateTag(ctx, "golang")
	if err != nil {
		t.Fatalf("failed to get tag: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("expected the same tag row, got %q and %q", first.ID, second.ID)
	}

	// Tag names are case sensitive.
	other, err := db.GetOrCreateTag(ctx, "Golang")
	if err != nil {
		t.Fatalf("failed to create cased tag: %v", err)
	}
	if other.ID == first.ID {
		t.Error("expected a distinct tag for a distinct casing")
	}
}

func TestReplaceLinkTags(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	user := createTestUser(t, db, "u1")
	link := createTestLink(t, db, "l1", user.ID, "Tagged Link")

	tagA, _ := db.GetOrCreateTag(ctx, "a")
	tagB, _ := db.GetOrCreateTag(ctx, "b")
	tagC, _ := db.GetOrCreateTag(ctx, "c")

	if err := db.ReplaceLinkTags(ctx, link.ID, []string{tagA.ID, tagB.ID}); err != nil {
		t.Fatalf("failed to set tags: %v", err)
	}

	got, err := db.GetLinkByID(ctx, link.ID)
	if err != nil {
		t.Fatalf("failed to load link: %v", err)
	}
	if len(got.Tags) != 2 {
		t.Fatalf("expected 2 tags, got %d", len(got.Tags))
	}

	// Replacement is a full sync, not additive.
	if err := db.ReplaceLinkTags(ctx, link.ID, []string{tagC.ID}); err != nil {
		t.Fatalf("failed to replace tags: %v", err)
	}
	got, err = db.GetLinkByID(ctx, link.ID)
	if err != nil {
		t.Fatalf("failed to reload link: %v", err)
	}
	if len(got.Tags) != 1 || got.Tags[0].ID != tagC.ID {
		t.Errorf("expected only tag c after replacement, got %v", got.Tags)
	}

	// An empty set detaches everything.
	if err := db.ReplaceLinkTags(ctx, link.ID, nil); err != nil {
		t.Fatalf("failed to clear tags: %v", err)
	}
	got, _ = db.GetLinkByID(ctx, link.ID)
	if len(got.Tags) != 0 {
		t.Errorf("expected no tags after clearing, got %v", got.Tags)
	}
}

func TestListLinksByTagIDs(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	user := createTestUser(t, db, "u1")
	other := createTestUser(t, db, "u2")

	tagGo, _ := db.GetOrCreateTag(ctx, "go")
	tagDB, _ := db.GetOrCreateTag(ctx, "databases")

	mine := createTestLink(t, db, "l1", user.ID, "Go Link")
	both := createTestLink(t, db, "l2", user.ID, "Go and DB Link")
	theirs := createTestLink(t, db, "l3", other.ID, "Someone Else's Go Link")
	createTestLink(t, db, "l4", user.ID, "Untagged Link")

	db.ReplaceLinkTags(ctx, mine.ID, []string{tagGo.ID})
	db.ReplaceLinkTags(ctx, both.ID, []string{tagGo.ID, tagDB.ID})
	db.ReplaceLinkTags(ctx, theirs.ID, []string{tagGo.ID})

	// Empty filter matches nothing.
	links, err := db.ListLinksByTagIDs(ctx, user.ID, nil)
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(links) != 0 {
		t.Errorf("expected no links for an empty filter, got %d", len(links))
	}

	// OR semantics across tags, scoped to the user, no duplicates.
	links, err = db.ListLinksByTagIDs(ctx, user.ID, []string{tagGo.ID, tagDB.ID})
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(links) != 2 {
		t.Fatalf("expected 2 links, got %d", len(links))
	}
	for _, l := range links {
		if l.UserID != user.ID {
			t.Errorf("expected only the caller's links, got link of %q", l.UserID)
		}
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	createTestUser(t, db, "u1")
	dup := &models.User{ID: "u2", Email: "u1@example.com", PasswordHash: "x", CreatedAt: time.Now().UTC()}
	if err := db.CreateUser(ctx, dup); err != ErrEmailTaken {
		t.Errorf("expected ErrEmailTaken, got %v", err)
	}
}

func TestSearchLinks(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	user := createTestUser(t, db, "u1")
	createTestLink(t, db, "l1", user.ID, "Understanding Raft")
	createTestLink(t, db, "l2", user.ID, "Cooking Pasta")
	tagged := createTestLink(t, db, "l3", user.ID, "Unrelated Title")
	tag, _ := db.GetOrCreateTag(ctx, "raft")
	db.ReplaceLinkTags(ctx, tagged.ID, []string{tag.ID})

	links, err := db.SearchLinks(ctx, user.ID, "raft", 10)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	// Matches on title and on tag name, case insensitive.
	if len(links) != 2 {
		t.Errorf("expected 2 matches, got %d", len(links))
	}

	links, err = db.SearchLinks(ctx, user.ID, "raft", 1)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(links) != 1 {
		t.Errorf("expected the limit to apply, got %d", len(links))
	}
}

func TestFolderTagFilterPersistence(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	user := createTestUser(t, db, "u1")
	folder := &models.Folder{
		ID:        "f1",
		UserID:    user.ID,
		Name:      "Tech",
		Color:     "#00ff00",
		Icon:      "cpu",
		CreatedAt: time.Now().UTC(),
	}
	if err := db.CreateFolder(ctx, folder); err != nil {
		t.Fatalf("failed to create folder: %v", err)
	}

	tag, _ := db.GetOrCreateTag(ctx, "tech")
	if err := db.ReplaceFolderTags(ctx, folder.ID, []string{tag.ID}); err != nil {
		t.Fatalf("failed to attach tag: %v", err)
	}

	got, err := db.GetFolderByID(ctx, folder.ID)
	if err != nil {
		t.Fatalf("failed to load folder: %v", err)
	}
	if got == nil || len(got.Tags) != 1 || got.Tags[0].Name != "tech" {
		t.Errorf("expected folder with tech tag, got %+v", got)
	}

	// Deleting the folder leaves the tag itself in place.
	if err := db.DeleteFolder(ctx, folder.ID); err != nil {
		t.Fatalf("failed to delete folder: %v", err)
	}
	tags, err := db.ListTags(ctx)
	if err != nil {
		t.Fatalf("failed to list tags: %v", err)
	}
	if len(tags) != 1 {
		t.Errorf("expected tag to survive folder deletion, got %v", tags)
	}
}
