package linkstash

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/linkstash/linkstash/gemini"
	"github.com/linkstash/linkstash/models"
)

type fakeAI struct {
	summary   *models.Summary
	err       error
	imageSafe bool

	summarizeCalls int
	lastText       string
	checkedImages  []string
}

func (f *fakeAI) Summarize(ctx context.Context, text, sourceURL string) (*models.Summary, error) {
	f.summarizeCalls++
	f.lastText = text
	return f.summary, f.err
}

func (f *fakeAI) IsImageSafe(ctx context.Context, imageURL string) bool {
	f.checkedImages = append(f.checkedImages, imageURL)
	return f.imageSafe
}

type fakeStore struct {
	created      []*models.Link
	tags         map[string]*models.Tag
	replacedTags map[string][]string
	createErr    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tags:         make(map[string]*models.Tag),
		replacedTags: make(map[string][]string),
	}
}

func (f *fakeStore) CreateLink(ctx context.Context, link *models.Link) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, link)
	return nil
}

func (f *fakeStore) GetOrCreateTag(ctx context.Context, name string) (*models.Tag, error) {
	if tag, ok := f.tags[name]; ok {
		return tag, nil
	}
	tag := &models.Tag{ID: uuid.New().String(), Name: name, CreatedAt: time.Now().UTC()}
	f.tags[name] = tag
	return tag, nil
}

func (f *fakeStore) ReplaceLinkTags(ctx context.Context, linkID string, tagIDs []string) error {
	f.replacedTags[linkID] = tagIDs
	return nil
}

func servePage(t *testing.T, html string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(html))
	}))
	t.Cleanup(server.Close)
	return server
}

const articlePage = `<html><head>
	<meta property="og:title" content="Understanding Raft Consensus" />
	<meta property="og:image" content="https://cdn.example.com/raft.png" />
</head><body><article>
	<p>Raft is a consensus algorithm designed to be understandable.</p>
</article></body></html>`

func newTestPipeline(ai AI, store *fakeStore) *Pipeline {
	return NewPipeline(NewFetcher(5*time.Second), NewExtractor(), ai, store, store, nil)
}

func TestSaveLinkSuccess(t *testing.T) {
	server := servePage(t, articlePage)
	ai := &fakeAI{
		summary:   &models.Summary{Summary: "A raft overview.", Tags: []string{"raft", "consensus"}},
		imageSafe: true,
	}
	store := newFakeStore()
	pipeline := newTestPipeline(ai, store)

	link, err := pipeline.SaveLink(context.Background(), "user-1", server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if link.Title != "Understanding Raft Consensus" {
		t.Errorf("unexpected title %q", link.Title)
	}
	if link.ImageURL != "https://cdn.example.com/raft.png" {
		t.Errorf("unexpected image %q", link.ImageURL)
	}
	if link.Summary != "A raft overview." {
		t.Errorf("unexpected summary %q", link.Summary)
	}
	if link.UserID != "user-1" {
		t.Errorf("unexpected user id %q", link.UserID)
	}
	if len(store.created) != 1 {
		t.Fatalf("expected 1 created link, got %d", len(store.created))
	}
	if len(link.Tags) != 2 {
		t.Fatalf("expected 2 tags, got %d", len(link.Tags))
	}
	if got := store.replacedTags[link.ID]; len(got) != 2 {
		t.Errorf("expected tag sync with 2 ids, got %v", got)
	}
	if ai.summarizeCalls != 1 {
		t.Errorf("expected one summarize call, got %d", ai.summarizeCalls)
	}
}

func TestSaveLinkFetchFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	ai := &fakeAI{imageSafe: true}
	store := newFakeStore()
	pipeline := newTestPipeline(ai, store)

	_, err := pipeline.SaveLink(context.Background(), "user-1", server.URL)
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected *FetchError, got %v", err)
	}
	if len(store.created) != 0 {
		t.Errorf("expected no link persisted after fetch failure")
	}
	if ai.summarizeCalls != 0 {
		t.Errorf("expected no summarize call after fetch failure")
	}
}

func TestSaveLinkBlockedContent(t *testing.T) {
	server := servePage(t, articlePage)
	ai := &fakeAI{err: &gemini.BlockedError{Reason: "SAFETY"}, imageSafe: true}
	store := newFakeStore()
	pipeline := newTestPipeline(ai, store)

	_, err := pipeline.SaveLink(context.Background(), "user-1", server.URL)
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if validationErr.Field != "url" {
		t.Errorf("expected validation error on url field, got %q", validationErr.Field)
	}
	if len(store.created) != 0 {
		t.Errorf("expected no link persisted after safety block")
	}
}

func TestSaveLinkSummaryUnavailable(t *testing.T) {
	server := servePage(t, articlePage)
	ai := &fakeAI{summary: nil, err: nil, imageSafe: true}
	store := newFakeStore()
	pipeline := newTestPipeline(ai, store)

	link, err := pipeline.SaveLink(context.Background(), "user-1", server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if link.Summary != SummaryUnavailable {
		t.Errorf("expected placeholder summary, got %q", link.Summary)
	}
	if len(link.Tags) != 0 {
		t.Errorf("expected no tags when summarization is unavailable, got %v", link.Tags)
	}
	if len(store.created) != 1 {
		t.Errorf("expected the save to still persist")
	}
}

func TestSaveLinkDropsUnsafeImage(t *testing.T) {
	server := servePage(t, articlePage)
	ai := &fakeAI{
		summary:   &models.Summary{Summary: "Summary.", Tags: nil},
		imageSafe: false,
	}
	store := newFakeStore()
	pipeline := newTestPipeline(ai, store)

	link, err := pipeline.SaveLink(context.Background(), "user-1", server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if link.ImageURL != "" {
		t.Errorf("expected unsafe image to be dropped, got %q", link.ImageURL)
	}
	if len(ai.checkedImages) != 1 || ai.checkedImages[0] != "https://cdn.example.com/raft.png" {
		t.Errorf("expected safety check on extracted image, got %v", ai.checkedImages)
	}
}

func TestSaveLinkTitleFallback(t *testing.T) {
	server := servePage(t, `<html><body><p>page without any title source here</p></body></html>`)
	ai := &fakeAI{summary: &models.Summary{Summary: "Summary."}, imageSafe: true}
	store := newFakeStore()
	pipeline := newTestPipeline(ai, store)

	link, err := pipeline.SaveLink(context.Background(), "user-1", server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if link.Title != TitleFallback {
		t.Errorf("expected title fallback, got %q", link.Title)
	}
}

func TestSaveLinkSkipsSafetyCheckWithoutImage(t *testing.T) {
	server := servePage(t, `<html><head><title>No Image Page</title></head><body><p>content body text here</p></body></html>`)
	ai := &fakeAI{summary: &models.Summary{Summary: "Summary."}, imageSafe: true}
	store := newFakeStore()
	pipeline := newTestPipeline(ai, store)

	if _, err := pipeline.SaveLink(context.Background(), "user-1", server.URL); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ai.checkedImages) != 0 {
		t.Errorf("expected no image safety calls, got %v", ai.checkedImages)
	}
}

func TestTagReconcilerResolve(t *testing.T) {
	store := newFakeStore()
	reconciler := NewTagReconciler(store)

	tags, err := reconciler.Resolve(context.Background(), []string{" golang ", "golang", "", "databases"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tags) != 2 {
		t.Fatalf("expected 2 tags, got %d", len(tags))
	}
	if tags[0].Name != "golang" || tags[1].Name != "databases" {
		t.Errorf("unexpected tag names: %v", tags)
	}
}

func TestTagReconcilerCaseSensitive(t *testing.T) {
	store := newFakeStore()
	reconciler := NewTagReconciler(store)

	tags, err := reconciler.Resolve(context.Background(), []string{"Go", "go"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tags) != 2 {
		t.Errorf("expected distinct tags for distinct casings, got %v", tags)
	}
}
