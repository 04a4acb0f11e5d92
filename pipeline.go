// Package linkstash implements the metadata-extraction and AI-enrichment
// pipeline behind link saves: fetch the page, extract title/image/text,
// moderate, summarize and tag, then persist the enriched link.
package linkstash

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/linkstash/linkstash/gemini"
	"github.com/linkstash/linkstash/metrics"
	"github.com/linkstash/linkstash/models"
)

// Placeholders stored when a stage yields nothing. A save still succeeds
// with every enrichment field at its placeholder.
const (
	TitleFallback      = "Title not found"
	SummaryUnavailable = "Summary not available."
)

// FetchTimeout is the hard wall-clock bound on a single page fetch.
const FetchTimeout = 15 * time.Second

// AI is the external generative model boundary: summarization with an
// inline moderation verdict, and a standalone image safety check.
type AI interface {
	// Summarize returns (summary, nil) on success, (nil, *gemini.BlockedError)
	// when the safety filter refuses the text, and (nil, nil) when
	// summarization is unavailable.
	Summarize(ctx context.Context, text, sourceURL string) (*models.Summary, error)
	// IsImageSafe reports whether an image may be stored. Fails open.
	IsImageSafe(ctx context.Context, imageURL string) bool
}

// LinkStore persists enriched links.
type LinkStore interface {
	CreateLink(ctx context.Context, link *models.Link) error
}

// TagStore resolves and associates tags.
type TagStore interface {
	// GetOrCreateTag returns the tag with this exact name, creating it if
	// absent. Concurrent creations of the same name converge on one row.
	GetOrCreateTag(ctx context.Context, name string) (*models.Tag, error)
	// ReplaceLinkTags replaces a link's tag associations with exactly the
	// given set.
	ReplaceLinkTags(ctx context.Context, linkID string, tagIDs []string) error
}

// Archiver stores fetched page HTML for later reference. Optional.
type Archiver interface {
	SaveHTML(data []byte, name string) (string, error)
}

// Pipeline drives a save request through fetch, extraction, moderation,
// summarization and persistence in strict sequence. All collaborators are
// injected at construction.
type Pipeline struct {
	fetcher   *Fetcher
	extractor *Extractor
	ai        AI
	links     LinkStore
	tags      *TagReconciler
	archive   Archiver // nil disables archiving
}

// NewPipeline creates a Pipeline. archive may be nil.
func NewPipeline(fetcher *Fetcher, extractor *Extractor, ai AI, links LinkStore, tags TagStore, archive Archiver) *Pipeline {
	return &Pipeline{
		fetcher:   fetcher,
		extractor: extractor,
		ai:        ai,
		links:     links,
		tags:      NewTagReconciler(tags),
		archive:   archive,
	}
}

// SaveLink fetches and enriches targetURL, persists the resulting link for
// userID and returns it with its tags attached.
//
// Failure policy: a fetch failure aborts with *FetchError; a safety-filter
// block on the page text aborts with *ValidationError on the url field; every
// other stage degrades to placeholders rather than failing the save.
func (p *Pipeline) SaveLink(ctx context.Context, userID, targetURL string) (*models.Link, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, FetchTimeout)
	html, finalURL, err := p.fetcher.Fetch(fetchCtx, targetURL)
	cancel()
	if err != nil {
		metrics.FetchFailures.Inc()
		return nil, err
	}

	meta := p.extractor.Extract(html, finalURL)

	imageURL := meta.ImageURL
	if imageURL != "" && !p.ai.IsImageSafe(ctx, imageURL) {
		slog.Warn("dropping unsafe image", "url", targetURL, "image", imageURL)
		metrics.ImagesDropped.Inc()
		imageURL = ""
	}

	summary, err := p.ai.Summarize(ctx, meta.Text, targetURL)
	var blocked *gemini.BlockedError
	if errors.As(err, &blocked) {
		metrics.ModerationBlocks.Inc()
		return nil, &ValidationError{
			Field:   "url",
			Message: "the page content was rejected by the safety filter: " + blocked.Reason,
		}
	}

	summaryText := SummaryUnavailable
	var tagNames []string
	if summary != nil {
		summaryText = summary.Summary
		tagNames = summary.Tags
	} else {
		metrics.SummariesDegraded.Inc()
	}

	title := meta.Title
	if title == "" {
		title = TitleFallback
	}

	link := &models.Link{
		ID:        uuid.New().String(),
		UserID:    userID,
		URL:       targetURL,
		Title:     title,
		ImageURL:  imageURL,
		Summary:   summaryText,
		CreatedAt: time.Now().UTC(),
		Tags:      []models.Tag{},
	}

	link.ArchivePath = p.archiveHTML(html, finalURL)

	if err := p.links.CreateLink(ctx, link); err != nil {
		return nil, err
	}

	tags, err := p.tags.Resolve(ctx, tagNames)
	if err != nil {
		return nil, err
	}
	tagIDs := make([]string, len(tags))
	for i, tag := range tags {
		tagIDs[i] = tag.ID
	}
	if err := p.tags.ReplaceLinkTags(ctx, link.ID, tagIDs); err != nil {
		return nil, err
	}
	link.Tags = tags

	metrics.LinksSaved.Inc()
	return link, nil
}

// archiveHTML stores the raw page best-effort. Archive failures never block
// a save.
func (p *Pipeline) archiveHTML(html string, pageURL *url.URL) string {
	if p.archive == nil || html == "" {
		return ""
	}
	name := "page"
	if pageURL != nil {
		name = pageURL.Hostname()
	}
	path, err := p.archive.SaveHTML([]byte(html), name)
	if err != nil {
		slog.Warn("failed to archive page HTML", "url", pageURL, "error", err)
		return ""
	}
	return path
}

// TagReconciler maps tag names to tag rows, creating missing tags
// idempotently.
type TagReconciler struct {
	store TagStore
}

// NewTagReconciler creates a TagReconciler backed by store.
func NewTagReconciler(store TagStore) *TagReconciler {
	return &TagReconciler{store: store}
}

// ReplaceLinkTags replaces a link's tag associations with exactly tagIDs.
func (r *TagReconciler) ReplaceLinkTags(ctx context.Context, linkID string, tagIDs []string) error {
	return r.store.ReplaceLinkTags(ctx, linkID, tagIDs)
}

// Resolve trims each name and resolves it to a tag via get-or-create.
// Empty names are skipped and duplicate names collapse to a single tag.
func (r *TagReconciler) Resolve(ctx context.Context, names []string) ([]models.Tag, error) {
	tags := []models.Tag{}
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		tag, err := r.store.GetOrCreateTag(ctx, name)
		if err != nil {
			return nil, err
		}
		tags = append(tags, *tag)
	}
	return tags, nil
}
