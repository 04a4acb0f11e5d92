package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/linkstash/linkstash/models"
)

// maxPromptChars bounds how much page text is sent per summarization call,
// for API limit and cost control.
const maxPromptChars = 15000

// SummaryFallback is stored when the model reply carries no usable summary.
const SummaryFallback = "Could not generate a summary."

// Summarize asks the model for a concise summary and 3-5 topical tags for
// the given page text. The source URL is passed along as context.
//
// The tri-state result:
//   - (*models.Summary, nil): usable summary and tags.
//   - (nil, *BlockedError): the safety filter refused the content; the save
//     must be rejected.
//   - (nil, nil): summarization unavailable (no credential, empty text, call
//     failure, unparseable reply). Callers degrade to placeholders.
func (c *Client) Summarize(ctx context.Context, text, sourceURL string) (*models.Summary, error) {
	if strings.TrimSpace(text) == "" || c.config.APIKey == "" {
		return nil, nil
	}

	if len(text) > maxPromptChars {
		text = text[:maxPromptChars]
	}

	prompt := fmt.Sprintf(
		"Based on the provided website text, generate a JSON object with three keys: 'title', 'summary', and 'tags'. "+
			"The 'summary' must be a direct, concise summary of the site's content, at most 3 sentences, with no preamble. "+
			"For the 'tags' key, provide an array of 3 to 5 topics or categories describing the site's main subject. "+
			"Tags must be short (1 to 3 words), in %s, and suitable for grouping and organizing links about technology, programming, news, etc. "+
			"The text to analyze is:\n\n%s\n\nIf needed, use the site URL for context: %s",
		c.config.TagLanguage, text, sourceURL,
	)

	resp, err := c.generate(ctx, request{
		Contents:         []content{{Parts: []part{{Text: prompt}}}},
		SafetySettings:   safetySettings(),
		GenerationConfig: &generationConfig{ResponseMIMEType: "application/json"},
	})
	if err != nil {
		slog.Error("gemini summarize request failed", "url", sourceURL, "error", err)
		return nil, nil
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		slog.Warn("gemini content blocked",
			"url", sourceURL,
			"reason", resp.PromptFeedback.BlockReason,
			"ratings", resp.PromptFeedback.SafetyRatings,
		)
		return nil, &BlockedError{Reason: resp.PromptFeedback.BlockReason}
	}

	raw := candidateText(resp)
	if raw == "" {
		return nil, nil
	}

	// Models frequently wrap JSON replies in markdown code fences even when
	// asked not to.
	cleaned := strings.ReplaceAll(raw, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)

	var parsed struct {
		Summary string   `json:"summary"`
		Tags    []string `json:"tags"`
	}
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		slog.Warn("gemini reply was not valid JSON, degrading to defaults", "url", sourceURL, "error", err)
		return nil, nil
	}

	summary := parsed.Summary
	if summary == "" {
		summary = SummaryFallback
	}
	tags := parsed.Tags
	if tags == nil {
		tags = []string{}
	}

	return &models.Summary{Summary: summary, Tags: tags}, nil
}
