package gemini

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// imageSafetyPrompt asks for a strict yes/no verdict so the answer can be
// checked mechanically.
const imageSafetyPrompt = `Does this image contain sexually explicit content, violence, or hate symbols? Answer only "Yes" or "No".`

// IsImageSafe downloads the image and asks the vision model whether it is
// safe to display.
//
// This check fails open: any download failure, API failure or unexpected
// condition reports the image as safe, so infrastructure problems never
// block a valid save. Only an explicit block reason or an explicit "Yes"
// answer marks the image unsafe. This is the deliberate opposite of the text
// path, which fails closed on a block.
func (c *Client) IsImageSafe(ctx context.Context, imageURL string) bool {
	data, err := c.downloadImage(ctx, imageURL)
	if err != nil {
		slog.Warn("image safety check skipped, treating as safe", "url", imageURL, "error", err)
		return true
	}

	mimeType := http.DetectContentType(data)

	resp, err := c.generate(ctx, request{
		Contents: []content{{Parts: []part{
			{InlineData: &inlineData{MIMEType: mimeType, Data: base64.StdEncoding.EncodeToString(data)}},
			{Text: imageSafetyPrompt},
		}}},
		SafetySettings: safetySettings(),
	})
	if err != nil {
		slog.Warn("image safety check failed, treating as safe", "url", imageURL, "error", err)
		return true
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return false
	}

	answer := strings.TrimSpace(candidateText(resp))
	if len(answer) >= 3 && strings.EqualFold(answer[:3], "yes") {
		return false
	}

	return true
}

// downloadImage fetches the image bytes with size and timeout limits.
func (c *Client) downloadImage(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.imageClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	if resp.ContentLength > c.config.MaxImageBytes {
		return nil, fmt.Errorf("image too large: %d bytes (max: %d)", resp.ContentLength, c.config.MaxImageBytes)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.config.MaxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	if int64(len(data)) > c.config.MaxImageBytes {
		return nil, fmt.Errorf("image too large: exceeds %d bytes", c.config.MaxImageBytes)
	}

	return data, nil
}
