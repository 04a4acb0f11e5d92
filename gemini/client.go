// Package gemini is a minimal client for the Gemini generateContent API,
// covering the two calls the enrichment pipeline needs: text summarization
// with topical tags, and a yes/no vision safety check for images.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DefaultBaseURL is the public Gemini API endpoint.
const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// DefaultModel handles both text and inline-image requests.
const DefaultModel = "gemini-1.5-flash"

// Config contains Gemini client configuration.
type Config struct {
	APIKey        string
	BaseURL       string
	Model         string
	Timeout       time.Duration // per generateContent call
	TagLanguage   string        // language the model is asked to write tags and summaries in
	ImageTimeout  time.Duration // per image download
	MaxImageBytes int64         // maximum image size to download for moderation
}

// DefaultConfig returns default client configuration. The API key must still
// be supplied; without one Summarize degrades to unavailable.
func DefaultConfig() Config {
	return Config{
		BaseURL:       DefaultBaseURL,
		Model:         DefaultModel,
		Timeout:       30 * time.Second,
		TagLanguage:   "English",
		ImageTimeout:  15 * time.Second,
		MaxImageBytes: 10 * 1024 * 1024,
	}
}

// Client calls the Gemini API.
type Client struct {
	config      Config
	httpClient  *http.Client
	imageClient *http.Client
}

// NewClient creates a Client from config, filling unset fields with
// defaults.
func NewClient(config Config) *Client {
	def := DefaultConfig()
	if config.BaseURL == "" {
		config.BaseURL = def.BaseURL
	}
	if config.Model == "" {
		config.Model = def.Model
	}
	if config.Timeout == 0 {
		config.Timeout = def.Timeout
	}
	if config.TagLanguage == "" {
		config.TagLanguage = def.TagLanguage
	}
	if config.ImageTimeout == 0 {
		config.ImageTimeout = def.ImageTimeout
	}
	if config.MaxImageBytes == 0 {
		config.MaxImageBytes = def.MaxImageBytes
	}

	transport := otelhttp.NewTransport(http.DefaultTransport)
	return &Client{
		config:      config,
		httpClient:  &http.Client{Timeout: config.Timeout, Transport: transport},
		imageClient: &http.Client{Timeout: config.ImageTimeout, Transport: transport},
	}
}

// BlockedError reports that Gemini's safety filter refused the content. The
// caller must reject the save entirely; this is the fail-closed path.
type BlockedError struct {
	Reason string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("content blocked by safety filter: %s", e.Reason)
}

// Wire types for the generateContent endpoint.

type request struct {
	Contents         []content         `json:"contents"`
	SafetySettings   []safetySetting   `json:"safetySettings"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"` // base64
}

type safetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

type generationConfig struct {
	ResponseMIMEType string `json:"response_mime_type,omitempty"`
}

type response struct {
	Candidates     []candidate     `json:"candidates"`
	PromptFeedback *promptFeedback `json:"promptFeedback"`
}

type candidate struct {
	Content content `json:"content"`
}

type promptFeedback struct {
	BlockReason   string         `json:"blockReason"`
	SafetyRatings []safetyRating `json:"safetyRatings"`
}

type safetyRating struct {
	Category    string `json:"category"`
	Probability string `json:"probability"`
}

// safetySettings is the fixed category/threshold configuration applied to
// every call, summarization and moderation alike.
func safetySettings() []safetySetting {
	return []safetySetting{
		{Category: "HARM_CATEGORY_HARASSMENT", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
		{Category: "HARM_CATEGORY_HATE_SPEECH", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
		{Category: "HARM_CATEGORY_SEXUALLY_EXPLICIT", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
		{Category: "HARM_CATEGORY_DANGEROUS_CONTENT", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
	}
}

// generate posts a generateContent request and decodes the response.
func (c *Client) generate(ctx context.Context, req request) (*response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.config.BaseURL, c.config.Model, c.config.APIKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	var decoded response
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &decoded, nil
}

// candidateText returns the first candidate's text, or "" if the response
// carries none.
func candidateText(resp *response) string {
	if len(resp.Candidates) == 0 {
		return ""
	}
	parts := resp.Candidates[0].Content.Parts
	if len(parts) == 0 {
		return ""
	}
	return parts[0].Text
}
