package linkstash

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// browserUserAgent is sent on every outbound page fetch. Several sites serve
// reduced or blocked pages to obvious bot identities.
const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"

// maxPageBytes caps how much HTML is read from a fetched page.
const maxPageBytes = 5 * 1024 * 1024

// Fetcher retrieves raw HTML for a URL. Single attempt, hard timeout, no
// retry policy.
type Fetcher struct {
	httpClient *http.Client
}

// NewFetcher creates a Fetcher with the given per-request timeout. The
// transport is instrumented with otelhttp so outbound fetches propagate
// trace context.
func NewFetcher(timeout time.Duration) *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// Fetch performs a GET against targetURL and returns the page body along with
// the final post-redirect URL, which later absolutization is relative to.
// Any network failure or non-2xx status yields a *FetchError.
func (f *Fetcher) Fetch(ctx context.Context, targetURL string) (string, *url.URL, error) {
	parsed, err := url.Parse(targetURL)
	if err != nil {
		return "", nil, &FetchError{URL: targetURL, Err: err}
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", nil, &FetchError{URL: targetURL, Err: fmt.Errorf("URL must be http or https")}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return "", nil, &FetchError{URL: targetURL, Err: err}
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", nil, &FetchError{URL: targetURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", nil, &FetchError{URL: targetURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", nil, &FetchError{URL: targetURL, Err: fmt.Errorf("reading body: %w", err)}
	}

	return string(body), resp.Request.URL, nil
}
