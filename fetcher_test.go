package linkstash

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFetchReturnsBody(t *testing.T) {
	const page = "<html><head><title>Fetched</title></head><body></body></html>"
	var gotUserAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		w.Write([]byte(page))
	}))
	defer server.Close()

	fetcher := NewFetcher(5 * time.Second)
	body, finalURL, err := fetcher.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body != page {
		t.Errorf("expected body %q, got %q", page, body)
	}
	if finalURL == nil || finalURL.String() != server.URL {
		t.Errorf("expected final URL %q, got %v", server.URL, finalURL)
	}
	if gotUserAgent != browserUserAgent {
		t.Errorf("expected browser user agent, got %q", gotUserAgent)
	}
}

func TestFetchNonSuccessStatus(t *testing.T) {
	statuses := []int{http.StatusNotFound, http.StatusForbidden, http.StatusInternalServerError}
	for _, status := range statuses {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		fetcher := NewFetcher(5 * time.Second)
		_, _, err := fetcher.Fetch(context.Background(), server.URL)
		server.Close()

		var fetchErr *FetchError
		if !errors.As(err, &fetchErr) {
			t.Fatalf("status %d: expected *FetchError, got %v", status, err)
		}
		if fetchErr.StatusCode != status {
			t.Errorf("expected status %d in error, got %d", status, fetchErr.StatusCode)
		}
	}
}

func TestFetchFollowsRedirects(t *testing.T) {
	const page = "<html><body>final destination page</body></html>"
	mux := http.NewServeMux()
	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/final", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/final", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	fetcher := NewFetcher(5 * time.Second)
	body, finalURL, err := fetcher.Fetch(context.Background(), server.URL+"/start")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body != page {
		t.Errorf("expected redirect target body, got %q", body)
	}
	if finalURL == nil || finalURL.Path != "/final" {
		t.Errorf("expected final URL path /final, got %v", finalURL)
	}
}

func TestFetchRejectsBadURLs(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"unsupported scheme", "ftp://example.com/file"},
		{"no scheme", "example.com/page"},
		{"unparseable", "http://exa mple.com/%zz"},
	}

	fetcher := NewFetcher(time.Second)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := fetcher.Fetch(context.Background(), tt.url)
			var fetchErr *FetchError
			if !errors.As(err, &fetchErr) {
				t.Errorf("expected *FetchError, got %v", err)
			}
		})
	}
}

func TestFetchHonorsContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	fetcher := NewFetcher(10 * time.Second)
	_, _, err := fetcher.Fetch(ctx, server.URL)
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected *FetchError on cancellation, got %v", err)
	}
}

func TestFetchPropagatesTraceHeaders(t *testing.T) {
	// The transport is otelhttp-instrumented; with no tracer configured the
	// request must still succeed untouched.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok body content"))
	}))
	defer server.Close()

	fetcher := NewFetcher(5 * time.Second)
	if _, _, err := fetcher.Fetch(context.Background(), server.URL); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
