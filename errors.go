package linkstash

import "fmt"

// FetchError reports a failure to retrieve the source page. It surfaces to
// API callers as an unprocessable-entity response and is never retried.
type FetchError struct {
	URL        string
	StatusCode int // 0 when the request never completed
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ValidationError marks a field-level rejection of a save request, such as a
// moderation block on the page content. The offending entity is never created.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
