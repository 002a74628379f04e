// Package fetcher performs rate-limited, retrying HTTP GETs for the records
// table and the documents linked from it.
package fetcher

import (
	"context"
	"fmt"
	"net/http"
)

// Fetcher retrieves a URL and returns the full response body.
type Fetcher interface {
	// Get fetches rawURL. A non-200 final status is returned as *StatusError.
	Get(ctx context.Context, rawURL string) (*Response, error)
}

// Response is a fully read HTTP response.
type Response struct {
	URL        string
	StatusCode int
	Header     http.Header
	Body       []byte
}

// StatusError reports a response whose status was not 200 OK.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetcher: unexpected status %d from %s", e.StatusCode, e.URL)
}
