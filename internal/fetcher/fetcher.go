// Package fetcher issues rate-limited HTTP requests for the provider and the
// secondary-site scrapers.
package fetcher

import (
	"context"
	"net/http"
)

// Fetcher defines the interface for retrieving remote pages and API responses.
type Fetcher interface {
	// Get fetches the URL with the given extra headers and returns the
	// fully-read response. Non-200 statuses are not errors.
	Get(ctx context.Context, url string, header http.Header) (*Response, error)
}
