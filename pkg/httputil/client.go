// Package httputil provides the HTTP client used for avatar fetching.
//
// Failures are classified, not retried: a definitive miss (404) and a
// transient failure both end the fetch, and the caller decides what to
// cache. Retrying is a host-level, user-triggered concern.
package httputil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gitscape/gitscape/pkg/observability"
)

// Sentinel errors for fetch outcomes.
var (
	// ErrNotFound is returned for 404 responses - a definitive "this
	// resource does not exist", safe to cache permanently.
	ErrNotFound = errors.New("not found")

	// ErrStatus is returned for any other non-2xx response.
	ErrStatus = errors.New("unexpected status")
)

// maxBodySize bounds response reads; avatar images are small.
const maxBodySize = 1 << 20

// Client fetches small binary resources with a hard timeout.
type Client struct {
	http *http.Client
}

// NewClient creates a client with the given per-request timeout.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		http: &http.Client{Timeout: timeout},
	}
}

// Get fetches url and returns the response body. 404 yields [ErrNotFound],
// other non-2xx statuses yield [ErrStatus], and transport failures are
// returned as-is. The body is capped at 1 MiB.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	observability.Fetch().OnFetchComplete(ctx, req.URL.Host, 1, time.Since(start), nil)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("%w: %d from %s", ErrStatus, resp.StatusCode, req.URL.Host)
	}

	return io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
}
