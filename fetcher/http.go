package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Default limits for the plain-HTTP strategy.
const (
	defaultHTTPTimeout  = 30 * time.Second
	defaultMaxBodyBytes = 5 << 20 // 5 MiB
)

var (
	// ErrNoContent is returned when a fetch produced no usable HTML.
	// Callers treat it as a non-fatal per-URL failure.
	ErrNoContent = errors.New("no content")

	// errNotHTML is returned for responses whose content type cannot be
	// parsed as an HTML page.
	errNotHTML = errors.New("response content is not html")
)

// Static and compile-time check to ensure HTTPFetcher implements Fetcher.
var _ Fetcher = (*HTTPFetcher)(nil)

// HTTPFetcher is the fallback acquisition strategy: a plain GET carrying
// the shared header profile. It captures whatever HTML the server returns
// without a rendering pass.
type HTTPFetcher struct {
	client       *http.Client
	maxBodyBytes int64
}

// NewHTTPFetcher instantiates and returns an HTTP fetcher. A nil client
// defaults to one with a bounded request timeout.
func NewHTTPFetcher(client *http.Client) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}

	return &HTTPFetcher{
		client:       client,
		maxBodyBytes: defaultMaxBodyBytes,
	}
}

// Fetch performs an HTTP GET request for url and returns the response body
// as the HTML to parse.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("http fetch: %w", err)
	}

	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", AcceptHeader)
	req.Header.Set("Accept-Language", AcceptLanguageHeader)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("http fetch: %w", err)
	}
	defer resp.Body.Close()

	// Skip responses with non success status codes (only allow 2xx).
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("http fetch: unexpected status %d: %w", resp.StatusCode, ErrNoContent)
	}

	// Skip non HTML responses.
	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.Contains(contentType, "html") {
		return "", fmt.Errorf("http fetch: content type %q: %w", contentType, errNotHTML)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("http fetch: read body: %w", err)
	}

	if len(body) == 0 {
		return "", fmt.Errorf("http fetch: empty body: %w", ErrNoContent)
	}

	return string(body), nil
}
