/*
	fetcher package acquires rendered page HTML for the crawl pipeline. The
	primary strategy drives an isolated headless-browser session per fetch;
	the fallback strategy issues a plain HTTP GET with the same header
	profile. The composite fetcher chains the two with retry and backoff so
	a URL degrades gracefully instead of failing outright.
*/

package fetcher

import "context"

// Header profile applied by every strategy. A realistic user-agent avoids
// trivial bot-blocking by sites that reject default client strings.
const (
	UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36" +
		" (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	AcceptHeader         = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	AcceptLanguageHeader = "en-US,en;q=0.9"
)

// Fetcher should be implemented by objects that can retrieve the raw HTML
// content of a URL.
type Fetcher interface {
	// Fetch returns the page HTML for url or an error when no content
	// could be acquired.
	Fetch(ctx context.Context, url string) (string, error)
}

// Strategy identifies which acquisition strategy produced a result.
type Strategy uint8

const (
	// ViaBrowser marks content rendered by the primary browser strategy.
	ViaBrowser Strategy = iota

	// ViaHTTP marks content acquired by the degraded plain-HTTP fallback.
	ViaHTTP
)

// String implements fmt.Stringer for log fields.
func (s Strategy) String() string {
	if s == ViaHTTP {
		return "http"
	}

	return "browser"
}

// Result is the typed outcome of a successful composite fetch: the acquired
// HTML plus the strategy that produced it, so callers can distinguish a
// full success from a degraded one.
type Result struct {
	HTML string
	Via  Strategy
}
