package fetcher

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

// Load timeouts for the browser strategy. The primary crawler allows a
// generous render window; the lighter variant trades completeness for speed.
const (
	DefaultBrowserTimeout = 120 * time.Second
	LightBrowserTimeout   = 30 * time.Second
)

// Static and compile-time check to ensure BrowserFetcher implements Fetcher.
var _ Fetcher = (*BrowserFetcher)(nil)

// BrowserFetcher is the primary acquisition strategy: it launches an
// isolated headless-browser session per fetch, navigates to the URL, waits
// for the document to become ready and reads the fully rendered HTML. The
// session is torn down after every attempt regardless of outcome.
type BrowserFetcher struct {
	timeout time.Duration
}

// NewBrowserFetcher instantiates and returns a browser fetcher. A
// non-positive timeout defaults to DefaultBrowserTimeout.
func NewBrowserFetcher(timeout time.Duration) *BrowserFetcher {
	if timeout <= 0 {
		timeout = DefaultBrowserTimeout
	}

	return &BrowserFetcher{timeout: timeout}
}

// Fetch navigates an isolated browser session to url and returns the
// rendered outer HTML of the document.
func (f *BrowserFetcher) Fetch(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	opts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserAgent(UserAgent),
		chromedp.Flag("accept-lang", AcceptLanguageHeader),
	)

	// Each fetch gets its own allocator and browser context. The deferred
	// cancels guarantee the session is released even when navigation fails.
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	sessionCtx, cancelSession := chromedp.NewContext(allocCtx)
	defer cancelSession()

	var html string

	err := chromedp.Run(
		sessionCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("browser fetch: %w", err)
	}

	if html == "" {
		return "", fmt.Errorf("browser fetch: empty document: %w", ErrNoContent)
	}

	return html, nil
}

// IsBrowserUnavailable reports whether err indicates an unusable browser
// binary, in which case retrying the primary strategy cannot succeed and
// the composite fetcher skips straight to the fallback.
func IsBrowserUnavailable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, exec.ErrNotFound) {
		return true
	}

	return strings.Contains(err.Error(), "executable file not found")
}
