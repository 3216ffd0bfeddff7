package fetcher

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
)

// Retry policy for the primary strategy.
const (
	defaultRetries = 2
	defaultBackoff = time.Second
)

// CompositeConfig configures a two-stage fetch strategy chain.
type CompositeConfig struct {
	// Primary acquisition strategy. If not specified, a browser fetcher
	// with the default load timeout is used.
	Primary Fetcher

	// Fallback acquisition strategy. If not specified, a plain HTTP
	// fetcher is used.
	Fallback Fetcher

	// Number of primary retries after the initial attempt.
	Retries int

	// Delay between primary attempts.
	Backoff time.Duration

	// The logger to use. If not defined an output-discarding logger will
	// be used instead.
	Logger *logrus.Entry
}

func (config *CompositeConfig) validate() {
	if config.Primary == nil {
		config.Primary = NewBrowserFetcher(DefaultBrowserTimeout)
	}

	if config.Fallback == nil {
		config.Fallback = NewHTTPFetcher(nil)
	}

	if config.Retries <= 0 {
		config.Retries = defaultRetries
	}

	if config.Backoff <= 0 {
		config.Backoff = defaultBackoff
	}

	if config.Logger == nil {
		config.Logger = logrus.NewEntry(&logrus.Logger{Out: io.Discard})
	}
}

// Composite chains the primary strategy (with retries and backoff) and the
// degraded fallback strategy into a single fetch operation with a typed
// outcome.
type Composite struct {
	config CompositeConfig
}

// NewComposite creates and returns a fully configured composite fetcher.
func NewComposite(config CompositeConfig) *Composite {
	config.validate()

	return &Composite{config: config}
}

// Fetch attempts the primary strategy up to 1+Retries times with a backoff
// delay between attempts, then degrades to the fallback strategy. When both
// strategies are exhausted the last error is returned and the caller treats
// the URL as a non-fatal per-URL failure.
func (f *Composite) Fetch(ctx context.Context, url string) (*Result, error) {
	var lastErr error

	for attempt := 0; attempt <= f.config.Retries; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, f.config.Backoff); err != nil {
				return nil, err
			}
		}

		html, err := f.config.Primary.Fetch(ctx, url)
		if err == nil {
			return &Result{HTML: html, Via: ViaBrowser}, nil
		}

		lastErr = err

		f.config.Logger.WithFields(logrus.Fields{
			"url":     url,
			"attempt": attempt + 1,
			"err":     err.Error(),
		}).Debug("primary fetch attempt failed")

		// An unusable browser binary cannot recover by retrying.
		if IsBrowserUnavailable(err) {
			break
		}
	}

	html, err := f.config.Fallback.Fetch(ctx, url)
	if err != nil {
		f.config.Logger.WithFields(logrus.Fields{
			"url": url,
			"err": err.Error(),
		}).Debug("fallback fetch failed")

		return nil, fmt.Errorf("fetch %q: %w", url, lastErr)
	}

	return &Result{HTML: html, Via: ViaHTTP}, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
