package crawler

import (
	"context"

	"github.com/mycok/sitesearch/fetcher"
	"github.com/mycok/sitesearch/textindexer/index"
)

// Frontier should be implemented by objects that own URL discovery,
// deduplication, revisit-interval enforcement and batch selection.
type Frontier interface {
	// Initialize ensures the frontier set exists and contains seedURL.
	// It is idempotent and invoked on every crawl invocation.
	Initialize(ctx context.Context, seedURL string) error

	// SelectBatch returns up to maxSize URLs currently in the frontier.
	SelectBatch(ctx context.Context, maxSize int) ([]string, error)

	// CanCrawl reports whether url is outside its revisit window.
	CanCrawl(ctx context.Context, url string) (bool, error)

	// MarkVisited records "now" as the visit timestamp for url.
	MarkVisited(ctx context.Context, url string) error

	// EnqueueDiscovered adds newly discovered same-origin URLs to the
	// frontier.
	EnqueueDiscovered(ctx context.Context, urls ...string) error

	// PutDocument persists doc into the shared document store.
	PutDocument(ctx context.Context, doc *index.Document) error
}

// PageFetcher should be implemented by objects that can acquire page HTML
// with a typed strategy outcome.
type PageFetcher interface {
	// Fetch returns the acquired HTML and the strategy that produced it,
	// or an error when every strategy was exhausted.
	Fetch(ctx context.Context, url string) (*fetcher.Result, error)
}
