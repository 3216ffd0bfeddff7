/*
	crawler package implements a single crawl invocation: seed the frontier,
	select a bounded batch of URLs, fan out one fetch-extract-store task per
	URL, then merge the pass's documents into the persisted index snapshot.
*/

package crawler

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/juju/clock"
	"github.com/sirupsen/logrus"

	"github.com/mycok/sitesearch/extractor"
	"github.com/mycok/sitesearch/textindexer/index"
	"github.com/mycok/sitesearch/textindexer/store/memory"
)

// DefaultBatchSize bounds the number of URLs processed per invocation.
const DefaultBatchSize = 10

// Config encapsulates the settings for configuring the crawler.
type Config struct {
	// Frontier owning URL discovery, visited state and document storage.
	Frontier Frontier

	// Fetcher used to acquire page HTML.
	Fetcher PageFetcher

	// SeedURL ensures the frontier is never empty.
	SeedURL string

	// SnapshotPath is the index snapshot file location.
	SnapshotPath string

	// BatchSize is the maximum number of URLs per invocation. Defaults to
	// DefaultBatchSize.
	BatchSize int

	// Clock stamps crawled documents. Defaults to the wall clock.
	Clock clock.Clock

	// The logger to use. If not defined an output-discarding logger will
	// be used instead.
	Logger *logrus.Entry
}

func (config *Config) validate() error {
	var err error

	if config.Frontier == nil {
		err = multierror.Append(err, fmt.Errorf("frontier not provided"))
	}

	if config.Fetcher == nil {
		err = multierror.Append(err, fmt.Errorf("fetcher not provided"))
	}

	if config.SeedURL == "" {
		err = multierror.Append(err, fmt.Errorf("seed URL not provided"))
	}

	if config.SnapshotPath == "" {
		err = multierror.Append(err, fmt.Errorf("snapshot path not provided"))
	}

	if config.BatchSize <= 0 {
		config.BatchSize = DefaultBatchSize
	}

	if config.Clock == nil {
		config.Clock = clock.WallClock
	}

	if config.Logger == nil {
		config.Logger = logrus.NewEntry(&logrus.Logger{Out: io.Discard})
	}

	return err
}

// Summary reports the outcome of a single crawl invocation.
type Summary struct {
	NumCrawled int      `json:"numCrawled"`
	Crawled    []string `json:"crawled"`
	Failed     []string `json:"failed"`
}

// Crawler runs bounded crawl invocations against a single site.
type Crawler struct {
	// Invocations are serialized: the snapshot load-merge-write sequence
	// must never interleave with another invocation's, or the later write
	// erases the earlier invocation's documents.
	mu     sync.Mutex
	config Config
}

// New creates and returns a crawler instance after validating the
// provided configuration.
func New(config Config) (*Crawler, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}

	return &Crawler{config: config}, nil
}

// Crawl performs one complete invocation: initialize the frontier with the
// seed URL, select a batch, process every URL concurrently and merge the
// resulting documents into the persisted snapshot. Per-URL failures are
// reported in the summary; store and snapshot failures abort the invocation.
// Overlapping calls (periodic pass vs on-demand trigger) run one at a time.
func (c *Crawler) Crawl(ctx context.Context) (*Summary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.config.Frontier.Initialize(ctx, c.config.SeedURL); err != nil {
		return nil, err
	}

	batch, err := c.config.Frontier.SelectBatch(ctx, c.config.BatchSize)
	if err != nil {
		return nil, err
	}

	summary, docs, err := c.crawlBatch(ctx, batch)
	if err != nil {
		return nil, err
	}

	if len(docs) > 0 {
		if err := c.persist(docs); err != nil {
			return nil, err
		}
	}

	return summary, nil
}

// crawlBatch fans out one goroutine per URL and joins them all before
// returning: every task runs to completion even when siblings fail.
func (c *Crawler) crawlBatch(ctx context.Context, batch []string) (*Summary, []index.Document, error) {
	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		docs     []index.Document
		storeErr error
		summary  = &Summary{
			Crawled: []string{},
			Failed:  []string{},
		}
	)

	for _, url := range batch {
		wg.Add(1)

		go func(url string) {
			defer wg.Done()

			doc, err := c.crawlURL(ctx, url)

			mu.Lock()
			defer mu.Unlock()

			switch {
			case err != nil:
				// A store failure is fatal to the whole invocation; a
				// fetch or extraction failure only fails this URL.
				if isStoreErr(err) {
					storeErr = multierror.Append(storeErr, err)

					return
				}

				summary.Failed = append(summary.Failed, url)

				c.config.Logger.WithFields(logrus.Fields{
					"url": url,
					"err": err.Error(),
				}).Warn("failed to crawl url")

			case doc == nil:
				// Inside its revisit window: neither crawled nor failed.

			default:
				docs = append(docs, *doc)
				summary.Crawled = append(summary.Crawled, url)
			}
		}(url)
	}

	wg.Wait()

	if storeErr != nil {
		return nil, nil, storeErr
	}

	summary.NumCrawled = len(summary.Crawled)

	return summary, docs, nil
}

// crawlURL processes a single URL. A nil document with a nil error means the
// URL was skipped because it is still inside its revisit window.
func (c *Crawler) crawlURL(ctx context.Context, url string) (*index.Document, error) {
	eligible, err := c.config.Frontier.CanCrawl(ctx, url)
	if err != nil {
		return nil, storeFailure{err}
	}

	if !eligible {
		c.config.Logger.WithField("url", url).Debug("url inside revisit window, skipping")

		return nil, nil
	}

	result, fetchErr := c.config.Fetcher.Fetch(ctx, url)

	// Visited is recorded regardless of fetch outcome so pathological URLs
	// are not retried on every invocation.
	if err := c.config.Frontier.MarkVisited(ctx, url); err != nil {
		return nil, storeFailure{err}
	}

	if fetchErr != nil {
		return nil, fetchErr
	}

	doc, links, err := extractor.Extract(url, result.HTML)
	if err != nil {
		return nil, err
	}

	doc.LastCrawled = c.config.Clock.Now().UTC()

	if err := c.config.Frontier.PutDocument(ctx, doc); err != nil {
		return nil, storeFailure{err}
	}

	if err := c.config.Frontier.EnqueueDiscovered(ctx, links...); err != nil {
		return nil, storeFailure{err}
	}

	c.config.Logger.WithFields(logrus.Fields{
		"url": url,
		"via": result.Via.String(),
	}).Info("crawled url")

	return doc, nil
}

// persist merges docs into the previously persisted snapshot through a fresh
// transient index and writes the result back, fully replacing the old file.
func (c *Crawler) persist(docs []index.Document) error {
	idx, err := memory.NewFromSnapshot(index.LoadSnapshotOrEmpty(c.config.SnapshotPath))
	if err != nil {
		return err
	}
	defer func() { _ = idx.Close() }()

	if err := idx.AddAll(docs); err != nil {
		return err
	}

	if idx.Count() == 0 {
		return ErrNothingIndexed
	}

	return idx.Snapshot().WriteFile(c.config.SnapshotPath)
}

// storeFailure marks an error as originating from the shared store, which is
// fatal to the invocation rather than a per-URL failure.
type storeFailure struct {
	err error
}

func (e storeFailure) Error() string { return e.err.Error() }

func (e storeFailure) Unwrap() error { return e.err }

func isStoreErr(err error) bool {
	_, ok := err.(storeFailure)

	return ok
}
