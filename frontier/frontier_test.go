package frontier

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	check "gopkg.in/check.v1"

	"github.com/mycok/sitesearch/kvstore/memory"
	"github.com/mycok/sitesearch/textindexer/index"
)

// Initialize and register a pointer instance of the frontierTestSuite to be
// executed by check testing package.
var _ = check.Suite(new(frontierTestSuite))

// Test registers the [check] library with the go testing library and enables
// the running of the test suite using the go testing library.
func Test(t *testing.T) {
	check.TestingT(t)
}

type frontierTestSuite struct {
	store   *memory.InMemoryStore
	clock   *testclock.Clock
	manager *Manager
}

func (s *frontierTestSuite) SetUpTest(c *check.C) {
	s.store = memory.NewInMemoryStore()
	s.clock = testclock.NewClock(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC))
	s.manager = New(s.store, s.clock, DefaultRevisitWindow)
}

func (s *frontierTestSuite) TestInitializeIsIdempotent(c *check.C) {
	ctx := context.Background()

	c.Assert(s.manager.Initialize(ctx, "https://example.com"), check.IsNil)
	c.Assert(s.manager.Initialize(ctx, "https://example.com"), check.IsNil)

	batch, err := s.manager.SelectBatch(ctx, 10)
	c.Assert(err, check.IsNil)
	c.Assert(batch, check.DeepEquals, []string{"https://example.com"})
}

func (s *frontierTestSuite) TestInitializeRepairsWrongKeyType(c *check.C) {
	ctx := context.Background()

	// Simulate a frontier key that was corrupted into a plain string.
	c.Assert(s.store.Set(ctx, "crawler:frontier", "oops"), check.IsNil)

	c.Assert(s.manager.Initialize(ctx, "https://example.com"), check.IsNil)

	batch, err := s.manager.SelectBatch(ctx, 10)
	c.Assert(err, check.IsNil)
	c.Assert(batch, check.DeepEquals, []string{"https://example.com"})
}

func (s *frontierTestSuite) TestSelectBatchIsBounded(c *check.C) {
	ctx := context.Background()

	err := s.manager.EnqueueDiscovered(
		ctx,
		"https://example.com/a",
		"https://example.com/b",
		"https://example.com/c",
	)
	c.Assert(err, check.IsNil)

	batch, err := s.manager.SelectBatch(ctx, 2)
	c.Assert(err, check.IsNil)
	c.Assert(len(batch), check.Equals, 2)
}

func (s *frontierTestSuite) TestSelectBatchRotatesThroughAllURLs(c *check.C) {
	ctx := context.Background()

	urls := []string{
		"https://example.com/a",
		"https://example.com/b",
		"https://example.com/c",
		"https://example.com/d",
		"https://example.com/e",
	}
	c.Assert(s.manager.EnqueueDiscovered(ctx, urls...), check.IsNil)

	// With a batch size of 2, three successive invocations must cover
	// every URL at least once (no starvation).
	seen := make(map[string]struct{})

	for i := 0; i < 3; i++ {
		batch, err := s.manager.SelectBatch(ctx, 2)
		c.Assert(err, check.IsNil)

		for _, url := range batch {
			seen[url] = struct{}{}
		}
	}

	selected := make([]string, 0, len(seen))
	for url := range seen {
		selected = append(selected, url)
	}

	sort.Strings(selected)
	c.Assert(selected, check.DeepEquals, urls)
}

func (s *frontierTestSuite) TestSelectBatchOnEmptyFrontier(c *check.C) {
	batch, err := s.manager.SelectBatch(context.Background(), 10)
	c.Assert(err, check.IsNil)
	c.Assert(len(batch), check.Equals, 0)
}

func (s *frontierTestSuite) TestCanCrawlHonoursRevisitWindow(c *check.C) {
	ctx := context.Background()
	url := "https://example.com"

	// Never visited.
	ok, err := s.manager.CanCrawl(ctx, url)
	c.Assert(err, check.IsNil)
	c.Assert(ok, check.Equals, true)

	c.Assert(s.manager.MarkVisited(ctx, url), check.IsNil)

	// Immediately after a visit.
	ok, err = s.manager.CanCrawl(ctx, url)
	c.Assert(err, check.IsNil)
	c.Assert(ok, check.Equals, false)

	// One second before the window elapses.
	s.clock.Advance(DefaultRevisitWindow - time.Second)
	ok, err = s.manager.CanCrawl(ctx, url)
	c.Assert(err, check.IsNil)
	c.Assert(ok, check.Equals, false)

	// Exactly at the window boundary.
	s.clock.Advance(time.Second)
	ok, err = s.manager.CanCrawl(ctx, url)
	c.Assert(err, check.IsNil)
	c.Assert(ok, check.Equals, true)
}

func (s *frontierTestSuite) TestMarkVisitedRefreshesTimestamp(c *check.C) {
	ctx := context.Background()
	url := "https://example.com"

	c.Assert(s.manager.MarkVisited(ctx, url), check.IsNil)
	s.clock.Advance(DefaultRevisitWindow)

	// A second visit attempt (success or failure alike) resets the window.
	c.Assert(s.manager.MarkVisited(ctx, url), check.IsNil)

	ok, err := s.manager.CanCrawl(ctx, url)
	c.Assert(err, check.IsNil)
	c.Assert(ok, check.Equals, false)
}

func (s *frontierTestSuite) TestEnqueueDiscoveredDeduplicates(c *check.C) {
	ctx := context.Background()

	var wg sync.WaitGroup

	// Concurrent enqueues with overlapping URLs.
	for i := 0; i < 8; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			err := s.manager.EnqueueDiscovered(
				ctx,
				"https://example.com/a",
				"https://example.com/b",
			)
			c.Check(err, check.IsNil)
		}()
	}

	wg.Wait()

	batch, err := s.manager.SelectBatch(ctx, 10)
	c.Assert(err, check.IsNil)

	sort.Strings(batch)
	c.Assert(batch, check.DeepEquals, []string{
		"https://example.com/a",
		"https://example.com/b",
	})
}

func (s *frontierTestSuite) TestDocumentRoundTrip(c *check.C) {
	ctx := context.Background()

	doc := &index.Document{
		ID:          index.DocumentID("https://example.com"),
		URL:         "https://example.com",
		Title:       "home",
		Content:     "welcome",
		LastCrawled: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}

	c.Assert(s.manager.PutDocument(ctx, doc), check.IsNil)

	stored, err := s.manager.Document(ctx, doc.ID)
	c.Assert(err, check.IsNil)
	c.Assert(stored, check.DeepEquals, doc)

	_, err = s.manager.Document(ctx, index.DocumentID("https://example.com/missing"))
	c.Assert(errors.Is(err, index.ErrNotFound), check.Equals, true)
}
