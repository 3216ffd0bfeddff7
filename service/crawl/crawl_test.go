package crawl

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	check "gopkg.in/check.v1"

	"github.com/mycok/sitesearch/crawler"
)

// Initialize and register a pointer instance of the crawlServiceTestSuite to
// be executed by check testing package.
var _ = check.Suite(new(crawlServiceTestSuite))

// Test registers the [check] library with the go testing library and enables
// the running of the test suite using the go testing library.
func Test(t *testing.T) {
	check.TestingT(t)
}

const updateInterval = time.Hour

type crawlServiceTestSuite struct {
	clk    *testclock.Clock
	runner *fakeCrawlRunner
	svc    *Service
}

func (s *crawlServiceTestSuite) SetUpTest(c *check.C) {
	s.clk = testclock.NewClock(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC))
	s.runner = &fakeCrawlRunner{invoked: make(chan struct{}, 8)}

	svc, err := New(Config{
		CrawlAPI:       s.runner,
		UpdateInterval: updateInterval,
		Clock:          s.clk,
	})
	c.Assert(err, check.IsNil)

	s.svc = svc
}

func (s *crawlServiceTestSuite) TestPassRunsWhenIntervalElapses(c *check.C) {
	ctx, cancelFn := context.WithCancel(context.Background())
	done := s.run(ctx)

	// Wait for the service to block on the interval timer, then advance
	// past it.
	c.Assert(s.clk.WaitAdvance(updateInterval, time.Second, 1), check.IsNil)

	s.waitForPass(c)

	cancelFn()
	c.Assert(<-done, check.IsNil)
}

func (s *crawlServiceTestSuite) TestTriggerRunsPassImmediately(c *check.C) {
	ctx, cancelFn := context.WithCancel(context.Background())
	done := s.run(ctx)

	// No clock advancement: the triggered pass must run on its own.
	s.svc.Trigger()
	s.waitForPass(c)

	cancelFn()
	c.Assert(<-done, check.IsNil)
}

func (s *crawlServiceTestSuite) TestPassFailureTerminatesService(c *check.C) {
	passErr := errors.New("store unavailable")
	s.runner.err = passErr

	done := s.run(context.Background())

	s.svc.Trigger()

	err := <-done
	c.Assert(err, check.NotNil)
	c.Assert(errors.Is(err, passErr), check.Equals, true)
}

func (s *crawlServiceTestSuite) TestConfigValidation(c *check.C) {
	_, err := New(Config{})
	c.Assert(err, check.NotNil)

	_, err = New(Config{CrawlAPI: s.runner})
	c.Assert(err, check.NotNil)
}

func (s *crawlServiceTestSuite) run(ctx context.Context) chan error {
	done := make(chan error, 1)

	go func() {
		done <- s.svc.Run(ctx)
	}()

	return done
}

func (s *crawlServiceTestSuite) waitForPass(c *check.C) {
	select {
	case <-s.runner.invoked:
	case <-time.After(time.Second):
		c.Fatal("timed out waiting for a crawl pass to run")
	}
}

type fakeCrawlRunner struct {
	invoked chan struct{}
	err     error
}

func (f *fakeCrawlRunner) Crawl(ctx context.Context) (*crawler.Summary, error) {
	defer func() { f.invoked <- struct{}{} }()

	if f.err != nil {
		return nil, f.err
	}

	return &crawler.Summary{Crawled: []string{}, Failed: []string{}}, nil
}
