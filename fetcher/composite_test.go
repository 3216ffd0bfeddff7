package fetcher

import (
	"context"
	"errors"
	"time"

	check "gopkg.in/check.v1"
)

// Initialize and register a pointer instance of the compositeTestSuite to
// be executed by check testing package.
var _ = check.Suite(new(compositeTestSuite))

type compositeTestSuite struct{}

// fakeFetcher returns scripted responses, one per call, repeating the final
// entry once the script is exhausted.
type fakeFetcher struct {
	calls   int
	scripts []fakeResponse
}

type fakeResponse struct {
	html string
	err  error
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (string, error) {
	i := f.calls
	if i >= len(f.scripts) {
		i = len(f.scripts) - 1
	}

	f.calls++

	return f.scripts[i].html, f.scripts[i].err
}

func (s *compositeTestSuite) TestPrimarySuccessOnFirstAttempt(c *check.C) {
	primary := &fakeFetcher{scripts: []fakeResponse{{html: "<html>rendered</html>"}}}
	fallback := &fakeFetcher{scripts: []fakeResponse{{err: errors.New("unused")}}}

	result, err := s.fetch(c, primary, fallback)
	c.Assert(err, check.IsNil)
	c.Assert(result.HTML, check.Equals, "<html>rendered</html>")
	c.Assert(result.Via, check.Equals, ViaBrowser)
	c.Assert(fallback.calls, check.Equals, 0)
}

func (s *compositeTestSuite) TestPrimaryRecoversWithinRetryBudget(c *check.C) {
	primary := &fakeFetcher{scripts: []fakeResponse{
		{err: errors.New("navigation timeout")},
		{err: errors.New("navigation timeout")},
		{html: "<html>rendered</html>"},
	}}
	fallback := &fakeFetcher{scripts: []fakeResponse{{err: errors.New("unused")}}}

	result, err := s.fetch(c, primary, fallback)
	c.Assert(err, check.IsNil)
	c.Assert(result.Via, check.Equals, ViaBrowser)
	c.Assert(primary.calls, check.Equals, 3)
	c.Assert(fallback.calls, check.Equals, 0)
}

func (s *compositeTestSuite) TestDegradesToFallbackWhenRetriesExhausted(c *check.C) {
	primary := &fakeFetcher{scripts: []fakeResponse{{err: errors.New("navigation timeout")}}}
	fallback := &fakeFetcher{scripts: []fakeResponse{{html: "<html>plain</html>"}}}

	result, err := s.fetch(c, primary, fallback)
	c.Assert(err, check.IsNil)
	c.Assert(result.HTML, check.Equals, "<html>plain</html>")
	c.Assert(result.Via, check.Equals, ViaHTTP)

	// Initial attempt plus two retries.
	c.Assert(primary.calls, check.Equals, 3)
}

func (s *compositeTestSuite) TestUnusableBrowserSkipsRetries(c *check.C) {
	primary := &fakeFetcher{scripts: []fakeResponse{
		{err: errors.New(`exec: "google-chrome": executable file not found in $PATH`)},
	}}
	fallback := &fakeFetcher{scripts: []fakeResponse{{html: "<html>plain</html>"}}}

	result, err := s.fetch(c, primary, fallback)
	c.Assert(err, check.IsNil)
	c.Assert(result.Via, check.Equals, ViaHTTP)
	c.Assert(primary.calls, check.Equals, 1)
}

func (s *compositeTestSuite) TestFailureWhenAllStrategiesExhausted(c *check.C) {
	primaryErr := errors.New("navigation timeout")
	primary := &fakeFetcher{scripts: []fakeResponse{{err: primaryErr}}}
	fallback := &fakeFetcher{scripts: []fakeResponse{{err: errors.New("status 503")}}}

	_, err := s.fetch(c, primary, fallback)
	c.Assert(errors.Is(err, primaryErr), check.Equals, true)
}

func (s *compositeTestSuite) fetch(c *check.C, primary, fallback Fetcher) (*Result, error) {
	composite := NewComposite(CompositeConfig{
		Primary:  primary,
		Fallback: fallback,
		Retries:  2,
		Backoff:  time.Millisecond,
	})

	return composite.Fetch(context.Background(), "https://example.com")
}
