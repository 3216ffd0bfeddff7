package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	check "gopkg.in/check.v1"
)

var _ = check.Suite(new(GroupTestSuite))

func Test(t *testing.T) {
	check.TestingT(t)
}

type GroupTestSuite struct{}

func (s *GroupTestSuite) TestGroupStopsAllServicesWhenOneFails(c *check.C) {
	crawl := &stubService{name: "crawl"}
	api := &stubService{
		name: "webapi",
		err:  fmt.Errorf("failed to bind listen address"),
	}

	grp := Group{crawl, api}

	err := grp.Execute(context.TODO())
	c.Assert(err, check.Not(check.IsNil))
	c.Assert(err, check.ErrorMatches, "(?ms).*webapi: failed to bind listen address.*")

	// The healthy service must have been cancelled and exited too.
	c.Assert(crawl.exited.Load(), check.Equals, true)
}

func (s *GroupTestSuite) TestGroupAccumulatesEveryServiceError(c *check.C) {
	grp := Group{
		&stubService{name: "crawl", err: fmt.Errorf("key-value store unreachable")},
		&stubService{name: "webapi", err: fmt.Errorf("failed to bind listen address")},
	}

	err := grp.Execute(context.TODO())
	c.Assert(err, check.Not(check.IsNil))
	c.Assert(err, check.ErrorMatches, "(?ms).*crawl: key-value store unreachable.*")
	c.Assert(err, check.ErrorMatches, "(?ms).*webapi: failed to bind listen address.*")
}

func (s *GroupTestSuite) TestGroupExitsCleanlyOnContextCancellation(c *check.C) {
	grp := Group{
		&stubService{name: "crawl"},
		&stubService{name: "webapi"},
	}

	ctx, cancelFn := context.WithTimeout(context.TODO(), 200*time.Millisecond)
	defer cancelFn()

	err := grp.Execute(ctx)
	c.Assert(err, check.IsNil)
}

// stubService blocks until cancelled unless configured to fail on start.
type stubService struct {
	name   string
	err    error
	exited atomic.Bool
}

func (s *stubService) Name() string { return s.name }

func (s *stubService) Run(ctx context.Context) error {
	defer s.exited.Store(true)

	if s.err != nil {
		return s.err
	}

	<-ctx.Done()

	return nil
}
