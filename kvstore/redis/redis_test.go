package redis

import (
	"context"
	"os"
	"testing"

	check "gopkg.in/check.v1"

	"github.com/mycok/sitesearch/kvstore/kvstoretest"
)

// Initialize and register an instance of the redisStoreTestSuite to be
// executed by check testing package.
var _ = check.Suite(new(redisStoreTestSuite))

// Test registers the [check] library with the go testing library and enables
// the running of the test suite using the go testing library.
func Test(t *testing.T) {
	check.TestingT(t)
}

// redisStoreTestSuite embeds and runs the BaseSuite tests methods against a
// real redis server.
type redisStoreTestSuite struct {
	store *RedisStore
	kvstoretest.BaseSuite
}

// SetUpSuite runs only once before all tests in the test suite. it's
// responsible for establishing the redis connection or skipping the suite
// when no server is available.
func (s *redisStoreTestSuite) SetUpSuite(c *check.C) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		c.Skip("Missing REDIS_ADDR envvar: skipping redis backed test suite")
	}

	store, err := NewRedisStore(context.Background(), addr)
	if err != nil {
		c.Fatalf("Failed to make a redis connection: %v", err)
	}

	s.store = store
	s.SetStore(store)
}

// SetUpTest resets the test database between tests so suites never observe
// each other's keys.
func (s *redisStoreTestSuite) SetUpTest(c *check.C) {
	if s.store == nil {
		return
	}

	c.Assert(s.store.client.FlushDB(context.Background()).Err(), check.IsNil)
}

// TearDownSuite closes the redis connection if open.
func (s *redisStoreTestSuite) TearDownSuite(c *check.C) {
	if s.store != nil {
		c.Assert(s.store.Close(), check.IsNil)
	}
}
