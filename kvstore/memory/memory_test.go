package memory

import (
	"testing"

	check "gopkg.in/check.v1"

	"github.com/mycok/sitesearch/kvstore/kvstoretest"
)

// Initialize and register a pointer instance of the inMemoryStoreTestSuite
// to be executed by check testing package.
var _ = check.Suite(new(inMemoryStoreTestSuite))

// Test registers the [check] library with the go testing library and enables
// the running of the test suite using the go testing library.
func Test(t *testing.T) {
	check.TestingT(t)
}

// inMemoryStoreTestSuite embeds and runs the BaseSuite tests methods.
type inMemoryStoreTestSuite struct {
	kvstoretest.BaseSuite
}

// SetUpTest runs before each test in the test suite. it's responsible for
// resetting the store so tests never observe each other's keys.
func (s *inMemoryStoreTestSuite) SetUpTest(c *check.C) {
	s.SetStore(NewInMemoryStore())
}
