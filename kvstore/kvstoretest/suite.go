package kvstoretest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	check "gopkg.in/check.v1"

	"github.com/mycok/sitesearch/kvstore"
)

// BaseSuite defines a set of re-usable store related tests that can be
// executed against any concrete type that implements the kvstore.Store
// interface.
type BaseSuite struct {
	store kvstore.Store
}

// SetStore sets BaseSuite's store field.
func (s *BaseSuite) SetStore(store kvstore.Store) {
	s.store = store
}

// TestSetSemantics verifies that repeated and overlapping SAdd calls never
// produce duplicate members.
func (s *BaseSuite) TestSetSemantics(c *check.C) {
	ctx := context.Background()

	err := s.store.SAdd(ctx, "frontier", "https://example.com", "https://example.com/a")
	c.Assert(err, check.IsNil)

	// Re-add an existing member together with a new one.
	err = s.store.SAdd(ctx, "frontier", "https://example.com/a", "https://example.com/b")
	c.Assert(err, check.IsNil)

	members, err := s.store.SMembers(ctx, "frontier")
	c.Assert(err, check.IsNil)

	sort.Strings(members)
	c.Assert(members, check.DeepEquals, []string{
		"https://example.com",
		"https://example.com/a",
		"https://example.com/b",
	})
}

// TestConcurrentSetInserts verifies that concurrent SAdd calls with
// overlapping members still yield set semantics.
func (s *BaseSuite) TestConcurrentSetInserts(c *check.C) {
	ctx := context.Background()

	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			// Every goroutine inserts the same shared member plus one
			// unique member.
			err := s.store.SAdd(
				ctx, "concurrent",
				"https://example.com/shared",
				fmt.Sprintf("https://example.com/%d", i),
			)
			c.Check(err, check.IsNil)
		}(i)
	}

	wg.Wait()

	members, err := s.store.SMembers(ctx, "concurrent")
	c.Assert(err, check.IsNil)
	c.Assert(len(members), check.Equals, 11)
}

// TestEmptySet verifies the lookup behaviour for missing set keys.
func (s *BaseSuite) TestEmptySet(c *check.C) {
	members, err := s.store.SMembers(context.Background(), "does-not-exist")
	c.Assert(err, check.IsNil)
	c.Assert(len(members), check.Equals, 0)
}

// TestHashFields verifies hash field get / set round trips and missing
// field lookups.
func (s *BaseSuite) TestHashFields(c *check.C) {
	ctx := context.Background()

	err := s.store.HSet(ctx, "visited", "https://example.com", "2024-01-01T00:00:00Z")
	c.Assert(err, check.IsNil)

	value, err := s.store.HGet(ctx, "visited", "https://example.com")
	c.Assert(err, check.IsNil)
	c.Assert(value, check.Equals, "2024-01-01T00:00:00Z")

	// Overwrite the field.
	err = s.store.HSet(ctx, "visited", "https://example.com", "2024-01-02T00:00:00Z")
	c.Assert(err, check.IsNil)

	value, err = s.store.HGet(ctx, "visited", "https://example.com")
	c.Assert(err, check.IsNil)
	c.Assert(value, check.Equals, "2024-01-02T00:00:00Z")

	_, err = s.store.HGet(ctx, "visited", "https://example.com/missing")
	c.Assert(errors.Is(err, kvstore.ErrNotFound), check.Equals, true)

	_, err = s.store.HGet(ctx, "missing-hash", "field")
	c.Assert(errors.Is(err, kvstore.ErrNotFound), check.Equals, true)
}

// TestStringValues verifies plain get / set round trips.
func (s *BaseSuite) TestStringValues(c *check.C) {
	ctx := context.Background()

	_, err := s.store.Get(ctx, "doc:42")
	c.Assert(errors.Is(err, kvstore.ErrNotFound), check.Equals, true)

	err = s.store.Set(ctx, "doc:42", `{"title": "test"}`)
	c.Assert(err, check.IsNil)

	value, err := s.store.Get(ctx, "doc:42")
	c.Assert(err, check.IsNil)
	c.Assert(value, check.Equals, `{"title": "test"}`)
}

// TestTypeAndDel verifies type introspection and the schema-repair path of
// deleting an unexpectedly typed key.
func (s *BaseSuite) TestTypeAndDel(c *check.C) {
	ctx := context.Background()

	keyType, err := s.store.Type(ctx, "missing")
	c.Assert(err, check.IsNil)
	c.Assert(keyType, check.Equals, kvstore.TypeNone)

	// Store a plain string under the key a caller expects to be a set.
	err = s.store.Set(ctx, "frontier-typed", "oops")
	c.Assert(err, check.IsNil)

	keyType, err = s.store.Type(ctx, "frontier-typed")
	c.Assert(err, check.IsNil)
	c.Assert(keyType, check.Equals, "string")

	// Repair: drop the key and re-create it with the expected type.
	err = s.store.Del(ctx, "frontier-typed")
	c.Assert(err, check.IsNil)

	err = s.store.SAdd(ctx, "frontier-typed", "https://example.com")
	c.Assert(err, check.IsNil)

	keyType, err = s.store.Type(ctx, "frontier-typed")
	c.Assert(err, check.IsNil)
	c.Assert(keyType, check.Equals, "set")
}
