package index

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	check "gopkg.in/check.v1"
)

// Initialize and register a pointer instance of the snapshotTestSuite to be
// executed by check testing package.
var _ = check.Suite(new(snapshotTestSuite))

// Test registers the [check] library with the go testing library and enables
// the running of the test suite using the go testing library.
func Test(t *testing.T) {
	check.TestingT(t)
}

type snapshotTestSuite struct {
	dir string
}

func (s *snapshotTestSuite) SetUpTest(c *check.C) {
	s.dir = c.MkDir()
}

func (s *snapshotTestSuite) snapshotPath() string {
	return filepath.Join(s.dir, "index.json")
}

func (s *snapshotTestSuite) TestWriteAndLoadRoundTrip(c *check.C) {
	snapshot := EmptySnapshot()
	snapshot.Upsert(Document{
		ID:          DocumentID("https://example.com"),
		URL:         "https://example.com",
		Title:       "home",
		Description: "landing page",
		Content:     "welcome",
		Links:       "about (https://example.com/about)",
		LastCrawled: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	})

	c.Assert(snapshot.WriteFile(s.snapshotPath()), check.IsNil)

	loaded, err := LoadSnapshot(s.snapshotPath())
	c.Assert(err, check.IsNil)
	c.Assert(loaded, check.DeepEquals, snapshot)
}

func (s *snapshotTestSuite) TestWriteFullyOverwritesPreviousSnapshot(c *check.C) {
	first := EmptySnapshot()
	first.Upsert(Document{ID: DocumentID("https://example.com/a"), URL: "https://example.com/a"})
	first.Upsert(Document{ID: DocumentID("https://example.com/b"), URL: "https://example.com/b"})
	c.Assert(first.WriteFile(s.snapshotPath()), check.IsNil)

	second := EmptySnapshot()
	second.Upsert(Document{ID: DocumentID("https://example.com/c"), URL: "https://example.com/c"})
	c.Assert(second.WriteFile(s.snapshotPath()), check.IsNil)

	loaded, err := LoadSnapshot(s.snapshotPath())
	c.Assert(err, check.IsNil)
	c.Assert(len(loaded.Documents), check.Equals, 1)
	c.Assert(loaded.Documents[0].URL, check.Equals, "https://example.com/c")
}

func (s *snapshotTestSuite) TestUpsertReplacesByID(c *check.C) {
	snapshot := EmptySnapshot()

	snapshot.Upsert(Document{
		ID:    DocumentID("https://example.com"),
		URL:   "https://example.com",
		Title: "old title",
	})
	snapshot.Upsert(Document{
		ID:    DocumentID("https://example.com"),
		URL:   "https://example.com",
		Title: "new title",
	})

	c.Assert(len(snapshot.Documents), check.Equals, 1)
	c.Assert(snapshot.Documents[0].Title, check.Equals, "new title")
}

func (s *snapshotTestSuite) TestLoadMissingFile(c *check.C) {
	_, err := LoadSnapshot(s.snapshotPath())
	c.Assert(err, check.NotNil)
	c.Assert(IsNotExist(err), check.Equals, true)
}

func (s *snapshotTestSuite) TestLoadRejectsSnapshotWithoutFields(c *check.C) {
	err := os.WriteFile(s.snapshotPath(), []byte(`{"documents": []}`), 0o644)
	c.Assert(err, check.IsNil)

	_, err = LoadSnapshot(s.snapshotPath())
	c.Assert(errors.Is(err, ErrInvalidSnapshot), check.Equals, true)
}

func (s *snapshotTestSuite) TestLoadRejectsSnapshotWithoutDocuments(c *check.C) {
	err := os.WriteFile(s.snapshotPath(), []byte(`{"fields": ["title"]}`), 0o644)
	c.Assert(err, check.IsNil)

	_, err = LoadSnapshot(s.snapshotPath())
	c.Assert(errors.Is(err, ErrInvalidSnapshot), check.Equals, true)
}

func (s *snapshotTestSuite) TestLoadRejectsMalformedJSON(c *check.C) {
	err := os.WriteFile(s.snapshotPath(), []byte(`{not json`), 0o644)
	c.Assert(err, check.IsNil)

	_, err = LoadSnapshot(s.snapshotPath())
	c.Assert(errors.Is(err, ErrInvalidSnapshot), check.Equals, true)
}

func (s *snapshotTestSuite) TestLoadOrEmptyFallsBackToEmptySnapshot(c *check.C) {
	// Missing file.
	snapshot := LoadSnapshotOrEmpty(s.snapshotPath())
	c.Assert(snapshot.Fields, check.DeepEquals, DefaultFields())
	c.Assert(len(snapshot.Documents), check.Equals, 0)

	// Corrupt file.
	err := os.WriteFile(s.snapshotPath(), []byte(`{"documents": 42}`), 0o644)
	c.Assert(err, check.IsNil)

	snapshot = LoadSnapshotOrEmpty(s.snapshotPath())
	c.Assert(snapshot.Fields, check.DeepEquals, DefaultFields())
	c.Assert(len(snapshot.Documents), check.Equals, 0)
}
