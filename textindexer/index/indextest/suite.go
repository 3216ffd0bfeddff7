package indextest

import (
	"errors"
	"time"

	"github.com/google/uuid"
	check "gopkg.in/check.v1"

	"github.com/mycok/sitesearch/textindexer/index"
)

// BaseSuite defines a set of re-usable index related tests that can be
// executed against any concrete type that implements the index.Indexer
// interface.
type BaseSuite struct {
	idx index.Indexer
}

// SetIndexer sets BaseSuite's indexer field.
func (s *BaseSuite) SetIndexer(idx index.Indexer) {
	s.idx = idx
}

// TestIndexingDocument verifies the indexing logic for new and existing
// documents.
func (s *BaseSuite) TestIndexingDocument(c *check.C) {
	doc := &index.Document{
		ID:          index.DocumentID("https://example.com"),
		URL:         "https://example.com",
		Title:       "test document title",
		Description: "a short test description",
		Content:     "This should be the body text of the document",
		LastCrawled: time.Now().Add(-12 * time.Hour).UTC(),
	}

	err := s.idx.Index(doc)
	c.Assert(err, check.IsNil, check.Commentf("index insert: %v", err))

	// Update the existing document: same URL, therefore same ID.
	updatedDoc := &index.Document{
		ID:          index.DocumentID("https://example.com"),
		URL:         doc.URL,
		Title:       "This is an updated document title",
		Content:     "This is an updated document body",
		LastCrawled: time.Now().UTC(),
	}

	err = s.idx.Index(updatedDoc)
	c.Assert(err, check.IsNil, check.Commentf("index update: %v", err))

	// Query the index to verify the update replaced the entry.
	d, err := s.idx.FindByID(updatedDoc.ID)
	c.Assert(err, check.IsNil)
	c.Assert(d, check.DeepEquals, updatedDoc)
	c.Assert(s.idx.Count(), check.Equals, uint64(1))

	// Insert a document without an ID.
	docWithoutID := &index.Document{
		URL: "https://example.com",
	}

	err = s.idx.Index(docWithoutID)
	c.Assert(
		errors.Is(err, index.ErrMissingDocumentID), check.Equals, true,
		check.Commentf("index insert: %v", err),
	)
}

// TestIdempotentReindexing verifies that adding the same document batch
// twice produces a snapshot with the same document count.
func (s *BaseSuite) TestIdempotentReindexing(c *check.C) {
	docs := []index.Document{
		{
			ID:      index.DocumentID("https://example.com/a"),
			URL:     "https://example.com/a",
			Title:   "page a",
			Content: "contents of page a",
		},
		{
			ID:      index.DocumentID("https://example.com/b"),
			URL:     "https://example.com/b",
			Title:   "page b",
			Content: "contents of page b",
		},
	}

	c.Assert(s.idx.AddAll(docs), check.IsNil)
	c.Assert(s.idx.AddAll(docs), check.IsNil)

	snapshot := s.idx.Snapshot()
	c.Assert(len(snapshot.Documents), check.Equals, 2)
	c.Assert(snapshot.Fields, check.DeepEquals, index.DefaultFields())
}

// TestTitleBoostOrdering verifies that a term present in a document's title
// outranks an otherwise-identical document carrying the term only in its
// content.
func (s *BaseSuite) TestTitleBoostOrdering(c *check.C) {
	titleDoc := index.Document{
		ID:      index.DocumentID("https://example.com/title"),
		URL:     "https://example.com/title",
		Title:   "Industrial lubricant catalogue",
		Content: "General machine maintenance notes",
	}
	contentDoc := index.Document{
		ID:      index.DocumentID("https://example.com/content"),
		URL:     "https://example.com/content",
		Title:   "General machine maintenance notes",
		Content: "Industrial lubricant catalogue",
	}

	c.Assert(s.idx.AddAll([]index.Document{titleDoc, contentDoc}), check.IsNil)

	it, err := s.idx.Search(index.Query{Expression: "lubricant"})
	c.Assert(err, check.IsNil)
	defer func() { c.Assert(it.Close(), check.IsNil) }()

	var (
		urls   []string
		scores []float64
	)

	for it.Next() {
		urls = append(urls, it.Document().URL)
		scores = append(scores, it.Score())
	}

	c.Assert(it.Error(), check.IsNil)
	c.Assert(len(urls), check.Equals, 2)
	c.Assert(urls[0], check.Equals, titleDoc.URL)
	c.Assert(scores[0] > scores[1], check.Equals, true)
}

// TestFuzzyMatching verifies that a query term within the edit-distance
// tolerance of an indexed term still matches.
func (s *BaseSuite) TestFuzzyMatching(c *check.C) {
	doc := &index.Document{
		ID:      index.DocumentID("https://example.com/oil"),
		URL:     "https://example.com/oil",
		Title:   "Machine oils",
		Content: "Our lubricant selection covers every machine class",
	}

	c.Assert(s.idx.Index(doc), check.IsNil)

	// One edit away from "lubricant".
	it, err := s.idx.Search(index.Query{Expression: "lubricnt"})
	c.Assert(err, check.IsNil)
	defer func() { c.Assert(it.Close(), check.IsNil) }()

	c.Assert(it.Next(), check.Equals, true)
	c.Assert(it.Document().URL, check.Equals, doc.URL)
}

// TestPrefixMatching verifies that a partial final term matches by prefix.
func (s *BaseSuite) TestPrefixMatching(c *check.C) {
	doc := &index.Document{
		ID:      index.DocumentID("https://example.com/oil"),
		URL:     "https://example.com/oil",
		Title:   "Machine oils",
		Content: "Our lubricant selection covers every machine class",
	}

	c.Assert(s.idx.Index(doc), check.IsNil)

	it, err := s.idx.Search(index.Query{Expression: "lub"})
	c.Assert(err, check.IsNil)
	defer func() { c.Assert(it.Close(), check.IsNil) }()

	c.Assert(it.Next(), check.Equals, true)
	c.Assert(it.Document().URL, check.Equals, doc.URL)
}

// TestMultiTermOrCombination verifies that a document matching any query
// term is a candidate and that matching more terms increases the score.
func (s *BaseSuite) TestMultiTermOrCombination(c *check.C) {
	both := index.Document{
		ID:      index.DocumentID("https://example.com/both"),
		URL:     "https://example.com/both",
		Content: "grease and lubricant supplies",
	}
	single := index.Document{
		ID:      index.DocumentID("https://example.com/single"),
		URL:     "https://example.com/single",
		Content: "grease supplies only",
	}

	c.Assert(s.idx.AddAll([]index.Document{both, single}), check.IsNil)

	it, err := s.idx.Search(index.Query{Expression: "grease lubricant"})
	c.Assert(err, check.IsNil)
	defer func() { c.Assert(it.Close(), check.IsNil) }()

	var urls []string
	for it.Next() {
		urls = append(urls, it.Document().URL)
	}

	c.Assert(it.Error(), check.IsNil)
	c.Assert(len(urls), check.Equals, 2)
	c.Assert(urls[0], check.Equals, both.URL)
}

// TestFindByID verifies the document lookup logic.
func (s *BaseSuite) TestFindByID(c *check.C) {
	doc := &index.Document{
		ID:      index.DocumentID("https://example.com"),
		URL:     "https://example.com",
		Title:   "test document title",
		Content: "This should be the body text of the document",
	}

	err := s.idx.Index(doc)
	c.Assert(err, check.IsNil)

	d, err := s.idx.FindByID(doc.ID)
	c.Assert(err, check.IsNil)
	c.Assert(d, check.DeepEquals, doc)

	_, err = s.idx.FindByID(uuid.New())
	c.Assert(errors.Is(err, index.ErrNotFound), check.Equals, true)
}
