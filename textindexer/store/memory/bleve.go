package memory

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/blevesearch/bleve"
	"github.com/blevesearch/bleve/search/query"
	"github.com/google/uuid"

	"github.com/mycok/sitesearch/textindexer/index"
)

// Size of each page of results that is cached locally by the iterator.
const batchSize = 10

// Relevance boosts applied per indexed field at query time.
const (
	titleBoost       = 2.0
	descriptionBoost = 1.5
	contentBoost     = 1.0
	linksBoost       = 1.0
)

// Edit-distance tolerance as a fraction of the query term length, capped at
// the maximum distance bleve supports.
const (
	fuzzinessFraction = 0.3
	maxFuzziness      = 2
)

// Static and compile-time check to ensure InMemoryIndex implements Indexer.
var _ index.Indexer = (*InMemoryIndex)(nil)

var fieldBoosts = map[string]float64{
	"title":       titleBoost,
	"description": descriptionBoost,
	"content":     contentBoost,
	"links":       linksBoost,
}

// InMemoryIndex is an Indexer implementation that uses a bleve instance
// to index / catalogue and search documents but saves its index in memory.
// It is transient by design: durable state lives in index.Snapshot and a
// fresh instance is rebuilt from a snapshot whenever one is needed.
type InMemoryIndex struct {
	mu     sync.RWMutex
	fields []string
	docs   map[string]*index.Document
	idx    bleve.Index
}

// NewInMemoryIndex instantiates and returns a text indexer that uses an
// in-memory bleve instance to index documents across the default fields.
func NewInMemoryIndex() (*InMemoryIndex, error) {
	mapping := bleve.NewIndexMapping()
	idx, err := bleve.NewMemOnly(mapping)
	if err != nil {
		return nil, err
	}

	return &InMemoryIndex{
		idx:    idx,
		fields: index.DefaultFields(),
		docs:   make(map[string]*index.Document),
	}, nil
}

// NewFromSnapshot rebuilds a transient in-memory index from a persisted
// snapshot's document collection.
func NewFromSnapshot(snapshot *index.Snapshot) (*InMemoryIndex, error) {
	idx, err := NewInMemoryIndex()
	if err != nil {
		return nil, err
	}

	if len(snapshot.Fields) != 0 {
		idx.fields = append([]string(nil), snapshot.Fields...)
	}

	if err := idx.AddAll(snapshot.Documents); err != nil {
		_ = idx.Close()

		return nil, err
	}

	return idx, nil
}

// Close releases / frees any previously allocated resources.
func (s *InMemoryIndex) Close() error {
	return s.idx.Close()
}

// Index adds a new document or updates an existing index entry
// in case of an existing document.
func (s *InMemoryIndex) Index(doc *index.Document) error {
	if doc.ID == uuid.Nil {
		return fmt.Errorf("index: %w", index.ErrMissingDocumentID)
	}

	dCopy := copyDoc(doc)
	key := dCopy.ID.String()

	// Acquire a general lock to avoid data races while mutating index data.
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.idx.Index(key, makeBleveDoc(dCopy)); err != nil {
		return fmt.Errorf("insert: %w", err)
	}

	s.docs[key] = dCopy

	return nil
}

// AddAll indexes a batch of documents. The first document with a missing ID
// aborts the batch.
func (s *InMemoryIndex) AddAll(docs []index.Document) error {
	for i := range docs {
		if err := s.Index(&docs[i]); err != nil {
			return err
		}
	}

	return nil
}

// FindByID looks up a document by its ID.
func (s *InMemoryIndex) FindByID(id uuid.UUID) (*index.Document, error) {
	// Read lock allows other goroutines to perform reads by concurrently
	// acquiring other read locks.
	s.mu.RLock()
	defer s.mu.RUnlock()

	if doc, exists := s.docs[id.String()]; exists {
		return copyDoc(doc), nil
	}

	return nil, fmt.Errorf("find by ID: %w", index.ErrNotFound)
}

// Count returns the number of indexed documents.
func (s *InMemoryIndex) Count() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return uint64(len(s.docs))
}

// Snapshot serializes the indexed field names and the full current document
// collection. Documents are ordered by URL so repeated snapshots of the
// same corpus are byte-identical.
func (s *InMemoryIndex) Snapshot() *index.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]index.Document, 0, len(s.docs))
	for _, doc := range s.docs {
		docs = append(docs, *doc)
	}

	sort.Slice(docs, func(i, j int) bool {
		return docs[i].URL < docs[j].URL
	})

	return &index.Snapshot{
		Fields:    append([]string(nil), s.fields...),
		Documents: docs,
	}
}

// Search performs a fielded, boosted, fuzzy, prefix-capable look up based on
// query and returns a result iterator if successful or an error otherwise.
func (s *InMemoryIndex) Search(q index.Query) (index.Iterator, error) {
	searchReq := bleve.NewSearchRequest(s.makeBleveQuery(q.Expression))
	searchReq.SortBy([]string{"-_score"})
	searchReq.Size = batchSize
	searchReq.From = int(q.Offset)

	sr, err := s.idx.Search(searchReq)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	return &docIterator{
		idx:       s,
		searchReq: searchReq,
		searchRes: sr,
		cumIdx:    q.Offset,
	}, nil
}

// makeBleveQuery expands the raw expression into a disjunction of per-field
// term queries: an exact match plus a fuzzy match per term, and a prefix
// match for the final (possibly partial) term. A document matching any of
// the sub-queries is a candidate; additional matches increase its score.
func (s *InMemoryIndex) makeBleveQuery(expression string) query.Query {
	terms := strings.Fields(strings.ToLower(expression))

	var subQueries []query.Query

	for i, term := range terms {
		lastTerm := i == len(terms)-1

		for _, field := range s.fields {
			boost := fieldBoosts[field]
			if boost == 0 {
				boost = 1.0
			}

			match := bleve.NewMatchQuery(term)
			match.SetField(field)
			match.SetBoost(boost)
			subQueries = append(subQueries, match)

			if fuzz := fuzziness(term); fuzz > 0 {
				fuzzy := bleve.NewMatchQuery(term)
				fuzzy.SetField(field)
				fuzzy.SetBoost(boost)
				fuzzy.SetFuzziness(fuzz)
				subQueries = append(subQueries, fuzzy)
			}

			if lastTerm {
				prefix := bleve.NewPrefixQuery(term)
				prefix.SetField(field)
				prefix.SetBoost(boost)
				subQueries = append(subQueries, prefix)
			}
		}
	}

	if len(subQueries) == 0 {
		return bleve.NewMatchNoneQuery()
	}

	return bleve.NewDisjunctionQuery(subQueries...)
}

func fuzziness(term string) int {
	fuzz := int(fuzzinessFraction * float64(len(term)))
	if fuzz > maxFuzziness {
		return maxFuzziness
	}

	return fuzz
}

func copyDoc(doc *index.Document) *index.Document {
	dCopy := new(index.Document)
	*dCopy = *doc

	return dCopy
}

// makeBleveDoc maps a document onto the declared snapshot field names. Using
// a map rather than a struct keeps the indexed field names aligned with the
// lowercase names the snapshot declares.
func makeBleveDoc(doc *index.Document) map[string]interface{} {
	return map[string]interface{}{
		"title":       doc.Title,
		"description": doc.Description,
		"content":     doc.Content,
		"links":       doc.Links,
	}
}
