package index

import "github.com/google/uuid"

// Indexer should be implemented by objects that can index and search
// documents produced by the crawl pipeline.
type Indexer interface {
	// Index adds a new document or updates an existing index entry
	// in case of an existing document.
	Index(doc *Document) error

	// AddAll indexes a batch of documents. Each document must carry a
	// valid ID; the first invalid document aborts the batch.
	AddAll(docs []Document) error

	// FindByID looks up a document by its ID.
	FindByID(id uuid.UUID) (*Document, error)

	// Search performs a look up based on query and returns a result
	// iterator if successful or an error otherwise.
	Search(q Query) (Iterator, error)

	// Count returns the number of indexed documents.
	Count() uint64

	// Snapshot serializes the indexed field names and the full current
	// document collection.
	Snapshot() *Snapshot
}

// Iterator should be implemented by objects that can paginate search results.
type Iterator interface {
	// Next loads the next item, returns false when no more items
	// are available or when an error occurs.
	Next() bool

	// Error returns the last error encountered by the iterator.
	Error() error

	// Close releases any resources allocated to the iterator.
	Close() error

	// Document returns the current document from the result set.
	Document() *Document

	// Score returns the relevance score of the current document.
	Score() float64

	// TotalCount returns the approximated total number of search results.
	TotalCount() uint64
}

// Query defines properties for a search query. Terms are matched across all
// indexed fields with per-field boosts, edit-distance tolerance proportional
// to term length, and prefix matching for the final term. Documents matching
// any term are candidates; more matching terms increase the score.
type Query struct {
	// Expression holds the raw search terms.
	Expression string

	// Offset determines the cursor value for the indexer / pagination.
	Offset uint64
}
