package index

import "errors"

var (
	// ErrNotFound is returned by the indexer when it attempts to look up
	// a document that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrMissingDocumentID is returned when an indexer attempts to index
	// a document with an invalid / missing document ID.
	ErrMissingDocumentID = errors.New("document has missing / invalid id")

	// ErrInvalidSnapshot is returned when a persisted snapshot does not
	// carry a well-formed field list and document list.
	ErrInvalidSnapshot = errors.New("snapshot is missing fields or documents")
)
