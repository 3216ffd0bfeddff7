package index

import (
	"time"

	"github.com/google/uuid"
)

// Document defines a web-page whose content has been successfully extracted
// and indexed.
type Document struct {
	// ID of the document. IDs are stable per URL so that re-crawling a
	// page replaces its index entry instead of duplicating it.
	ID uuid.UUID `json:"id"`

	// URL pointing to the source of the document content.
	URL string `json:"url"`

	// Title of the document (if available).
	Title string `json:"title"`

	// Description extracted from the page's meta-description tag.
	Description string `json:"description"`

	// Body of the document with headings concatenated ahead of the
	// visible body text.
	Content string `json:"content"`

	// Outgoing same-origin links serialized as "text (href)" pairs.
	Links string `json:"links"`

	// Last time the document was crawled.
	LastCrawled time.Time `json:"lastCrawled"`
}

// DocumentID derives the stable document ID for a page URL.
func DocumentID(url string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(url))
}
