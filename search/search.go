/*
	search package answers full-text queries against the persisted index
	snapshot. Every query rebuilds a transient in-memory index from the
	snapshot, so results always reflect the latest completed crawl pass and
	no index state survives between queries.
*/

package search

import (
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/mycok/sitesearch/textindexer/index"
	"github.com/mycok/sitesearch/textindexer/store/memory"
)

// Config encapsulates the settings for configuring the searcher.
type Config struct {
	// SnapshotPath is the index snapshot file location.
	SnapshotPath string

	// The logger to use. If not defined an output-discarding logger will
	// be used instead.
	Logger *logrus.Entry
}

func (config *Config) validate() error {
	var err error

	if config.SnapshotPath == "" {
		err = multierror.Append(err, fmt.Errorf("snapshot path not provided"))
	}

	if config.Logger == nil {
		config.Logger = logrus.NewEntry(&logrus.Logger{Out: io.Discard})
	}

	return err
}

// Result is a single ranked search hit.
type Result struct {
	ID          uuid.UUID `json:"id"`
	Score       float64   `json:"score"`
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Links       string    `json:"links"`
}

// Searcher executes ranked queries against the latest persisted snapshot.
type Searcher struct {
	config Config
}

// New creates and returns a searcher instance after validating the
// provided configuration.
func New(config Config) (*Searcher, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}

	return &Searcher{config: config}, nil
}

// Search returns the ranked results for query ordered by descending score.
// An all-whitespace query yields ErrEmptyQuery before any snapshot I/O; an
// absent or empty snapshot yields ErrNothingIndexed.
func (s *Searcher) Search(query string) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	snapshot := index.LoadSnapshotOrEmpty(s.config.SnapshotPath)
	if len(snapshot.Documents) == 0 {
		return nil, ErrNothingIndexed
	}

	idx, err := memory.NewFromSnapshot(snapshot)
	if err != nil {
		return nil, fmt.Errorf("search: rebuild index: %w", err)
	}
	defer func() { _ = idx.Close() }()

	it, err := idx.Search(index.Query{Expression: query})
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer func() { _ = it.Close() }()

	var results []Result
	for it.Next() {
		doc := it.Document()

		results = append(results, Result{
			ID:          doc.ID,
			Score:       it.Score(),
			URL:         doc.URL,
			Title:       doc.Title,
			Description: doc.Description,
			Links:       doc.Links,
		})
	}

	if err := it.Error(); err != nil {
		return nil, fmt.Errorf("search: iterate: %w", err)
	}

	s.config.Logger.WithFields(logrus.Fields{
		"query":   query,
		"results": len(results),
	}).Debug("executed search query")

	return results, nil
}
