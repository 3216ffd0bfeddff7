/*
	frontier package owns the crawl frontier for a single site: the set of
	discovered URLs awaiting selection, the per-URL visited timestamps that
	enforce the revisit window, and the shared document store. All state
	lives in an injected kvstore.Store so multiple crawl workers can mutate
	it concurrently through the store's atomic operations.
*/

package frontier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/juju/clock"

	"github.com/mycok/sitesearch/kvstore"
	"github.com/mycok/sitesearch/textindexer/index"
)

// Store keys owned exclusively by the frontier manager.
const (
	frontierKey  = "crawler:frontier"
	visitedKey   = "crawler:visited"
	cursorKey    = "crawler:cursor"
	docKeyPrefix = "crawler:doc:"
)

// DefaultRevisitWindow is the minimum elapsed time before a previously
// visited URL may be crawled again.
const DefaultRevisitWindow = 6 * time.Hour

// Visited timestamps are persisted in this layout.
const timestampLayout = time.RFC3339Nano

// Manager owns URL discovery, deduplication, revisit-interval enforcement
// and batch selection for crawl invocations.
type Manager struct {
	store         kvstore.Store
	clock         clock.Clock
	revisitWindow time.Duration
}

// New creates and returns a frontier manager backed by the provided store.
// A nil clk defaults to the wall clock; a non-positive revisitWindow
// defaults to DefaultRevisitWindow.
func New(store kvstore.Store, clk clock.Clock, revisitWindow time.Duration) *Manager {
	if clk == nil {
		clk = clock.WallClock
	}

	if revisitWindow <= 0 {
		revisitWindow = DefaultRevisitWindow
	}

	return &Manager{
		store:         store,
		clock:         clk,
		revisitWindow: revisitWindow,
	}
}

// Initialize ensures the frontier set exists with the correct type and adds
// seedURL if not already present. It is idempotent and safe to call on
// every invocation.
func (m *Manager) Initialize(ctx context.Context, seedURL string) error {
	keyType, err := m.store.Type(ctx, frontierKey)
	if err != nil {
		return fmt.Errorf("frontier: initialize: %w", err)
	}

	// Repair an unexpectedly typed key before seeding the set.
	if keyType != kvstore.TypeNone && keyType != "set" {
		if err = m.store.Del(ctx, frontierKey); err != nil {
			return fmt.Errorf("frontier: initialize: %w", err)
		}
	}

	if err = m.store.SAdd(ctx, frontierKey, seedURL); err != nil {
		return fmt.Errorf("frontier: initialize: %w", err)
	}

	return nil
}

// SelectBatch returns up to maxSize URLs currently in the frontier. It does
// not filter by revisit eligibility; eligibility is checked per-URL at fetch
// time via CanCrawl, because frontier membership and visited state are
// separate stores. Selection rotates through the sorted member list via a
// persisted cursor so no URL is starved indefinitely.
func (m *Manager) SelectBatch(ctx context.Context, maxSize int) ([]string, error) {
	members, err := m.store.SMembers(ctx, frontierKey)
	if err != nil {
		return nil, fmt.Errorf("frontier: select batch: %w", err)
	}

	if len(members) == 0 || maxSize <= 0 {
		return nil, nil
	}

	sort.Strings(members)

	offset := m.loadCursor(ctx) % len(members)

	if maxSize > len(members) {
		maxSize = len(members)
	}

	batch := make([]string, 0, maxSize)
	for i := 0; i < maxSize; i++ {
		batch = append(batch, members[(offset+i)%len(members)])
	}

	if err = m.storeCursor(ctx, (offset+maxSize)%len(members)); err != nil {
		return nil, fmt.Errorf("frontier: select batch: %w", err)
	}

	return batch, nil
}

// CanCrawl reports whether url has no recorded visit timestamp or the
// elapsed time since that timestamp has reached the revisit window. This is
// the sole crawl-throttling mechanism.
func (m *Manager) CanCrawl(ctx context.Context, url string) (bool, error) {
	value, err := m.store.HGet(ctx, visitedKey, url)
	if err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return true, nil
		}

		return false, fmt.Errorf("frontier: can crawl: %w", err)
	}

	visitedAt, err := time.Parse(timestampLayout, value)
	if err != nil {
		// An unparsable timestamp is treated as never visited so the URL
		// re-enters rotation instead of being wedged forever.
		return true, nil
	}

	return m.clock.Now().Sub(visitedAt) >= m.revisitWindow, nil
}

// MarkVisited records "now" as the visit timestamp for url regardless of
// fetch success or failure, so pathological URLs are not retried on every
// invocation.
func (m *Manager) MarkVisited(ctx context.Context, url string) error {
	timestamp := m.clock.Now().UTC().Format(timestampLayout)

	if err := m.store.HSet(ctx, visitedKey, url, timestamp); err != nil {
		return fmt.Errorf("frontier: mark visited: %w", err)
	}

	return nil
}

// EnqueueDiscovered adds newly discovered same-origin URLs to the frontier.
// Duplicates are absorbed by the store's set semantics.
func (m *Manager) EnqueueDiscovered(ctx context.Context, urls ...string) error {
	if len(urls) == 0 {
		return nil
	}

	if err := m.store.SAdd(ctx, frontierKey, urls...); err != nil {
		return fmt.Errorf("frontier: enqueue discovered: %w", err)
	}

	return nil
}

// PutDocument persists doc into the shared document store keyed by its
// stable ID.
func (m *Manager) PutDocument(ctx context.Context, doc *index.Document) error {
	if doc.ID == uuid.Nil {
		return fmt.Errorf("frontier: put document: %w", index.ErrMissingDocumentID)
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("frontier: put document: %w", err)
	}

	if err = m.store.Set(ctx, docKeyPrefix+doc.ID.String(), string(data)); err != nil {
		return fmt.Errorf("frontier: put document: %w", err)
	}

	return nil
}

// Document retrieves a previously stored document by its stable ID.
func (m *Manager) Document(ctx context.Context, id uuid.UUID) (*index.Document, error) {
	value, err := m.store.Get(ctx, docKeyPrefix+id.String())
	if err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return nil, fmt.Errorf("frontier: document: %w", index.ErrNotFound)
		}

		return nil, fmt.Errorf("frontier: document: %w", err)
	}

	doc := new(index.Document)
	if err = json.Unmarshal([]byte(value), doc); err != nil {
		return nil, fmt.Errorf("frontier: document: %w", err)
	}

	return doc, nil
}

func (m *Manager) loadCursor(ctx context.Context) int {
	value, err := m.store.Get(ctx, cursorKey)
	if err != nil {
		return 0
	}

	cursor, err := strconv.Atoi(value)
	if err != nil || cursor < 0 {
		return 0
	}

	return cursor
}

func (m *Manager) storeCursor(ctx context.Context, cursor int) error {
	return m.store.Set(ctx, cursorKey, strconv.Itoa(cursor))
}
