package crawler

import "errors"

// ErrNothingIndexed is returned when an indexing pass completes without a
// single document in the resulting index. It distinguishes a broken
// indexing step from an invocation that crawled nothing.
var ErrNothingIndexed = errors.New("indexing produced an empty document collection")
