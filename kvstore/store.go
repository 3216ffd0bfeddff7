package kvstore

import "context"

// TypeNone is the type name reported for keys that do not exist.
const TypeNone = "none"

// Store should be implemented by objects that provide shared, atomically
// mutable key-value state for the crawl components. Each operation is
// individually atomic; callers must not rely on cross-operation transactions.
type Store interface {
	// SAdd inserts the provided members into the set stored at key,
	// creating the set if it does not exist. Already-present members
	// are silently absorbed.
	SAdd(ctx context.Context, key string, members ...string) error

	// SMembers returns all members of the set stored at key. A missing
	// key yields an empty slice.
	SMembers(ctx context.Context, key string) ([]string, error)

	// HSet stores value under field in the hash stored at key, creating
	// the hash if it does not exist.
	HSet(ctx context.Context, key, field, value string) error

	// HGet returns the value stored under field in the hash stored at
	// key. A missing key or field yields ErrNotFound.
	HGet(ctx context.Context, key, field string) (string, error)

	// Set stores value under key, overwriting any previous value.
	Set(ctx context.Context, key, value string) error

	// Get returns the value stored under key or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Type reports the type of the value stored at key as one of
	// "string", "set", "hash" or TypeNone for missing keys. It is used
	// for defensive schema repair of unexpectedly typed keys.
	Type(ctx context.Context, key string) (string, error)

	// Del removes the specified keys. Missing keys are ignored.
	Del(ctx context.Context, keys ...string) error
}
