package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/mycok/sitesearch/kvstore"
)

// Static and compile-time check to ensure InMemoryStore implements
// kvstore.Store interface.
var _ kvstore.Store = (*InMemoryStore)(nil)

// InMemoryStore is a kvstore.Store implementation backed by mutex-guarded
// maps. It is intended for tests and single-process deployments.
type InMemoryStore struct {
	mu      sync.RWMutex
	strings map[string]string
	sets    map[string]map[string]struct{}
	hashes  map[string]map[string]string
}

// NewInMemoryStore instantiates and returns an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		strings: make(map[string]string),
		sets:    make(map[string]map[string]struct{}),
		hashes:  make(map[string]map[string]string),
	}
}

// SAdd inserts the provided members into the set stored at key.
func (s *InMemoryStore) SAdd(ctx context.Context, key string, members ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkType(key, "set"); err != nil {
		return fmt.Errorf("sadd: %w", err)
	}

	set, exists := s.sets[key]
	if !exists {
		set = make(map[string]struct{})
		s.sets[key] = set
	}

	for _, m := range members {
		set[m] = struct{}{}
	}

	return nil
}

// SMembers returns all members of the set stored at key.
func (s *InMemoryStore) SMembers(ctx context.Context, key string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.checkType(key, "set"); err != nil {
		return nil, fmt.Errorf("smembers: %w", err)
	}

	members := make([]string, 0, len(s.sets[key]))
	for m := range s.sets[key] {
		members = append(members, m)
	}

	return members, nil
}

// HSet stores value under field in the hash stored at key.
func (s *InMemoryStore) HSet(ctx context.Context, key, field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkType(key, "hash"); err != nil {
		return fmt.Errorf("hset: %w", err)
	}

	hash, exists := s.hashes[key]
	if !exists {
		hash = make(map[string]string)
		s.hashes[key] = hash
	}

	hash[field] = value

	return nil
}

// HGet returns the value stored under field in the hash stored at key.
func (s *InMemoryStore) HGet(ctx context.Context, key, field string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.checkType(key, "hash"); err != nil {
		return "", fmt.Errorf("hget: %w", err)
	}

	value, exists := s.hashes[key][field]
	if !exists {
		return "", fmt.Errorf("hget: %w", kvstore.ErrNotFound)
	}

	return value, nil
}

// Set stores value under key, overwriting any previous value.
func (s *InMemoryStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkType(key, "string"); err != nil {
		return fmt.Errorf("set: %w", err)
	}

	s.strings[key] = value

	return nil
}

// Get returns the value stored under key or kvstore.ErrNotFound.
func (s *InMemoryStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.checkType(key, "string"); err != nil {
		return "", fmt.Errorf("get: %w", err)
	}

	value, exists := s.strings[key]
	if !exists {
		return "", fmt.Errorf("get: %w", kvstore.ErrNotFound)
	}

	return value, nil
}

// Type reports the type of the value stored at key.
func (s *InMemoryStore) Type(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.typeOf(key), nil
}

// Del removes the specified keys regardless of their type.
func (s *InMemoryStore) Del(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range keys {
		delete(s.strings, key)
		delete(s.sets, key)
		delete(s.hashes, key)
	}

	return nil
}

func (s *InMemoryStore) typeOf(key string) string {
	if _, exists := s.strings[key]; exists {
		return "string"
	}

	if _, exists := s.sets[key]; exists {
		return "set"
	}

	if _, exists := s.hashes[key]; exists {
		return "hash"
	}

	return kvstore.TypeNone
}

// checkType guards each operation against keys that already hold a value
// of a different type. Callers must hold at least a read lock.
func (s *InMemoryStore) checkType(key, want string) error {
	if current := s.typeOf(key); current != kvstore.TypeNone && current != want {
		return kvstore.ErrWrongType
	}

	return nil
}
