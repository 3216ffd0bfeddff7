package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/mycok/sitesearch/kvstore"
)

// Static and compile-time check to ensure RedisStore implements
// kvstore.Store interface.
var _ kvstore.Store = (*RedisStore)(nil)

// RedisStore is a kvstore.Store implementation backed by a redis server.
// It relies on redis commands being individually atomic, which matches
// the guarantees the crawl components expect from a shared store.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore instantiates and returns a store connected to the redis
// server at addr. The connection is verified with a ping before use so
// that store unavailability surfaces at start-up rather than mid-crawl.
func NewRedisStore(ctx context.Context, addr string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis store: ping %q: %w", addr, err)
	}

	return &RedisStore{client: client}, nil
}

// Close releases the underlying client connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// SAdd inserts the provided members into the set stored at key.
func (s *RedisStore) SAdd(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}

	args := make([]interface{}, len(members))
	for i, m := range members {
		args[i] = m
	}

	if err := s.client.SAdd(ctx, key, args...).Err(); err != nil {
		return fmt.Errorf("sadd: %w", err)
	}

	return nil
}

// SMembers returns all members of the set stored at key.
func (s *RedisStore) SMembers(ctx context.Context, key string) ([]string, error) {
	members, err := s.client.SMembers(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("smembers: %w", err)
	}

	return members, nil
}

// HSet stores value under field in the hash stored at key.
func (s *RedisStore) HSet(ctx context.Context, key, field, value string) error {
	if err := s.client.HSet(ctx, key, field, value).Err(); err != nil {
		return fmt.Errorf("hset: %w", err)
	}

	return nil
}

// HGet returns the value stored under field in the hash stored at key.
func (s *RedisStore) HGet(ctx context.Context, key, field string) (string, error) {
	value, err := s.client.HGet(ctx, key, field).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", fmt.Errorf("hget: %w", kvstore.ErrNotFound)
		}

		return "", fmt.Errorf("hget: %w", err)
	}

	return value, nil
}

// Set stores value under key, overwriting any previous value.
func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("set: %w", err)
	}

	return nil
}

// Get returns the value stored under key or kvstore.ErrNotFound.
func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", fmt.Errorf("get: %w", kvstore.ErrNotFound)
		}

		return "", fmt.Errorf("get: %w", err)
	}

	return value, nil
}

// Type reports the type of the value stored at key. Redis natively reports
// "none" for missing keys which matches kvstore.TypeNone.
func (s *RedisStore) Type(ctx context.Context, key string) (string, error) {
	keyType, err := s.client.Type(ctx, key).Result()
	if err != nil {
		return "", fmt.Errorf("type: %w", err)
	}

	return keyType, nil
}

// Del removes the specified keys regardless of their type.
func (s *RedisStore) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("del: %w", err)
	}

	return nil
}
