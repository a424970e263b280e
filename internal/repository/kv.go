// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"errors"
	"sync"

	"socialdeck/internal/observability"

	"github.com/redis/go-redis/v9"
)

// KVStore is the per-user key/value persistence used for documents that are
// always rewritten whole.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// NewKVStore returns a Redis-backed store, or an in-process store when rdb is nil.
func NewKVStore(rdb *redis.Client) KVStore {
	if rdb == nil {
		return NewMemoryKVStore()
	}
	return &redisKVStore{rdb: rdb}
}

type redisKVStore struct {
	rdb *redis.Client
}

func (s *redisKVStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, span := observability.TraceRedisOperation(ctx, "get")
	defer span.End()

	b, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		observability.RecordError(span, err)
		return nil, false, err
	}
	return b, true, nil
}

func (s *redisKVStore) Set(ctx context.Context, key string, value []byte) error {
	ctx, span := observability.TraceRedisOperation(ctx, "set")
	defer span.End()

	err := s.rdb.Set(ctx, key, value, 0).Err()
	observability.RecordError(span, err)
	return err
}

func (s *redisKVStore) Delete(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}

// MemoryKVStore keeps values in process memory. Used when Redis is unavailable.
type MemoryKVStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryKVStore creates an empty in-process store.
func NewMemoryKVStore() *MemoryKVStore {
	return &MemoryKVStore{data: make(map[string][]byte)}
}

func (s *MemoryKVStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (s *MemoryKVStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	s.data[key] = v
	return nil
}

func (s *MemoryKVStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}
