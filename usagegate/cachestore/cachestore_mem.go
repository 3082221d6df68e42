package cachestore

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type memEntry struct {
	val      string
	expireAt time.Time
}

// In-process CacheStore, for tests and for running without redis.
//
// The LRU handles capacity and background eviction; per-entry TTLs shorter
// than maxTTL are enforced on read.
type MemCacheStore struct {
	Data *expirable.LRU[string, memEntry]
}

var _ CacheStore = (*MemCacheStore)(nil)

func NewMemCacheStore(capacity int, maxTTL time.Duration) *MemCacheStore {
	return &MemCacheStore{
		Data: expirable.NewLRU[string, memEntry](capacity, nil, maxTTL),
	}
}

func (s *MemCacheStore) Get(ctx context.Context, name, key string) (string, error) {
	e, ok := s.Data.Get(name + ":" + key)
	if !ok {
		return "", nil
	}
	if time.Now().After(e.expireAt) {
		s.Data.Remove(name + ":" + key)
		return "", nil
	}
	return e.val, nil
}

func (s *MemCacheStore) Set(ctx context.Context, name, key, val string, ttl time.Duration) error {
	s.Data.Add(name+":"+key, memEntry{val: val, expireAt: time.Now().Add(ttl)})
	return nil
}

func (s *MemCacheStore) Purge(ctx context.Context, name, key string) error {
	s.Data.Remove(name + ":" + key)
	return nil
}
