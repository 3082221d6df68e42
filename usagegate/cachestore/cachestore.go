package cachestore

import (
	"context"
	"time"
)

type CacheStore interface {
	Get(ctx context.Context, name, key string) (string, error)
	Set(ctx context.Context, name, key, val string, ttl time.Duration) error
	Purge(ctx context.Context, name, key string) error
}
