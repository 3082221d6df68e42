package cachestore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemCacheStoreBasics(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	cs := NewMemCacheStore(100, time.Hour)

	v, err := cs.Get(ctx, "membership", "u1:o1")
	assert.NoError(err)
	assert.Equal("", v)

	assert.NoError(cs.Set(ctx, "membership", "u1:o1", "true", time.Minute))
	v, err = cs.Get(ctx, "membership", "u1:o1")
	assert.NoError(err)
	assert.Equal("true", v)

	// same key under a different namespace is a different entry
	v, err = cs.Get(ctx, "brandkit", "u1:o1")
	assert.NoError(err)
	assert.Equal("", v)

	// purge forces a miss before the TTL elapses
	assert.NoError(cs.Purge(ctx, "membership", "u1:o1"))
	v, err = cs.Get(ctx, "membership", "u1:o1")
	assert.NoError(err)
	assert.Equal("", v)

	// purging an absent key is fine
	assert.NoError(cs.Purge(ctx, "membership", "nope"))
}

func TestMemCacheStoreTTL(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	cs := NewMemCacheStore(100, time.Hour)

	assert.NoError(cs.Set(ctx, "membership", "u1:o1", "true", 30*time.Millisecond))
	v, err := cs.Get(ctx, "membership", "u1:o1")
	assert.NoError(err)
	assert.Equal("true", v)

	time.Sleep(50 * time.Millisecond)
	v, err = cs.Get(ctx, "membership", "u1:o1")
	assert.NoError(err)
	assert.Equal("", v)
}

func TestRedisCacheStoreBasics(t *testing.T) {
	t.Skip("live test, need redis running locally")
	assert := assert.New(t)
	ctx := context.Background()

	cs, err := NewRedisCacheStore("redis://localhost:6379/0", 10_000, time.Minute)
	if err != nil {
		t.Fail()
	}

	assert.NoError(cs.Set(ctx, "membership", "u1:o1", "true", time.Minute))
	v, err := cs.Get(ctx, "membership", "u1:o1")
	assert.NoError(err)
	assert.Equal("true", v)

	assert.NoError(cs.Purge(ctx, "membership", "u1:o1"))
	v, err = cs.Get(ctx, "membership", "u1:o1")
	assert.NoError(err)
	assert.Equal("", v)
}
