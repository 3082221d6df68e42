package ratelimit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemLimiterBasics(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	l := NewMemLimiter()

	for i := 0; i < 3; i++ {
		assert.NoError(l.Allow(ctx, "org1:user1", WindowMinute, 3))
	}
	assert.ErrorIs(l.Allow(ctx, "org1:user1", WindowMinute, 3), ErrRateLimitExceeded)

	// other identifiers and windows are independent counters
	assert.NoError(l.Allow(ctx, "org1:user2", WindowMinute, 3))
	assert.NoError(l.Allow(ctx, "org1:user1", WindowDay, 100))

	// zero limit means unlimited
	for i := 0; i < 10; i++ {
		assert.NoError(l.Allow(ctx, "org2:user1", WindowMinute, 0))
	}
}

func TestRateLimitKey(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("ratelimit:org1:user1:minute", rateLimitKey("org1:user1", WindowMinute))
	assert.NotEqual(rateLimitKey("a", WindowMinute), rateLimitKey("a", WindowDay))
}

func TestRedisLimiterBasics(t *testing.T) {
	t.Skip("live test, need redis running locally")
	assert := assert.New(t)
	ctx := context.Background()

	l, err := NewRedisLimiter("redis://localhost:6379/0")
	if err != nil {
		t.Fail()
	}

	for i := 0; i < 3; i++ {
		assert.NoError(l.Allow(ctx, "test1", WindowMinute, 3))
	}
	assert.ErrorIs(l.Allow(ctx, "test1", WindowMinute, 3), ErrRateLimitExceeded)
}
