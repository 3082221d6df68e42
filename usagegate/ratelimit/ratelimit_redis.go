package ratelimit

import (
	"context"

	"github.com/redis/go-redis/v9"
)

type RedisLimiter struct {
	Client *redis.Client
}

var _ Limiter = (*RedisLimiter)(nil)

func NewRedisLimiter(redisURL string) (*RedisLimiter, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	// check redis connection
	_, err = rdb.Ping(context.TODO()).Result()
	if err != nil {
		return nil, err
	}
	return &RedisLimiter{Client: rdb}, nil
}

func (l *RedisLimiter) Allow(ctx context.Context, identifier string, w Window, limit int64) error {
	if limit <= 0 {
		return nil
	}
	key := rateLimitKey(identifier, w)

	// increment and arm the window TTL in a single round-trip; ExpireNX only
	// fires on the first increment of a fresh window
	multi := l.Client.Pipeline()
	incr := multi.Incr(ctx, key)
	multi.ExpireNX(ctx, key, w.TTL())
	if _, err := multi.Exec(ctx); err != nil {
		return err
	}
	if incr.Val() > limit {
		return ErrRateLimitExceeded
	}
	return nil
}
