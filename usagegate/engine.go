package usagegate

import (
	"context"
	"log/slog"
	"time"

	"github.com/lettercraft/lettercraft/directory"
	"github.com/lettercraft/lettercraft/usagegate/cachestore"
	"github.com/lettercraft/lettercraft/usagegate/quotastore"
	"github.com/lettercraft/lettercraft/usagegate/ratelimit"
	"github.com/lettercraft/lettercraft/usagegate/rollout"
)

// Cache TTLs are chosen per the data's volatility and security sensitivity:
// membership is short because revoking access must propagate quickly;
// brand-kit data changes rarely and is purged explicitly on edit anyway.
const (
	membershipCacheTTL = 2 * time.Minute
	brandKitCacheTTL   = 10 * time.Minute
	brandGuideCacheTTL = 30 * time.Minute
)

// Runtime for gating template generations: cached membership and brand-kit
// facts, quota counters, rate limits, and the v1/v2 pipeline rollout.
//
// Cache, Quotas, and Limiter may each be nil, meaning "no cache configured";
// every path through the engine degrades to the authoritative directory in
// that case. The only hard dependency is the Directory.
type Engine struct {
	Logger    *slog.Logger
	Directory directory.Directory
	Cache     cachestore.CacheStore
	Quotas    quotastore.QuotaStore
	Limiter   ratelimit.Limiter
	Rollout   *rollout.Chooser

	// Flags sources the rollout configuration; it is invoked fresh on every
	// decision rather than captured at construction.
	Flags func() rollout.Flags

	// Per-identifier generation rate limits. Zero means unlimited.
	RateLimitPerMinute int64
	RateLimitPerDay    int64
}

// cacheGet reads through the cache store, degrading any failure (or an
// unconfigured store) to a miss. The bool reports whether a value was found.
func (e *Engine) cacheGet(ctx context.Context, name, key string) (string, bool) {
	if e.Cache == nil {
		return "", false
	}
	val, err := e.Cache.Get(ctx, name, key)
	if err != nil {
		e.Logger.Warn("cache read failed", "cache", name, "key", key, "err", err)
		cacheErrors.WithLabelValues(name, "get").Inc()
		return "", false
	}
	if val == "" {
		return "", false
	}
	return val, true
}

// cacheSet writes through the cache store; a failed write is logged and
// swallowed, never failing the enclosing request.
func (e *Engine) cacheSet(ctx context.Context, name, key, val string, ttl time.Duration) {
	if e.Cache == nil {
		return
	}
	if err := e.Cache.Set(ctx, name, key, val, ttl); err != nil {
		e.Logger.Warn("cache write failed", "cache", name, "key", key, "err", err)
		cacheErrors.WithLabelValues(name, "set").Inc()
	}
}

func (e *Engine) cachePurge(ctx context.Context, name, key string) {
	if e.Cache == nil {
		return
	}
	if err := e.Cache.Purge(ctx, name, key); err != nil {
		e.Logger.Warn("cache purge failed", "cache", name, "key", key, "err", err)
		cacheErrors.WithLabelValues(name, "purge").Inc()
	}
}

func (e *Engine) rolloutFlags() rollout.Flags {
	if e.Flags == nil {
		return rollout.Flags{}
	}
	return e.Flags()
}
