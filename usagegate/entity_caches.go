package usagegate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lettercraft/lettercraft/directory"
)

// Cache namespaces; keys within each are pure functions of identity.
const (
	cacheNameMembership = "membership"
	cacheNameBrandKit   = "brandkit"
	cacheNameBrandGuide = "brandguide"
)

func membershipCacheKey(userID, orgID string) string {
	return userID + ":" + orgID
}

// GetCachedMembership reads the cached membership fact. The second return
// reports whether the cache held a value; false is a miss, not a negative.
func (e *Engine) GetCachedMembership(ctx context.Context, userID, orgID string) (bool, bool) {
	val, ok := e.cacheGet(ctx, cacheNameMembership, membershipCacheKey(userID, orgID))
	if !ok {
		membershipCacheMisses.Inc()
		return false, false
	}
	membershipCacheHits.Inc()
	return val == "true", true
}

func (e *Engine) CacheMembership(ctx context.Context, userID, orgID string, member bool) {
	val := "false"
	if member {
		val = "true"
	}
	e.cacheSet(ctx, cacheNameMembership, membershipCacheKey(userID, orgID), val, membershipCacheTTL)
}

// GetMembership is the read-through membership check: cache first, then the
// authoritative directory, writing the answer back through the cache.
func (e *Engine) GetMembership(ctx context.Context, userID, orgID string) (bool, error) {
	if member, ok := e.GetCachedMembership(ctx, userID, orgID); ok {
		return member, nil
	}
	member, err := e.Directory.LookupMembership(ctx, userID, orgID)
	if err != nil {
		return false, fmt.Errorf("resolving membership: %w", err)
	}
	e.CacheMembership(ctx, userID, orgID, member)
	return member, nil
}

// GetCachedBrandKit reads the cached brand kit. A cached "null" is a real
// negative fact (org has no brand kit), distinct from a miss.
func (e *Engine) GetCachedBrandKit(ctx context.Context, orgID string) (*directory.BrandKit, bool) {
	val, ok := e.cacheGet(ctx, cacheNameBrandKit, orgID)
	if !ok {
		brandKitCacheMisses.Inc()
		return nil, false
	}
	var bk *directory.BrandKit
	if err := json.Unmarshal([]byte(val), &bk); err != nil {
		e.Logger.Warn("parsing brand kit from cache failed", "org", orgID, "err", err)
		brandKitCacheMisses.Inc()
		return nil, false
	}
	brandKitCacheHits.Inc()
	return bk, true
}

func (e *Engine) CacheBrandKit(ctx context.Context, orgID string, bk *directory.BrandKit) {
	val, err := json.Marshal(bk)
	if err != nil {
		e.Logger.Warn("serializing brand kit failed", "org", orgID, "err", err)
		return
	}
	e.cacheSet(ctx, cacheNameBrandKit, orgID, string(val), brandKitCacheTTL)
}

// PurgeBrandKit drops the cached brand kit outright. Called after brand-kit
// edits: generation must never use stale brand data, so we don't wait out
// the TTL.
func (e *Engine) PurgeBrandKit(ctx context.Context, orgID string) {
	e.cachePurge(ctx, cacheNameBrandKit, orgID)
}

// GetBrandKit is the read-through brand-kit lookup. An org without a brand
// kit returns (nil, nil), and that negative fact is cached too.
func (e *Engine) GetBrandKit(ctx context.Context, orgID string) (*directory.BrandKit, error) {
	if bk, ok := e.GetCachedBrandKit(ctx, orgID); ok {
		return bk, nil
	}
	bk, err := e.Directory.LookupBrandKit(ctx, orgID)
	if err != nil && !errors.Is(err, directory.ErrNotFound) {
		return nil, fmt.Errorf("resolving brand kit: %w", err)
	}
	e.CacheBrandKit(ctx, orgID, bk)
	return bk, nil
}

// GetCachedBrandGuidePreference reads the cached brand-guide preference.
func (e *Engine) GetCachedBrandGuidePreference(ctx context.Context, orgID string) (bool, bool) {
	val, ok := e.cacheGet(ctx, cacheNameBrandGuide, orgID)
	if !ok {
		return false, false
	}
	return val == "true", true
}

func (e *Engine) CacheBrandGuidePreference(ctx context.Context, orgID string, enabled bool) {
	val := "false"
	if enabled {
		val = "true"
	}
	e.cacheSet(ctx, cacheNameBrandGuide, orgID, val, brandGuideCacheTTL)
}

func (e *Engine) GetBrandGuidePreference(ctx context.Context, orgID string) (bool, error) {
	if enabled, ok := e.GetCachedBrandGuidePreference(ctx, orgID); ok {
		return enabled, nil
	}
	enabled, err := e.Directory.LookupBrandGuidePreference(ctx, orgID)
	if err != nil {
		return false, fmt.Errorf("resolving brand guide preference: %w", err)
	}
	e.CacheBrandGuidePreference(ctx, orgID, enabled)
	return enabled, nil
}
