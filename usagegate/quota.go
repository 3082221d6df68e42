package usagegate

import (
	"context"
	"fmt"

	"github.com/lettercraft/lettercraft/usagegate/quotastore"
)

// GetQuota is the read-through quota lookup: the cached hash first, then the
// authoritative directory record for the period, written back through the
// cache. Only this path puts limit fields into the cache; increments alone
// never do.
func (e *Engine) GetQuota(ctx context.Context, orgID, userID, period string) (*quotastore.QuotaRecord, error) {
	if e.Quotas != nil {
		rec, err := e.Quotas.Get(ctx, orgID, userID, period)
		if err != nil {
			e.Logger.Warn("quota cache read failed", "org", orgID, "period", period, "err", err)
			cacheErrors.WithLabelValues("quota", "get").Inc()
		} else if rec != nil {
			quotaCacheHits.Inc()
			return rec, nil
		} else {
			quotaCacheMisses.Inc()
		}
	}

	rec, err := e.Directory.LookupQuotaPeriod(ctx, orgID, userID, period)
	if err != nil {
		return nil, fmt.Errorf("resolving quota period: %w", err)
	}
	if e.Quotas != nil {
		if err := e.Quotas.Put(ctx, orgID, userID, period, *rec); err != nil {
			e.Logger.Warn("quota cache write failed", "org", orgID, "period", period, "err", err)
			cacheErrors.WithLabelValues("quota", "put").Inc()
		}
	}
	return rec, nil
}

// ResetQuota drops the cached quota hash, eg after an administrative or
// period reset. The next GetQuota re-derives the record from the directory.
func (e *Engine) ResetQuota(ctx context.Context, orgID, userID, period string) {
	if e.Quotas == nil {
		return
	}
	if err := e.Quotas.Purge(ctx, orgID, userID, period); err != nil {
		e.Logger.Warn("quota cache purge failed", "org", orgID, "period", period, "err", err)
		cacheErrors.WithLabelValues("quota", "purge").Inc()
	}
}
