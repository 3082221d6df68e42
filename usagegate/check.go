package usagegate

import (
	"context"
	"errors"

	"github.com/lettercraft/lettercraft/directory"
	"github.com/lettercraft/lettercraft/usagegate/quotastore"
	"github.com/lettercraft/lettercraft/usagegate/ratelimit"
	"github.com/lettercraft/lettercraft/usagegate/rollout"

	"golang.org/x/sync/errgroup"
)

type GenerationKind string

const (
	KindText  GenerationKind = "text"
	KindImage GenerationKind = "image"
)

type CheckRequest struct {
	OrgID  string
	UserID string
	Kind   GenerationKind
	// Period is the usage period label, eg "2025-01".
	Period string
}

// CheckResult is the admission decision for one generation request, plus the
// facts a handler needs to run it: which pipeline version, and the brand kit
// to personalize with.
type CheckResult struct {
	Allowed bool `json:"allowed"`
	// Reason is set when Allowed is false.
	Reason          string                  `json:"reason,omitempty"`
	Version         rollout.Version         `json:"version,omitempty"`
	FallbackOnError bool                    `json:"fallbackOnError"`
	BrandKit        *directory.BrandKit     `json:"brandKit,omitempty"`
	Quota           *quotastore.QuotaRecord `json:"quota,omitempty"`
}

// CheckGeneration gates one generation request: membership, rate limit,
// quota ceiling, then the rollout decision. Cache failures anywhere along
// the way degrade to the directory; the only error a handler should branch
// on is ratelimit.ErrRateLimitExceeded (HTTP 429), everything else is an
// upstream failure.
func (e *Engine) CheckGeneration(ctx context.Context, req CheckRequest) (*CheckResult, error) {
	// membership and brand kit are independent lookups; fan out so a double
	// cache miss costs one round-trip of latency, not two
	var member bool
	var bk *directory.BrandKit
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		member, err = e.GetMembership(gctx, req.UserID, req.OrgID)
		return err
	})
	g.Go(func() error {
		var err error
		bk, err = e.GetBrandKit(gctx, req.OrgID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if !member {
		checksDenied.WithLabelValues("membership").Inc()
		return &CheckResult{Allowed: false, Reason: "user is not a member of the organization"}, nil
	}

	if e.Limiter != nil {
		ident := req.OrgID + ":" + req.UserID
		for _, w := range []struct {
			window ratelimit.Window
			limit  int64
		}{
			{ratelimit.WindowMinute, e.RateLimitPerMinute},
			{ratelimit.WindowDay, e.RateLimitPerDay},
		} {
			err := e.Limiter.Allow(ctx, ident, w.window, w.limit)
			if errors.Is(err, ratelimit.ErrRateLimitExceeded) {
				checksDenied.WithLabelValues("ratelimit").Inc()
				return nil, err
			}
			if err != nil {
				// limiter store failure fails open
				e.Logger.Warn("rate limit check failed, allowing", "identifier", ident, "window", w.window, "err", err)
			}
		}
	}

	quota, err := e.GetQuota(ctx, req.OrgID, req.UserID, req.Period)
	if err != nil {
		return nil, err
	}
	if reason := quotaExceeded(quota, req.Kind); reason != "" {
		checksDenied.WithLabelValues("quota").Inc()
		return &CheckResult{Allowed: false, Reason: reason, BrandKit: bk, Quota: quota}, nil
	}

	flags := e.rolloutFlags()
	version := e.Rollout.Choose(ctx, req.OrgID, flags)

	checksAllowed.Inc()
	return &CheckResult{
		Allowed:         true,
		Version:         version,
		FallbackOnError: flags.FallbackOnError,
		BrandKit:        bk,
		Quota:           quota,
	}, nil
}

func quotaExceeded(rec *quotastore.QuotaRecord, kind GenerationKind) string {
	switch kind {
	case KindImage:
		if rec.LimitImageGenerations != nil && rec.ImageGenerations >= *rec.LimitImageGenerations {
			return "image generation quota exceeded"
		}
	default:
		if rec.LimitTextGenerations != nil && rec.TextGenerations >= *rec.LimitTextGenerations {
			return "text generation quota exceeded"
		}
	}
	if rec.LimitTokens != nil && rec.TotalTokens >= *rec.LimitTokens {
		return "token quota exceeded"
	}
	return ""
}
