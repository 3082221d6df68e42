package rollout

import (
	"context"
	"log/slog"

	"github.com/cespare/xxhash/v2"
)

// Version identifies which generation pipeline an organization is served.
type Version string

const (
	VersionV1 Version = "v1"
	VersionV2 Version = "v2"
)

// Pin is a per-organization override persisted in the database, outranking
// the percentage ramp.
type Pin string

const (
	PinNone Pin = ""
	PinV1   Pin = "v1"
	PinV2   Pin = "v2"
)

// Flags is the process-wide rollout configuration. Callers read it fresh from
// config on every decision; it is never cached in-process.
type Flags struct {
	// Enabled is the master kill-switch; false serves v1 everywhere,
	// immediately, without consulting overrides.
	Enabled bool
	// Percentage of organizations (0-100) bucketed into v2.
	Percentage int
	// FallbackOnError lets the caller retry a failed v2 generation on v1.
	FallbackOnError bool
}

// OverrideSource reads an organization's persisted rollout pin, typically
// from the relational directory.
type OverrideSource interface {
	LookupRolloutOverride(ctx context.Context, orgID string) (Pin, error)
}

// Bucket deterministically maps an organization into 0..99. The hash is a
// pure function of the id, so an org's bucket is stable across calls and
// process restarts, and raising the percentage never moves an org out of v2.
func Bucket(orgID string) int {
	return int(xxhash.Sum64String(orgID) % 100)
}

// Chooser assigns organizations to a pipeline version.
type Chooser struct {
	Logger *slog.Logger
	// Overrides may be nil, in which case the pin layer is skipped.
	Overrides OverrideSource
}

func NewChooser(logger *slog.Logger, overrides OverrideSource) *Chooser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chooser{
		Logger:    logger.With("component", "rollout"),
		Overrides: overrides,
	}
}

// Choose picks the pipeline version for an organization. Precedence:
// kill-switch, then persisted per-org pin, then the 0%/100% shortcuts, then
// the percentage bucket. A failed pin lookup logs and falls through to the
// bucket rather than failing the decision.
func (c *Chooser) Choose(ctx context.Context, orgID string, flags Flags) Version {
	if !flags.Enabled {
		return VersionV1
	}

	if c.Overrides != nil {
		pin, err := c.Overrides.LookupRolloutOverride(ctx, orgID)
		if err != nil {
			c.Logger.Error("rollout override lookup failed", "org", orgID, "err", err)
		} else if pin != PinNone {
			c.Logger.Info("rollout decision from override", "org", orgID, "pin", pin)
			return Version(pin)
		}
	}

	if flags.Percentage <= 0 {
		return VersionV1
	}
	if flags.Percentage >= 100 {
		return VersionV2
	}

	bucket := Bucket(orgID)
	version := VersionV1
	if bucket < flags.Percentage {
		version = VersionV2
	}
	c.Logger.Debug("rollout decision from bucket", "org", orgID, "bucket", bucket, "percentage", flags.Percentage, "version", version)
	return version
}
