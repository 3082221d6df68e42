package directory

import (
	"context"
	"errors"
	"time"

	"github.com/lettercraft/lettercraft/usagegate/quotastore"
	"github.com/lettercraft/lettercraft/usagegate/rollout"
)

// ErrNotFound indicates the requested row does not exist. Callers treat it
// the same way as a negative fact (eg, no brand kit configured yet).
var ErrNotFound = errors.New("directory: not found")

// Brand-kit data an organization has configured for template generation.
// The whole object is cached as one JSON value; generation must never see a
// stale copy after an explicit edit, so edits purge the cache outright.
type BrandKit struct {
	OrgID          string    `json:"orgId"`
	Name           string    `json:"name"`
	LogoURL        string    `json:"logoUrl,omitempty"`
	PrimaryColor   string    `json:"primaryColor,omitempty"`
	SecondaryColor string    `json:"secondaryColor,omitempty"`
	FontFamily     string    `json:"fontFamily,omitempty"`
	ToneOfVoice    string    `json:"toneOfVoice,omitempty"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Directory is the authoritative read interface over the relational
// database: membership rows, brand-kit fields, plan limits, usage periods,
// and rollout pins. The gating subsystem only ever reads through it; writes
// belong to the application proper.
type Directory interface {
	LookupMembership(ctx context.Context, userID, orgID string) (bool, error)
	// LookupBrandKit returns ErrNotFound when the org has no brand kit.
	LookupBrandKit(ctx context.Context, orgID string) (*BrandKit, error)
	LookupBrandGuidePreference(ctx context.Context, orgID string) (bool, error)
	// LookupQuotaPeriod assembles the authoritative quota record for a
	// period: persisted usage counters plus the org's plan limits. A period
	// with no recorded usage yet returns a zero-counter record.
	LookupQuotaPeriod(ctx context.Context, orgID, userID, period string) (*quotastore.QuotaRecord, error)
	LookupRolloutOverride(ctx context.Context, orgID string) (rollout.Pin, error)
}
