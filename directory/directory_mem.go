package directory

import (
	"context"

	"github.com/lettercraft/lettercraft/usagegate/quotastore"
	"github.com/lettercraft/lettercraft/usagegate/rollout"
)

// In-process Directory, for tests. Err, when set, is returned by every
// lookup, to simulate a database outage.
type MemDirectory struct {
	Memberships map[string]bool
	BrandKits   map[string]*BrandKit
	BrandGuides map[string]bool
	Quotas      map[string]*quotastore.QuotaRecord
	Pins        map[string]rollout.Pin
	Err         error
}

var _ Directory = (*MemDirectory)(nil)

func NewMemDirectory() *MemDirectory {
	return &MemDirectory{
		Memberships: make(map[string]bool),
		BrandKits:   make(map[string]*BrandKit),
		BrandGuides: make(map[string]bool),
		Quotas:      make(map[string]*quotastore.QuotaRecord),
		Pins:        make(map[string]rollout.Pin),
	}
}

func (d *MemDirectory) LookupMembership(ctx context.Context, userID, orgID string) (bool, error) {
	if d.Err != nil {
		return false, d.Err
	}
	return d.Memberships[userID+":"+orgID], nil
}

func (d *MemDirectory) LookupBrandKit(ctx context.Context, orgID string) (*BrandKit, error) {
	if d.Err != nil {
		return nil, d.Err
	}
	bk, ok := d.BrandKits[orgID]
	if !ok {
		return nil, ErrNotFound
	}
	return bk, nil
}

func (d *MemDirectory) LookupBrandGuidePreference(ctx context.Context, orgID string) (bool, error) {
	if d.Err != nil {
		return false, d.Err
	}
	return d.BrandGuides[orgID], nil
}

func (d *MemDirectory) LookupQuotaPeriod(ctx context.Context, orgID, userID, period string) (*quotastore.QuotaRecord, error) {
	if d.Err != nil {
		return nil, d.Err
	}
	rec, ok := d.Quotas[orgID+":"+userID+":"+period]
	if !ok {
		return &quotastore.QuotaRecord{}, nil
	}
	cp := *rec
	return &cp, nil
}

func (d *MemDirectory) LookupRolloutOverride(ctx context.Context, orgID string) (rollout.Pin, error) {
	if d.Err != nil {
		return rollout.PinNone, d.Err
	}
	return d.Pins[orgID], nil
}
