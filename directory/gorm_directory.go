package directory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lettercraft/lettercraft/usagegate/quotastore"
	"github.com/lettercraft/lettercraft/usagegate/rollout"

	"gorm.io/gorm"
)

// Membership maps a user into an organization.
type Membership struct {
	UserID    string `gorm:"primaryKey"`
	OrgID     string `gorm:"primaryKey"`
	Role      string
	CreatedAt time.Time
}

// OrgBrandKit is the persisted brand-kit row for an organization.
type OrgBrandKit struct {
	OrgID          string `gorm:"primaryKey"`
	Name           string
	LogoURL        string
	PrimaryColor   string
	SecondaryColor string
	FontFamily     string
	ToneOfVoice    string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// OrgSettings holds per-organization gating configuration: the rollout pin,
// the brand-guide preference, and the plan's quota ceilings (null columns
// mean unlimited).
type OrgSettings struct {
	OrgID                 string `gorm:"primaryKey"`
	RolloutPin            string
	BrandGuideEnabled     bool `gorm:"default:false"`
	LimitTextGenerations  *int64
	LimitImageGenerations *int64
	LimitTokens           *int64
	UpdatedAt             time.Time
}

// UsagePeriod is the authoritative usage aggregate for one billing period.
// An empty UserID means the aggregate is org-wide.
type UsagePeriod struct {
	OrgID            string `gorm:"primaryKey"`
	UserID           string `gorm:"primaryKey"`
	Period           string `gorm:"primaryKey"`
	TextGenerations  int64
	ImageGenerations int64
	TotalTokens      int64
	PeriodStart      string
	PeriodEnd        string
}

// GormDirectory reads authoritative rows from the relational database.
type GormDirectory struct {
	db *gorm.DB
}

var _ Directory = (*GormDirectory)(nil)

func NewGormDirectory(db *gorm.DB) (*GormDirectory, error) {
	if err := db.AutoMigrate(&Membership{}, &OrgBrandKit{}, &OrgSettings{}, &UsagePeriod{}); err != nil {
		return nil, fmt.Errorf("migrating directory tables: %w", err)
	}
	return &GormDirectory{db: db}, nil
}

func (d *GormDirectory) LookupMembership(ctx context.Context, userID, orgID string) (bool, error) {
	var count int64
	if err := d.db.WithContext(ctx).Model(&Membership{}).Where("user_id = ? AND org_id = ?", userID, orgID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (d *GormDirectory) LookupBrandKit(ctx context.Context, orgID string) (*BrandKit, error) {
	var row OrgBrandKit
	if err := d.db.WithContext(ctx).First(&row, "org_id = ?", orgID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &BrandKit{
		OrgID:          row.OrgID,
		Name:           row.Name,
		LogoURL:        row.LogoURL,
		PrimaryColor:   row.PrimaryColor,
		SecondaryColor: row.SecondaryColor,
		FontFamily:     row.FontFamily,
		ToneOfVoice:    row.ToneOfVoice,
		UpdatedAt:      row.UpdatedAt,
	}, nil
}

func (d *GormDirectory) LookupBrandGuidePreference(ctx context.Context, orgID string) (bool, error) {
	settings, err := d.lookupSettings(ctx, orgID)
	if err != nil {
		return false, err
	}
	if settings == nil {
		return false, nil
	}
	return settings.BrandGuideEnabled, nil
}

func (d *GormDirectory) LookupQuotaPeriod(ctx context.Context, orgID, userID, period string) (*quotastore.QuotaRecord, error) {
	settings, err := d.lookupSettings(ctx, orgID)
	if err != nil {
		return nil, err
	}

	rec := quotastore.QuotaRecord{}
	if settings != nil {
		rec.LimitTextGenerations = settings.LimitTextGenerations
		rec.LimitImageGenerations = settings.LimitImageGenerations
		rec.LimitTokens = settings.LimitTokens
	}

	var row UsagePeriod
	err = d.db.WithContext(ctx).First(&row, "org_id = ? AND user_id = ? AND period = ?", orgID, userID, period).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if err == nil {
		rec.TextGenerations = row.TextGenerations
		rec.ImageGenerations = row.ImageGenerations
		rec.TotalTokens = row.TotalTokens
		rec.PeriodStart = row.PeriodStart
		rec.PeriodEnd = row.PeriodEnd
	} else {
		// no usage recorded yet this period; counters start at zero
		rec.PeriodStart, rec.PeriodEnd = periodBounds(period)
	}
	return &rec, nil
}

func (d *GormDirectory) LookupRolloutOverride(ctx context.Context, orgID string) (rollout.Pin, error) {
	settings, err := d.lookupSettings(ctx, orgID)
	if err != nil {
		return rollout.PinNone, err
	}
	if settings == nil {
		return rollout.PinNone, nil
	}
	switch settings.RolloutPin {
	case string(rollout.PinV1):
		return rollout.PinV1, nil
	case string(rollout.PinV2):
		return rollout.PinV2, nil
	default:
		return rollout.PinNone, nil
	}
}

// SetRolloutOverride upserts an organization's rollout pin. This is the one
// write surface the gating daemon exposes, for the admin pin endpoint.
func (d *GormDirectory) SetRolloutOverride(ctx context.Context, orgID string, pin rollout.Pin) error {
	settings := OrgSettings{OrgID: orgID}
	if err := d.db.WithContext(ctx).FirstOrCreate(&settings, OrgSettings{OrgID: orgID}).Error; err != nil {
		return err
	}
	return d.db.WithContext(ctx).Model(&OrgSettings{}).Where("org_id = ?", orgID).Update("rollout_pin", string(pin)).Error
}

func (d *GormDirectory) lookupSettings(ctx context.Context, orgID string) (*OrgSettings, error) {
	var settings OrgSettings
	if err := d.db.WithContext(ctx).First(&settings, "org_id = ?", orgID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &settings, nil
}

// periodBounds derives ISO-8601 period boundaries from a "YYYY-MM" period
// label. Unparseable labels leave the bounds empty rather than erroring.
func periodBounds(period string) (string, string) {
	t, err := time.Parse("2006-01", period)
	if err != nil {
		return "", ""
	}
	start := t
	end := t.AddDate(0, 1, -1)
	return start.Format(time.DateOnly), end.Format(time.DateOnly)
}
