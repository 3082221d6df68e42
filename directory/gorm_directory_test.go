package directory

import (
	"context"
	"testing"

	"github.com/lettercraft/lettercraft/usagegate/rollout"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testDirectory(t *testing.T) *GormDirectory {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	dir, err := NewGormDirectory(db)
	require.NoError(t, err)
	return dir
}

func TestGormDirectoryMembership(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	dir := testDirectory(t)

	assert.NoError(dir.db.Create(&Membership{UserID: "u1", OrgID: "o1", Role: "owner"}).Error)

	ok, err := dir.LookupMembership(ctx, "u1", "o1")
	assert.NoError(err)
	assert.True(ok)

	ok, err = dir.LookupMembership(ctx, "u1", "o2")
	assert.NoError(err)
	assert.False(ok)
}

func TestGormDirectoryBrandKit(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	dir := testDirectory(t)

	_, err := dir.LookupBrandKit(ctx, "o1")
	assert.ErrorIs(err, ErrNotFound)

	assert.NoError(dir.db.Create(&OrgBrandKit{
		OrgID:        "o1",
		Name:         "Acme",
		PrimaryColor: "#ff0000",
		FontFamily:   "Inter",
	}).Error)

	bk, err := dir.LookupBrandKit(ctx, "o1")
	assert.NoError(err)
	assert.Equal("Acme", bk.Name)
	assert.Equal("#ff0000", bk.PrimaryColor)
}

func TestGormDirectoryQuotaPeriod(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	dir := testDirectory(t)

	limit := int64(75)
	assert.NoError(dir.db.Create(&OrgSettings{OrgID: "o1", LimitTextGenerations: &limit}).Error)

	// no usage yet: zero counters, plan limits, derived period bounds
	rec, err := dir.LookupQuotaPeriod(ctx, "o1", "", "2025-01")
	assert.NoError(err)
	assert.Equal(int64(0), rec.TextGenerations)
	assert.Equal(&limit, rec.LimitTextGenerations)
	assert.Nil(rec.LimitTokens)
	assert.Equal("2025-01-01", rec.PeriodStart)
	assert.Equal("2025-01-31", rec.PeriodEnd)

	assert.NoError(dir.db.Create(&UsagePeriod{
		OrgID:           "o1",
		Period:          "2025-01",
		TextGenerations: 12,
		TotalTokens:     3400,
		PeriodStart:     "2025-01-01",
		PeriodEnd:       "2025-01-31",
	}).Error)

	rec, err = dir.LookupQuotaPeriod(ctx, "o1", "", "2025-01")
	assert.NoError(err)
	assert.Equal(int64(12), rec.TextGenerations)
	assert.Equal(int64(3400), rec.TotalTokens)
	assert.Equal(&limit, rec.LimitTextGenerations)
}

func TestGormDirectoryRolloutOverride(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	dir := testDirectory(t)

	pin, err := dir.LookupRolloutOverride(ctx, "o1")
	assert.NoError(err)
	assert.Equal(rollout.PinNone, pin)

	assert.NoError(dir.SetRolloutOverride(ctx, "o1", rollout.PinV2))
	pin, err = dir.LookupRolloutOverride(ctx, "o1")
	assert.NoError(err)
	assert.Equal(rollout.PinV2, pin)

	assert.NoError(dir.SetRolloutOverride(ctx, "o1", rollout.PinNone))
	pin, err = dir.LookupRolloutOverride(ctx, "o1")
	assert.NoError(err)
	assert.Equal(rollout.PinNone, pin)
}

func TestPeriodBounds(t *testing.T) {
	assert := assert.New(t)

	start, end := periodBounds("2025-02")
	assert.Equal("2025-02-01", start)
	assert.Equal("2025-02-28", end)

	start, end = periodBounds("bogus")
	assert.Equal("", start)
	assert.Equal("", end)
}
