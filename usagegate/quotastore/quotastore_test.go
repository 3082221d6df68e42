package quotastore

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func int64ptr(v int64) *int64 {
	return &v
}

func TestMemQuotaStoreBasics(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	qs := NewMemQuotaStore()

	rec, err := qs.Get(ctx, "org1", "", "2025-01")
	assert.NoError(err)
	assert.Nil(rec)

	orig := QuotaRecord{
		TextGenerations:       10,
		ImageGenerations:      2,
		TotalTokens:           500,
		LimitTextGenerations:  int64ptr(75),
		LimitImageGenerations: int64ptr(20),
		LimitTokens:           nil,
		PeriodStart:           "2025-01-01",
		PeriodEnd:             "2025-01-31",
	}
	assert.NoError(qs.Put(ctx, "org1", "", "2025-01", orig))

	rec, err = qs.Get(ctx, "org1", "", "2025-01")
	assert.NoError(err)
	assert.Equal(&orig, rec)

	// a per-user aggregate is a different key from the org-wide one
	rec, err = qs.Get(ctx, "org1", "user1", "2025-01")
	assert.NoError(err)
	assert.Nil(rec)

	// and a new period is a new key
	rec, err = qs.Get(ctx, "org1", "", "2025-02")
	assert.NoError(err)
	assert.Nil(rec)

	assert.NoError(qs.Increment(ctx, "org1", "", "2025-01", Deltas{TextGenerations: 1}))
	rec, err = qs.Get(ctx, "org1", "", "2025-01")
	assert.NoError(err)
	assert.Equal(int64(11), rec.TextGenerations)
	assert.Equal(int64(2), rec.ImageGenerations)
	assert.Equal(int64(500), rec.TotalTokens)
	assert.Equal(int64ptr(75), rec.LimitTextGenerations)
	assert.Nil(rec.LimitTokens)
	assert.Equal("2025-01-01", rec.PeriodStart)
	assert.Equal("2025-01-31", rec.PeriodEnd)

	// incrementing only one field leaves the others alone
	assert.NoError(qs.Increment(ctx, "org1", "", "2025-01", Deltas{ImageGenerations: 1, TotalTokens: 120}))
	rec, err = qs.Get(ctx, "org1", "", "2025-01")
	assert.NoError(err)
	assert.Equal(int64(11), rec.TextGenerations)
	assert.Equal(int64(3), rec.ImageGenerations)
	assert.Equal(int64(620), rec.TotalTokens)

	assert.NoError(qs.Purge(ctx, "org1", "", "2025-01"))
	rec, err = qs.Get(ctx, "org1", "", "2025-01")
	assert.NoError(err)
	assert.Nil(rec)
}

func TestMemQuotaStoreIncrementBeforePut(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	qs := NewMemQuotaStore()

	// incrementing an absent hash initializes counters from zero
	assert.NoError(qs.Increment(ctx, "org2", "user2", "2025-03", Deltas{TextGenerations: 3}))
	rec, err := qs.Get(ctx, "org2", "user2", "2025-03")
	assert.NoError(err)
	assert.Equal(int64(3), rec.TextGenerations)
	assert.Equal(int64(0), rec.ImageGenerations)
	assert.Nil(rec.LimitTextGenerations)
}

func TestMemQuotaStoreConcurrentIncrements(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	qs := NewMemQuotaStore()

	// 50 concurrent increments of one field on the same key must sum exactly,
	// regardless of interleaving (run with `-race`!)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(qs.Increment(ctx, "org1", "", "2025-01", Deltas{TextGenerations: 1}))
		}()
	}
	wg.Wait()

	rec, err := qs.Get(ctx, "org1", "", "2025-01")
	assert.NoError(err)
	assert.Equal(int64(50), rec.TextGenerations)
}

func TestParseQuotaFields(t *testing.T) {
	assert := assert.New(t)

	// absent or empty hash reads as a miss
	assert.Nil(parseQuotaFields(nil))
	assert.Nil(parseQuotaFields(map[string]string{}))

	// missing counters default to zero, missing limits to unlimited
	rec := parseQuotaFields(map[string]string{
		fieldTextGenerations: "7",
		fieldLimitTokens:     "100000",
		fieldPeriodStart:     "2025-01-01",
	})
	assert.NotNil(rec)
	assert.Equal(int64(7), rec.TextGenerations)
	assert.Equal(int64(0), rec.ImageGenerations)
	assert.Equal(int64(0), rec.TotalTokens)
	assert.Nil(rec.LimitTextGenerations)
	assert.Equal(int64ptr(100000), rec.LimitTokens)
	assert.Equal("2025-01-01", rec.PeriodStart)
	assert.Equal("", rec.PeriodEnd)

	// garbage in a field is treated the same as the field being missing
	rec = parseQuotaFields(map[string]string{
		fieldTextGenerations:      "not-a-number",
		fieldLimitTextGenerations: "also-not",
	})
	assert.NotNil(rec)
	assert.Equal(int64(0), rec.TextGenerations)
	assert.Nil(rec.LimitTextGenerations)
}

func TestQuotaKey(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("quota:org1:user1:2025-01", quotaKey("org1", "user1", "2025-01"))
	assert.Equal("quota:org1:org:2025-01", quotaKey("org1", "", "2025-01"))
	assert.NotEqual(quotaKey("org1", "", "2025-01"), quotaKey("org1", "", "2025-02"))
}

func TestRedisQuotaStoreBasics(t *testing.T) {
	t.Skip("live test, need redis running locally")
	assert := assert.New(t)
	ctx := context.Background()

	qs, err := NewRedisQuotaStore("redis://localhost:6379/0")
	if err != nil {
		t.Fail()
	}

	assert.NoError(qs.Purge(ctx, "org1", "", "2025-01"))
	rec, err := qs.Get(ctx, "org1", "", "2025-01")
	assert.NoError(err)
	assert.Nil(rec)

	assert.NoError(qs.Put(ctx, "org1", "", "2025-01", QuotaRecord{
		TextGenerations:      10,
		LimitTextGenerations: int64ptr(75),
		PeriodStart:          "2025-01-01",
		PeriodEnd:            "2025-01-31",
	}))
	assert.NoError(qs.Increment(ctx, "org1", "", "2025-01", Deltas{TextGenerations: 1, TotalTokens: 300}))

	rec, err = qs.Get(ctx, "org1", "", "2025-01")
	assert.NoError(err)
	assert.Equal(int64(11), rec.TextGenerations)
	assert.Equal(int64(300), rec.TotalTokens)
	assert.Equal(int64ptr(75), rec.LimitTextGenerations)
	assert.NoError(qs.Purge(ctx, "org1", "", "2025-01"))
}
