package quotastore

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"
)

type RedisQuotaStore struct {
	Client *redis.Client
}

var _ QuotaStore = (*RedisQuotaStore)(nil)

func NewRedisQuotaStore(redisURL string) (*RedisQuotaStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	// check redis connection
	_, err = rdb.Ping(context.TODO()).Result()
	if err != nil {
		return nil, err
	}
	return &RedisQuotaStore{Client: rdb}, nil
}

func (s *RedisQuotaStore) Get(ctx context.Context, orgID, userID, period string) (*QuotaRecord, error) {
	fields, err := s.Client.HGetAll(ctx, quotaKey(orgID, userID, period)).Result()
	if err != nil {
		return nil, err
	}
	return parseQuotaFields(fields), nil
}

func (s *RedisQuotaStore) Put(ctx context.Context, orgID, userID, period string, rec QuotaRecord) error {
	key := quotaKey(orgID, userID, period)

	vals := map[string]string{
		fieldTextGenerations:  strconv.FormatInt(rec.TextGenerations, 10),
		fieldImageGenerations: strconv.FormatInt(rec.ImageGenerations, 10),
		fieldTotalTokens:      strconv.FormatInt(rec.TotalTokens, 10),
		fieldPeriodStart:      rec.PeriodStart,
		fieldPeriodEnd:        rec.PeriodEnd,
	}
	// nil limits mean unlimited and are stored as absent fields
	if rec.LimitTextGenerations != nil {
		vals[fieldLimitTextGenerations] = strconv.FormatInt(*rec.LimitTextGenerations, 10)
	}
	if rec.LimitImageGenerations != nil {
		vals[fieldLimitImageGenerations] = strconv.FormatInt(*rec.LimitImageGenerations, 10)
	}
	if rec.LimitTokens != nil {
		vals[fieldLimitTokens] = strconv.FormatInt(*rec.LimitTokens, 10)
	}

	// write all fields and set the TTL in a single redis round-trip
	multi := s.Client.Pipeline()
	multi.HSet(ctx, key, vals)
	multi.Expire(ctx, key, QuotaTTL)
	_, err := multi.Exec(ctx)
	return err
}

func (s *RedisQuotaStore) Increment(ctx context.Context, orgID, userID, period string, d Deltas) error {
	if d.IsZero() {
		return nil
	}
	key := quotaKey(orgID, userID, period)

	// HINCRBY on an absent field initializes it to zero first, so increments
	// are safe even before Put has populated the hash
	multi := s.Client.Pipeline()
	if d.TextGenerations != 0 {
		multi.HIncrBy(ctx, key, fieldTextGenerations, d.TextGenerations)
	}
	if d.ImageGenerations != 0 {
		multi.HIncrBy(ctx, key, fieldImageGenerations, d.ImageGenerations)
	}
	if d.TotalTokens != 0 {
		multi.HIncrBy(ctx, key, fieldTotalTokens, d.TotalTokens)
	}
	multi.Expire(ctx, key, QuotaTTL)
	_, err := multi.Exec(ctx)
	return err
}

func (s *RedisQuotaStore) Purge(ctx context.Context, orgID, userID, period string) error {
	return s.Client.Del(ctx, quotaKey(orgID, userID, period)).Err()
}
