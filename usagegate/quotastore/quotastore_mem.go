package quotastore

import (
	"context"
	"sync"
	"time"
)

type memQuota struct {
	rec      QuotaRecord
	expireAt time.Time
}

// In-process QuotaStore, for tests and for running without redis. Safe for
// concurrent use; a single mutex stands in for the store's atomic increments.
type MemQuotaStore struct {
	lk   sync.Mutex
	data map[string]*memQuota
}

var _ QuotaStore = (*MemQuotaStore)(nil)

func NewMemQuotaStore() *MemQuotaStore {
	return &MemQuotaStore{
		data: make(map[string]*memQuota),
	}
}

func (s *MemQuotaStore) Get(ctx context.Context, orgID, userID, period string) (*QuotaRecord, error) {
	s.lk.Lock()
	defer s.lk.Unlock()
	q, ok := s.data[quotaKey(orgID, userID, period)]
	if !ok {
		return nil, nil
	}
	if time.Now().After(q.expireAt) {
		delete(s.data, quotaKey(orgID, userID, period))
		return nil, nil
	}
	rec := q.rec
	return &rec, nil
}

func (s *MemQuotaStore) Put(ctx context.Context, orgID, userID, period string, rec QuotaRecord) error {
	s.lk.Lock()
	defer s.lk.Unlock()
	s.data[quotaKey(orgID, userID, period)] = &memQuota{
		rec:      rec,
		expireAt: time.Now().Add(QuotaTTL),
	}
	return nil
}

func (s *MemQuotaStore) Increment(ctx context.Context, orgID, userID, period string, d Deltas) error {
	if d.IsZero() {
		return nil
	}
	s.lk.Lock()
	defer s.lk.Unlock()
	key := quotaKey(orgID, userID, period)
	q, ok := s.data[key]
	if !ok || time.Now().After(q.expireAt) {
		// incrementing an absent hash starts counters from zero
		q = &memQuota{}
		s.data[key] = q
	}
	q.rec.TextGenerations += d.TextGenerations
	q.rec.ImageGenerations += d.ImageGenerations
	q.rec.TotalTokens += d.TotalTokens
	q.expireAt = time.Now().Add(QuotaTTL)
	return nil
}

func (s *MemQuotaStore) Purge(ctx context.Context, orgID, userID, period string) error {
	s.lk.Lock()
	defer s.lk.Unlock()
	delete(s.data, quotaKey(orgID, userID, period))
	return nil
}
