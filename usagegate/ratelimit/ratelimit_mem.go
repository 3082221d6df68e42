package ratelimit

import (
	"context"
	"sync"
	"time"
)

type memWindow struct {
	count    int64
	expireAt time.Time
}

// In-process Limiter, for tests and for running without redis. Safe for
// concurrent use.
type MemLimiter struct {
	lk   sync.Mutex
	data map[string]*memWindow
}

var _ Limiter = (*MemLimiter)(nil)

func NewMemLimiter() *MemLimiter {
	return &MemLimiter{
		data: make(map[string]*memWindow),
	}
}

func (l *MemLimiter) Allow(ctx context.Context, identifier string, w Window, limit int64) error {
	if limit <= 0 {
		return nil
	}
	l.lk.Lock()
	defer l.lk.Unlock()
	key := rateLimitKey(identifier, w)
	win, ok := l.data[key]
	if !ok || time.Now().After(win.expireAt) {
		// window TTL is armed on the first increment only
		win = &memWindow{expireAt: time.Now().Add(w.TTL())}
		l.data[key] = win
	}
	win.count++
	if win.count > limit {
		return ErrRateLimitExceeded
	}
	return nil
}
