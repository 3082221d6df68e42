package ratelimit

import (
	"context"
	"errors"
	"time"
)

// ErrRateLimitExceeded is the one error this subsystem deliberately lets
// propagate: request handlers catch it and turn it into a 429.
var ErrRateLimitExceeded = errors.New("rate limit exceeded")

// Window is a fixed rate-limit window. The counter key carries no timestamp;
// the window rolls because the key expires.
type Window string

const (
	WindowMinute Window = "minute"
	WindowDay    Window = "day"
)

func (w Window) TTL() time.Duration {
	switch w {
	case WindowMinute:
		return time.Minute
	case WindowDay:
		return 24 * time.Hour
	default:
		return time.Minute
	}
}

// Limiter counts events per identifier per window and reports when a limit
// is crossed. Allow increments first and then compares, so the event being
// admitted is itself counted.
type Limiter interface {
	// Allow returns ErrRateLimitExceeded when the incremented count passes
	// limit. A limit <= 0 means unlimited.
	Allow(ctx context.Context, identifier string, w Window, limit int64) error
}

func rateLimitKey(identifier string, w Window) string {
	return "ratelimit:" + identifier + ":" + string(w)
}
