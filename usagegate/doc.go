// Usage-gating engine for AI email-template generation.
//
// This package (`github.com/lettercraft/lettercraft/usagegate`) sits between request handlers and the relational database, deciding whether a generation request may proceed and which pipeline version serves it. It maintains read-through caches of derived facts (organization membership, brand-kit data, brand-guide preferences), a hash-structured cache of quota counters with atomic increments, windowed rate limits, and a deterministic percentage rollout of the v2 pipeline.
//
// The central design rule: the cache is always optional. Every store failure is caught, logged, and degraded to "go to the source of truth"; a cache outage costs latency, never a failed request. The one deliberate exception is ratelimit.ErrRateLimitExceeded, which propagates so handlers can return a 429.
//
// See `cmd/turnstile` for a daemon built on this package.
package usagegate
