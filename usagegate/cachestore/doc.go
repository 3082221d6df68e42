// Component for caching arbitrary data (as JSON strings) with per-entry TTLs and explicit purging.
//
// Includes an interface and implementations using redis and in-process memory.
//
// This is used by the usage-gating engine to cache derived facts like organization membership and brand-kit data, improving latency and reducing load on the authoritative database. A key that is absent (or expired) reads as an empty string with a nil error: a miss is never an error, and a miss is indistinguishable from "never computed".
package cachestore
