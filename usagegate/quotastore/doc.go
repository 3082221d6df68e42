// Component for tracking per-organization usage counters as a structured hash cache.
//
// The hash caches the full quota record (counters plus plan limits) so callers avoid re-deriving it from the database on every check, and supports atomic per-field increments so concurrent generations never lose updates. Mutual exclusion is delegated entirely to the store's atomic increment primitive; there is no client-side locking.
package quotastore
