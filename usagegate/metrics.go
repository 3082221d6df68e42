package usagegate

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var membershipCacheHits = promauto.NewCounter(prometheus.CounterOpts{
	Name: "usagegate_membership_cache_hits",
	Help: "Number of cache hits for membership lookups",
})

var membershipCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
	Name: "usagegate_membership_cache_misses",
	Help: "Number of cache misses for membership lookups",
})

var brandKitCacheHits = promauto.NewCounter(prometheus.CounterOpts{
	Name: "usagegate_brandkit_cache_hits",
	Help: "Number of cache hits for brand-kit lookups",
})

var brandKitCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
	Name: "usagegate_brandkit_cache_misses",
	Help: "Number of cache misses for brand-kit lookups",
})

var quotaCacheHits = promauto.NewCounter(prometheus.CounterOpts{
	Name: "usagegate_quota_cache_hits",
	Help: "Number of cache hits for quota lookups",
})

var quotaCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
	Name: "usagegate_quota_cache_misses",
	Help: "Number of cache misses for quota lookups",
})

var cacheErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "usagegate_cache_errors",
	Help: "Number of cache store operations that failed open",
}, []string{"cache", "op"})

var checksAllowed = promauto.NewCounter(prometheus.CounterOpts{
	Name: "usagegate_checks_allowed",
	Help: "Number of generation checks that were admitted",
})

var checksDenied = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "usagegate_checks_denied",
	Help: "Number of generation checks that were denied",
}, []string{"reason"})

var generationsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "usagegate_generations_recorded",
	Help: "Number of generations metered, by pipeline version and kind",
}, []string{"version", "kind"})

var generationTokens = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "usagegate_generation_tokens",
	Help: "Total LLM tokens metered, by pipeline version",
}, []string{"version"})

var generationFallbacks = promauto.NewCounter(prometheus.CounterOpts{
	Name: "usagegate_generation_fallbacks",
	Help: "Number of generations that fell back from v2 to v1",
})

var generationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "usagegate_generation_failures",
	Help: "Number of failed generations recorded, by pipeline version",
}, []string{"version"})
