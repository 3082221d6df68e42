package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("turnstile")

var quotaResets = promauto.NewCounter(prometheus.CounterOpts{
	Name: "turnstile_quota_resets",
	Help: "Number of administrative quota cache resets",
})

var brandKitInvalidations = promauto.NewCounter(prometheus.CounterOpts{
	Name: "turnstile_brandkit_invalidations",
	Help: "Number of explicit brand-kit cache invalidations",
})

var rolloutPins = promauto.NewCounter(prometheus.CounterOpts{
	Name: "turnstile_rollout_pins",
	Help: "Number of rollout pin updates",
})
