package usagegate

import (
	"context"
	"time"

	"github.com/lettercraft/lettercraft/usagegate/quotastore"
	"github.com/lettercraft/lettercraft/usagegate/rollout"
)

// GenerationOutcome is the post-hoc metadata for one generation attempt.
type GenerationOutcome struct {
	OrgID            string
	UserID           string
	Period           string
	Kind             GenerationKind
	Version          rollout.Version
	PromptTokens     int64
	CompletionTokens int64
	Duration         time.Duration
	FallbackUsed     bool
	// ErrorMsg is set when the generation itself failed.
	ErrorMsg string
}

// RecordGeneration meters a finished generation: atomic counter increments
// on the quota hash, plus the outcome log and metrics. A failed increment is
// logged and swallowed; the design accepts eventual undercounting on cache
// failure over blocking users, since the database layer enforces
// authoritatively.
func (e *Engine) RecordGeneration(ctx context.Context, out GenerationOutcome) {
	if e.Quotas != nil && out.ErrorMsg == "" {
		d := quotastore.Deltas{
			TotalTokens: out.PromptTokens + out.CompletionTokens,
		}
		if out.Kind == KindImage {
			d.ImageGenerations = 1
		} else {
			d.TextGenerations = 1
		}
		if err := e.Quotas.Increment(ctx, out.OrgID, out.UserID, out.Period, d); err != nil {
			e.Logger.Warn("quota increment failed", "org", out.OrgID, "period", out.Period, "err", err)
			cacheErrors.WithLabelValues("quota", "increment").Inc()
		}
	}
	e.LogGenerationOutcome(out)
}

// LogGenerationOutcome emits the structured audit line and metrics for a
// generation attempt. Pure side effect, no stored state.
func (e *Engine) LogGenerationOutcome(out GenerationOutcome) {
	e.Logger.Info("generation outcome",
		"org", out.OrgID,
		"user", out.UserID,
		"kind", out.Kind,
		"version", out.Version,
		"promptTokens", out.PromptTokens,
		"completionTokens", out.CompletionTokens,
		"durationMs", out.Duration.Milliseconds(),
		"fallbackUsed", out.FallbackUsed,
		"err", out.ErrorMsg,
	)
	generationsRecorded.WithLabelValues(string(out.Version), string(out.Kind)).Inc()
	generationTokens.WithLabelValues(string(out.Version)).Add(float64(out.PromptTokens + out.CompletionTokens))
	if out.FallbackUsed {
		generationFallbacks.Inc()
	}
	if out.ErrorMsg != "" {
		generationFailures.WithLabelValues(string(out.Version)).Inc()
	}
}
