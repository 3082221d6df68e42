// Deterministic percentage rollout of the v2 template-generation pipeline.
//
// Each organization is bucketed by a stable hash of its id, so decisions are reproducible across calls and restarts, ramping the percentage up never flips an already-enrolled org back to v1, and rolling back globally is a single kill-switch flag. Individual organizations can be pinned to either version through the directory.
package rollout
