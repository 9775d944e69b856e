package translator

import (
	"fmt"
	"time"
)

// Tier is a named latency/cost/accuracy trade-off point for translation.
type Tier string

const (
	TierFast     Tier = "fast"
	TierBalanced Tier = "balanced"
	TierPremium  Tier = "premium"
)

// ParseTier validates and normalizes a tier string. Empty selects balanced.
func ParseTier(s string) (Tier, error) {
	switch Tier(s) {
	case TierFast, TierBalanced, TierPremium:
		return Tier(s), nil
	case "":
		return TierBalanced, nil
	default:
		return "", fmt.Errorf("unknown quality tier %q (want fast, balanced or premium)", s)
	}
}

// Backend describes the engine backend selected by a tier.
type Backend struct {
	Model          string        // model/backend identifier passed to the engine
	TargetLatency  time.Duration // expected per-batch latency envelope
	CostPerMillion float64       // rough cost per million source characters, USD
	Accuracy       string        // qualitative accuracy class
}

// BackendFor maps a tier to its backend. Pure function: adding a backend
// means extending this table, never touching callers.
func BackendFor(tier Tier) Backend {
	switch tier {
	case TierFast:
		return Backend{Model: "gpt-4o-mini", TargetLatency: 2 * time.Second, CostPerMillion: 0.15, Accuracy: "baseline"}
	case TierPremium:
		return Backend{Model: "gpt-4.1", TargetLatency: 15 * time.Second, CostPerMillion: 2.00, Accuracy: "highest"}
	default: // TierBalanced
		return Backend{Model: "gpt-4o", TargetLatency: 6 * time.Second, CostPerMillion: 0.60, Accuracy: "high"}
	}
}
