package pipeline

import (
	"encoding/json"
	"fmt"
)

// ToJSON serializes a result for API responses and the CLI.
func ToJSON(res *Result) (string, error) {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal result: %w", err)
	}
	return string(data), nil
}

// ValidateResult is the sanity check applied to cached results on read.
// A failing result is treated as a cache miss and recomputed.
func ValidateResult(res *Result) error {
	if res == nil {
		return fmt.Errorf("nil result")
	}
	switch res.Status {
	case StatusReady, StatusPartial:
	default:
		return fmt.Errorf("unexpected cached status %q", res.Status)
	}
	if res.SourceSize.Width <= 0 || res.SourceSize.Height <= 0 {
		return fmt.Errorf("invalid source size %dx%d", res.SourceSize.Width, res.SourceSize.Height)
	}
	if res.ComputedAt.IsZero() {
		return fmt.Errorf("missing computation timestamp")
	}
	for i, b := range res.Bubbles {
		if err := b.Region.Box.Validate(); err != nil {
			return fmt.Errorf("bubble %d: %w", i, err)
		}
		if !b.Region.Box.Within(res.SourceSize) {
			return fmt.Errorf("bubble %d: source box outside image bounds", i)
		}
		if b.Translation != nil && b.Translation.Index != b.Region.Index {
			return fmt.Errorf("bubble %d: region/translation index mismatch", i)
		}
	}
	return nil
}
