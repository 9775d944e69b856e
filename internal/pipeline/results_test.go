package pipeline

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panelglot/panelglot/internal/detector"
	"github.com/panelglot/panelglot/internal/geometry"
	"github.com/panelglot/panelglot/internal/reconcile"
	"github.com/panelglot/panelglot/internal/translator"
)

func sampleResult() *Result {
	unit := translator.Unit{Text: "Hello", Confidence: 0.9, Index: 0}
	return &Result{
		Bubbles: []reconcile.Bubble{
			{
				Region: detector.TextRegion{
					Box:        geometry.Box{X0: 10, Y0: 10, X1: 110, Y1: 40},
					Text:       "こんにちは",
					Confidence: 0.95,
					Index:      0,
				},
				Translation: &unit,
				RenderBox:   geometry.Box{X0: 10, Y0: 10, X1: 110, Y1: 40},
			},
		},
		Settings:   Settings{SourceLang: "ja", TargetLang: "en", Tier: translator.TierBalanced},
		Status:     StatusReady,
		SourceSize: geometry.Size{Width: 800, Height: 1200},
		Viewport:   geometry.Size{Width: 800, Height: 1200},
		ComputedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestToJSONRoundTrip(t *testing.T) {
	res := sampleResult()
	s, err := ToJSON(res)
	require.NoError(t, err)

	var back Result
	require.NoError(t, json.Unmarshal([]byte(s), &back))
	assert.Equal(t, res.Status, back.Status)
	assert.Len(t, back.Bubbles, 1)
	assert.Equal(t, "Hello", back.Bubbles[0].Translation.Text)
}

func TestValidateResult(t *testing.T) {
	require.NoError(t, ValidateResult(sampleResult()))

	require.Error(t, ValidateResult(nil))

	bad := *sampleResult()
	bad.Status = StatusFailed
	require.Error(t, ValidateResult(&bad))

	bad = *sampleResult()
	bad.SourceSize = geometry.Size{}
	require.Error(t, ValidateResult(&bad))

	bad = *sampleResult()
	bad.ComputedAt = time.Time{}
	require.Error(t, ValidateResult(&bad))

	bad = *sampleResult()
	bad.Bubbles[0].Region.Box.X1 = 9000 // outside the source image
	require.Error(t, ValidateResult(&bad))
}

func TestValidateResultIndexAlignment(t *testing.T) {
	res := sampleResult()
	res.Bubbles[0].Translation.Index = 5
	require.Error(t, ValidateResult(res))
}

func TestForViewportScalesRenderBoxes(t *testing.T) {
	res := sampleResult()
	half := res.ForViewport(geometry.Size{Width: 400, Height: 600})

	// The canonical result is untouched.
	assert.Equal(t, geometry.Box{X0: 10, Y0: 10, X1: 110, Y1: 40}, res.Bubbles[0].RenderBox)

	assert.Equal(t, geometry.Box{X0: 5, Y0: 5, X1: 55, Y1: 20}, half.Bubbles[0].RenderBox)
	assert.Equal(t, geometry.Size{Width: 400, Height: 600}, half.Viewport)

	// Identical viewport returns the result as-is.
	same := res.ForViewport(res.Viewport)
	assert.Same(t, res, same)
}
