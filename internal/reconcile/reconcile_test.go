package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panelglot/panelglot/internal/detector"
	"github.com/panelglot/panelglot/internal/geometry"
	"github.com/panelglot/panelglot/internal/translator"
)

var (
	src      = geometry.Size{Width: 800, Height: 1200}
	viewport = geometry.Size{Width: 400, Height: 600}
)

func region(i int, text string, conf float64, box geometry.Box) detector.TextRegion {
	return detector.TextRegion{Box: box, Text: text, Confidence: conf, Index: i}
}

func unit(i int, text string, conf float64) translator.Unit {
	return translator.Unit{Text: text, Confidence: conf, Index: i}
}

func TestReconcileHappyPath(t *testing.T) {
	regions := []detector.TextRegion{
		region(0, "こんにちは", 0.95, geometry.Box{X0: 100, Y0: 100, X1: 300, Y1: 160}),
		region(1, "どうしたの?", 0.88, geometry.Box{X0: 120, Y0: 700, X1: 360, Y1: 780}),
	}
	units := []translator.Unit{
		unit(0, "Hello", 0.95),
		unit(1, "What happened?", 0.88),
	}

	bubbles, err := Reconcile(regions, units, src, viewport, DefaultThresholds())
	require.NoError(t, err)
	require.Len(t, bubbles, 2)

	assert.Equal(t, "Hello", bubbles[0].Translation.Text)
	assert.Equal(t, "What happened?", bubbles[1].Translation.Text)

	// Per-axis scaling: viewport is half the source in both axes.
	assert.Equal(t, geometry.Box{X0: 50, Y0: 50, X1: 150, Y1: 80}, bubbles[0].RenderBox)

	// Output order matches input region order.
	assert.Equal(t, 0, bubbles[0].Region.Index)
	assert.Equal(t, 1, bubbles[1].Region.Index)
}

func TestReconcileDropsLowConfidencePairings(t *testing.T) {
	regions := []detector.TextRegion{
		region(0, "keep", 0.9, geometry.Box{X0: 0, Y0: 0, X1: 10, Y1: 10}),
		region(1, "low ocr", 0.4, geometry.Box{X0: 0, Y0: 20, X1: 10, Y1: 30}),
		region(2, "low translation", 0.9, geometry.Box{X0: 0, Y0: 40, X1: 10, Y1: 50}),
	}
	units := []translator.Unit{
		unit(0, "ok", 0.9),
		unit(1, "whatever", 0.9),
		unit(2, "shaky", 0.2),
	}

	bubbles, err := Reconcile(regions, units, src, viewport, DefaultThresholds())
	require.NoError(t, err)
	require.Len(t, bubbles, 1)
	assert.Equal(t, "keep", bubbles[0].Region.Text)

	// Every surviving bubble satisfies both thresholds.
	for _, b := range bubbles {
		assert.GreaterOrEqual(t, b.Region.Confidence, 0.5)
		if b.Translation != nil {
			assert.GreaterOrEqual(t, b.Translation.Confidence, 0.5)
		}
	}
}

func TestReconcileSentinelKeepsOriginalTextOnly(t *testing.T) {
	regions := []detector.TextRegion{
		region(0, "first", 0.9, geometry.Box{X0: 0, Y0: 0, X1: 10, Y1: 10}),
		region(1, "second", 0.9, geometry.Box{X0: 0, Y0: 20, X1: 10, Y1: 30}),
	}
	units := []translator.Unit{
		unit(0, "translated", 0.9),
		{Text: translator.FailedText, Confidence: 0, Index: 1, Failed: true},
	}

	bubbles, err := Reconcile(regions, units, src, viewport, DefaultThresholds())
	require.NoError(t, err)
	require.Len(t, bubbles, 2)

	assert.NotNil(t, bubbles[0].Translation)
	// The sentinel-padded pairing stays, rendered with original text only.
	assert.Nil(t, bubbles[1].Translation)
	assert.Equal(t, "second", bubbles[1].Region.Text)
}

func TestReconcileLengthMismatch(t *testing.T) {
	regions := []detector.TextRegion{region(0, "a", 0.9, geometry.Box{X0: 0, Y0: 0, X1: 1, Y1: 1})}
	_, err := Reconcile(regions, nil, src, viewport, DefaultThresholds())
	require.Error(t, err)
}

func TestReconcileInvalidSizes(t *testing.T) {
	_, err := Reconcile(nil, nil, geometry.Size{}, viewport, DefaultThresholds())
	require.Error(t, err)
	_, err = Reconcile(nil, nil, src, geometry.Size{Width: 10}, DefaultThresholds())
	require.Error(t, err)
}

func TestReconcileEmptyInputs(t *testing.T) {
	bubbles, err := Reconcile(nil, nil, src, viewport, DefaultThresholds())
	require.NoError(t, err)
	assert.Empty(t, bubbles)
}

func TestReconcileScaleRoundTrip(t *testing.T) {
	// Reconciling into a k-scaled viewport then scaling back by 1/k
	// reproduces the source box within floating-point tolerance.
	box := geometry.Box{X0: 33.5, Y0: 47.25, X1: 411.75, Y1: 296.5}
	regions := []detector.TextRegion{region(0, "r", 0.9, box)}
	units := []translator.Unit{unit(0, "t", 0.9)}

	big := geometry.Size{Width: src.Width * 3, Height: src.Height * 3}
	bubbles, err := Reconcile(regions, units, src, big, DefaultThresholds())
	require.NoError(t, err)
	require.Len(t, bubbles, 1)

	back := bubbles[0].RenderBox.Scale(1.0/3.0, 1.0/3.0)
	assert.InDelta(t, box.X0, back.X0, 1e-9)
	assert.InDelta(t, box.Y0, back.Y0, 1e-9)
	assert.InDelta(t, box.X1, back.X1, 1e-9)
	assert.InDelta(t, box.Y1, back.Y1, 1e-9)
}
