package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoxUnion(t *testing.T) {
	a := Box{X0: 10, Y0: 10, X1: 50, Y1: 30}
	b := Box{X0: 40, Y0: 20, X1: 90, Y1: 60}

	u := a.Union(b)
	assert.Equal(t, Box{X0: 10, Y0: 10, X1: 90, Y1: 60}, u)

	// Union with an empty box is the identity.
	assert.Equal(t, a, a.Union(Box{}))
	assert.Equal(t, a, Box{}.Union(a))
}

func TestBoxIntersects(t *testing.T) {
	tests := []struct {
		name string
		a, b Box
		want bool
	}{
		{"overlapping", Box{0, 0, 10, 10}, Box{5, 5, 15, 15}, true},
		{"disjoint", Box{0, 0, 10, 10}, Box{20, 20, 30, 30}, false},
		{"touching edges", Box{0, 0, 10, 10}, Box{10, 0, 20, 10}, false},
		{"contained", Box{0, 0, 100, 100}, Box{10, 10, 20, 20}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Intersects(tt.b))
			assert.Equal(t, tt.want, tt.b.Intersects(tt.a))
		})
	}
}

func TestBoxScaleRoundTrip(t *testing.T) {
	// Scaling by k then 1/k must return the original box within tolerance.
	orig := Box{X0: 13.5, Y0: 7.25, X1: 211.75, Y1: 96.5}
	for _, k := range []float64{0.25, 0.5, 1.0, 1.75, 3.0} {
		scaled := orig.Scale(k, k)
		back := scaled.Scale(1/k, 1/k)
		assert.InDelta(t, orig.X0, back.X0, 1e-9)
		assert.InDelta(t, orig.Y0, back.Y0, 1e-9)
		assert.InDelta(t, orig.X1, back.X1, 1e-9)
		assert.InDelta(t, orig.Y1, back.Y1, 1e-9)
	}
}

func TestBoxClamp(t *testing.T) {
	size := Size{Width: 100, Height: 50}
	b := Box{X0: -10, Y0: -5, X1: 150, Y1: 60}

	clamped := b.Clamp(size)
	assert.Equal(t, Box{X0: 0, Y0: 0, X1: 100, Y1: 50}, clamped)
	assert.True(t, clamped.Within(size))
}

func TestBoxValidate(t *testing.T) {
	require.NoError(t, Box{X0: 0, Y0: 0, X1: 10, Y1: 10}.Validate())
	require.Error(t, Box{X0: 10, Y0: 0, X1: 0, Y1: 10}.Validate())
}
