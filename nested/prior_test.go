package nested

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUniformTransform(t *testing.T) {
	p := Uniform{Min: -5, Max: 5}

	require.InDelta(t, -5, p.Transform(0), 1e-9)
	require.InDelta(t, 0, p.Transform(0.5), 1e-12)
	require.InDelta(t, 5, p.Transform(1), 1e-9)

	// Monotone in u.
	prev := math.Inf(-1)
	for u := 0.0; u <= 1; u += 0.05 {
		v := p.Transform(u)
		require.Greater(t, v, prev)
		prev = v
	}
}

func TestLogUniformTransform(t *testing.T) {
	p := LogUniform{Min: 0.1, Max: 10}

	require.InDelta(t, 0.1, p.Transform(0), 1e-9)
	require.InDelta(t, 1, p.Transform(0.5), 1e-9)
	require.InDelta(t, 10, p.Transform(1), 1e-6)

	// Equal steps in u multiply the value by a constant factor.
	r1 := p.Transform(0.50) / p.Transform(0.25)
	r2 := p.Transform(0.75) / p.Transform(0.50)
	require.InDelta(t, r1, r2, 1e-9)
}

func TestNormalTransform(t *testing.T) {
	p := Normal{Mu: 3, Sigma: 2}

	require.InDelta(t, 3, p.Transform(0.5), 1e-12)

	// Central interval quantiles.
	lo := p.Transform(0.1587)
	hi := p.Transform(0.8413)
	require.InDelta(t, 1, lo, 0.01)
	require.InDelta(t, 5, hi, 0.01)

	// Clamped endpoints stay finite.
	require.False(t, math.IsInf(p.Transform(0), 0))
	require.False(t, math.IsInf(p.Transform(1), 0))
}
