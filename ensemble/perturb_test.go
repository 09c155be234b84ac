package ensemble

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-oslo/spectra"
)

func flatMatrix(value float64) *spectra.Matrix {
	cal := spectra.Calibration{Offset: 0, Width: 100}
	m := spectra.NewMatrix(8, 8, cal, cal)

	for i := range m.Values {
		m.Values[i] = value
	}

	m.Values[0] = 0 // empty cell stays empty under every strategy

	return m
}

func TestPoissonPerturb(t *testing.T) {
	m := flatMatrix(400)

	out := Poisson{}.Perturb(m, rand.NewPCG(1, 2))
	require.Equal(t, 0.0, out.Values[0])
	require.Equal(t, 400.0, m.Values[1]) // input untouched

	var sum float64
	for _, v := range out.Values[1:] {
		require.GreaterOrEqual(t, v, 0.0)
		require.Equal(t, v, math.Trunc(v))
		sum += v
	}

	// 63 draws at lambda 400: the mean sits within a few standard errors.
	mean := sum / 63
	require.InDelta(t, 400, mean, 15)
}

func TestGaussianPerturb(t *testing.T) {
	m := flatMatrix(400)

	out := Gaussian{}.Perturb(m, rand.NewPCG(3, 4))
	require.Equal(t, 0.0, out.Values[0])

	var sum float64
	for _, v := range out.Values[1:] {
		require.GreaterOrEqual(t, v, 0.0)
		sum += v
	}

	require.InDelta(t, 400, sum/63, 15)
}

func TestPerturbDeterministicForSource(t *testing.T) {
	m := flatMatrix(250)

	a := Poisson{}.Perturb(m, rand.NewPCG(9, 0))
	b := Poisson{}.Perturb(m, rand.NewPCG(9, 0))
	c := Poisson{}.Perturb(m, rand.NewPCG(9, 1))

	require.Equal(t, a.Values, b.Values)
	require.NotEqual(t, a.Values, c.Values)
}
