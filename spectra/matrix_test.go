package spectra

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func testMatrix(t *testing.T) *Matrix {
	t.Helper()

	m := NewMatrix(3, 4,
		Calibration{Offset: 0, Width: 100},
		Calibration{Offset: 50, Width: 100},
	)
	for i := 0; i < m.Rows; i++ {
		for j := 0; j < m.Cols; j++ {
			m.Set(i, j, float64(i*10+j))
		}
	}

	return m
}

func TestMatrixValidate(t *testing.T) {
	m := testMatrix(t)
	require.NoError(t, m.Validate())

	tests := []struct {
		name   string
		mutate func(*Matrix)
		want   error
	}{
		{"nan value", func(m *Matrix) { m.Set(1, 1, math.NaN()) }, ErrNotFinite},
		{"inf value", func(m *Matrix) { m.Set(0, 0, math.Inf(1)) }, ErrNotFinite},
		{"negative value", func(m *Matrix) { m.Set(2, 3, -1) }, ErrNegativeCounts},
		{"zero width", func(m *Matrix) { m.Ex.Width = 0 }, ErrBadCalibration},
		{"sigma shape", func(m *Matrix) { m.Sigma = []float64{1, 2} }, ErrShapeMismatch},
		{"value shape", func(m *Matrix) { m.Values = m.Values[:5] }, ErrShapeMismatch},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			bad := testMatrix(t)
			tc.mutate(bad)
			require.ErrorIs(t, bad.Validate(), tc.want)
		})
	}
}

func TestMatrixCloneIsDeep(t *testing.T) {
	m := testMatrix(t)
	m.Sigma = make([]float64, len(m.Values))
	for i := range m.Sigma {
		m.Sigma[i] = 1
	}

	c := m.Clone()
	c.Set(0, 0, 999)
	c.Sigma[0] = 999

	require.Equal(t, 0.0, m.At(0, 0))
	require.Equal(t, 1.0, m.Sigma[0])
}

func TestMatrixSigmaFallback(t *testing.T) {
	m := testMatrix(t)

	// No uncertainty grid: counting estimate sqrt(v) with a one-count floor.
	require.Equal(t, 1.0, m.SigmaAt(0, 0))
	require.InDelta(t, math.Sqrt(12), m.SigmaAt(1, 2), 1e-12)

	m.Sigma = make([]float64, len(m.Values))
	m.Sigma[1*m.Cols+2] = 7

	require.Equal(t, 7.0, m.SigmaAt(1, 2))
}

func TestCalibrationRoundTrip(t *testing.T) {
	cal := Calibration{Offset: -300, Width: 40}

	for i := 0; i < 25; i++ {
		require.Equal(t, i, cal.Index(cal.Energy(i)))
	}

	require.Equal(t, 0, cal.Index(-310)) // nearest bin
}

func TestVectorScaleAndIntegral(t *testing.T) {
	v := &Vector{
		Values: []float64{1, 2, 3, 4},
		Sigma:  []float64{0.1, 0.2, 0.3, 0.4},
		Cal:    Calibration{Offset: 0, Width: 10},
	}

	s := v.Scale(2)
	require.Equal(t, []float64{2, 4, 6, 8}, s.Values)
	require.InDelta(t, 0.2, s.Sigma[0], 1e-12)
	require.Equal(t, 1.0, v.Values[0]) // input untouched

	// Bins at 0, 10, 20, 30; window picks the middle two.
	require.InDelta(t, (2+3)*10, v.Integral(5, 25), 1e-12)
}
