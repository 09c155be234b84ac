package spectra

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTrapezoidMask(t *testing.T) {
	m := NewMatrix(6, 6,
		Calibration{Offset: 0, Width: 1000},    // Ex: 0..5000
		Calibration{Offset: 500, Width: 1000},  // Eg: 500..5500
	)

	mask := TrapezoidMask(m, 2000, 1000, 0)

	for i := 0; i < m.Rows; i++ {
		for j := 0; j < m.Cols; j++ {
			ex := m.Ex.Energy(i)
			eg := m.Eg.Energy(j)
			want := ex >= 2000 && eg >= 1000 && eg <= ex

			require.Equal(t, want, mask.Valid(i, j), "Ex=%g Eg=%g", ex, eg)
		}
	}
}

func TestTrapezoidMaskDiagonalTolerance(t *testing.T) {
	m := NewMatrix(4, 4,
		Calibration{Offset: 0, Width: 1000},
		Calibration{Offset: 0, Width: 1000},
	)

	tight := TrapezoidMask(m, 0, 0, 0)
	loose := TrapezoidMask(m, 0, 0, 1500)

	// Eg = Ex + 1000 violates conservation without tolerance but is kept
	// with a 1500 keV allowance.
	require.False(t, tight.Valid(1, 2))
	require.True(t, loose.Valid(1, 2))
}

func TestMaskCount(t *testing.T) {
	mask := NewMask(3, 3)
	require.Equal(t, 0, mask.Count())

	mask.Set(0, 0, true)
	mask.Set(2, 2, true)
	require.Equal(t, 2, mask.Count())

	require.Equal(t, 9, FullMask(3, 3).Count())
}
