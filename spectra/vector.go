package spectra

import (
	"fmt"
	"math"

	vecmath "github.com/cwbudde/algo-vecmath"
)

// Vector is a calibrated one-dimensional histogram, used for the level
// density rho(Ex) and the transmission coefficient T(Eg). Sigma, when
// non-nil, holds per-bin standard deviations.
type Vector struct {
	Values []float64
	Sigma  []float64
	Cal    Calibration
}

// NewVector allocates a zeroed vector with n bins and the given calibration.
func NewVector(n int, cal Calibration) *Vector {
	return &Vector{
		Values: make([]float64, n),
		Cal:    cal,
	}
}

// Len returns the number of bins.
func (v *Vector) Len() int {
	return len(v.Values)
}

// Energy returns the center energy of bin i.
func (v *Vector) Energy(i int) float64 {
	return v.Cal.Energy(i)
}

// Clone returns a deep copy of the vector.
func (v *Vector) Clone() *Vector {
	out := &Vector{
		Values: append([]float64(nil), v.Values...),
		Cal:    v.Cal,
	}
	if v.Sigma != nil {
		out.Sigma = append([]float64(nil), v.Sigma...)
	}

	return out
}

// Sum returns the sum of all bin values.
func (v *Vector) Sum() float64 {
	return vecmath.Sum(v.Values)
}

// Scale returns a copy of the vector with every value (and uncertainty)
// multiplied by factor.
func (v *Vector) Scale(factor float64) *Vector {
	out := v.Clone()
	vecmath.ScaleBlock(out.Values, v.Values, factor)

	if out.Sigma != nil {
		vecmath.ScaleBlock(out.Sigma, v.Sigma, math.Abs(factor))
	}

	return out
}

// Integral returns the trapezoid-free histogram integral sum(values)*width
// over the bins whose center energies fall inside [lo, hi].
func (v *Vector) Integral(lo, hi float64) float64 {
	var sum float64

	for i, x := range v.Values {
		e := v.Cal.Energy(i)
		if e < lo || e > hi {
			continue
		}

		sum += x
	}

	return sum * v.Cal.Width
}

// Validate checks that the vector is well formed and finite.
func (v *Vector) Validate() error {
	if len(v.Values) == 0 {
		return ErrEmptyGrid
	}

	if v.Sigma != nil && len(v.Sigma) != len(v.Values) {
		return fmt.Errorf("%w: have %d sigma for %d values", ErrShapeMismatch, len(v.Sigma), len(v.Values))
	}

	if !v.Cal.Valid() {
		return ErrBadCalibration
	}

	for _, x := range v.Values {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return ErrNotFinite
		}
	}

	return nil
}
