package spectra

import (
	"errors"
	"fmt"
	"math"

	vecmath "github.com/cwbudde/algo-vecmath"
)

// Errors returned by container validation.
var (
	ErrEmptyGrid       = errors.New("spectra: grid has no bins")
	ErrShapeMismatch   = errors.New("spectra: value and uncertainty shapes differ")
	ErrBadCalibration  = errors.New("spectra: axis bin width must be positive")
	ErrNotFinite       = errors.New("spectra: values must be finite")
	ErrNegativeCounts  = errors.New("spectra: counts must be non-negative")
	ErrIndexOutOfRange = errors.New("spectra: index out of range")
)

// Matrix is a calibrated two-dimensional counts grid. Rows follow the
// excitation-energy axis, columns the gamma-energy axis. Values is row-major
// with length Rows*Cols. Sigma, when non-nil, holds the per-cell standard
// deviation and has the same shape.
type Matrix struct {
	Values []float64
	Sigma  []float64
	Rows   int
	Cols   int
	Ex     Calibration // row axis
	Eg     Calibration // column axis
}

// NewMatrix allocates a zeroed matrix with the given shape and calibrations.
func NewMatrix(rows, cols int, ex, eg Calibration) *Matrix {
	return &Matrix{
		Values: make([]float64, rows*cols),
		Rows:   rows,
		Cols:   cols,
		Ex:     ex,
		Eg:     eg,
	}
}

// At returns the value at row i, column j.
func (m *Matrix) At(i, j int) float64 {
	return m.Values[i*m.Cols+j]
}

// Set stores v at row i, column j.
func (m *Matrix) Set(i, j int, v float64) {
	m.Values[i*m.Cols+j] = v
}

// SigmaAt returns the uncertainty at row i, column j. When no uncertainty
// grid is present it falls back to sqrt(max(value, 1)), the usual counting
// estimate with a floor of one count.
func (m *Matrix) SigmaAt(i, j int) float64 {
	if m.Sigma != nil {
		return m.Sigma[i*m.Cols+j]
	}

	v := m.At(i, j)
	if v < 1 {
		v = 1
	}

	return math.Sqrt(v)
}

// Row returns the values of row i as a view into the underlying storage.
// The caller must not modify the returned slice.
func (m *Matrix) Row(i int) []float64 {
	return m.Values[i*m.Cols : (i+1)*m.Cols]
}

// Clone returns a deep copy of the matrix.
func (m *Matrix) Clone() *Matrix {
	out := &Matrix{
		Values: append([]float64(nil), m.Values...),
		Rows:   m.Rows,
		Cols:   m.Cols,
		Ex:     m.Ex,
		Eg:     m.Eg,
	}
	if m.Sigma != nil {
		out.Sigma = append([]float64(nil), m.Sigma...)
	}

	return out
}

// Sum returns the total number of counts in the matrix.
func (m *Matrix) Sum() float64 {
	return vecmath.Sum(m.Values)
}

// MaxAbs returns the largest absolute cell value.
func (m *Matrix) MaxAbs() float64 {
	return vecmath.MaxAbs(m.Values)
}

// Validate checks the container invariants: non-empty shape, positive bin
// widths, finite non-negative values, and a matching uncertainty shape when
// an uncertainty grid is present.
func (m *Matrix) Validate() error {
	if m.Rows <= 0 || m.Cols <= 0 || len(m.Values) == 0 {
		return ErrEmptyGrid
	}

	if len(m.Values) != m.Rows*m.Cols {
		return fmt.Errorf("%w: have %d values for %dx%d", ErrShapeMismatch, len(m.Values), m.Rows, m.Cols)
	}

	if m.Sigma != nil && len(m.Sigma) != len(m.Values) {
		return fmt.Errorf("%w: have %d sigma for %d values", ErrShapeMismatch, len(m.Sigma), len(m.Values))
	}

	if !m.Ex.Valid() || !m.Eg.Valid() {
		return ErrBadCalibration
	}

	for _, v := range m.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ErrNotFinite
		}

		if v < 0 {
			return ErrNegativeCounts
		}
	}

	for _, s := range m.Sigma {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return ErrNotFinite
		}
	}

	return nil
}
