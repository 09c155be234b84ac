package spectra

import (
	"encoding/gob"
	"fmt"
	"io"
)

// The codec stores containers as gob streams. Float64 payloads round-trip
// bit-exactly; values, uncertainties, and axis calibrations all survive a
// save/load cycle.

type matrixRecord struct {
	Values []float64
	Sigma  []float64
	Rows   int
	Cols   int
	Ex     Calibration
	Eg     Calibration
}

type vectorRecord struct {
	Values []float64
	Sigma  []float64
	Cal    Calibration
}

// WriteMatrix serializes m to w.
func WriteMatrix(w io.Writer, m *Matrix) error {
	rec := matrixRecord{
		Values: m.Values,
		Sigma:  m.Sigma,
		Rows:   m.Rows,
		Cols:   m.Cols,
		Ex:     m.Ex,
		Eg:     m.Eg,
	}
	if err := gob.NewEncoder(w).Encode(rec); err != nil {
		return fmt.Errorf("spectra: encode matrix: %w", err)
	}

	return nil
}

// ReadMatrix deserializes a matrix previously written with [WriteMatrix].
func ReadMatrix(r io.Reader) (*Matrix, error) {
	var rec matrixRecord
	if err := gob.NewDecoder(r).Decode(&rec); err != nil {
		return nil, fmt.Errorf("spectra: decode matrix: %w", err)
	}

	m := &Matrix{
		Values: rec.Values,
		Sigma:  rec.Sigma,
		Rows:   rec.Rows,
		Cols:   rec.Cols,
		Ex:     rec.Ex,
		Eg:     rec.Eg,
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}

	return m, nil
}

// WriteVector serializes v to w.
func WriteVector(w io.Writer, v *Vector) error {
	rec := vectorRecord{
		Values: v.Values,
		Sigma:  v.Sigma,
		Cal:    v.Cal,
	}
	if err := gob.NewEncoder(w).Encode(rec); err != nil {
		return fmt.Errorf("spectra: encode vector: %w", err)
	}

	return nil
}

// ReadVector deserializes a vector previously written with [WriteVector].
func ReadVector(r io.Reader) (*Vector, error) {
	var rec vectorRecord
	if err := gob.NewDecoder(r).Decode(&rec); err != nil {
		return nil, fmt.Errorf("spectra: decode vector: %w", err)
	}

	v := &Vector{
		Values: rec.Values,
		Sigma:  rec.Sigma,
		Cal:    rec.Cal,
	}
	if err := v.Validate(); err != nil {
		return nil, err
	}

	return v, nil
}
