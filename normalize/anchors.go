package normalize

import (
	"errors"
	"fmt"
	"sort"
)

// Errors returned by the normalizer.
var (
	// ErrMissingAnchor indicates a required calibration constant is absent.
	ErrMissingAnchor = errors.New("normalize: required anchor is missing")
	// ErrCalibrationMismatch indicates no scale/slope combination brings the
	// level-density candidate within tolerance of the discrete levels.
	ErrCalibrationMismatch = errors.New("normalize: cannot match discrete levels within tolerance")
)

// Anchors carries the externally supplied calibration constants. Energies
// share the unit of the decomposed vectors (keV throughout the module).
type Anchors struct {
	// LevelEnergies lists the known discrete levels. The cumulative count
	// N(E) used in the fit is the number of levels at or below E.
	LevelEnergies []float64
	// LevelRange is the [low, high] excitation window over which the
	// cumulative level count is fitted.
	LevelRange [2]float64
	// SeparationEnergy is the neutron separation energy Sn.
	SeparationEnergy float64
	// ResonanceSpacing is the average s-wave resonance spacing D0 at Sn.
	ResonanceSpacing float64
	// RadiativeWidth is the known average total radiative width at Sn, in
	// the same unit system as the transmission coefficient.
	RadiativeWidth float64
}

// Validate reports the first missing or inconsistent anchor.
func (a Anchors) Validate() error {
	if len(a.LevelEnergies) == 0 {
		return fmt.Errorf("%w: discrete level energies", ErrMissingAnchor)
	}

	if a.LevelRange[1] <= a.LevelRange[0] {
		return fmt.Errorf("%w: level fit window", ErrMissingAnchor)
	}

	if a.SeparationEnergy <= 0 {
		return fmt.Errorf("%w: separation energy", ErrMissingAnchor)
	}

	if a.ResonanceSpacing <= 0 {
		return fmt.Errorf("%w: resonance spacing", ErrMissingAnchor)
	}

	if a.RadiativeWidth <= 0 {
		return fmt.Errorf("%w: radiative width", ErrMissingAnchor)
	}

	return nil
}

// CumulativeLevels returns the number of known discrete levels at or below
// energy e.
func (a Anchors) CumulativeLevels(e float64) float64 {
	// LevelEnergies is small; sort a copy lazily would churn, so callers
	// are expected to pass them sorted. Handle the unsorted case anyway.
	if sort.Float64sAreSorted(a.LevelEnergies) {
		return float64(sort.SearchFloat64s(a.LevelEnergies, e+1e-9))
	}

	n := 0
	for _, le := range a.LevelEnergies {
		if le <= e {
			n++
		}
	}

	return float64(n)
}
