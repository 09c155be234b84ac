package spectra

import "math"

// Calibration maps bin indices to energies along one axis: E(i) = Offset + Width*i.
// Energies are bin centers. Width must be positive.
type Calibration struct {
	Offset float64 // energy of bin 0, in keV
	Width  float64 // energy per bin, in keV
}

// Energy returns the center energy of bin i.
func (c Calibration) Energy(i int) float64 {
	return c.Offset + c.Width*float64(i)
}

// Index returns the bin whose center is closest to energy e.
// The result may be out of range for the grid the calibration belongs to.
func (c Calibration) Index(e float64) int {
	return int(math.Round((e - c.Offset) / c.Width))
}

// Valid reports whether the calibration has a positive bin width.
func (c Calibration) Valid() bool {
	return c.Width > 0 && !math.IsNaN(c.Offset) && !math.IsInf(c.Offset, 0)
}

// EqualWithin reports whether two calibrations agree within eps on both
// offset and bin width.
func (c Calibration) EqualWithin(other Calibration, eps float64) bool {
	return math.Abs(c.Offset-other.Offset) <= eps &&
		math.Abs(c.Width-other.Width) <= eps
}

// Energies returns the center energies of bins [0, n).
func (c Calibration) Energies(n int) []float64 {
	if n <= 0 {
		return nil
	}

	e := make([]float64, n)
	for i := range e {
		e[i] = c.Energy(i)
	}

	return e
}
