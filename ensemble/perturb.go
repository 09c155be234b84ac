package ensemble

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/cwbudde/algo-oslo/spectra"
)

// Strategy draws a perturbed copy of a matrix, cell by cell, from the
// statistical distribution of the observed counts.
type Strategy interface {
	Perturb(m *spectra.Matrix, src rand.Source) *spectra.Matrix
}

// Poisson replaces every cell by a draw from Poisson(value). It is the
// natural choice for raw counting spectra.
type Poisson struct{}

// Perturb implements [Strategy].
func (Poisson) Perturb(m *spectra.Matrix, src rand.Source) *spectra.Matrix {
	out := m.Clone()

	for i, v := range m.Values {
		if v <= 0 {
			out.Values[i] = 0

			continue
		}

		out.Values[i] = distuv.Poisson{Lambda: v, Src: src}.Rand()
	}

	return out
}

// Gaussian replaces every cell by max(0, N(value, sqrt(value))), the
// Gaussian approximation to the counting distribution.
type Gaussian struct{}

// Perturb implements [Strategy].
func (Gaussian) Perturb(m *spectra.Matrix, src rand.Source) *spectra.Matrix {
	out := m.Clone()

	for i, v := range m.Values {
		if v <= 0 {
			out.Values[i] = 0

			continue
		}

		draw := distuv.Normal{Mu: v, Sigma: math.Sqrt(v), Src: src}.Rand()
		if draw < 0 {
			draw = 0
		}

		out.Values[i] = draw
	}

	return out
}
