package nested

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// Prior maps a unit-cube coordinate to a parameter value through the
// inverse CDF of the prior distribution.
type Prior interface {
	Transform(u float64) float64
}

// Uniform is a flat prior on [Min, Max].
type Uniform struct {
	Min, Max float64
}

// Transform implements [Prior].
func (p Uniform) Transform(u float64) float64 {
	return distuv.Uniform{Min: p.Min, Max: p.Max}.Quantile(clampUnit(u))
}

// LogUniform is a log-flat prior on [Min, Max], Min > 0. It is the usual
// choice for positive scale parameters.
type LogUniform struct {
	Min, Max float64
}

// Transform implements [Prior].
func (p LogUniform) Transform(u float64) float64 {
	lo := math.Log(p.Min)
	hi := math.Log(p.Max)

	return math.Exp(lo + clampUnit(u)*(hi-lo))
}

// Normal is a Gaussian prior with mean Mu and standard deviation Sigma.
type Normal struct {
	Mu, Sigma float64
}

// Transform implements [Prior].
func (p Normal) Transform(u float64) float64 {
	return distuv.Normal{Mu: p.Mu, Sigma: p.Sigma}.Quantile(clampUnit(u))
}

// clampUnit keeps quantile arguments strictly inside (0, 1) so transforms
// stay finite.
func clampUnit(u float64) float64 {
	const eps = 1e-12

	if u < eps {
		return eps
	}

	if u > 1-eps {
		return 1 - eps
	}

	return u
}
