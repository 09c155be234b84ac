package nested

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// PosteriorSamples holds the weighted posterior draws and run diagnostics
// of one sampling run.
type PosteriorSamples struct {
	// Points are the recorded parameter vectors.
	Points [][]float64
	// LogWeights are normalized importance log-weights; their exponentials
	// sum to one.
	LogWeights []float64
	// LogZ is the log-evidence estimate and LogZErr its standard error.
	LogZ    float64
	LogZErr float64
	// ESS is the Kish effective sample size of the weighted draws.
	ESS float64
	// Calls is the number of likelihood evaluations spent.
	Calls int
}

// Mean returns the posterior mean of each parameter.
func (s *PosteriorSamples) Mean() []float64 {
	if len(s.Points) == 0 {
		return nil
	}

	dim := len(s.Points[0])
	w := make([]float64, len(s.LogWeights))

	for i, lw := range s.LogWeights {
		w[i] = math.Exp(lw)
	}

	mean := make([]float64, dim)
	col := make([]float64, len(s.Points))

	for d := 0; d < dim; d++ {
		for i, p := range s.Points {
			col[i] = p[d]
		}

		mean[d] = stat.Mean(col, w)
	}

	return mean
}

// logSumExp returns log(exp(a) + exp(b)) without overflow.
func logSumExp(a, b float64) float64 {
	if math.IsInf(a, -1) {
		return b
	}

	if math.IsInf(b, -1) {
		return a
	}

	m := math.Max(a, b)

	return m + math.Log(math.Exp(a-m)+math.Exp(b-m))
}
