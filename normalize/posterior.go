package normalize

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-oslo/nested"
	"github.com/cwbudde/algo-oslo/spectra"
)

// Relative uncertainty assumed on the radiative-width anchor in the
// posterior likelihood.
const widthAnchorRelSigma = 0.1

// SamplePosterior replaces the point-estimate normalization with a full
// posterior over (A, alpha, B) explored by a nested-sampling backend.
//
// Priors are centered on the point estimate: log-uniform a decade either
// side for the scales, uniform for the slope with a half-width set by the
// rho grid span. The returned Solution is evaluated at the posterior mean.
// On [nested.ErrSamplerDivergence] the mean solution and samples are still
// returned together with the error, so callers may fall back to
// [Normalize].
func SamplePosterior(ctx context.Context, rho, t *spectra.Vector, anchors Anchors, sampler nested.Sampler, opts ...Option) (*Solution, *nested.PosteriorSamples, error) {
	point, err := Normalize(rho, t, anchors, opts...)
	if err != nil {
		return nil, nil, err
	}

	fit, err := newLevelFit(rho, anchors)
	if err != nil {
		return nil, nil, err
	}

	span := rho.Cal.Energy(rho.Len()-1) - rho.Cal.Energy(0)
	if span <= 0 {
		return nil, nil, fmt.Errorf("%w: degenerate rho grid", ErrMissingAnchor)
	}

	alphaHalfWidth := 2 / span

	priors := []nested.Prior{
		nested.LogUniform{Min: point.Params.A / 10, Max: point.Params.A * 10},
		nested.Uniform{
			Min: point.Params.Alpha - alphaHalfWidth,
			Max: point.Params.Alpha + alphaHalfWidth,
		},
		nested.LogUniform{Min: point.Params.B / 10, Max: point.Params.B * 10},
	}

	logLike := func(x []float64) float64 {
		a, alpha, b := x[0], x[1], x[2]

		chi := fit.residual(a, alpha)

		gbase, gerr := widthIntegral(rho, t, anchors, a, alpha)
		if gerr != nil {
			return math.Inf(-1)
		}

		d := (b*gbase - anchors.RadiativeWidth) / (widthAnchorRelSigma * anchors.RadiativeWidth)
		chi += d * d

		return -0.5 * chi
	}

	samples, sampleErr := sampler.Sample(ctx, logLike, priors)
	if sampleErr != nil && !errors.Is(sampleErr, nested.ErrSamplerDivergence) {
		return nil, nil, sampleErr
	}

	mean := samples.Mean()
	sol := &Solution{
		Rho:      transform(rho, mean[0], mean[1]),
		T:        transform(t, mean[2], mean[1]),
		Params:   Params{A: mean[0], Alpha: mean[1], B: mean[2]},
		Residual: math.Sqrt(fit.residual(mean[0], mean[1]) / float64(len(fit.bins))),
	}

	return sol, samples, sampleErr
}
