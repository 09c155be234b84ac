package normalize

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"

	"github.com/cwbudde/algo-oslo/spectra"
)

// Params holds the applied normalization constants.
type Params struct {
	A     float64 // multiplicative scale on rho
	Alpha float64 // common exponential slope, per energy unit
	B     float64 // multiplicative scale on T
}

// Solution is a (rho, T) pair in absolute physical units together with the
// transformation that produced it. Immutable once returned.
type Solution struct {
	Rho    *spectra.Vector
	T      *spectra.Vector
	Params Params
	// Residual is the RMS relative mismatch between the fitted cumulative
	// level density and the discrete-level staircase.
	Residual float64
}

// Normalize maps an unconstrained (rho, T) candidate pair to absolute units.
// A and alpha are fitted against the discrete-level staircase over the
// anchor window; B follows from the radiative-width anchor at the
// separation energy.
func Normalize(rho, t *spectra.Vector, anchors Anchors, opts ...Option) (*Solution, error) {
	cfg := ApplyOptions(opts...)

	if err := anchors.Validate(); err != nil {
		return nil, err
	}

	if err := rho.Validate(); err != nil {
		return nil, err
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}

	fit, err := newLevelFit(rho, anchors)
	if err != nil {
		return nil, err
	}

	a, alpha, rms, err := fit.solve(cfg)
	if err != nil {
		return nil, err
	}

	if rms > cfg.MatchTolerance {
		return nil, fmt.Errorf("%w: RMS mismatch %.3g exceeds %.3g",
			ErrCalibrationMismatch, rms, cfg.MatchTolerance)
	}

	gbase, err := widthIntegral(rho, t, anchors, a, alpha)
	if err != nil {
		return nil, err
	}

	b := anchors.RadiativeWidth / gbase

	return &Solution{
		Rho:      transform(rho, a, alpha),
		T:        transform(t, b, alpha),
		Params:   Params{A: a, Alpha: alpha, B: b},
		Residual: rms,
	}, nil
}

// transform returns scale * exp(slope*E) * v, bin by bin. Uncertainties are
// scaled by the same per-bin factor.
func transform(v *spectra.Vector, scale, slope float64) *spectra.Vector {
	out := v.Clone()

	for i := range out.Values {
		f := scale * math.Exp(slope*v.Cal.Energy(i))
		out.Values[i] = v.Values[i] * f

		if out.Sigma != nil {
			out.Sigma[i] = v.Sigma[i] * f
		}
	}

	return out
}

// levelFit is the (A, alpha) staircase-matching problem over the anchor
// window of the rho grid.
type levelFit struct {
	rho      *spectra.Vector
	bins     []int     // rho bins inside the fit window
	target   []float64 // cumulative discrete-level count at each window bin
	initialA float64
}

func newLevelFit(rho *spectra.Vector, anchors Anchors) (*levelFit, error) {
	lo, hi := anchors.LevelRange[0], anchors.LevelRange[1]

	f := &levelFit{rho: rho}

	for i := range rho.Values {
		e := rho.Cal.Energy(i)
		if e < lo || e > hi {
			continue
		}

		f.bins = append(f.bins, i)
		f.target = append(f.target, anchors.CumulativeLevels(e))
	}

	if len(f.bins) < 2 {
		return nil, fmt.Errorf("%w: level window [%g, %g] covers %d rho bins",
			ErrMissingAnchor, lo, hi, len(f.bins))
	}

	// Seed the scale so the raw cumulative integral meets the staircase at
	// the top of the window.
	last := f.bins[len(f.bins)-1]
	raw := rho.Integral(rho.Cal.Energy(0), rho.Cal.Energy(last))
	wantTop := f.target[len(f.target)-1]

	f.initialA = 1
	if raw > 0 && wantTop > 0 {
		f.initialA = wantTop / raw
	}

	return f, nil
}

// residual evaluates the summed squared relative staircase mismatch for a
// given scale and slope.
func (f *levelFit) residual(a, alpha float64) float64 {
	width := f.rho.Cal.Width

	var sum float64

	cum := 0.0
	next := 0

	for i := 0; i <= f.bins[len(f.bins)-1]; i++ {
		cum += a * math.Exp(alpha*f.rho.Cal.Energy(i)) * f.rho.Values[i] * width

		if next < len(f.bins) && i == f.bins[next] {
			want := f.target[next]

			den := want
			if den < 1 {
				den = 1
			}

			d := (cum - want) / den
			sum += d * d
			next++
		}
	}

	return sum
}

// solve runs a Nelder-Mead search over (ln A, alpha) and returns the best
// scale, slope, and RMS relative mismatch.
func (f *levelFit) solve(cfg Config) (a, alpha, rms float64, err error) {
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			return f.residual(math.Exp(x[0]), x[1])
		},
	}

	x0 := []float64{math.Log(f.initialA), 0}
	settings := &optimize.Settings{FuncEvaluations: cfg.MaxEvaluations}

	res, optErr := optimize.Minimize(problem, x0, settings, &optimize.NelderMead{})
	if optErr != nil && res == nil {
		return 0, 0, 0, fmt.Errorf("normalize: level fit failed: %w", optErr)
	}

	a = math.Exp(res.X[0])
	alpha = res.X[1]
	rms = math.Sqrt(res.F / float64(len(f.bins)))

	return a, alpha, rms, nil
}

// widthIntegral evaluates the model average radiative width at the
// separation energy for B = 1:
//
//	Gg(B=1) = (D0/2) * sum_j exp(alpha*Eg_j) * T_j * rhoHat(Sn - Eg_j) * dEg
//
// with rhoHat the (A, alpha)-transformed level density. The spin-parity
// population factor is taken as one; see DESIGN.md.
func widthIntegral(rho, t *spectra.Vector, anchors Anchors, a, alpha float64) (float64, error) {
	sn := anchors.SeparationEnergy

	var sum float64

	supported := 0

	for j := range t.Values {
		eg := t.Cal.Energy(j)
		if eg <= 0 || eg > sn {
			continue
		}

		k := rho.Cal.Index(sn - eg)
		if k < 0 || k >= rho.Len() {
			continue
		}

		rhoHat := a * math.Exp(alpha*rho.Cal.Energy(k)) * rho.Values[k]
		sum += math.Exp(alpha*eg) * t.Values[j] * rhoHat
		supported++
	}

	if supported == 0 || sum <= 0 {
		return 0, fmt.Errorf("%w: radiative-width integral has no support below Sn=%g",
			ErrCalibrationMismatch, sn)
	}

	return anchors.ResonanceSpacing / 2 * sum * t.Cal.Width, nil
}
