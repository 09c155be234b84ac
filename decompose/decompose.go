package decompose

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-oslo/internal/smooth"
	"github.com/cwbudde/algo-oslo/spectra"
)

// Errors returned by the decomposer.
var (
	// ErrIllPosedRegion indicates that the valid region leaves fewer
	// independent equations than unknowns.
	ErrIllPosedRegion = errors.New("decompose: valid region is ill-posed")
	// ErrNonConvergence indicates the iteration cap was reached before the
	// tolerance was met. The best iterate is still returned.
	ErrNonConvergence = errors.New("decompose: iteration cap reached before convergence")
	// ErrBinWidthMismatch indicates the Ex and Eg axes have different bin
	// widths, so no common rho grid exists.
	ErrBinWidthMismatch = errors.New("decompose: Ex and Eg bin widths must match")
	// ErrMaskShape indicates the mask shape does not match the matrix.
	ErrMaskShape = errors.New("decompose: mask shape does not match matrix")
	// ErrInitialT indicates an initial T guess of the wrong length.
	ErrInitialT = errors.New("decompose: initial T length must equal matrix columns")
)

// Relative tolerance for comparing the two axis bin widths.
const binWidthEps = 1e-6

// Result holds one decomposition: the unnormalized rho and T candidates and
// the fit diagnostics. Immutable once returned.
type Result struct {
	// Rho is the level-density candidate on the Ex-Eg difference grid.
	Rho *spectra.Vector
	// T is the transmission-coefficient candidate on the Eg grid.
	T *spectra.Vector
	// ChiSquare is the reduced weighted residual of the final iterate.
	ChiSquare float64
	// Iterations is the number of alternating update rounds performed.
	Iterations int
	// Converged reports whether the stopping tolerance was met.
	Converged bool
	// ZeroSupportRho lists rho bins whose diagonal has no valid cells at
	// all; those entries are fixed to zero.
	ZeroSupportRho []int
}

// Decompose fits rho and T to the first-generation matrix m over the valid
// region described by mask. The returned candidates carry the intrinsic
// scale/slope ambiguity of the factorization; see the normalize package.
//
// On ErrNonConvergence the returned Result is still valid and holds the
// best iterate reached.
func Decompose(m *spectra.Matrix, mask *spectra.Mask, opts ...Option) (*Result, error) {
	cfg := ApplyOptions(opts...)

	if err := m.Validate(); err != nil {
		return nil, err
	}

	if mask == nil {
		return nil, fmt.Errorf("%w: nil mask", ErrMaskShape)
	}

	if mask.NumRows() != m.Rows || mask.NumCols() != m.Cols {
		return nil, ErrMaskShape
	}

	if cfg.InitialT != nil && len(cfg.InitialT) != m.Cols {
		return nil, ErrInitialT
	}

	s, err := newSolver(m, mask, cfg)
	if err != nil {
		return nil, err
	}

	return s.run()
}

// Reconstruct rebuilds the model matrix rho(Ex-Eg)*T(Eg) on the grid of m.
// Cells whose Ex-Eg difference falls outside the rho grid are zero.
func Reconstruct(rho, t *spectra.Vector, m *spectra.Matrix) *spectra.Matrix {
	out := spectra.NewMatrix(m.Rows, m.Cols, m.Ex, m.Eg)

	for i := 0; i < m.Rows; i++ {
		ex := m.Ex.Energy(i)
		for j := 0; j < m.Cols; j++ {
			k := rho.Cal.Index(ex - m.Eg.Energy(j))
			if k < 0 || k >= rho.Len() {
				continue
			}

			out.Set(i, j, rho.Values[k]*t.Values[j])
		}
	}

	return out
}

// solver holds the per-run state of one alternating least-squares fit.
type solver struct {
	cfg  Config
	m    *spectra.Matrix
	mask *spectra.Mask

	weight []float64 // per-cell inverse variance, zero outside the mask
	diag   []int     // per-cell rho bin index, -1 outside the mask

	rhoCal  spectra.Calibration
	nRho    int
	nValid  int
	dof     int
	support []int // valid cell count per rho bin

	rho []float64
	t   []float64
}

func newSolver(m *spectra.Matrix, mask *spectra.Mask, cfg Config) (*solver, error) {
	if math.Abs(m.Ex.Width-m.Eg.Width) > binWidthEps*m.Ex.Width {
		return nil, ErrBinWidthMismatch
	}

	s := &solver{
		cfg:    cfg,
		m:      m,
		mask:   mask,
		weight: make([]float64, len(m.Values)),
		diag:   make([]int, len(m.Values)),
	}

	// The rho grid spans all Ex-Eg differences reachable inside the mask.
	// Both axes share a bin width, so each cell maps to an exact rho bin.
	minDiff := math.Inf(1)
	maxDiff := math.Inf(-1)

	for i := 0; i < m.Rows; i++ {
		for j := 0; j < m.Cols; j++ {
			s.diag[i*m.Cols+j] = -1
			if !mask.Valid(i, j) {
				continue
			}

			d := m.Ex.Energy(i) - m.Eg.Energy(j)
			minDiff = math.Min(minDiff, d)
			maxDiff = math.Max(maxDiff, d)
		}
	}

	if math.IsInf(minDiff, 1) {
		return nil, fmt.Errorf("%w: empty mask", ErrIllPosedRegion)
	}

	width := m.Ex.Width
	s.rhoCal = spectra.Calibration{Offset: minDiff, Width: width}
	s.nRho = int(math.Round((maxDiff-minDiff)/width)) + 1
	s.support = make([]int, s.nRho)

	for i := 0; i < m.Rows; i++ {
		for j := 0; j < m.Cols; j++ {
			if !mask.Valid(i, j) {
				continue
			}

			k := s.rhoCal.Index(m.Ex.Energy(i) - m.Eg.Energy(j))
			idx := i*m.Cols + j
			s.diag[idx] = k
			s.support[k]++
			s.nValid++

			sigma := m.SigmaAt(i, j)
			s.weight[idx] = 1 / (sigma * sigma)
		}
	}

	// One unknown less than nRho+nCols: the overall scale is free.
	s.dof = s.nValid - (s.nRho + m.Cols - 1)
	if s.dof <= 0 {
		return nil, fmt.Errorf("%w: %d valid cells for %d unknowns",
			ErrIllPosedRegion, s.nValid, s.nRho+m.Cols-1)
	}

	s.rho = make([]float64, s.nRho)
	for k := range s.rho {
		s.rho[k] = 1
	}

	s.t = make([]float64, m.Cols)
	if cfg.InitialT != nil {
		copy(s.t, cfg.InitialT)
	} else {
		for j := range s.t {
			s.t[j] = 1
		}
	}

	return s, nil
}

func (s *solver) run() (*Result, error) {
	chiPrev := math.Inf(1)
	converged := false
	iterations := 0

	for iter := 0; iter < s.cfg.MaxIterations; iter++ {
		iterations = iter + 1

		if err := s.updateRho(); err != nil {
			return nil, err
		}

		s.updateT()

		chi := s.reducedChiSquare()
		if chiPrev < math.Inf(1) && math.Abs(chiPrev-chi) <= s.cfg.Tolerance*chiPrev {
			chiPrev = chi
			converged = true

			break
		}

		chiPrev = chi
	}

	res := &Result{
		Rho:            &spectra.Vector{Values: s.rho, Cal: s.rhoCal},
		T:              &spectra.Vector{Values: s.t, Cal: s.m.Eg},
		ChiSquare:      chiPrev,
		Iterations:     iterations,
		Converged:      converged,
		ZeroSupportRho: s.zeroSupport(),
	}

	if !converged {
		return res, ErrNonConvergence
	}

	return res, nil
}

// updateRho performs the closed-form weighted fit of every rho bin with T
// held fixed. Each diagonal Ex-Eg = const is an independent scalar problem:
//
//	rho_k = sum(w * FG * T) / sum(w * T^2)  over the diagonal's cells.
func (s *solver) updateRho() error {
	num := make([]float64, s.nRho)
	den := make([]float64, s.nRho)

	for i := 0; i < s.m.Rows; i++ {
		base := i * s.m.Cols
		for j := 0; j < s.m.Cols; j++ {
			k := s.diag[base+j]
			if k < 0 {
				continue
			}

			w := s.weight[base+j]
			tj := s.t[j]
			num[k] += w * s.m.Values[base+j] * tj
			den[k] += w * tj * tj
		}
	}

	for k := range s.rho {
		if s.support[k] == 0 {
			s.rho[k] = 0

			continue
		}

		if den[k] < s.cfg.MinimumWeight {
			// Low support: keep the previous estimate rather than divide
			// by a vanishing weight.
			continue
		}

		v := num[k] / den[k]
		if v < 0 {
			v = 0
		}

		s.rho[k] = v
	}

	if s.cfg.SmoothingSigma > 0 {
		smoothed, err := smooth.Gaussian(s.rho, s.cfg.SmoothingSigma/s.rhoCal.Width)
		if err != nil {
			return fmt.Errorf("decompose: rho smoothing: %w", err)
		}

		for k := range smoothed {
			if smoothed[k] < 0 {
				smoothed[k] = 0
			}
		}

		s.rho = smoothed
	}

	return nil
}

// updateT performs the closed-form weighted fit of every T bin with rho held
// fixed; each matrix column is an independent scalar problem.
func (s *solver) updateT() {
	for j := 0; j < s.m.Cols; j++ {
		var num, den float64

		for i := 0; i < s.m.Rows; i++ {
			idx := i*s.m.Cols + j
			k := s.diag[idx]
			if k < 0 {
				continue
			}

			w := s.weight[idx]
			rk := s.rho[k]
			num += w * s.m.Values[idx] * rk
			den += w * rk * rk
		}

		if den < s.cfg.MinimumWeight {
			continue
		}

		v := num / den
		if v < 0 {
			v = 0
		}

		s.t[j] = v
	}
}

// reducedChiSquare evaluates the weighted residual of the current iterate
// over the valid region, divided by the degrees of freedom.
func (s *solver) reducedChiSquare() float64 {
	var chi float64

	for idx, k := range s.diag {
		if k < 0 {
			continue
		}

		j := idx % s.m.Cols
		r := s.m.Values[idx] - s.rho[k]*s.t[j]
		chi += s.weight[idx] * r * r
	}

	return chi / float64(s.dof)
}

func (s *solver) zeroSupport() []int {
	var zero []int

	for k, n := range s.support {
		if n == 0 {
			zero = append(zero, k)
		}
	}

	return zero
}
