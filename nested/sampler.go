package nested

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"
	"sync"
)

// Errors returned by the sampler.
var (
	// ErrSamplerDivergence indicates the evidence standard error still
	// exceeded the configured threshold when the call budget ran out. The
	// samples gathered so far are returned alongside it so callers may fall
	// back to a point estimate.
	ErrSamplerDivergence = errors.New("nested: evidence error above threshold at call budget")
	// ErrNoPriors indicates an empty prior list.
	ErrNoPriors = errors.New("nested: at least one prior is required")
)

// LogLikelihood evaluates the log-likelihood of a parameter vector. It must
// be safe for concurrent use; the sampler calls it from multiple goroutines.
type LogLikelihood func(params []float64) float64

// Sampler is the pluggable inference backend contract. Any conforming
// nested-sampling implementation can be substituted.
type Sampler interface {
	Sample(ctx context.Context, logLike LogLikelihood, priors []Prior) (*PosteriorSamples, error)
}

// Config defines the nested-sampling settings.
type Config struct {
	// LivePoints is the size of the live set.
	LivePoints int
	// MaxCalls caps the number of likelihood evaluations.
	MaxCalls int
	// StopDlogZ terminates the run when the maximum remaining evidence
	// contribution of the live set falls below this fraction (in log space).
	StopDlogZ float64
	// WalkSteps is the number of constrained random-walk steps used to
	// decorrelate each replacement point.
	WalkSteps int
	// StepScale is the initial walk step in unit-cube coordinates.
	StepScale float64
	// Workers sizes the likelihood worker pool. Defaults to GOMAXPROCS.
	Workers int
	// Seed fixes the random stream for reproducibility.
	Seed uint64
	// MaxLogZErr is the divergence threshold on the evidence standard error.
	MaxLogZErr float64
}

// SamplerOption mutates a Config.
type SamplerOption func(*Config)

// DefaultSamplerConfig returns sensible defaults.
func DefaultSamplerConfig() Config {
	return Config{
		LivePoints: 250,
		MaxCalls:   200000,
		StopDlogZ:  0.05,
		WalkSteps:  24,
		StepScale:  0.1,
		Workers:    runtime.GOMAXPROCS(0),
		Seed:       1,
		MaxLogZErr: 1,
	}
}

// WithLivePoints sets the live set size.
func WithLivePoints(n int) SamplerOption {
	return func(cfg *Config) {
		if n > 1 {
			cfg.LivePoints = n
		}
	}
}

// WithMaxCalls caps the number of likelihood evaluations.
func WithMaxCalls(n int) SamplerOption {
	return func(cfg *Config) {
		if n > 0 {
			cfg.MaxCalls = n
		}
	}
}

// WithStopDlogZ sets the evidence termination tolerance.
func WithStopDlogZ(d float64) SamplerOption {
	return func(cfg *Config) {
		if d > 0 {
			cfg.StopDlogZ = d
		}
	}
}

// WithWalkSteps sets the number of decorrelation steps per replacement.
func WithWalkSteps(n int) SamplerOption {
	return func(cfg *Config) {
		if n > 0 {
			cfg.WalkSteps = n
		}
	}
}

// WithWorkers sizes the likelihood worker pool.
func WithWorkers(n int) SamplerOption {
	return func(cfg *Config) {
		if n > 0 {
			cfg.Workers = n
		}
	}
}

// WithSeed fixes the random stream.
func WithSeed(seed uint64) SamplerOption {
	return func(cfg *Config) {
		cfg.Seed = seed
	}
}

// WithMaxLogZErr sets the divergence threshold on the evidence error.
func WithMaxLogZErr(e float64) SamplerOption {
	return func(cfg *Config) {
		if e > 0 {
			cfg.MaxLogZErr = e
		}
	}
}

// NestedSampler is the built-in [Sampler] implementation.
type NestedSampler struct {
	cfg Config
}

// NewSampler builds a NestedSampler from the default config and options.
func NewSampler(opts ...SamplerOption) *NestedSampler {
	cfg := DefaultSamplerConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return &NestedSampler{cfg: cfg}
}

type livePoint struct {
	u    []float64
	logL float64
}

// run carries the state of one sampling run.
type run struct {
	cfg     Config
	rng     *rand.Rand
	priors  []Prior
	logLike LogLikelihood

	live  []livePoint
	calls int

	points  [][]float64
	logLs   []float64
	logWts  []float64 // unnormalized: logw_i (prior volume shell)
	logZ    float64
	info    float64 // Skilling's H
	scale   float64
}

// Sample implements [Sampler]. Cancellation is checked between iterations;
// a canceled run returns ctx.Err() without partial samples.
func (s *NestedSampler) Sample(ctx context.Context, logLike LogLikelihood, priors []Prior) (*PosteriorSamples, error) {
	if len(priors) == 0 {
		return nil, ErrNoPriors
	}

	if logLike == nil {
		return nil, fmt.Errorf("nested: nil log-likelihood")
	}

	r := &run{
		cfg:     s.cfg,
		rng:     rand.New(rand.NewPCG(s.cfg.Seed, 0x9e3779b97f4a7c15)),
		priors:  priors,
		logLike: logLike,
		logZ:    math.Inf(-1),
		scale:   s.cfg.StepScale,
	}

	r.initLive()

	exhausted := false

	n := float64(s.cfg.LivePoints)
	logShell := math.Log(1 - math.Exp(-1/n))

	for iter := 1; ; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		worst := r.worstLive()
		floor := r.live[worst].logL

		logX := -float64(iter) / n
		logWidth := -float64(iter-1)/n + logShell

		r.record(r.live[worst], logWidth)

		// Termination: the largest evidence the remaining live set could
		// still add.
		logZLive := r.maxLiveLogL() + logX
		if logSumExp(r.logZ, logZLive)-r.logZ < s.cfg.StopDlogZ {
			r.drainLive(logX, worst)

			break
		}

		if r.calls >= s.cfg.MaxCalls {
			exhausted = true

			r.drainLive(logX, worst)

			break
		}

		r.replace(worst, floor)
	}

	samples := r.finish()

	if exhausted && samples.LogZErr > s.cfg.MaxLogZErr {
		return samples, fmt.Errorf("%w: logZ err %.3g > %.3g after %d calls",
			ErrSamplerDivergence, samples.LogZErr, s.cfg.MaxLogZErr, samples.Calls)
	}

	return samples, nil
}

// initLive draws the live set from the prior. Draws are sequential; the
// likelihood evaluations fan out to the worker pool.
func (r *run) initLive() {
	n := r.cfg.LivePoints
	r.live = make([]livePoint, n)
	batch := make([][]float64, n)

	for i := range r.live {
		u := make([]float64, len(r.priors))
		for d := range u {
			u[d] = r.rng.Float64()
		}

		r.live[i].u = u
		batch[i] = u
	}

	for i, logL := range r.evalBatch(batch) {
		r.live[i].logL = logL
	}
}

// record books the dead point as a weighted posterior sample and updates
// the evidence and information accumulators.
func (r *run) record(p livePoint, logWidth float64) {
	lw := logWidth + p.logL
	logZNew := logSumExp(r.logZ, lw)

	// Skilling's streaming information update.
	h := math.Exp(lw-logZNew)*p.logL - logZNew
	if !math.IsInf(r.logZ, -1) {
		h += math.Exp(r.logZ-logZNew) * (r.info + r.logZ)
	}

	r.info = h
	r.logZ = logZNew

	r.points = append(r.points, r.theta(p.u))
	r.logLs = append(r.logLs, p.logL)
	r.logWts = append(r.logWts, logWidth)
}

// drainLive books the remaining live points with the final prior volume
// split evenly among them. The point at index skip was already recorded as
// the final dead point.
func (r *run) drainLive(logX float64, skip int) {
	logWidth := logX - math.Log(float64(len(r.live)-1))
	for i, p := range r.live {
		if i == skip {
			continue
		}

		r.record(p, logWidth)
	}
}

// replace evolves a copy of a surviving live point through a constrained
// random walk and installs it in place of the worst point.
//
// Every step proposes a batch of candidates drawn sequentially from the
// random stream and evaluated in parallel; the first candidate in draw
// order above the likelihood floor is accepted. The outcome therefore
// depends only on the seed.
func (r *run) replace(worst int, floor float64) {
	start := r.pickStart(worst, floor)
	cur := livePoint{u: append([]float64(nil), start.u...), logL: start.logL}

	batchSize := r.cfg.Workers
	if batchSize < 1 {
		batchSize = 1
	}

	accepted := 0

	for step := 0; step < r.cfg.WalkSteps; step++ {
		cands := make([][]float64, batchSize)
		for c := range cands {
			cands[c] = r.propose(cur.u)
		}

		logLs := r.evalBatch(cands)

		for c, logL := range logLs {
			if logL > floor {
				cur = livePoint{u: cands[c], logL: logL}
				accepted++

				break
			}
		}
	}

	// Keep the acceptance rate near one candidate per step.
	frac := float64(accepted) / float64(r.cfg.WalkSteps)
	r.scale *= math.Exp(frac - 0.5)
	r.scale = math.Min(math.Max(r.scale, 1e-4), 1)

	r.live[worst] = cur
}

// pickStart returns a live point above the floor to seed the walk,
// preferring points other than the one being replaced.
func (r *run) pickStart(worst int, floor float64) livePoint {
	for try := 0; try < 4*len(r.live); try++ {
		i := r.rng.IntN(len(r.live))
		if i != worst && r.live[i].logL > floor {
			return r.live[i]
		}
	}

	return r.live[worst]
}

// propose draws one candidate step, reflected back into the unit cube.
func (r *run) propose(u []float64) []float64 {
	out := make([]float64, len(u))

	for d := range u {
		v := u[d] + r.scale*r.rng.NormFloat64()

		// Reflect into [0, 1].
		for v < 0 || v > 1 {
			if v < 0 {
				v = -v
			}

			if v > 1 {
				v = 2 - v
			}
		}

		out[d] = v
	}

	return out
}

// theta maps a unit-cube point through the prior transforms.
func (r *run) theta(u []float64) []float64 {
	out := make([]float64, len(u))
	for d, p := range r.priors {
		out[d] = p.Transform(u[d])
	}

	return out
}

func (r *run) worstLive() int {
	worst := 0
	for i := range r.live {
		if r.live[i].logL < r.live[worst].logL {
			worst = i
		}
	}

	return worst
}

func (r *run) maxLiveLogL() float64 {
	best := math.Inf(-1)
	for i := range r.live {
		best = math.Max(best, r.live[i].logL)
	}

	return best
}

// evalBatch evaluates a batch of unit-cube points on the worker pool and
// returns the log-likelihoods in batch order.
func (r *run) evalBatch(batch [][]float64) []float64 {
	out := make([]float64, len(batch))

	workers := r.cfg.Workers
	if workers > len(batch) {
		workers = len(batch)
	}

	if workers <= 1 {
		for i, u := range batch {
			out[i] = r.logLike(r.theta(u))
		}

		r.calls += len(batch)

		return out
	}

	var wg sync.WaitGroup

	jobs := make(chan int)

	for w := 0; w < workers; w++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for i := range jobs {
				out[i] = r.logLike(r.theta(batch[i]))
			}
		}()
	}

	for i := range batch {
		jobs <- i
	}

	close(jobs)
	wg.Wait()

	r.calls += len(batch)

	return out
}

// finish normalizes the recorded weights and assembles the diagnostics.
func (r *run) finish() *PosteriorSamples {
	logWeights := make([]float64, len(r.points))
	for i := range logWeights {
		logWeights[i] = r.logWts[i] + r.logLs[i] - r.logZ
	}

	var invESS float64

	for _, lw := range logWeights {
		p := math.Exp(lw)
		invESS += p * p
	}

	ess := 0.0
	if invESS > 0 {
		ess = 1 / invESS
	}

	errEst := 0.0
	if h := math.Abs(r.info); h > 0 {
		errEst = math.Sqrt(h / float64(r.cfg.LivePoints))
	}

	return &PosteriorSamples{
		Points:     r.points,
		LogWeights: logWeights,
		LogZ:       r.logZ,
		LogZErr:    errEst,
		ESS:        ess,
		Calls:      r.calls,
	}
}
