package ensemble

import (
	"log/slog"
	"runtime"

	"github.com/cwbudde/algo-oslo/decompose"
	"github.com/cwbudde/algo-oslo/normalize"
	"github.com/cwbudde/algo-oslo/spectra"
)

// Stage is a pluggable preprocessing collaborator applied to each perturbed
// replica before decomposition, such as detector-response unfolding or the
// first-generation method. The replica index is passed through for
// provenance bookkeeping. Implementations must not modify their input and
// must be safe for concurrent use.
type Stage interface {
	Apply(index int, m *spectra.Matrix) (*spectra.Matrix, error)
}

// StageFunc adapts a function to the [Stage] interface.
type StageFunc func(index int, m *spectra.Matrix) (*spectra.Matrix, error)

// Apply implements [Stage].
func (f StageFunc) Apply(index int, m *spectra.Matrix) (*spectra.Matrix, error) {
	return f(index, m)
}

// Config defines the ensemble run settings.
type Config struct {
	// Strategy draws the per-replica perturbations.
	Strategy Strategy
	// Seed is the base random seed; replica i uses the stream (Seed, i).
	Seed uint64
	// Workers sizes the replica worker pool. Defaults to GOMAXPROCS.
	Workers int
	// Mask restricts the decomposition to a valid region. Nil means the
	// full matrix.
	Mask *spectra.Mask
	// Unfold and FirstGen are optional preprocessing collaborators applied
	// in that order. Nil stages are skipped.
	Unfold   Stage
	FirstGen Stage
	// Store optionally caches generated replicas; Regenerate bypasses it.
	Store      *Store
	Regenerate bool
	// Percentiles are the band quantiles, in (0, 1).
	Percentiles []float64
	// DecomposeOptions and NormalizeOptions forward settings to the
	// per-replica pipeline stages.
	DecomposeOptions []decompose.Option
	NormalizeOptions []normalize.Option
	// Logger receives per-replica progress. Nil disables logging.
	Logger *slog.Logger
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Strategy:    Poisson{},
		Seed:        1,
		Workers:     runtime.GOMAXPROCS(0),
		Percentiles: []float64{0.16, 0.5, 0.84},
	}
}

// WithStrategy sets the perturbation strategy.
func WithStrategy(s Strategy) Option {
	return func(cfg *Config) {
		if s != nil {
			cfg.Strategy = s
		}
	}
}

// WithSeed sets the base random seed.
func WithSeed(seed uint64) Option {
	return func(cfg *Config) {
		cfg.Seed = seed
	}
}

// WithWorkers sizes the replica worker pool.
func WithWorkers(n int) Option {
	return func(cfg *Config) {
		if n > 0 {
			cfg.Workers = n
		}
	}
}

// WithMask restricts the decomposition valid region.
func WithMask(m *spectra.Mask) Option {
	return func(cfg *Config) {
		cfg.Mask = m
	}
}

// WithUnfold sets the detector-response unfolding collaborator.
func WithUnfold(s Stage) Option {
	return func(cfg *Config) {
		cfg.Unfold = s
	}
}

// WithFirstGen sets the first-generation collaborator.
func WithFirstGen(s Stage) Option {
	return func(cfg *Config) {
		cfg.FirstGen = s
	}
}

// WithStore caches replicas in the given store; regenerate bypasses cached
// entries.
func WithStore(s *Store, regenerate bool) Option {
	return func(cfg *Config) {
		cfg.Store = s
		cfg.Regenerate = regenerate
	}
}

// WithPercentiles sets the band quantiles.
func WithPercentiles(p ...float64) Option {
	return func(cfg *Config) {
		if len(p) > 0 {
			cfg.Percentiles = p
		}
	}
}

// WithDecomposeOptions forwards options to the per-replica decomposer.
func WithDecomposeOptions(opts ...decompose.Option) Option {
	return func(cfg *Config) {
		cfg.DecomposeOptions = opts
	}
}

// WithNormalizeOptions forwards options to the per-replica normalizer.
func WithNormalizeOptions(opts ...normalize.Option) Option {
	return func(cfg *Config) {
		cfg.NormalizeOptions = opts
	}
}

// WithLogger sets the progress logger.
func WithLogger(l *slog.Logger) Option {
	return func(cfg *Config) {
		cfg.Logger = l
	}
}

// ApplyOptions applies zero or more options to the default config.
func ApplyOptions(opts ...Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return cfg
}
