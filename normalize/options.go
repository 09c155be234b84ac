package normalize

// Config defines the normalization settings.
type Config struct {
	// MatchTolerance is the largest acceptable RMS relative mismatch
	// between the fitted cumulative level density and the discrete-level
	// staircase over the fit window.
	MatchTolerance float64
	// MaxEvaluations caps the simplex search for (A, alpha).
	MaxEvaluations int
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MatchTolerance: 0.2,
		MaxEvaluations: 2000,
	}
}

// WithMatchTolerance sets the acceptable RMS relative level mismatch.
func WithMatchTolerance(tol float64) Option {
	return func(cfg *Config) {
		if tol > 0 {
			cfg.MatchTolerance = tol
		}
	}
}

// WithMaxEvaluations caps the number of objective evaluations in the
// (A, alpha) fit.
func WithMaxEvaluations(n int) Option {
	return func(cfg *Config) {
		if n > 0 {
			cfg.MaxEvaluations = n
		}
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
