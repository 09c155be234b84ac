package decompose

// Config defines the decomposition settings.
type Config struct {
	// Tolerance is the fractional chi-square change between successive
	// iterations below which the fit is considered converged.
	Tolerance float64
	// MaxIterations caps the number of alternating update rounds.
	MaxIterations int
	// MinimumWeight is the smallest total weight a diagonal or column may
	// have for its closed-form update to be applied; below it the previous
	// estimate is kept.
	MinimumWeight float64
	// SmoothingSigma, when positive, applies a Gaussian smoothing of this
	// width (in energy units) to the rho candidate after each update to
	// suppress bin-to-bin noise amplification. Zero disables smoothing.
	SmoothingSigma float64
	// InitialT optionally seeds the transmission coefficient. It must have
	// one entry per matrix column. Nil means a uniform initial guess.
	InitialT []float64
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Tolerance:     1e-5,
		MaxIterations: 200,
		MinimumWeight: 1e-12,
	}
}

// WithTolerance sets the fractional chi-square stopping tolerance.
func WithTolerance(tol float64) Option {
	return func(cfg *Config) {
		if tol > 0 {
			cfg.Tolerance = tol
		}
	}
}

// WithMaxIterations sets the iteration cap.
func WithMaxIterations(n int) Option {
	return func(cfg *Config) {
		if n > 0 {
			cfg.MaxIterations = n
		}
	}
}

// WithMinimumWeight sets the low-support threshold for diagonal and column
// updates.
func WithMinimumWeight(w float64) Option {
	return func(cfg *Config) {
		if w > 0 {
			cfg.MinimumWeight = w
		}
	}
}

// WithSmoothingSigma enables Gaussian smoothing of the rho candidate with
// the given width in energy units.
func WithSmoothingSigma(sigma float64) Option {
	return func(cfg *Config) {
		if sigma >= 0 {
			cfg.SmoothingSigma = sigma
		}
	}
}

// WithInitialT seeds the transmission coefficient.
func WithInitialT(t []float64) Option {
	return func(cfg *Config) {
		cfg.InitialT = t
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
