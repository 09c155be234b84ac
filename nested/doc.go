// Package nested provides Bayesian evidence and posterior estimation by
// nested sampling.
//
// Nested sampling evolves a set of live points through nested likelihood
// contours: at every iteration the worst live point is recorded as a
// weighted posterior sample and replaced by a new point drawn from the prior
// subject to a likelihood floor. The shrinking prior volume X_i = exp(-i/N)
// turns the recorded points into an estimate of the evidence integral
// Z = int L(theta) pi(theta) dtheta alongside normalized posterior weights.
//
// The implementation behind [NestedSampler] samples in the unit cube and
// maps points through [Prior] quantile transforms. Replacement points come
// from a speculative random walk: each step proposes a deterministic,
// sequentially drawn batch of candidates, evaluates their likelihoods on a
// worker pool, and accepts the first candidate in draw order above the
// floor. Acceptance therefore depends only on the seed, never on scheduling,
// so a fixed seed reproduces results exactly while likelihood evaluation
// still spreads across cores.
//
// Any other engine can be substituted through the [Sampler] interface.
package nested
