// Package normalize resolves the scale ambiguity of a decomposed (rho, T)
// pair against external physical anchors.
//
// The bilinear product rho(Ex-Eg)*T(Eg) is invariant under the two-parameter
// family of transformations
//
//	rho(E) -> A * exp(alpha*E) * rho(E)
//	T(E)   -> B * exp(alpha*E) * T(E)
//
// so the decomposer alone cannot fix absolute units. [Normalize] pins the
// three constants with two independent anchors: A and alpha are fitted so
// the cumulative integral of rho reproduces the known discrete-level
// staircase in a low-energy window where levels are resolved and countable,
// and B follows in closed form from the average total radiative width at
// the neutron separation energy together with the s-wave resonance spacing.
//
// [SamplePosterior] replaces the point estimate with a full posterior over
// (A, alpha, B) using a nested-sampling backend from the nested package.
package normalize
