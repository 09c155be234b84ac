// Package decompose factors a first-generation matrix into a level density
// and a transmission coefficient.
//
// The model is the Brink-Axel ansatz used by the Oslo method: the
// first-generation matrix is approximated by the outer product
//
//	FG(Ex, Eg) ~ rho(Ex - Eg) * T(Eg)
//
// where rho is the level density at the final excitation energy and T the
// gamma transmission coefficient. [Decompose] solves the weighted
// least-squares problem by alternating closed-form updates: with T held
// fixed every rho bin is an independent scalar fit over its diagonal
// Ex - Eg = const, and with rho held fixed every T bin is an independent
// scalar fit over its matrix column. Negative entries are clamped to zero
// after each half-step.
//
// The factorization is only determined up to the usual scale and slope
// transformations; resolving that ambiguity against external anchors is the
// job of the normalize package. Decompose deliberately leaves it free.
//
// Usage:
//
//	mask := spectra.TrapezoidMask(fg, 4000, 1000, 200)
//	res, err := decompose.Decompose(fg, mask, decompose.WithTolerance(1e-5))
//	if errors.Is(err, decompose.ErrNonConvergence) {
//		// res still holds the best iterate
//	}
package decompose
