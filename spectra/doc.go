// Package spectra provides the calibrated histogram containers shared by all
// Oslo-method pipeline stages.
//
// A [Matrix] is a two-dimensional counts grid indexed by (excitation energy,
// gamma energy) with a linear energy calibration per axis and an optional
// per-cell uncertainty grid. A [Vector] is the one-dimensional analogue used
// for the level density rho(Ex) and the transmission coefficient T(Eg).
//
// Containers are immutable by convention: pipeline stages never modify their
// input, they return new values. The package also provides trapezoidal
// valid-region masks ([TrapezoidMask]) and a lossless binary codec
// ([WriteMatrix], [ReadMatrix]) so that matrices survive a save/load cycle
// with values, uncertainties, and calibration intact.
package spectra
