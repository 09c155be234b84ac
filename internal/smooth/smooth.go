// Package smooth provides Gaussian smoothing of binned spectra.
//
// Kernels are truncated at +-4 sigma and normalized to unit area so that
// smoothing preserves the total number of counts. Short kernels use direct
// convolution; wide kernels switch to an FFT-based path.
package smooth

import (
	"errors"
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	vecmath "github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-oslo/internal/numeric"
)

// Direct convolution wins for short kernels; the crossover sits near the
// same region as for generic convolution (~64 taps).
const directKernelLimit = 64

var (
	// ErrEmptyInput indicates an empty signal.
	ErrEmptyInput = errors.New("smooth: input is empty")
	// ErrBadSigma indicates a non-positive smoothing width.
	ErrBadSigma = errors.New("smooth: sigma must be positive")
)

// Kernel returns a unit-area Gaussian kernel for the given standard
// deviation expressed in bins, truncated at +-4 sigma. The kernel length is
// always odd so the filter is symmetric around its center tap.
func Kernel(sigmaBins float64) ([]float64, error) {
	if sigmaBins <= 0 {
		return nil, ErrBadSigma
	}

	half := int(math.Ceil(4 * sigmaBins))
	k := make([]float64, 2*half+1)

	var sum float64

	for i := range k {
		x := float64(i - half)
		k[i] = math.Exp(-x * x / (2 * sigmaBins * sigmaBins))
		sum += k[i]
	}

	vecmath.ScaleBlock(k, k, 1/sum)

	return k, nil
}

// Gaussian smooths signal with a Gaussian of width sigmaBins (standard
// deviation in bins) and returns a new slice of the same length. Edges use
// zero padding.
func Gaussian(signal []float64, sigmaBins float64) ([]float64, error) {
	if len(signal) == 0 {
		return nil, ErrEmptyInput
	}

	kernel, err := Kernel(sigmaBins)
	if err != nil {
		return nil, err
	}

	if len(kernel) <= directKernelLimit {
		return direct(signal, kernel), nil
	}

	return viaFFT(signal, kernel)
}

// direct computes the same-length zero-padded convolution of signal with a
// symmetric odd-length kernel.
func direct(signal, kernel []float64) []float64 {
	half := len(kernel) / 2
	out := make([]float64, len(signal))

	for i := range signal {
		var acc float64

		for t, kv := range kernel {
			j := i + t - half
			if j < 0 || j >= len(signal) {
				continue
			}

			acc += kv * signal[j]
		}

		out[i] = acc
	}

	return out
}

// viaFFT computes the same convolution through zero-padded FFTs.
func viaFFT(signal, kernel []float64) ([]float64, error) {
	n := len(signal)
	m := len(kernel)
	half := m / 2

	fftSize := numeric.NextPowerOf2(n + m - 1)

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("smooth: failed to create FFT plan: %w", err)
	}

	sigPadded := make([]complex128, fftSize)
	kerPadded := make([]complex128, fftSize)

	for i, v := range signal {
		sigPadded[i] = complex(v, 0)
	}

	for i, v := range kernel {
		kerPadded[i] = complex(v, 0)
	}

	sigFreq := make([]complex128, fftSize)
	kerFreq := make([]complex128, fftSize)

	if err := plan.Forward(sigFreq, sigPadded); err != nil {
		return nil, fmt.Errorf("smooth: forward FFT failed: %w", err)
	}

	if err := plan.Forward(kerFreq, kerPadded); err != nil {
		return nil, fmt.Errorf("smooth: forward FFT failed: %w", err)
	}

	for i := range sigFreq {
		sigFreq[i] *= kerFreq[i]
	}

	full := make([]complex128, fftSize)
	if err := plan.Inverse(full, sigFreq); err != nil {
		return nil, fmt.Errorf("smooth: inverse FFT failed: %w", err)
	}

	// Center crop of the full convolution gives the zero-padded "same" result.
	out := make([]float64, n)
	for i := range out {
		out[i] = real(full[i+half])
	}

	return out, nil
}
