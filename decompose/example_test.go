package decompose_test

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-oslo/decompose"
	"github.com/cwbudde/algo-oslo/spectra"
)

func ExampleDecompose() {
	cal := spectra.Calibration{Offset: 0, Width: 100}
	m := spectra.NewMatrix(12, 12, cal, cal)
	m.Sigma = make([]float64, len(m.Values))

	mask := spectra.NewMask(12, 12)

	// A noiseless separable matrix: rho grows exponentially, T linearly.
	for i := 0; i < 12; i++ {
		for j := 0; j <= i; j++ {
			ex := cal.Energy(i)
			eg := cal.Energy(j)

			m.Set(i, j, math.Exp((ex-eg)/500)*(1+eg/300))
			m.Sigma[i*12+j] = 1
			mask.Set(i, j, true)
		}
	}

	res, err := decompose.Decompose(m, mask)
	if err != nil {
		fmt.Println("error:", err)

		return
	}

	fmt.Println("converged:", res.Converged)
	fmt.Println("rho bins:", res.Rho.Len())
	fmt.Println("chi-square below 1e-6:", res.ChiSquare < 1e-6)
	// Output:
	// converged: true
	// rho bins: 12
	// chi-square below 1e-6: true
}
