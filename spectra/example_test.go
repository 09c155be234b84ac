package spectra_test

import (
	"fmt"

	"github.com/cwbudde/algo-oslo/spectra"
)

func ExampleTrapezoidMask() {
	cal := spectra.Calibration{Offset: 0, Width: 1000}
	m := spectra.NewMatrix(4, 4, cal, cal)

	// Keep only cells where the gamma ray fits inside the excitation energy.
	mask := spectra.TrapezoidMask(m, 0, 0, 0)

	fmt.Println("valid cells:", mask.Count())
	// Output:
	// valid cells: 10
}

func ExampleCalibration() {
	cal := spectra.Calibration{Offset: 50, Width: 100}

	fmt.Println("bin 3 center:", cal.Energy(3))
	fmt.Println("bin for 420 keV:", cal.Index(420))
	// Output:
	// bin 3 center: 350
	// bin for 420 keV: 4
}
