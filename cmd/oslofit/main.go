// Command oslofit decomposes a saved first-generation matrix and prints the
// fit diagnostics.
//
// Usage:
//
//	oslofit [flags] matrix-file
//
// The matrix file must have been written with the spectra codec. With the
// anchor flags set, the decomposed pair is also normalized to absolute
// units.
//
// Examples:
//
//	oslofit -exmin 4000 -egmin 1000 fg.osl
//	oslofit -sn 8380 -d0 0.0023 -gg 0.145 -levels 0,1460,2250 -lvlo 0 -lvhi 3000 fg.osl
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/cwbudde/algo-oslo/decompose"
	"github.com/cwbudde/algo-oslo/normalize"
	"github.com/cwbudde/algo-oslo/spectra"
)

func main() {
	exMin := flag.Float64("exmin", 0, "particle threshold: lowest valid Ex in keV")
	egMin := flag.Float64("egmin", 0, "lowest valid Eg in keV")
	diagTol := flag.Float64("diag", 200, "energy-conservation diagonal tolerance in keV")
	tol := flag.Float64("tol", 1e-5, "fractional chi-square convergence tolerance")
	maxIter := flag.Int("maxiter", 200, "iteration cap")
	smoothSigma := flag.Float64("smooth", 0, "rho smoothing width in keV (0 disables)")

	sn := flag.Float64("sn", 0, "neutron separation energy in keV")
	d0 := flag.Float64("d0", 0, "average s-wave resonance spacing at Sn")
	gg := flag.Float64("gg", 0, "average total radiative width at Sn")
	levels := flag.String("levels", "", "comma-separated discrete level energies in keV")
	lvLo := flag.Float64("lvlo", 0, "lower edge of the level fit window in keV")
	lvHi := flag.Float64("lvhi", 0, "upper edge of the level fit window in keV")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: oslofit [flags] matrix-file\n\n")
		fmt.Fprintf(os.Stderr, "Decomposes a first-generation matrix into rho and T and prints diagnostics.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	f, err := os.Open(flag.Arg(0))
	if err != nil {
		fatalf("cannot open input: %v", err)
	}
	defer f.Close()

	m, err := spectra.ReadMatrix(f)
	if err != nil {
		fatalf("cannot read matrix: %v", err)
	}

	mask := spectra.TrapezoidMask(m, *exMin, *egMin, *diagTol)

	res, err := decompose.Decompose(m, mask,
		decompose.WithTolerance(*tol),
		decompose.WithMaxIterations(*maxIter),
		decompose.WithSmoothingSigma(*smoothSigma),
	)
	if err != nil && !errors.Is(err, decompose.ErrNonConvergence) {
		fatalf("decomposition failed: %v", err)
	}

	var sol *normalize.Solution

	if *sn > 0 {
		anchors := normalize.Anchors{
			LevelEnergies:    parseLevels(*levels),
			LevelRange:       [2]float64{*lvLo, *lvHi},
			SeparationEnergy: *sn,
			ResonanceSpacing: *d0,
			RadiativeWidth:   *gg,
		}

		sol, err = normalize.Normalize(res.Rho, res.T, anchors)
		if err != nil {
			fatalf("normalization failed: %v", err)
		}
	}

	printReport(m, mask, res, sol)
}

func parseLevels(s string) []float64 {
	if s == "" {
		return nil
	}

	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))

	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			fatalf("bad level energy %q: %v", p, err)
		}

		out = append(out, v)
	}

	return out
}

func printReport(m *spectra.Matrix, mask *spectra.Mask, res *decompose.Result, sol *normalize.Solution) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "Matrix\t%dx%d bins, %d valid\n", m.Rows, m.Cols, mask.Count())
	fmt.Fprintf(tw, "Iterations\t%d\n", res.Iterations)
	fmt.Fprintf(tw, "Converged\t%v\n", res.Converged)
	fmt.Fprintf(tw, "Reduced chi-square\t%.6g\n", res.ChiSquare)
	fmt.Fprintf(tw, "Zero-support rho bins\t%d\n", len(res.ZeroSupportRho))

	if sol != nil {
		fmt.Fprintf(tw, "Scale A\t%.6g\n", sol.Params.A)
		fmt.Fprintf(tw, "Slope alpha\t%.6g per keV\n", sol.Params.Alpha)
		fmt.Fprintf(tw, "Scale B\t%.6g\n", sol.Params.B)
		fmt.Fprintf(tw, "Level-fit residual\t%.4g\n", sol.Residual)
	}

	if err := tw.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to flush output: %v\n", err)
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}
