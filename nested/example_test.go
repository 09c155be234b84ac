package nested_test

import (
	"context"
	"fmt"
	"math"

	"github.com/cwbudde/algo-oslo/nested"
)

func ExampleNestedSampler_Sample() {
	// Unnormalized 1D Gaussian likelihood, sigma 0.5, against a flat prior
	// on [-5, 5]. The evidence is sqrt(2*pi)*0.5/10.
	logLike := func(x []float64) float64 {
		return -x[0] * x[0] / (2 * 0.25)
	}

	sampler := nested.NewSampler(
		nested.WithLivePoints(200),
		nested.WithSeed(1),
	)

	samples, err := sampler.Sample(context.Background(), logLike, []nested.Prior{
		nested.Uniform{Min: -5, Max: 5},
	})
	if err != nil {
		fmt.Println("error:", err)

		return
	}

	want := math.Log(math.Sqrt(2*math.Pi) * 0.5 / 10)

	fmt.Println("evidence within 0.5 of analytic:", math.Abs(samples.LogZ-want) < 0.5)
	fmt.Println("posterior mean within 0.1 of zero:", math.Abs(samples.Mean()[0]) < 0.1)
	// Output:
	// evidence within 0.5 of analytic: true
	// posterior mean within 0.1 of zero: true
}
