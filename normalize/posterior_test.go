package normalize

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-oslo/nested"
)

func TestSamplePosteriorMatchesPointEstimate(t *testing.T) {
	rho, tv := rawCandidates()
	anchors := testAnchors()

	point, err := Normalize(rho, tv, anchors)
	require.NoError(t, err)

	sampler := nested.NewSampler(
		nested.WithLivePoints(100),
		nested.WithWorkers(2),
		nested.WithSeed(5),
	)

	sol, samples, err := SamplePosterior(context.Background(), rho, tv, anchors, sampler)
	require.NoError(t, err)
	require.NotEmpty(t, samples.Points)
	require.Greater(t, samples.ESS, 20.0)

	// The posterior mean stays close to the point estimate.
	require.Greater(t, sol.Params.A/point.Params.A, 0.5)
	require.Less(t, sol.Params.A/point.Params.A, 2.0)
	require.InDelta(t, point.Params.Alpha, sol.Params.Alpha, 1e-4)
	require.Greater(t, sol.Params.B/point.Params.B, 0.5)
	require.Less(t, sol.Params.B/point.Params.B, 2.0)

	require.LessOrEqual(t, sol.Residual, 0.3)
	require.Equal(t, rho.Len(), sol.Rho.Len())
	require.Equal(t, tv.Len(), sol.T.Len())
}

func TestSamplePosteriorPropagatesNormalizeError(t *testing.T) {
	rho, tv := rawCandidates()

	bad := testAnchors()
	bad.LevelEnergies = nil

	sol, samples, err := SamplePosterior(context.Background(), rho, tv, bad, nested.NewSampler())
	require.ErrorIs(t, err, ErrMissingAnchor)
	require.Nil(t, sol)
	require.Nil(t, samples)
}

func TestSamplePosteriorCancellation(t *testing.T) {
	rho, tv := rawCandidates()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := SamplePosterior(ctx, rho, tv, testAnchors(), nested.NewSampler(nested.WithLivePoints(20)))
	require.ErrorIs(t, err, context.Canceled)
}

func TestSamplePosteriorDivergenceStillReturnsSolution(t *testing.T) {
	rho, tv := rawCandidates()

	sampler := nested.NewSampler(
		nested.WithLivePoints(30),
		nested.WithWorkers(1),
		nested.WithMaxCalls(40),
		nested.WithMaxLogZErr(1e-9),
		nested.WithSeed(2),
	)

	sol, samples, err := SamplePosterior(context.Background(), rho, tv, testAnchors(), sampler)
	require.ErrorIs(t, err, nested.ErrSamplerDivergence)

	// Divergence is advisory: the mean solution and samples still come back.
	require.NotNil(t, sol)
	require.NotNil(t, samples)
	require.NotEmpty(t, samples.Points)
}
