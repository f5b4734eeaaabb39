package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildSVIModel_FlatSmileMonotonicProbability(t *testing.T) {
	F, T, discount, sigma := 100.0, 0.5, 0.99, 0.25
	strikes := evenStrikes(F, 14, 5.0)
	snap := flatVolSnapshot(strikes, F, T, discount, sigma)

	model, ok := BuildSVIModel(snap, T, discount, 0, 0)
	require.True(t, ok)
	require.InDelta(t, F, model.Fit.Forward, 1e-6)

	probLow := model.ProbAbove(F - 20)
	probMid := model.ProbAbove(F)
	probHigh := model.ProbAbove(F + 20)

	require.Greater(t, probLow, probMid)
	require.Greater(t, probMid, probHigh)
}

func TestSVITotalVariance_NonNegativeAtWings(t *testing.T) {
	p := SVIParams{A: 0.01, B: 0.1, Rho: -0.3, M: 0.0, Sig: 0.1}
	for _, k := range []float64{-2.0, -1.0, 0.0, 1.0, 2.0} {
		w := sviTotalVariance(k, p)
		require.GreaterOrEqual(t, w, 0.0)
	}
}
