package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/contactkeval/optionprob/internal/domain"
)

func buildSnapshot(rows [][3]float64) domain.OptionSurfaceSnapshot {
	var calls, puts []domain.OptionPoint
	for _, r := range rows {
		strike, callMid, putMid := r[0], r[1], r[2]
		calls = append(calls, domain.OptionPoint{Strike: strike, OptionType: domain.Call, Bid: callMid - 0.05, Ask: callMid + 0.05, Mid: callMid, Spread: 0.1})
		puts = append(puts, domain.OptionPoint{Strike: strike, OptionType: domain.Put, Bid: putMid - 0.05, Ask: putMid + 0.05, Mid: putMid, Spread: 0.1})
	}
	return domain.OptionSurfaceSnapshot{
		Symbol:         domain.AAPL,
		ExpirationDate: time.Now().Add(30 * 24 * time.Hour),
		Calls:          calls,
		Puts:           puts,
	}
}

func TestEstimateForward_RecoversForwardFromParity(t *testing.T) {
	F := 232.0
	rows := [][3]float64{
		{225, F - 225 + 10.0, 10.0},
		{230, F - 230 + 10.0, 10.0},
		{235, F - 235 + 10.0, 10.0},
		{240, F - 240 + 10.0, 10.0},
	}
	snap := buildSnapshot(rows)

	est, ok := EstimateForward(snap, ForwardOptions{})
	require.True(t, ok)
	require.InDelta(t, F, est.Forward, 1e-6)
	require.Equal(t, 4, est.NUsed)
}

func TestEstimateForward_FewerThanThreeStrikesFails(t *testing.T) {
	snap := buildSnapshot([][3]float64{{230, 10, 5}, {235, 8, 6}})
	_, ok := EstimateForward(snap, ForwardOptions{})
	require.False(t, ok)
}

func TestEstimateForward_TrimFallsBackWhenTooFewSurvive(t *testing.T) {
	F := 100.0
	rows := [][3]float64{
		{90, F - 90 + 2.0, 2.0},
		{95, F - 95 + 2.0, 2.0},
		{105, F + 50 - 105 + 2.0, 2.0}, // wild outlier, well outside trim band
	}
	snap := buildSnapshot(rows)

	est, ok := EstimateForward(snap, ForwardOptions{TrimPct: 0.001})
	require.True(t, ok)
	require.Equal(t, 3, est.NUsed)
}

func TestEstimateForward_MaxSpreadFilterExcludesWideQuotes(t *testing.T) {
	snap := buildSnapshot([][3]float64{{225, 12, 5}, {230, 7, 5}, {235, 3, 6}})
	snap.Calls[0].Spread = 50.0

	_, ok := EstimateForward(snap, ForwardOptions{MaxSpread: 1.0})
	require.False(t, ok)
}
