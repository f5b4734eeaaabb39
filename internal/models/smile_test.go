package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/contactkeval/optionprob/internal/domain"
	"github.com/contactkeval/optionprob/internal/pricing"
)

// flatVolSnapshot builds a full call/put chain priced at a single flat
// volatility, the simplest input for which the OTM smile is known
// exactly in closed form.
func flatVolSnapshot(strikes []float64, F, T, discount, sigma float64) domain.OptionSurfaceSnapshot {
	var calls, puts []domain.OptionPoint
	for _, k := range strikes {
		callPrice := pricing.PriceForward(pricing.Call, F, k, T, sigma, discount)
		putPrice := pricing.PriceForward(pricing.Put, F, k, T, sigma, discount)
		calls = append(calls, domain.OptionPoint{Strike: k, OptionType: domain.Call, Bid: callPrice - 0.01, Ask: callPrice + 0.01, Mid: callPrice, Spread: 0.02})
		puts = append(puts, domain.OptionPoint{Strike: k, OptionType: domain.Put, Bid: putPrice - 0.01, Ask: putPrice + 0.01, Mid: putPrice, Spread: 0.02})
	}
	return domain.OptionSurfaceSnapshot{Symbol: domain.AAPL, Calls: calls, Puts: puts}
}

func evenStrikes(center float64, n int, step float64) []float64 {
	start := center - step*float64(n/2)
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = start + step*float64(i)
	}
	return out
}

func TestExtractOTMIVPoints_RecoversFlatVariance(t *testing.T) {
	F, T, discount, sigma := 100.0, 0.5, 0.99, 0.25
	strikes := evenStrikes(F, 12, 5.0)
	snap := flatVolSnapshot(strikes, F, T, discount, sigma)

	points, ok := extractOTMIVPoints(snap, F, T, discount, 0)
	require.True(t, ok)
	require.GreaterOrEqual(t, len(points), minSmilePoints)

	expectedW := sigma * sigma * T
	for _, p := range points {
		require.InDelta(t, expectedW, p.w, 5e-3)
	}
}

func TestExtractOTMIVPoints_TooFewStrikesFails(t *testing.T) {
	F, T, discount, sigma := 100.0, 0.5, 0.99, 0.25
	strikes := evenStrikes(F, 4, 5.0)
	snap := flatVolSnapshot(strikes, F, T, discount, sigma)

	_, ok := extractOTMIVPoints(snap, F, T, discount, 0)
	require.False(t, ok)
}

func TestBsProbAbove_ClampsToUnitInterval(t *testing.T) {
	p := bsProbAbove(100, 100, 0.5, 0.2)
	require.False(t, math.IsNaN(p))
	require.GreaterOrEqual(t, p, 0.0)
	require.LessOrEqual(t, p, 1.0)
}
