package surface

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/contactkeval/optionprob/internal/domain"
)

func sampleStates(expiry time.Time) []domain.OptionState {
	return []domain.OptionState{
		{Symbol: domain.AAPL, StrikePrice: 235, ExpirationDate: expiry, OptionType: domain.Call, Bid: 4.9, Ask: 5.1, Mid: 5.0, Spread: 0.2},
		{Symbol: domain.AAPL, StrikePrice: 230, ExpirationDate: expiry, OptionType: domain.Call, Bid: 6.9, Ask: 7.1, Mid: 7.0, Spread: 0.2},
		{Symbol: domain.AAPL, StrikePrice: 230, ExpirationDate: expiry, OptionType: domain.Put, Bid: 3.9, Ask: 4.1, Mid: 4.0, Spread: 0.2},
		{Symbol: domain.AAPL, StrikePrice: 235, ExpirationDate: expiry, OptionType: domain.Put, Bid: 10.0, Ask: 10.8, Mid: 10.4, Spread: 0.8},
		{Symbol: domain.MSFT, StrikePrice: 230, ExpirationDate: expiry, OptionType: domain.Call, Bid: 1.0, Ask: 1.2, Mid: 1.1, Spread: 0.2},
	}
}

func TestBuild_SortsAscendingAndSplitsCallsPuts(t *testing.T) {
	expiry := time.Date(2026, 1, 17, 21, 0, 0, 0, time.UTC)
	snap := Build(sampleStates(expiry), domain.AAPL, expiry, BuildOptions{})

	require.Len(t, snap.Calls, 2)
	require.Len(t, snap.Puts, 2)
	require.Equal(t, 230.0, snap.Calls[0].Strike)
	require.Equal(t, 235.0, snap.Calls[1].Strike)
}

func TestBuild_FiltersOtherSymbolsAndExpiries(t *testing.T) {
	expiry := time.Date(2026, 1, 17, 21, 0, 0, 0, time.UTC)
	other := time.Date(2026, 2, 20, 21, 0, 0, 0, time.UTC)
	states := append(sampleStates(expiry), domain.OptionState{
		Symbol: domain.AAPL, StrikePrice: 240, ExpirationDate: other, OptionType: domain.Call, Mid: 2.0,
	})

	snap := Build(states, domain.AAPL, expiry, BuildOptions{})
	for _, c := range snap.Calls {
		require.NotEqual(t, 240.0, c.Strike)
	}
}

func TestBuild_MaxSpreadFilter(t *testing.T) {
	expiry := time.Date(2026, 1, 17, 21, 0, 0, 0, time.UTC)
	snap := Build(sampleStates(expiry), domain.AAPL, expiry, BuildOptions{MaxSpread: 0.5})

	_, ok := snap.GetPut(235)
	require.False(t, ok, "wide-spread put should have been filtered out")
}

func TestSnapshotAccessors(t *testing.T) {
	expiry := time.Date(2026, 1, 17, 21, 0, 0, 0, time.UTC)
	snap := Build(sampleStates(expiry), domain.AAPL, expiry, BuildOptions{})

	call, ok := snap.GetCall(230)
	require.True(t, ok)
	require.InDelta(t, 7.0, call.Mid, 1e-9)

	require.Equal(t, []float64{230, 235}, snap.AllStrikes())
}
