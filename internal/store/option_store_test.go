package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/contactkeval/optionprob/internal/domain"
)

func TestApplyQuote_ValidMergesState(t *testing.T) {
	s := New()
	now := time.Now().UTC()

	state, ok := s.ApplyQuote(domain.QuoteEvent{
		OCCSymbol: "O:AAPL260117C00230000",
		Bid:       5.0,
		Ask:       5.2,
		Timestamp: now,
	})

	require.True(t, ok)
	require.Equal(t, domain.AAPL, state.Symbol)
	require.InDelta(t, 230.0, state.StrikePrice, 1e-9)
	require.InDelta(t, 5.1, state.Mid, 1e-9)
	require.InDelta(t, 0.2, state.Spread, 1e-9)
	require.Equal(t, 1, s.Count())
}

func TestApplyQuote_CrossedBidAskRejected(t *testing.T) {
	s := New()
	_, ok := s.ApplyQuote(domain.QuoteEvent{
		OCCSymbol: "O:AAPL260117C00230000",
		Bid:       5.5,
		Ask:       5.0,
	})
	require.False(t, ok)
	require.Equal(t, 0, s.Count())
}

func TestApplyQuote_NegativePriceRejected(t *testing.T) {
	s := New()
	_, ok := s.ApplyQuote(domain.QuoteEvent{
		OCCSymbol: "O:AAPL260117C00230000",
		Bid:       -1.0,
		Ask:       5.0,
	})
	require.False(t, ok)
}

func TestApplyQuote_UnparseableSymbolRejected(t *testing.T) {
	s := New()
	_, ok := s.ApplyQuote(domain.QuoteEvent{
		OCCSymbol: "garbage",
		Bid:       1.0,
		Ask:       2.0,
	})
	require.False(t, ok)
}

func TestApplyQuote_LatestOverwritesPrevious(t *testing.T) {
	s := New()
	sym := "O:AAPL260117C00230000"

	s.ApplyQuote(domain.QuoteEvent{OCCSymbol: sym, Bid: 5.0, Ask: 5.2})
	state, ok := s.ApplyQuote(domain.QuoteEvent{OCCSymbol: sym, Bid: 6.0, Ask: 6.4})

	require.True(t, ok)
	require.InDelta(t, 6.2, state.Mid, 1e-9)
	require.Equal(t, 1, s.Count())
}

func TestGetByStrikeAndGetStrikes(t *testing.T) {
	s := New()
	s.ApplyQuote(domain.QuoteEvent{OCCSymbol: "O:AAPL260117C00230000", Bid: 5.0, Ask: 5.2})
	s.ApplyQuote(domain.QuoteEvent{OCCSymbol: "O:AAPL260117P00230000", Bid: 4.0, Ask: 4.2})
	s.ApplyQuote(domain.QuoteEvent{OCCSymbol: "O:AAPL260117C00235000", Bid: 3.0, Ask: 3.2})

	atStrike := s.GetByStrike(domain.AAPL, 230.0)
	require.Len(t, atStrike, 2)

	strikes := s.GetStrikes(domain.AAPL)
	require.Equal(t, []float64{230.0, 235.0}, strikes)
}

func TestClear(t *testing.T) {
	s := New()
	s.ApplyQuote(domain.QuoteEvent{OCCSymbol: "O:AAPL260117C00230000", Bid: 5.0, Ask: 5.2})
	require.Equal(t, 1, s.Count())
	s.Clear()
	require.Equal(t, 0, s.Count())
}
