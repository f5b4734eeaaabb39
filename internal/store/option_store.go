// Package store implements the single-writer in-memory state store
// for option contract quotes: a quote event comes in, the store parses
// its OCC symbol, computes mid/spread, and merges it into the latest
// state for that contract.
//
// Only the store owner (the listener's consuming goroutine) calls
// ApplyQuote. Everything else holds a read-only view. There is no
// mutex here by design — the store is meant to be driven from one
// goroutine, matching the single-threaded-cooperative model it was
// adapted from.
package store

import (
	"github.com/contactkeval/optionprob/internal/domain"
	"github.com/contactkeval/optionprob/internal/occ"
)

// Reader is the read-only view of the store.
type Reader interface {
	Get(occSymbol string) (domain.OptionState, bool)
	GetAll() map[string]domain.OptionState
	GetBySymbol(symbol domain.Symbol) []domain.OptionState
	GetByStrike(symbol domain.Symbol, strike float64) []domain.OptionState
	GetStrikes(symbol domain.Symbol) []float64
	Count() int
}

// Writer is the write interface — only the store owner should use it.
type Writer interface {
	ApplyQuote(quote domain.QuoteEvent) (domain.OptionState, bool)
	Clear()
}

// OptionStore is the in-memory state store with separated read/write
// surfaces. It owns the merge logic: callers pass raw quotes, not
// state.
type OptionStore struct {
	states map[string]domain.OptionState
}

// New returns an empty OptionStore.
func New() *OptionStore {
	return &OptionStore{states: make(map[string]domain.OptionState)}
}

// ApplyQuote parses the quote's OCC symbol, computes mid and spread,
// and merges the result into the store. It returns false if the quote
// is garbage (negative or crossed bid/ask) or the symbol doesn't
// parse to a recognized contract.
func (s *OptionStore) ApplyQuote(quote domain.QuoteEvent) (domain.OptionState, bool) {
	if quote.Bid < 0 || quote.Ask < 0 || quote.Bid > quote.Ask {
		return domain.OptionState{}, false
	}

	parsed, ok := occ.Parse(quote.OCCSymbol)
	if !ok {
		return domain.OptionState{}, false
	}

	mid := (quote.Bid + quote.Ask) / 2
	spread := quote.Ask - quote.Bid

	state := domain.OptionState{
		OCCSymbol:      quote.OCCSymbol,
		Symbol:         parsed.Symbol,
		StrikePrice:    parsed.Strike,
		ExpirationDate: parsed.ExpirationDate,
		OptionType:     parsed.OptionType,
		Bid:            quote.Bid,
		Ask:            quote.Ask,
		Mid:            mid,
		Spread:         spread,
		LastUpdated:    quote.Timestamp,
	}

	s.states[quote.OCCSymbol] = state
	return state, true
}

// Clear removes all stored state.
func (s *OptionStore) Clear() {
	s.states = make(map[string]domain.OptionState)
}

// Get returns the state for one OCC symbol.
func (s *OptionStore) Get(occSymbol string) (domain.OptionState, bool) {
	st, ok := s.states[occSymbol]
	return st, ok
}

// GetAll returns a shallow copy of every tracked state.
func (s *OptionStore) GetAll() map[string]domain.OptionState {
	out := make(map[string]domain.OptionState, len(s.states))
	for k, v := range s.states {
		out[k] = v
	}
	return out
}

// GetBySymbol returns every tracked state for one underlying symbol.
func (s *OptionStore) GetBySymbol(symbol domain.Symbol) []domain.OptionState {
	var out []domain.OptionState
	for _, st := range s.states {
		if st.Symbol == symbol {
			out = append(out, st)
		}
	}
	return out
}

// GetByStrike returns the call and put states for a symbol+strike.
func (s *OptionStore) GetByStrike(symbol domain.Symbol, strike float64) []domain.OptionState {
	var out []domain.OptionState
	for _, st := range s.states {
		if st.Symbol == symbol && st.StrikePrice == strike {
			out = append(out, st)
		}
	}
	return out
}

// GetStrikes returns the sorted, deduplicated strikes tracked for a symbol.
func (s *OptionStore) GetStrikes(symbol domain.Symbol) []float64 {
	seen := map[float64]bool{}
	for _, st := range s.states {
		if st.Symbol == symbol {
			seen[st.StrikePrice] = true
		}
	}
	out := make([]float64, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

// Count returns the total number of tracked contracts.
func (s *OptionStore) Count() int {
	return len(s.states)
}
