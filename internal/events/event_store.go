package events

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/contactkeval/optionprob/internal/domain"
	"github.com/contactkeval/optionprob/internal/logger"
)

// EventStore is a single-writer, read-many cache of Polymarket stock
// price prediction events, grouped by symbol. Refresh and Clear are the
// only mutators; every Get* method takes a snapshot of the current map.
type EventStore struct {
	mu          sync.RWMutex
	bySymbol    map[domain.Symbol][]domain.EventMetadata
	lastRefresh time.Time

	fetcher *fetcher
	group   singleflight.Group
}

// NewEventStore constructs an empty store. Call Refresh (or
// RefreshIfStale) before reading, or GetBySymbol/GetAll return nothing.
func NewEventStore() *EventStore {
	return &EventStore{
		bySymbol: make(map[domain.Symbol][]domain.EventMetadata),
		fetcher:  newFetcher(),
	}
}

// newEventStoreWithBaseURL builds an EventStore pointed at an arbitrary
// Gamma API base URL, for testing against an httptest server.
func newEventStoreWithBaseURL(baseURL string) *EventStore {
	return &EventStore{
		bySymbol: make(map[domain.Symbol][]domain.EventMetadata),
		fetcher:  newFetcherWithBaseURL(baseURL),
	}
}

// Refresh fetches every live stock prediction event from the Gamma API
// and replaces the cache wholesale. Returns the number of events
// stored.
func (s *EventStore) Refresh(ctx context.Context) (int, error) {
	events, err, _ := s.group.Do("refresh", func() (interface{}, error) {
		return s.fetcher.FetchStockEvents(ctx)
	})
	if err != nil {
		return 0, err
	}

	fetched := events.([]domain.EventMetadata)

	grouped := make(map[domain.Symbol][]domain.EventMetadata, len(fetched))
	for _, ev := range fetched {
		grouped[ev.Symbol] = append(grouped[ev.Symbol], ev)
	}

	s.mu.Lock()
	s.bySymbol = grouped
	s.lastRefresh = time.Now()
	s.mu.Unlock()

	logger.Infof("prediction market cache refreshed: %d events across %d symbols", len(fetched), len(grouped))
	return len(fetched), nil
}

// RefreshIfStale refreshes only if the cache is older than maxAge.
// Concurrent callers within the same staleness window are coalesced
// onto a single in-flight fetch via singleflight, so a burst of
// requests against a cold cache issues one Gamma API call, not one
// per caller.
func (s *EventStore) RefreshIfStale(ctx context.Context, maxAge time.Duration) (int, error) {
	s.mu.RLock()
	stale := time.Since(s.lastRefresh) > maxAge
	s.mu.RUnlock()

	if !stale {
		return 0, nil
	}
	return s.Refresh(ctx)
}

// GetBySymbol returns a copy of every cached event for symbol, in the
// order the last Refresh fetched them (Refresh replaces the whole map
// atomically).
func (s *EventStore) GetBySymbol(symbol domain.Symbol) []domain.EventMetadata {
	s.mu.RLock()
	defer s.mu.RUnlock()
	events := s.bySymbol[symbol]
	out := make([]domain.EventMetadata, len(events))
	copy(out, events)
	return out
}

// GetAll returns every cached event across all symbols.
func (s *EventStore) GetAll() []domain.EventMetadata {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.EventMetadata
	for _, events := range s.bySymbol {
		out = append(out, events...)
	}
	return out
}

// Direction selects which side of a Polymarket market's price
// GetPolymarketProb returns. The zero value, DirectionUnspecified,
// matches the read interface's direction=None default and returns the
// no-price side.
type Direction string

const (
	DirectionUnspecified Direction = ""
	DirectionAbove       Direction = "above"
	DirectionBelow       Direction = "below"
)

// GetMarket returns the market for symbol whose event's end date is
// exactly endDate and whose strike is exactly strikePrice. Unlike a
// nearest-strike match, this never cross-checks against the wrong
// expiry's market.
func (s *EventStore) GetMarket(symbol domain.Symbol, endDate string, strikePrice float64) (domain.MarketMetadata, bool) {
	for _, ev := range s.GetBySymbol(symbol) {
		if ev.EndDate != endDate || len(ev.Markets) == 0 {
			continue
		}
		for _, m := range ev.Markets {
			if m.StrikePrice == strikePrice {
				return m, true
			}
		}
	}
	return domain.MarketMetadata{}, false
}

// GetPolymarketProb returns the Polymarket-implied probability for
// symbol/endDate/strikePrice. direction selects yes_price
// (DirectionAbove) or no_price (DirectionBelow or DirectionUnspecified
// — the no-price default matches the read interface's direction=None
// behavior). Returns ok=false if no market is cached for this exact
// symbol/end date/strike.
func (s *EventStore) GetPolymarketProb(symbol domain.Symbol, endDate string, strikePrice float64, direction Direction) (float64, bool) {
	market, ok := s.GetMarket(symbol, endDate, strikePrice)
	if !ok {
		return 0, false
	}
	if direction == DirectionAbove {
		return market.YesPrice, true
	}
	return market.NoPrice, true
}

// LastRefresh returns the time of the most recent successful Refresh,
// or the zero time if Refresh has never succeeded.
func (s *EventStore) LastRefresh() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRefresh
}

// Clear empties the cache, as if Refresh had never run.
func (s *EventStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bySymbol = make(map[domain.Symbol][]domain.EventMetadata)
	s.lastRefresh = time.Time{}
}

// Symbols returns the sorted list of symbols with at least one cached
// event.
func (s *EventStore) Symbols() []domain.Symbol {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Symbol, 0, len(s.bySymbol))
	for sym := range s.bySymbol {
		out = append(out, sym)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
