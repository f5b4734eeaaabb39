// Package surface builds immutable option surface snapshots from raw
// option store state, the input every probability model consumes.
package surface

import (
	"sort"
	"time"

	"github.com/contactkeval/optionprob/internal/domain"
)

// BuildOptions configures snapshot construction.
type BuildOptions struct {
	// MaxSpread drops quotes with an absolute spread above this
	// threshold. Zero disables the filter.
	MaxSpread float64
}

// Build assembles an OptionSurfaceSnapshot for one symbol+expiry from
// an arbitrary set of option states (typically OptionStore.GetBySymbol),
// sorted ascending by strike and split into calls/puts.
func Build(states []domain.OptionState, symbol domain.Symbol, expirationDate time.Time, opts BuildOptions) domain.OptionSurfaceSnapshot {
	var calls, puts []domain.OptionPoint

	for _, s := range states {
		if s.Symbol != symbol || !s.ExpirationDate.Equal(expirationDate) {
			continue
		}
		if opts.MaxSpread > 0 && s.Spread > opts.MaxSpread {
			continue
		}

		point := domain.OptionPoint{
			Strike:     s.StrikePrice,
			OptionType: s.OptionType,
			Bid:        s.Bid,
			Ask:        s.Ask,
			Mid:        s.Mid,
			Spread:     s.Spread,
		}

		if s.OptionType == domain.Call {
			calls = append(calls, point)
		} else {
			puts = append(puts, point)
		}
	}

	sort.Slice(calls, func(i, j int) bool { return calls[i].Strike < calls[j].Strike })
	sort.Slice(puts, func(i, j int) bool { return puts[i].Strike < puts[j].Strike })

	return domain.OptionSurfaceSnapshot{
		Symbol:         symbol,
		ExpirationDate: expirationDate,
		Calls:          calls,
		Puts:           puts,
	}
}
