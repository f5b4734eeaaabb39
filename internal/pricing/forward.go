package pricing

import (
	"math"
	"sort"

	"github.com/contactkeval/optionprob/internal/domain"
)

// ForwardEstimate is a robust, liquidity-weighted forward estimate
// derived from put–call parity across the strikes in a snapshot.
type ForwardEstimate struct {
	Forward float64
	NUsed   int
	Median  float64
	MinF    float64
	MaxF    float64
}

// ForwardOptions configures EstimateForward.
type ForwardOptions struct {
	Discount  float64 // D = exp(-rT); defaults to 1.0 if zero
	MaxSpread float64 // absolute spread filter; 0 disables
	TrimPct   float64 // trim outliers beyond this fraction of the median; defaults to 0.02 if zero
	MinMid    float64 // drop quotes with mid <= this; defaults to 1e-6 if zero
}

type forwardCandidate struct {
	f, w float64
}

// EstimateForward derives the market-implied forward price for one
// expiry from put–call parity: C(K) - P(K) = D*(F-K), so
// F(K) = K + (C(K)-P(K))/D, aggregated across strikes via a
// liquidity-weighted, median-trimmed mean. Returns ok=false if fewer
// than 3 usable strikes survive.
func EstimateForward(snapshot domain.OptionSurfaceSnapshot, opts ForwardOptions) (ForwardEstimate, bool) {
	discount := opts.Discount
	if discount == 0 {
		discount = 1.0
	}
	trimPct := opts.TrimPct
	if trimPct == 0 {
		trimPct = 0.02
	}
	minMid := opts.MinMid
	if minMid == 0 {
		minMid = 1e-6
	}

	if discount <= 0 || !isFinite(discount) {
		return ForwardEstimate{}, false
	}

	strikes := commonStrikes(snapshot)
	if len(strikes) == 0 {
		return ForwardEstimate{}, false
	}

	var candidates []forwardCandidate
	for _, k := range strikes {
		call, okC := snapshot.GetCall(k)
		put, okP := snapshot.GetPut(k)
		if !okC || !okP {
			continue
		}
		if call.Mid <= minMid || put.Mid <= minMid {
			continue
		}
		if call.Bid < 0 || call.Ask < 0 || call.Bid > call.Ask {
			continue
		}
		if put.Bid < 0 || put.Ask < 0 || put.Bid > put.Ask {
			continue
		}
		if opts.MaxSpread > 0 && (call.Spread > opts.MaxSpread || put.Spread > opts.MaxSpread) {
			continue
		}

		fI := k + (call.Mid-put.Mid)/discount
		if !isFinite(fI) || fI <= 0 {
			continue
		}

		w := 1.0 / math.Max(call.Spread+put.Spread, 1e-9)
		candidates = append(candidates, forwardCandidate{f: fI, w: w})
	}

	if len(candidates) < 3 {
		return ForwardEstimate{}, false
	}

	fsSorted := make([]float64, len(candidates))
	for i, c := range candidates {
		fsSorted[i] = c.f
	}
	sort.Float64s(fsSorted)

	median := medianOf(fsSorted)

	lo := median * (1.0 - trimPct)
	hi := median * (1.0 + trimPct)

	var trimmed []forwardCandidate
	for _, c := range candidates {
		if c.f >= lo && c.f <= hi {
			trimmed = append(trimmed, c)
		}
	}
	if len(trimmed) < 3 {
		trimmed = candidates
	}

	wSum := 0.0
	for _, c := range trimmed {
		wSum += c.w
	}
	if wSum <= 0 {
		return ForwardEstimate{}, false
	}

	forward := 0.0
	minF := trimmed[0].f
	maxF := trimmed[0].f
	for _, c := range trimmed {
		forward += c.f * c.w
		if c.f < minF {
			minF = c.f
		}
		if c.f > maxF {
			maxF = c.f
		}
	}
	forward /= wSum

	return ForwardEstimate{
		Forward: forward,
		NUsed:   len(trimmed),
		Median:  median,
		MinF:    minF,
		MaxF:    maxF,
	}, true
}

func commonStrikes(snapshot domain.OptionSurfaceSnapshot) []float64 {
	callSet := map[float64]bool{}
	for _, k := range snapshot.CallStrikes() {
		callSet[k] = true
	}
	putSet := map[float64]bool{}
	for _, k := range snapshot.PutStrikes() {
		putSet[k] = true
	}
	var out []float64
	for k := range callSet {
		if putSet[k] {
			out = append(out, k)
		}
	}
	sort.Float64s(out)
	return out
}

func medianOf(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return 0.5 * (sorted[n/2-1] + sorted[n/2])
}
