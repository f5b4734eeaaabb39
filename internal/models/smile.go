package models

import (
	"math"
	"sort"

	"github.com/contactkeval/optionprob/internal/domain"
	"github.com/contactkeval/optionprob/internal/pricing"
)

// smilePoint is one OTM implied-vol observation in log-moneyness
// space, shared input to both the SVI and smoothing-spline smile
// fits: k = ln(K/F), w = sigma^2*T (total variance), weight = liquidity
// proxy (inverse spread).
type smilePoint struct {
	k, w, weight float64
}

const minSmilePoints = 8

// extractOTMIVPoints picks the out-of-the-money side at each common
// strike (puts below the forward, calls at/above it), inverts implied
// vol, and returns the resulting (k, w, weight) points sorted by k.
// Returns ok=false if fewer than minSmilePoints survive.
func extractOTMIVPoints(snapshot domain.OptionSurfaceSnapshot, F, T, discount, maxSpread float64) ([]smilePoint, bool) {
	const minMid = 1e-6

	callSet := map[float64]domain.OptionPoint{}
	for _, c := range snapshot.Calls {
		callSet[c.Strike] = c
	}
	putSet := map[float64]domain.OptionPoint{}
	for _, p := range snapshot.Puts {
		putSet[p.Strike] = p
	}

	var strikes []float64
	for k := range callSet {
		if _, ok := putSet[k]; ok {
			strikes = append(strikes, k)
		}
	}
	if len(strikes) < minSmilePoints {
		return nil, false
	}
	sort.Float64s(strikes)

	var points []smilePoint
	for _, K := range strikes {
		call := callSet[K]
		put := putSet[K]

		if maxSpread > 0 && (call.Spread > maxSpread || put.Spread > maxSpread) {
			continue
		}

		var optType pricing.OptionType
		var price, spread float64
		if K < F {
			optType = pricing.Put
			price, spread = put.Mid, put.Spread
		} else {
			optType = pricing.Call
			price, spread = call.Mid, call.Spread
		}

		if price <= minMid || spread < 0 {
			continue
		}

		iv, ok := pricing.ImpliedVolBisect(optType, price, F, K, T, discount)
		if !ok {
			continue
		}

		w := iv.Sigma * iv.Sigma * T
		if !isFiniteLocal(w) || w <= 0 {
			continue
		}

		points = append(points, smilePoint{
			k:      math.Log(K / F),
			w:      w,
			weight: 1.0 / math.Max(spread, 1e-6),
		})
	}

	if len(points) < minSmilePoints {
		return nil, false
	}

	sort.Slice(points, func(i, j int) bool { return points[i].k < points[j].k })
	return points, true
}

func isFiniteLocal(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

func bsProbAbove(F, K, T, sigma float64) float64 {
	p := pricing.ProbAboveForward(F, K, T, sigma)
	if math.IsNaN(p) {
		return p
	}
	return math.Max(0.0, math.Min(1.0, p))
}
