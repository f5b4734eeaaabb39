// Package confidence scores the data quality and estimator stability
// behind a strike-level probability estimate. It does not judge
// whether the market-implied probability is "correct" — only how
// much to trust it.
package confidence

import (
	"math"

	"github.com/contactkeval/optionprob/internal/domain"
)

// Options configures Compute.
type Options struct {
	MaxRelativeSpread float64 // relative spread above which liquidity confidence collapses; defaults to 0.5 if 0
}

// Compute scores P(S_T > K) confidence in [0,1] from four weighted
// components: estimator agreement (0.40), liquidity (0.30), local
// monotonicity (0.20), and strike spacing (0.10).
func Compute(snapshot domain.OptionSurfaceSnapshot, strike float64, probSimple, probSlope *domain.StrikeProbability, opts Options) (float64, domain.ConfidenceDiagnostics) {
	maxRelSpread := opts.MaxRelativeSpread
	if maxRelSpread == 0 {
		maxRelSpread = 0.5
	}

	agreement := agreementScore(probSimple, probSlope)
	liquidity := liquidityScore(snapshot, strike, maxRelSpread)

	calls := snapshot.Calls
	strikes := make([]float64, len(calls))
	mids := make([]float64, len(calls))
	for i, c := range calls {
		strikes[i] = c.Strike
		mids[i] = c.Mid
	}

	idx, haveIdx := closestCallIndex(strikes, strike)
	monotonicity := monotonicityScore(mids, idx, haveIdx)
	spacing := spacingScore(strikes, idx, haveIdx)

	confidence := 0.40*agreement + 0.30*liquidity + 0.20*monotonicity + 0.10*spacing
	confidence = math.Max(0.0, math.Min(1.0, confidence))

	return confidence, domain.ConfidenceDiagnostics{
		Agreement:    agreement,
		Liquidity:    liquidity,
		Monotonicity: monotonicity,
		Spacing:      spacing,
	}
}

func agreementScore(probSimple, probSlope *domain.StrikeProbability) float64 {
	if probSimple == nil || probSlope == nil {
		return 0.0
	}
	delta := math.Abs(probSimple.ProbAbove - probSlope.ProbAbove)
	return math.Exp(-5.0 * delta)
}

func liquidityScore(snapshot domain.OptionSurfaceSnapshot, strike, maxRelSpread float64) float64 {
	call, okC := snapshot.GetCall(strike)
	put, okP := snapshot.GetPut(strike)
	if !okC || !okP {
		return 0.0
	}

	relCall := call.Spread / math.Max(call.Mid, 1e-6)
	relPut := put.Spread / math.Max(put.Mid, 1e-6)
	relSpread := math.Max(relCall, relPut)

	if relSpread >= maxRelSpread {
		return 0.0
	}
	return 1.0 - (relSpread / maxRelSpread)
}

func closestCallIndex(strikes []float64, target float64) (int, bool) {
	if len(strikes) == 0 {
		return -1, false
	}
	best := 0
	bestDist := math.Abs(strikes[0] - target)
	for j := 1; j < len(strikes); j++ {
		d := math.Abs(strikes[j] - target)
		if d < bestDist {
			best = j
			bestDist = d
		}
	}
	return best, true
}

// monotonicityScore checks that call mids don't increase around the
// closest strike to the target (calls should decrease as strike
// rises).
func monotonicityScore(mids []float64, i int, haveIdx bool) float64 {
	if !haveIdx {
		return 0.0
	}
	ok := true
	if i > 0 && mids[i] > mids[i-1] {
		ok = false
	}
	if i < len(mids)-1 && mids[i] < mids[i+1] {
		ok = false
	}
	if ok {
		return 1.0
	}
	return 0.0
}

// spacingScore penalizes wide gaps around the closest strike, since
// wide gaps mean the estimate is effectively extrapolating.
func spacingScore(strikes []float64, i int, haveIdx bool) float64 {
	if !haveIdx || i <= 0 || i >= len(strikes)-1 {
		return 0.0
	}
	dkLeft := math.Abs(strikes[i] - strikes[i-1])
	dkRight := math.Abs(strikes[i+1] - strikes[i])
	spacing := math.Max(dkLeft, dkRight)
	return math.Exp(-0.1 * spacing)
}
