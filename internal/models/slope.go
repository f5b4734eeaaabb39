package models

import (
	"math"

	"github.com/contactkeval/optionprob/internal/domain"
)

// SlopeModel estimates P(S_T > K) from the local finite-difference
// slope of call mid prices with respect to strike:
// P(S_T > K) = -(1/D) * dC/dK.
type SlopeModel struct {
	Snapshot  domain.OptionSurfaceSnapshot
	Window    int // number of neighboring strikes on each side; defaults to 1 if 0
	Discount  float64
	MaxSpread float64
}

// BuildSlopeModel always returns a model — edge cases are handled at
// query time.
func BuildSlopeModel(snapshot domain.OptionSurfaceSnapshot, window int, discount, maxSpread float64) *SlopeModel {
	if window == 0 {
		window = 1
	}
	if discount == 0 {
		discount = 1.0
	}
	return &SlopeModel{Snapshot: snapshot, Window: window, Discount: discount, MaxSpread: maxSpread}
}

// ProbAbove implements Model.
func (m *SlopeModel) ProbAbove(K float64) float64 {
	calls := m.Snapshot.Calls
	if len(calls) < 2*m.Window+1 {
		return math.NaN()
	}

	strikes := make([]float64, len(calls))
	mids := make([]float64, len(calls))
	spreads := make([]float64, len(calls))
	for i, c := range calls {
		strikes[i] = c.Strike
		mids[i] = c.Mid
		spreads[i] = c.Spread
	}

	i := closestIndex(strikes, K)
	if i < 0 {
		return math.NaN()
	}

	left := i - m.Window
	right := i + m.Window
	if left < 0 || right >= len(strikes) {
		return math.NaN()
	}

	if m.MaxSpread > 0 {
		for j := left; j <= right; j++ {
			if spreads[j] > m.MaxSpread {
				return math.NaN()
			}
		}
	}

	kLeft, kRight := strikes[left], strikes[right]
	cLeft, cRight := mids[left], mids[right]
	if kRight == kLeft {
		return math.NaN()
	}

	slope := (cRight - cLeft) / (kRight - kLeft)
	prob := -slope / m.Discount
	return math.Max(0.0, math.Min(1.0, prob))
}

// closestIndex returns the index of the strike closest to target, or
// -1 if strikes is empty.
func closestIndex(strikes []float64, target float64) int {
	if len(strikes) == 0 {
		return -1
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
	return best
}
