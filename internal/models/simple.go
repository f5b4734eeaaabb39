package models

import (
	"math"

	"github.com/contactkeval/optionprob/internal/domain"
)

// SimpleModel estimates P(S_T > K) from the call/put mid-price ratio
// at the same strike: P(S_T > K) ≈ C(K) / (C(K) + P(K)).
type SimpleModel struct {
	Snapshot  domain.OptionSurfaceSnapshot
	MaxSpread float64 // 0 disables the filter
}

// BuildSimpleModel always returns a model — it can handle missing
// strikes at query time, so there is no "insufficient data" case at
// build time.
func BuildSimpleModel(snapshot domain.OptionSurfaceSnapshot, maxSpread float64) *SimpleModel {
	return &SimpleModel{Snapshot: snapshot, MaxSpread: maxSpread}
}

// ProbAbove implements Model.
func (m *SimpleModel) ProbAbove(K float64) float64 {
	call, okC := m.Snapshot.GetCall(K)
	put, okP := m.Snapshot.GetPut(K)
	if !okC || !okP {
		return math.NaN()
	}
	if m.MaxSpread > 0 && (call.Spread > m.MaxSpread || put.Spread > m.MaxSpread) {
		return math.NaN()
	}

	c, p := call.Mid, put.Mid
	if c <= 0 || p <= 0 {
		return math.NaN()
	}

	denom := c + p
	if denom <= 0 {
		return math.NaN()
	}

	prob := c / denom
	return math.Max(0.0, math.Min(1.0, prob))
}
