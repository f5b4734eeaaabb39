// Package models implements the four probability models that share a
// uniform interface: ProbAbove(K) returns P(S_T > K), or NaN if the
// model has insufficient data or K falls outside what it can price.
package models

import (
	"math"

	"github.com/contactkeval/optionprob/internal/domain"
)

// Model is the uniform interface every probability model satisfies.
type Model interface {
	// ProbAbove returns P(S_T > K) for strike K, or NaN if absent.
	ProbAbove(K float64) float64
}

// ToPrediction runs a model (which may be nil, representing "could
// not be built") at strike K and wraps the result as a
// domain.ModelPrediction, converting the absent case to NaN for
// driver ergonomics.
func ToPrediction(name string, m Model, strike, forward float64, nPoints int) domain.ModelPrediction {
	prob := math.NaN()
	if m != nil {
		prob = m.ProbAbove(strike)
	}
	return domain.ModelPrediction{
		ModelName: name,
		ProbAbove: prob,
		Forward:   forward,
		NPoints:   nPoints,
	}
}
