package confidence

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/contactkeval/optionprob/internal/domain"
)

func sampleSnapshot() domain.OptionSurfaceSnapshot {
	return domain.OptionSurfaceSnapshot{
		Symbol: domain.AAPL,
		Calls: []domain.OptionPoint{
			{Strike: 220, OptionType: domain.Call, Mid: 12.0, Spread: 0.1},
			{Strike: 225, OptionType: domain.Call, Mid: 9.0, Spread: 0.1},
			{Strike: 230, OptionType: domain.Call, Mid: 6.0, Spread: 0.1},
			{Strike: 235, OptionType: domain.Call, Mid: 3.0, Spread: 0.1},
			{Strike: 240, OptionType: domain.Call, Mid: 1.0, Spread: 0.1},
		},
		Puts: []domain.OptionPoint{
			{Strike: 230, OptionType: domain.Put, Mid: 4.0, Spread: 0.1},
		},
	}
}

func TestCompute_AgreeingModelsHighConfidence(t *testing.T) {
	snap := sampleSnapshot()
	simple := &domain.StrikeProbability{StrikePrice: 230, ProbAbove: 0.6}
	slope := &domain.StrikeProbability{StrikePrice: 230, ProbAbove: 0.6}

	score, diag := Compute(snap, 230, simple, slope, Options{})

	require.Greater(t, score, 0.5)
	require.InDelta(t, 1.0, diag.Agreement, 1e-9)
	require.Equal(t, 1.0, diag.Monotonicity)
}

func TestCompute_DisagreeingModelsLowerAgreement(t *testing.T) {
	snap := sampleSnapshot()
	simple := &domain.StrikeProbability{StrikePrice: 230, ProbAbove: 0.9}
	slope := &domain.StrikeProbability{StrikePrice: 230, ProbAbove: 0.1}

	_, diag := Compute(snap, 230, simple, slope, Options{})
	require.Less(t, diag.Agreement, 0.5)
}

func TestCompute_NilModelInputsZeroAgreement(t *testing.T) {
	snap := sampleSnapshot()
	_, diag := Compute(snap, 230, nil, nil, Options{})
	require.Equal(t, 0.0, diag.Agreement)
}

func TestCompute_MissingPutZeroLiquidity(t *testing.T) {
	snap := sampleSnapshot()
	simple := &domain.StrikeProbability{StrikePrice: 225, ProbAbove: 0.6}
	slope := &domain.StrikeProbability{StrikePrice: 225, ProbAbove: 0.6}

	_, diag := Compute(snap, 225, simple, slope, Options{})
	require.Equal(t, 0.0, diag.Liquidity)
}

func TestCompute_ClampedToUnitInterval(t *testing.T) {
	snap := sampleSnapshot()
	simple := &domain.StrikeProbability{StrikePrice: 230, ProbAbove: 0.6}
	slope := &domain.StrikeProbability{StrikePrice: 230, ProbAbove: 0.6}

	score, _ := Compute(snap, 230, simple, slope, Options{})
	require.GreaterOrEqual(t, score, 0.0)
	require.LessOrEqual(t, score, 1.0)
}
