package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEffectiveFloors_RegimeTightening(t *testing.T) {
	base := DefaultSafetyThresholds()
	th := DefaultAdaptiveThresholds()

	// Calm trending market: base floors apply unchanged.
	floors := EffectiveFloors(base, MarketRegimeContext{Regime: RegimeTrending, VolatilityPercentile: 0.5},
		StrategyTraits{}, RiskProfile{}, ParameterAdjustments{}, th)
	assert.Equal(t, base.MinRR, floors.MinRR)
	assert.Equal(t, base.MinConfidence, floors.MinConfidence)
	assert.Empty(t, floors.Notes)

	// Volatility above p90 raises the R:R floor to 2.5.
	floors = EffectiveFloors(base, MarketRegimeContext{Regime: RegimeTrending, VolatilityPercentile: 0.95},
		StrategyTraits{}, RiskProfile{}, ParameterAdjustments{}, th)
	assert.Equal(t, 2.5, floors.MinRR)
	require.Len(t, floors.Notes, 1)

	// Ranging market tightens confidence for trend-following strategies only.
	floors = EffectiveFloors(base, MarketRegimeContext{Regime: RegimeRanging},
		StrategyTraits{TrendFollowing: true}, RiskProfile{}, ParameterAdjustments{}, th)
	assert.Equal(t, 80.0, floors.MinConfidence)

	floors = EffectiveFloors(base, MarketRegimeContext{Regime: RegimeRanging},
		StrategyTraits{}, RiskProfile{}, ParameterAdjustments{}, th)
	assert.Equal(t, base.MinConfidence, floors.MinConfidence)
}

func TestEffectiveFloors_StricterOfStacking(t *testing.T) {
	base := DefaultSafetyThresholds()
	th := DefaultAdaptiveThresholds()

	// Profile floor above base wins; a looser scorer adjustment is ignored.
	floors := EffectiveFloors(base, MarketRegimeContext{Regime: RegimeTrending},
		StrategyTraits{}, RiskProfile{MinRR: 1.9}, ParameterAdjustments{MinRR: 1.2}, th)
	assert.Equal(t, 1.9, floors.MinRR)

	// A stricter scorer adjustment tops everything.
	floors = EffectiveFloors(base, MarketRegimeContext{Regime: RegimeTrending},
		StrategyTraits{}, RiskProfile{MinRR: 1.9}, ParameterAdjustments{MinRR: 3.0, MinConfidence: 70}, th)
	assert.Equal(t, 3.0, floors.MinRR)
	assert.Equal(t, 70.0, floors.MinConfidence)
}

func TestEvaluateAdaptiveGate(t *testing.T) {
	floors := AdaptiveFloors{MinRR: 2.5, MinConfidence: 60}

	fv := FeatureVector{RR: 2.0, ConfidenceRaw: 75}
	got := EvaluateAdaptiveGate(fv, floors)
	require.True(t, got.Vetoed())
	assert.Contains(t, got.Reason, "regime-adaptive floor")
	assert.Contains(t, got.Reason, "R:R")

	fv = FeatureVector{RR: 2.6, ConfidenceRaw: 55}
	got = EvaluateAdaptiveGate(fv, floors)
	require.True(t, got.Vetoed())
	assert.Contains(t, got.Reason, "confidence")

	fv = FeatureVector{RR: 2.6, ConfidenceRaw: 75}
	got = EvaluateAdaptiveGate(fv, floors)
	require.False(t, got.Vetoed())
}
