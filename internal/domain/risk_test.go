package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveRisk_Long(t *testing.T) {
	b := DefaultRiskBounds()

	plan, res := ResolveRisk(1.1000, 0.0010, Long, 1.0, b)
	require.False(t, res.Vetoed())
	assert.InDelta(t, 1.0985, plan.StopLoss, 1e-9)
	assert.InDelta(t, 1.1030, plan.TakeProfit, 1e-9)
	assert.Equal(t, 2.0, plan.RR)
}

func TestResolveRisk_Short(t *testing.T) {
	plan, res := ResolveRisk(1.1000, 0.0010, Short, 1.0, DefaultRiskBounds())
	require.False(t, res.Vetoed())
	assert.InDelta(t, 1.1015, plan.StopLoss, 1e-9)
	assert.InDelta(t, 1.0970, plan.TakeProfit, 1e-9)
}

func TestResolveRisk_EffectiveMinStretchesTarget(t *testing.T) {
	plan, res := ResolveRisk(1.1000, 0.0010, Long, 2.5, DefaultRiskBounds())
	require.False(t, res.Vetoed())
	assert.Equal(t, 2.5, plan.RR)
}

func TestResolveRisk_CapVeto(t *testing.T) {
	_, res := ResolveRisk(1.1000, 0.0010, Long, 4.5, DefaultRiskBounds())
	require.True(t, res.Vetoed())
	assert.Contains(t, res.Reason, "insufficient R:R")
}

func TestResolveRisk_BadInputs(t *testing.T) {
	b := DefaultRiskBounds()

	_, res := ResolveRisk(0, 0.001, Long, 1.0, b)
	require.True(t, res.Vetoed())

	_, res = ResolveRisk(1.1, 0, Long, 1.0, b)
	require.True(t, res.Vetoed())

	_, res = ResolveRisk(math.NaN(), 0.001, Long, 1.0, b)
	require.True(t, res.Vetoed())

	_, res = ResolveRisk(1.1, 0.001, "sideways", 1.0, b)
	require.True(t, res.Vetoed())
}

func TestProfileForAggressiveness(t *testing.T) {
	conservative := ProfileForAggressiveness(1)
	assert.Equal(t, 0.5, conservative.RiskPerTradePct)
	assert.Equal(t, 5, conservative.MaxTradesPerDay)
	assert.Equal(t, 2.5, conservative.MinRR)

	mid := ProfileForAggressiveness(5)
	assert.Equal(t, 1.5, mid.RiskPerTradePct)
	assert.Equal(t, 13, mid.MaxTradesPerDay)
	assert.Equal(t, 1.9, mid.MinRR)

	loose := ProfileForAggressiveness(10)
	assert.Equal(t, 2.75, loose.RiskPerTradePct)
	assert.Equal(t, 23, loose.MaxTradesPerDay)
	assert.Equal(t, 1.15, loose.MinRR)

	// Out-of-range levels clamp.
	assert.Equal(t, conservative, ProfileForAggressiveness(0))
	assert.Equal(t, loose, ProfileForAggressiveness(99))
}
