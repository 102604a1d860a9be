package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func safeVector() FeatureVector {
	return FeatureVector{
		Direction:     Long,
		RR:            2.0,
		SLDistanceATR: 1.5,
		EntryType:     EntryPullback,
		ConfidenceRaw: 75,
	}
}

func TestEvaluateSafetyGate(t *testing.T) {
	th := DefaultSafetyThresholds()

	got := EvaluateSafetyGate(safeVector(), StrategyTraits{}, th)
	require.False(t, got.Vetoed())
	assert.Len(t, got.Evidence, 3)

	fv := safeVector()
	fv.ConfidenceRaw = 49.9
	got = EvaluateSafetyGate(fv, StrategyTraits{}, th)
	require.True(t, got.Vetoed())
	assert.Contains(t, got.Reason, "low confidence")

	fv = safeVector()
	fv.RR = 0.8
	got = EvaluateSafetyGate(fv, StrategyTraits{}, th)
	require.True(t, got.Vetoed())
	assert.Contains(t, got.Reason, "negative expectancy")

	fv = safeVector()
	fv.SLDistanceATR = 0.3
	got = EvaluateSafetyGate(fv, StrategyTraits{}, th)
	require.True(t, got.Vetoed())
	assert.Contains(t, got.Reason, "stop too tight")
}

func TestEvaluateSafetyGate_ScalpWhitelistSkipsRROnly(t *testing.T) {
	th := DefaultSafetyThresholds()
	traits := StrategyTraits{ScalpWhitelisted: true}

	fv := safeVector()
	fv.RR = 0.6
	got := EvaluateSafetyGate(fv, traits, th)
	require.False(t, got.Vetoed(), "whitelisted scalps are exempt from the R:R floor")

	// The exemption covers only the R:R floor; the other floors still bind.
	fv.ConfidenceRaw = 30
	got = EvaluateSafetyGate(fv, traits, th)
	require.True(t, got.Vetoed())
	assert.Contains(t, got.Reason, "low confidence")
}
