package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validVector() FeatureVector {
	return FeatureVector{
		Direction:            Long,
		RR:                   2.0,
		SLDistanceATR:        1.5,
		EntryType:            EntryPullback,
		TrendStrength:        30,
		VolatilityPercentile: 0.5,
		HTFBias:              1,
		SessionPhase:         SessionLondon,
		NewsProximityMin:     NewsProximityNone,
		TimeOfDayScore:       0.75,
		ConfidenceRaw:        70,
	}
}

func TestFeatureVectorValidate(t *testing.T) {
	require.NoError(t, validVector().Validate())

	mutations := []struct {
		name   string
		mutate func(*FeatureVector)
	}{
		{"empty direction", func(fv *FeatureVector) { fv.Direction = "" }},
		{"bad entry type", func(fv *FeatureVector) { fv.EntryType = "fomo" }},
		{"zero rr", func(fv *FeatureVector) { fv.RR = 0 }},
		{"nan rr", func(fv *FeatureVector) { fv.RR = math.NaN() }},
		{"inf trend", func(fv *FeatureVector) { fv.TrendStrength = math.Inf(1) }},
		{"negative stop distance", func(fv *FeatureVector) { fv.SLDistanceATR = -0.1 }},
		{"volatility above 1", func(fv *FeatureVector) { fv.VolatilityPercentile = 1.1 }},
		{"bias out of range", func(fv *FeatureVector) { fv.HTFBias = 2 }},
		{"tod above 1", func(fv *FeatureVector) { fv.TimeOfDayScore = 1.5 }},
		{"confidence above 100", func(fv *FeatureVector) { fv.ConfidenceRaw = 101 }},
	}
	for _, tt := range mutations {
		t.Run(tt.name, func(t *testing.T) {
			fv := validVector()
			tt.mutate(&fv)
			err := fv.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidFeatures)
		})
	}
}

func TestDirectionSign(t *testing.T) {
	assert.Equal(t, 1.0, Long.Sign())
	assert.Equal(t, -1.0, Short.Sign())
	assert.Equal(t, 0.0, Direction("").Sign())
}

func TestMarkVetoInvariant(t *testing.T) {
	res := EvaluationResult{
		Admitted:       true,
		Tier:           TierAPlus,
		CompositeScore: 42,
		RiskPlan:       &RiskPlan{RR: 2},
	}
	res.MarkVeto(Veto(StageSafety, "low confidence"))

	assert.False(t, res.Admitted)
	assert.Equal(t, TierC, res.Tier)
	assert.Equal(t, StageSafety, res.VetoStage)
	assert.Equal(t, "low confidence", res.VetoReason)
	assert.Nil(t, res.RiskPlan)
	assert.Equal(t, 42.0, res.CompositeScore, "partial score is kept for diagnostics")
}
