package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdictfx/verdict/internal/domain"
)

func TestRenderExplanation_Admitted(t *testing.T) {
	in := explainInputs{
		result: domain.EvaluationResult{
			Tier:           domain.TierB,
			CompositeScore: 72.4,
			Admitted:       true,
			RiskPlan:       &domain.RiskPlan{StopLoss: 1.0985, TakeProfit: 1.103, RR: 2.0},
		},
		technical: domain.Pass(domain.StageTechnical,
			domain.GateEvidence{OK: true, Name: "price_above_ema200"},
			domain.GateEvidence{OK: true, Name: "rsi_band"},
			domain.GateEvidence{OK: true, Name: "macd_momentum"},
		),
		deltas: []Delta{
			{Name: "htf_alignment", Value: 15, Reason: "HTF trend aligned"},
			{Name: "volatility", Value: 10, Reason: "healthy volatility"},
			{Name: "session", Value: 8, Reason: "premium liquidity session"},
			{Name: "expectancy", Value: -10, Reason: "low expected R"},
		},
		floors: domain.AdaptiveFloors{MinRR: 1.9, Notes: []string{"risk profile: min R:R 1.90"}},
	}

	want := "Tier B (72.4)." +
		" Technical: price above EMA200, RSI in band, MACD momentum confirms." +
		" Key adjustments: HTF trend aligned (+15), low expected R (-10), healthy volatility (+10)." +
		" Plan: SL 1.09850, TP 1.10300, R:R 2.00 against floor 1.90." +
		" Regime: risk profile: min R:R 1.90."
	assert.Equal(t, want, renderExplanation(in))
}

func TestRenderExplanation_Vetoed(t *testing.T) {
	res := domain.EvaluationResult{
		CompositeScore: 25,
		Stages: []domain.GateResult{
			domain.Pass(domain.StageTechnical),
			domain.Pass(domain.StagePlayability),
			domain.Veto(domain.StageSafety, "low confidence: 40.0 below floor 50.0"),
		},
	}
	res.MarkVeto(res.Stages[2])

	want := "Vetoed at safety stage: low confidence: 40.0 below floor 50.0." +
		" Passed before veto: technical, playability." +
		" Tier C (25.0)."
	assert.Equal(t, want, renderExplanation(explainInputs{result: res}))
}

func TestRenderExplanation_Deterministic(t *testing.T) {
	in := explainInputs{
		result: domain.EvaluationResult{Tier: domain.TierAPlus, CompositeScore: 91},
		deltas: []Delta{
			{Name: "volatility", Value: 10, Reason: "healthy volatility"},
			{Name: "htf_alignment", Value: 15, Reason: "HTF trend aligned"},
		},
	}
	first := renderExplanation(in)
	for i := 0; i < 10; i++ {
		require.Equal(t, first, renderExplanation(in))
	}
}
