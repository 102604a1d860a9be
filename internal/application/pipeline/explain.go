package pipeline

import (
	"fmt"
	"strings"

	"github.com/verdictfx/verdict/internal/domain"
)

// Explanation rendering is a pure template over the intermediate funnel
// results: same inputs, byte-identical output. Golden tests depend on that.

type explainInputs struct {
	result    domain.EvaluationResult
	technical domain.GateResult
	deltas    []Delta
	floors    domain.AdaptiveFloors
}

func renderExplanation(in explainInputs) string {
	var b strings.Builder

	if in.result.VetoReason != "" {
		fmt.Fprintf(&b, "Vetoed at %s stage: %s.", in.result.VetoStage, in.result.VetoReason)
		if len(in.result.Stages) > 1 {
			passed := make([]string, 0, len(in.result.Stages))
			for _, st := range in.result.Stages {
				if st.Status == domain.GatePass {
					passed = append(passed, st.Stage)
				}
			}
			if len(passed) > 0 {
				fmt.Fprintf(&b, " Passed before veto: %s.", strings.Join(passed, ", "))
			}
		}
		fmt.Fprintf(&b, " Tier %s (%.1f).", in.result.Tier, in.result.CompositeScore)
		return b.String()
	}

	fmt.Fprintf(&b, "Tier %s (%.1f).", in.result.Tier, in.result.CompositeScore)

	if passes := technicalPasses(in.technical); len(passes) > 0 {
		fmt.Fprintf(&b, " Technical: %s.", strings.Join(passes, ", "))
	}

	if top := TopDeltas(in.deltas, 3); len(top) > 0 {
		parts := make([]string, 0, len(top))
		for _, d := range top {
			parts = append(parts, fmt.Sprintf("%s (%+.0f)", d.Reason, d.Value))
		}
		fmt.Fprintf(&b, " Key adjustments: %s.", strings.Join(parts, ", "))
	}

	if in.result.RiskPlan != nil {
		fmt.Fprintf(&b, " Plan: SL %.5f, TP %.5f, R:R %.2f against floor %.2f.",
			in.result.RiskPlan.StopLoss, in.result.RiskPlan.TakeProfit, in.result.RiskPlan.RR, in.floors.MinRR)
	}

	for _, note := range in.floors.Notes {
		fmt.Fprintf(&b, " Regime: %s.", note)
	}

	return b.String()
}

func technicalPasses(g domain.GateResult) []string {
	names := map[string]string{
		"price_above_ema200": "price above EMA200",
		"price_below_ema200": "price below EMA200",
		"rsi_band":           "RSI in band",
		"macd_momentum":      "MACD momentum confirms",
	}
	var passes []string
	for _, ev := range g.Evidence {
		if !ev.OK {
			continue
		}
		if label, ok := names[ev.Name]; ok {
			passes = append(passes, label)
		}
	}
	return passes
}
