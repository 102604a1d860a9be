package domain

import "fmt"

// StageAdaptive names the regime-adaptive threshold gate.
const StageAdaptive = "adaptive"

// AdaptiveThresholds configure how floors tighten with the regime.
type AdaptiveThresholds struct {
	HighVolPercentile    float64 `yaml:"high_vol_percentile" default:"0.90" validate:"gte=0,lte=1"`
	HighVolMinRR         float64 `yaml:"high_vol_min_rr" default:"2.5" validate:"gt=0"`
	RangingMinConfidence float64 `yaml:"ranging_min_confidence" default:"80" validate:"gte=0,lte=100"`
}

func DefaultAdaptiveThresholds() AdaptiveThresholds {
	return AdaptiveThresholds{HighVolPercentile: 0.90, HighVolMinRR: 2.5, RangingMinConfidence: 80}
}

// ParameterAdjustments are per-call floor overrides delivered by the remote
// scorer. Zero means unset. They only ever tighten floors.
type ParameterAdjustments struct {
	MinRR         float64 `json:"min_rr,omitempty"`
	MinConfidence float64 `json:"min_confidence,omitempty"`
}

// AdaptiveFloors are the effective floors for one evaluation. They are a
// stateless function of the regime context and are recomputed every call.
type AdaptiveFloors struct {
	MinRR         float64  `json:"min_rr"`
	MinConfidence float64  `json:"min_confidence"`
	Notes         []string `json:"notes,omitempty"`
}

// EffectiveFloors derives the floors in force for this evaluation. Sources
// that tighten a floor stack stricter-of: base safety floors, the regime
// rules, the aggressiveness risk profile, and remote scorer adjustments.
func EffectiveFloors(base SafetyThresholds, regime MarketRegimeContext, traits StrategyTraits, profile RiskProfile, adj ParameterAdjustments, th AdaptiveThresholds) AdaptiveFloors {
	floors := AdaptiveFloors{MinRR: base.MinRR, MinConfidence: base.MinConfidence}

	if regime.VolatilityPercentile > th.HighVolPercentile {
		floors.MinRR = maxFloat(floors.MinRR, th.HighVolMinRR)
		floors.Notes = append(floors.Notes, fmt.Sprintf("volatility p%.0f: min R:R %.1f", regime.VolatilityPercentile*100, th.HighVolMinRR))
	}
	if regime.Regime == RegimeRanging && traits.TrendFollowing {
		floors.MinConfidence = maxFloat(floors.MinConfidence, th.RangingMinConfidence)
		floors.Notes = append(floors.Notes, fmt.Sprintf("ranging market: min confidence %.0f", th.RangingMinConfidence))
	}
	if profile.MinRR > floors.MinRR {
		floors.MinRR = profile.MinRR
		floors.Notes = append(floors.Notes, fmt.Sprintf("risk profile: min R:R %.2f", profile.MinRR))
	}
	if adj.MinRR > floors.MinRR {
		floors.MinRR = adj.MinRR
		floors.Notes = append(floors.Notes, fmt.Sprintf("scorer adjustment: min R:R %.2f", adj.MinRR))
	}
	if adj.MinConfidence > floors.MinConfidence {
		floors.MinConfidence = adj.MinConfidence
		floors.Notes = append(floors.Notes, fmt.Sprintf("scorer adjustment: min confidence %.0f", adj.MinConfidence))
	}
	return floors
}

// EvaluateAdaptiveGate holds the candidate against the effective floors.
// Failing an effective floor that the base safety gate allowed is an
// ordinary funnel outcome, reported as a regime-adaptive veto.
func EvaluateAdaptiveGate(fv FeatureVector, floors AdaptiveFloors) GateResult {
	if fv.RR < floors.MinRR {
		return Veto(StageAdaptive,
			fmt.Sprintf("regime-adaptive floor: R:R %.2f below effective %.2f", fv.RR, floors.MinRR),
			GateEvidence{OK: false, Value: fv.RR, Threshold: floors.MinRR, Name: "effective_rr"})
	}
	if fv.ConfidenceRaw < floors.MinConfidence {
		return Veto(StageAdaptive,
			fmt.Sprintf("regime-adaptive floor: confidence %.1f below effective %.1f", fv.ConfidenceRaw, floors.MinConfidence),
			GateEvidence{OK: false, Value: fv.ConfidenceRaw, Threshold: floors.MinConfidence, Name: "effective_confidence"})
	}
	return Pass(StageAdaptive,
		GateEvidence{OK: true, Value: fv.RR, Threshold: floors.MinRR, Name: "effective_rr"},
		GateEvidence{OK: true, Value: fv.ConfidenceRaw, Threshold: floors.MinConfidence, Name: "effective_confidence"},
	)
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
