package domain

import "fmt"

// StageSafety names the hard-floor gate.
const StageSafety = "safety"

// SafetyThresholds are inviolable base floors, independent of any learned
// model. The regime-adaptive layer may tighten them later but never relaxes
// them.
type SafetyThresholds struct {
	MinConfidence float64 `yaml:"min_confidence" default:"50" validate:"gte=0,lte=100"`
	MinRR         float64 `yaml:"min_rr" default:"1.0" validate:"gt=0"`
	MinStopATR    float64 `yaml:"min_stop_atr" default:"0.5" validate:"gte=0"`
}

func DefaultSafetyThresholds() SafetyThresholds {
	return SafetyThresholds{MinConfidence: 50, MinRR: 1.0, MinStopATR: 0.5}
}

// EvaluateSafetyGate applies the fixed floors in order: confidence, risk:
// reward, stop distance. It runs before the scorer so doomed candidates
// never reach inference. Whitelisted high-win-rate scalping strategies skip
// the R:R floor only.
func EvaluateSafetyGate(fv FeatureVector, traits StrategyTraits, th SafetyThresholds) GateResult {
	if fv.ConfidenceRaw < th.MinConfidence {
		return Veto(StageSafety,
			fmt.Sprintf("low confidence: %.1f below floor %.1f", fv.ConfidenceRaw, th.MinConfidence),
			GateEvidence{OK: false, Value: fv.ConfidenceRaw, Threshold: th.MinConfidence, Name: "confidence"})
	}

	if fv.RR < th.MinRR && !traits.ScalpWhitelisted {
		return Veto(StageSafety,
			fmt.Sprintf("negative expectancy: R:R %.2f below floor %.2f", fv.RR, th.MinRR),
			GateEvidence{OK: false, Value: fv.RR, Threshold: th.MinRR, Name: "rr"})
	}

	if fv.SLDistanceATR < th.MinStopATR {
		return Veto(StageSafety,
			fmt.Sprintf("stop too tight: %.2f ATR below noise floor %.2f", fv.SLDistanceATR, th.MinStopATR),
			GateEvidence{OK: false, Value: fv.SLDistanceATR, Threshold: th.MinStopATR, Name: "sl_distance_atr"})
	}

	return Pass(StageSafety,
		GateEvidence{OK: true, Value: fv.ConfidenceRaw, Threshold: th.MinConfidence, Name: "confidence"},
		GateEvidence{OK: true, Value: fv.RR, Threshold: th.MinRR, Name: "rr"},
		GateEvidence{OK: true, Value: fv.SLDistanceATR, Threshold: th.MinStopATR, Name: "sl_distance_atr"},
	)
}
