package domain

import (
	"fmt"
	"math"
)

// StageRisk names the risk resolver stage.
const StageRisk = "risk"

// RiskPlan is the concrete trade plan attached to an admitted setup.
type RiskPlan struct {
	StopLoss   float64 `json:"stop_loss"`
	TakeProfit float64 `json:"take_profit"`
	RR         float64 `json:"rr"`
}

// RiskBounds configure stop sizing and the widest take-profit the resolver
// may reach for.
type RiskBounds struct {
	StopATRMultiple float64 `yaml:"stop_atr_multiple" default:"1.5" validate:"gt=0"`
	TargetRR        float64 `yaml:"target_rr" default:"2.0" validate:"gt=0"`
	MaxRRCap        float64 `yaml:"max_rr_cap" default:"4.0" validate:"gt=0"`
}

func DefaultRiskBounds() RiskBounds {
	return RiskBounds{StopATRMultiple: 1.5, TargetRR: 2.0, MaxRRCap: 4.0}
}

// ResolveRisk computes stop-loss and take-profit from entry price and ATR.
// The stop sits StopATRMultiple ATRs away; the take-profit targets TargetRR
// or the effective minimum R:R, whichever is larger, capped at MaxRRCap.
// When the effective minimum cannot be satisfied inside the cap the resolver
// vetoes, which feeds the admission decision like any other gate.
func ResolveRisk(entry, atr float64, dir Direction, minRR float64, b RiskBounds) (RiskPlan, GateResult) {
	if entry <= 0 || math.IsNaN(entry) || atr <= 0 || math.IsNaN(atr) {
		return RiskPlan{}, Veto(StageRisk, fmt.Sprintf("unusable price/ATR inputs: entry %.5f, atr %.5f", entry, atr))
	}
	if minRR > b.MaxRRCap {
		return RiskPlan{}, Veto(StageRisk,
			fmt.Sprintf("insufficient R:R: effective minimum %.2f exceeds cap %.2f", minRR, b.MaxRRCap),
			GateEvidence{OK: false, Value: minRR, Threshold: b.MaxRRCap, Name: "rr_cap"})
	}

	targetRR := b.TargetRR
	if minRR > targetRR {
		targetRR = minRR
	}

	risk := b.StopATRMultiple * atr
	sign := dir.Sign()
	if sign == 0 {
		return RiskPlan{}, Veto(StageRisk, fmt.Sprintf("unknown direction %q", dir))
	}

	plan := RiskPlan{
		StopLoss:   entry - sign*risk,
		TakeProfit: entry + sign*targetRR*risk,
		RR:         targetRR,
	}
	return plan, Pass(StageRisk,
		GateEvidence{OK: true, Value: plan.RR, Threshold: minRR, Name: "resolved_rr"})
}

// RiskProfile is the aggressiveness-scaled risk envelope. Level 1 is the
// most conservative (0.5% risk, R:R floor 2.5, few trades), level 10 the
// loosest (2.75% risk, R:R floor 1.0, many trades).
type RiskProfile struct {
	RiskPerTradePct float64 `json:"risk_per_trade_percent"`
	MaxTradesPerDay int     `json:"max_trades_per_day"`
	MinRR           float64 `json:"min_rr"`
}

// ProfileForAggressiveness maps the 1-10 aggressiveness scale to a risk
// profile. Out-of-range levels are clamped.
func ProfileForAggressiveness(level int) RiskProfile {
	if level < 1 {
		level = 1
	}
	if level > 10 {
		level = 10
	}
	a := float64(level)
	minRR := 2.5 - (a-1)*0.15
	if minRR < 1.0 {
		minRR = 1.0
	}
	return RiskProfile{
		RiskPerTradePct: math.Round((0.5+(a-1)*0.25)*100) / 100,
		MaxTradesPerDay: 3 + level*2,
		MinRR:           math.Round(minRR*100) / 100,
	}
}
