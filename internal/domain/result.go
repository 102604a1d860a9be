package domain

import (
	"errors"
	"time"
)

// ErrUnknownSignal is returned when a label refers to a signal the registry
// has never seen or has already expired.
var ErrUnknownSignal = errors.New("unknown signal")

// EvaluationResult is the single output of one funnel run. It is returned to
// the caller and parked in the signal registry; the pipeline itself never
// persists it.
type EvaluationResult struct {
	SignalID   string `json:"signal_id"`
	Instrument string `json:"instrument"`
	Timeframe  string `json:"timeframe"`
	StrategyID string `json:"strategy_id"`

	Admitted       bool      `json:"admitted"`
	Tier           Tier      `json:"tier"`
	CompositeScore float64   `json:"composite_score"`
	RiskPlan       *RiskPlan `json:"risk_plan,omitempty"`
	Explanation    string    `json:"explanation"`
	VetoReason     string    `json:"veto_reason,omitempty"`
	VetoStage      string    `json:"veto_stage,omitempty"`

	Features    FeatureVector `json:"features"`
	Stages      []GateResult  `json:"stages"`
	EvaluatedAt time.Time     `json:"evaluated_at"`
}

// MarkVeto enforces the veto invariant: once a veto reason is set the result
// cannot be admitted and the tier collapses to C. The composite score keeps
// whatever partial value earlier stages accumulated, for diagnostics.
func (r *EvaluationResult) MarkVeto(g GateResult) {
	r.Admitted = false
	r.Tier = TierC
	r.VetoReason = g.Reason
	r.VetoStage = g.Stage
	r.RiskPlan = nil
}
