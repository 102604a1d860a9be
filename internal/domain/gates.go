package domain

import "fmt"

// GateStatus is the tagged outcome of a funnel stage.
type GateStatus string

const (
	GatePass     GateStatus = "pass"
	GateVeto     GateStatus = "veto"
	GateAdjusted GateStatus = "adjusted"
)

// GateEvidence records one measured condition inside a gate, with the value
// that was observed and the threshold it was held against.
type GateEvidence struct {
	OK        bool    `json:"ok"`
	Value     float64 `json:"value"`
	Threshold float64 `json:"threshold"`
	Name      string  `json:"name"`
}

// GateResult is the outcome of a single funnel stage. A veto terminates the
// pipeline immediately; an adjusted result carries a score delta forward.
type GateResult struct {
	Stage    string         `json:"stage"`
	Status   GateStatus     `json:"status"`
	Reason   string         `json:"reason,omitempty"`
	Delta    float64        `json:"delta,omitempty"`
	Evidence []GateEvidence `json:"evidence,omitempty"`
}

func Pass(stage string, evidence ...GateEvidence) GateResult {
	return GateResult{Stage: stage, Status: GatePass, Evidence: evidence}
}

func Veto(stage, reason string, evidence ...GateEvidence) GateResult {
	return GateResult{Stage: stage, Status: GateVeto, Reason: reason, Evidence: evidence}
}

func Adjusted(stage string, delta float64, reason string) GateResult {
	return GateResult{Stage: stage, Status: GateAdjusted, Delta: delta, Reason: reason}
}

// Vetoed reports whether the result terminates the funnel.
func (r GateResult) Vetoed() bool {
	return r.Status == GateVeto
}

func (r GateResult) String() string {
	switch r.Status {
	case GateVeto:
		return fmt.Sprintf("%s: veto (%s)", r.Stage, r.Reason)
	case GateAdjusted:
		return fmt.Sprintf("%s: %+.1f (%s)", r.Stage, r.Delta, r.Reason)
	default:
		return fmt.Sprintf("%s: pass", r.Stage)
	}
}
