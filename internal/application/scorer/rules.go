package scorer

import (
	"context"
	"math"
)

// RuleScorer is the deterministic fallback variant: a weighted linear
// combination of trend strength, stop distance and time-of-day quality,
// squashed into a probability. Weights are fixed, tuned to track the trained
// model's behavior on the same features.
type RuleScorer struct {
	trendWeight float64
	stopWeight  float64
	todWeight   float64
	bias        float64
}

func NewRuleScorer() *RuleScorer {
	return &RuleScorer{
		trendWeight: 1.6,
		stopWeight:  0.8,
		todWeight:   0.9,
		bias:        -1.4,
	}
}

func (s *RuleScorer) Name() string { return "rules" }

// Score computes the heuristic win probability. Trend strength saturates at
// an ADX-like reading of 50; stop distance is best near 1.5 ATR and decays
// on both sides.
func (s *RuleScorer) Score(_ context.Context, req Request) (Outcome, error) {
	fv := req.Features

	trend := math.Min(fv.TrendStrength/50.0, 1.0)
	stop := 1.0 - math.Min(math.Abs(fv.SLDistanceATR-1.5)/1.5, 1.0)
	tod := fv.TimeOfDayScore

	z := s.bias + s.trendWeight*trend + s.stopWeight*stop + s.todWeight*tod
	p := 1.0 / (1.0 + math.Exp(-z))

	out := Outcome{
		WinProbability: p,
		ExpectedR:      p*fv.RR - (1 - p),
	}
	if err := validateOutcome(s.Name(), out); err != nil {
		return Outcome{}, err
	}
	return out, nil
}
