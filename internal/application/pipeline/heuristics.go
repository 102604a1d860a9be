package pipeline

import (
	"math"
	"sort"

	"github.com/verdictfx/verdict/internal/domain"
)

// Delta is one bounded heuristic adjustment to the raw scorer output.
type Delta struct {
	Name   string  `json:"name"`
	Value  float64 `json:"value"`
	Reason string  `json:"reason"`
}

// HeuristicThresholds configure the adjustment layer. MaxAggregate caps the
// summed deltas so domain heuristics can never overwhelm the learned signal.
type HeuristicThresholds struct {
	MaxAggregate      float64 `yaml:"max_aggregate" default:"20" validate:"gte=0"`
	ChopTrendMax      float64 `yaml:"chop_trend_max" default:"18" validate:"gte=0"`
	ChopVolatilityMax float64 `yaml:"chop_volatility_max" default:"0.2" validate:"gte=0,lte=1"`
}

func DefaultHeuristicThresholds() HeuristicThresholds {
	return HeuristicThresholds{MaxAggregate: 20, ChopTrendMax: 18, ChopVolatilityMax: 0.2}
}

// HeuristicDeltas computes the domain-knowledge adjustments the scorer does
// not capture: higher-timeframe alignment, session premium, volatility
// context, chop, and historical expectancy. Each delta carries its own
// reason for the explanation layer.
func HeuristicDeltas(fv domain.FeatureVector, expectedR float64, th HeuristicThresholds) []Delta {
	var deltas []Delta

	if fv.HTFBias != 0 {
		if fv.HTFBias*fv.Direction.Sign() > 0 {
			deltas = append(deltas, Delta{Name: "htf_alignment", Value: 15, Reason: "HTF trend aligned"})
		} else {
			deltas = append(deltas, Delta{Name: "htf_alignment", Value: -10, Reason: "counter-trend vs HTF"})
		}
	}

	if fv.TrendStrength < th.ChopTrendMax && fv.VolatilityPercentile < th.ChopVolatilityMax {
		deltas = append(deltas, Delta{Name: "chop", Value: -15, Reason: "range-bound, low-energy market"})
	}

	switch {
	case fv.VolatilityPercentile >= 0.2 && fv.VolatilityPercentile <= 0.8:
		deltas = append(deltas, Delta{Name: "volatility", Value: 10, Reason: "healthy volatility"})
	case fv.VolatilityPercentile > 0.9:
		deltas = append(deltas, Delta{Name: "volatility", Value: -5, Reason: "extreme volatility risk"})
	}

	if fv.SessionPhase == domain.SessionLondonOpen || fv.SessionPhase == domain.SessionNYOverlap {
		deltas = append(deltas, Delta{Name: "session", Value: 8, Reason: "premium liquidity session"})
	}

	if expectedR > 0.6 {
		deltas = append(deltas, Delta{Name: "expectancy", Value: 10, Reason: "high expected R"})
	} else if expectedR < 0.3 {
		deltas = append(deltas, Delta{Name: "expectancy", Value: -10, Reason: "low expected R"})
	}

	return deltas
}

// SumDeltas caps the aggregate adjustment at ±max.
func SumDeltas(deltas []Delta, max float64) (sum float64, capped bool) {
	for _, d := range deltas {
		sum += d.Value
	}
	if sum > max {
		return max, true
	}
	if sum < -max {
		return -max, true
	}
	return sum, false
}

// Composite combines the scorer probability with the capped heuristic
// adjustment and clamps into [0, 100]. This is the one place clamping is
// allowed; the caller logs when the clamp engages.
func Composite(winProbability, deltaSum float64) (score float64, clamped bool) {
	score = winProbability*100 + deltaSum
	if score < 0 {
		return 0, true
	}
	if score > 100 {
		return 100, true
	}
	return score, false
}

// TopDeltas returns up to n deltas sorted by magnitude, ties broken by name
// so the explanation output stays deterministic.
func TopDeltas(deltas []Delta, n int) []Delta {
	sorted := append([]Delta(nil), deltas...)
	sort.Slice(sorted, func(i, j int) bool {
		ai, aj := math.Abs(sorted[i].Value), math.Abs(sorted[j].Value)
		if ai != aj {
			return ai > aj
		}
		return sorted[i].Name < sorted[j].Name
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
