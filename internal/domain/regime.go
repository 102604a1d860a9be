package domain

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Regime is the trend/ranging classification of the current market.
type Regime string

const (
	RegimeTrending Regime = "trending"
	RegimeRanging  Regime = "ranging"
)

// MarketRegimeContext is the per-evaluation snapshot of market state. It is
// supplied by the caller and never owned or cached by the pipeline.
type MarketRegimeContext struct {
	VolatilityPercentile float64 `json:"volatility_percentile"`
	Regime               Regime  `json:"regime"`
	// GlobalTension is a 0-100 stress indicator sourced from the
	// sentiment collaborator. Readings at or above the configured
	// extreme threshold block everything but panic-reversal strategies.
	GlobalTension float64 `json:"global_tension"`
}

// ClassifyRegime derives a trending/ranging call from closing prices using
// fast/slow EMA separation. With 200+ closes the 50/200 pair is used,
// otherwise 20/50. Separation above 0.1% of the slow EMA counts as a trend.
func ClassifyRegime(closes []float64) Regime {
	fastPeriod, slowPeriod := 50, 200
	if len(closes) < slowPeriod {
		fastPeriod, slowPeriod = 20, 50
	}
	if len(closes) < slowPeriod {
		return RegimeRanging
	}

	fast := lastEMA(closes, fastPeriod)
	slow := lastEMA(closes, slowPeriod)
	if math.Abs(fast-slow) > math.Abs(slow)*0.001 {
		return RegimeTrending
	}
	return RegimeRanging
}

// VolatilityPercentileOf places the current volatility reading inside its
// own history, returning the empirical CDF value in [0, 1]. A history
// shorter than 20 samples is not enough for a meaningful percentile and
// yields the neutral 0.5.
func VolatilityPercentileOf(history []float64, current float64) float64 {
	const minSamples = 20
	clean := make([]float64, 0, len(history))
	for _, v := range history {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			clean = append(clean, v)
		}
	}
	if len(clean) < minSamples || math.IsNaN(current) {
		return 0.5
	}
	sort.Float64s(clean)
	return stat.CDF(current, stat.Empirical, clean, nil)
}

func lastEMA(prices []float64, period int) float64 {
	if len(prices) < period {
		return math.NaN()
	}
	var sma float64
	for _, p := range prices[:period] {
		sma += p
	}
	ema := sma / float64(period)
	k := 2.0 / float64(period+1)
	for _, p := range prices[period:] {
		ema = (p-ema)*k + ema
	}
	return ema
}
