package domain

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidFeatures rejects a malformed feature vector before it enters the
// funnel. Out-of-range and non-finite values are never silently clamped.
var ErrInvalidFeatures = errors.New("invalid feature vector")

// Direction of the candidate setup.
type Direction string

const (
	Long  Direction = "long"
	Short Direction = "short"
)

// Sign returns +1 for long, -1 for short and 0 for anything else.
func (d Direction) Sign() float64 {
	switch d {
	case Long:
		return 1
	case Short:
		return -1
	default:
		return 0
	}
}

// EntryType classifies how the upstream strategy entered the setup.
type EntryType string

const (
	EntryPullback EntryType = "pullback"
	EntryBreakout EntryType = "breakout"
	EntryReversal EntryType = "reversal"
)

// SessionPhase is the trading-session bucket the setup was generated in.
type SessionPhase string

const (
	SessionAsian      SessionPhase = "asian"
	SessionLondonOpen SessionPhase = "london_open"
	SessionLondon     SessionPhase = "london"
	SessionNYOverlap  SessionPhase = "ny_overlap"
	SessionNY         SessionPhase = "ny"
	SessionLateNY     SessionPhase = "late_ny"
)

// NewsProximityNone marks a feature vector with no upcoming calendar event.
const NewsProximityNone = 999

// FeatureVector is the immutable per-candidate input to the funnel. It is
// built once by the feature extractor and never mutated; downstream layers
// derive new values instead of editing in place.
type FeatureVector struct {
	Direction            Direction    `json:"direction"`
	RR                   float64      `json:"rr"`
	SLDistanceATR        float64      `json:"sl_distance_atr"`
	EntryType            EntryType    `json:"entry_type"`
	TrendStrength        float64      `json:"trend_strength"`
	VolatilityPercentile float64      `json:"volatility_percentile"`
	HTFBias              float64      `json:"htf_bias"`
	SessionPhase         SessionPhase `json:"session_phase"`
	NewsProximityMin     int          `json:"news_proximity_minutes"`
	TimeOfDayScore       float64      `json:"time_of_day_score"`
	ConfidenceRaw        float64      `json:"confidence_raw"`
}

// Validate checks ranges and finiteness for every field. The first failed
// field is reported; the error wraps ErrInvalidFeatures.
func (fv FeatureVector) Validate() error {
	if fv.Direction != Long && fv.Direction != Short {
		return fmt.Errorf("%w: direction %q", ErrInvalidFeatures, fv.Direction)
	}
	switch fv.EntryType {
	case EntryPullback, EntryBreakout, EntryReversal:
	default:
		return fmt.Errorf("%w: entry_type %q", ErrInvalidFeatures, fv.EntryType)
	}
	checks := []struct {
		name     string
		value    float64
		min, max float64
	}{
		{"rr", fv.RR, math.SmallestNonzeroFloat64, math.MaxFloat64},
		{"sl_distance_atr", fv.SLDistanceATR, 0, math.MaxFloat64},
		{"trend_strength", fv.TrendStrength, 0, math.MaxFloat64},
		{"volatility_percentile", fv.VolatilityPercentile, 0, 1},
		{"htf_bias", fv.HTFBias, -1, 1},
		{"time_of_day_score", fv.TimeOfDayScore, 0, 1},
		{"confidence_raw", fv.ConfidenceRaw, 0, 100},
	}
	for _, c := range checks {
		if math.IsNaN(c.value) || math.IsInf(c.value, 0) {
			return fmt.Errorf("%w: %s is not finite", ErrInvalidFeatures, c.name)
		}
		if c.value < c.min || c.value > c.max {
			return fmt.Errorf("%w: %s %.4f out of range [%g, %g]", ErrInvalidFeatures, c.name, c.value, c.min, c.max)
		}
	}
	if fv.NewsProximityMin < -NewsProximityNone {
		return fmt.Errorf("%w: news_proximity_minutes %d", ErrInvalidFeatures, fv.NewsProximityMin)
	}
	return nil
}

// StrategyTraits are per-strategy flags looked up by strategy ID. They come
// from configuration, not from the candidate itself.
type StrategyTraits struct {
	// PanicReversal strategies are allowed to trade through extreme
	// global-tension readings.
	PanicReversal bool `json:"panic_reversal" yaml:"panic_reversal"`
	// ScalpWhitelisted marks high-win-rate scalping strategies (empirical
	// win rate above 80%) exempt from the base R:R floor.
	ScalpWhitelisted bool `json:"scalp_whitelisted" yaml:"scalp_whitelisted"`
	// TrendFollowing strategies face a stricter confidence floor in
	// ranging regimes.
	TrendFollowing bool `json:"trend_following" yaml:"trend_following"`
}
