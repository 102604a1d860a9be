// Package scorer holds the polymorphic scoring layer of the funnel: a
// model-backed variant that delegates to an external inference service and a
// rule-based fallback, both behind one contract.
package scorer

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/verdictfx/verdict/internal/domain"
)

// ErrScorerRange is a hard internal error: a scorer produced a non-finite or
// out-of-range probability. It is never clamped at this layer.
var ErrScorerRange = errors.New("scorer probability out of range")

// Request is the scoring input for one candidate.
type Request struct {
	Instrument string
	Timeframe  string
	StrategyID string
	Features   domain.FeatureVector
	Regime     domain.MarketRegimeContext
	// Expectancy is the historical mean R for this strategy/instrument/
	// regime bucket, looked up from the learning store.
	Expectancy float64
}

// Outcome is the common output contract of every scorer variant.
type Outcome struct {
	WinProbability float64                     `json:"win_probability"`
	ExpectedR      float64                     `json:"expected_r"`
	Blacklisted    bool                        `json:"blacklisted"`
	Reason         string                      `json:"reason,omitempty"`
	Adjustments    domain.ParameterAdjustments `json:"parameter_adjustments"`
}

// Scorer scores one feature vector. Implementations must be safe for
// concurrent use and must return probabilities in [0, 1] or fail with
// ErrScorerRange.
type Scorer interface {
	Name() string
	Score(ctx context.Context, req Request) (Outcome, error)
}

func validateOutcome(name string, out Outcome) error {
	p := out.WinProbability
	if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 || p > 1 {
		return fmt.Errorf("%w: %s produced %v", ErrScorerRange, name, p)
	}
	if math.IsNaN(out.ExpectedR) || math.IsInf(out.ExpectedR, 0) {
		return fmt.Errorf("%w: %s produced expected R %v", ErrScorerRange, name, out.ExpectedR)
	}
	return nil
}

// Config selects and parameterizes the scorer at process start.
type Config struct {
	Mode            string  `yaml:"mode" default:"rules" validate:"oneof=rules model"`
	Endpoint        string  `yaml:"endpoint"`
	TimeoutMS       int     `yaml:"timeout_ms" default:"1500" validate:"gt=0"`
	RatePerSecond   float64 `yaml:"rate_per_second" default:"5"`
	BreakerFailures uint32  `yaml:"breaker_failures" default:"5"`
}

// Select resolves the scorer once at startup. Model mode wraps the remote
// client in a per-call fallback to rules; a missing endpoint or failed
// startup probe is logged once and the process runs on rules alone.
func Select(ctx context.Context, cfg Config, log zerolog.Logger) Scorer {
	rules := NewRuleScorer()
	if cfg.Mode != "model" {
		log.Info().Str("scorer", rules.Name()).Msg("rule-based scorer selected")
		return rules
	}
	if cfg.Endpoint == "" {
		log.Warn().Msg("model scorer configured without endpoint, running on rules")
		return rules
	}
	remote := NewRemoteScorer(cfg, log)
	if err := remote.Probe(ctx); err != nil {
		log.Warn().Err(err).Str("endpoint", cfg.Endpoint).
			Msg("model endpoint unreachable at startup, running on rules")
		return rules
	}
	log.Info().Str("scorer", remote.Name()).Str("endpoint", cfg.Endpoint).Msg("model-backed scorer selected")
	return NewFallback(remote, rules, log)
}
