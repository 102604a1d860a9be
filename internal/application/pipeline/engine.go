// Package pipeline implements the signal evaluation funnel: hard rule gates,
// pluggable scoring, regime-adaptive floors, tier classification and a
// deterministic explanation, run strictly in sequence per candidate.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/verdictfx/verdict/internal/application/scorer"
	"github.com/verdictfx/verdict/internal/domain"
	"github.com/verdictfx/verdict/internal/metrics"
)

// Diagnostic credit each pre-scorer gate contributes to the composite score
// when a later stage vetoes. Keeps vetoed results comparable without
// pretending they were scored.
const (
	creditTechnical   = 15.0
	creditPlayability = 10.0
	creditSafety      = 10.0
)

// Settings bundle every threshold of the funnel. They are immutable for the
// lifetime of an Engine; configuration swaps publish a new Engine.
type Settings struct {
	Technical      domain.TechnicalThresholds
	Playability    domain.PlayabilityThresholds
	Safety         domain.SafetyThresholds
	Adaptive       domain.AdaptiveThresholds
	Heuristics     HeuristicThresholds
	Classifier     domain.ClassifierThresholds
	Risk           domain.RiskBounds
	Aggressiveness int
}

func DefaultSettings() Settings {
	return Settings{
		Technical:      domain.DefaultTechnicalThresholds(),
		Playability:    domain.DefaultPlayabilityThresholds(),
		Safety:         domain.DefaultSafetyThresholds(),
		Adaptive:       domain.DefaultAdaptiveThresholds(),
		Heuristics:     DefaultHeuristicThresholds(),
		Classifier:     domain.DefaultClassifierThresholds(),
		Risk:           domain.DefaultRiskBounds(),
		Aggressiveness: 5,
	}
}

// ExpectancySource looks up historical mean R for a strategy/instrument/
// regime bucket. The learning store provides the production implementation.
type ExpectancySource interface {
	Expectancy(strategyID, instrument string, regime domain.Regime) float64
}

// Engine runs the funnel. It is immutable after construction and safe for
// concurrent Evaluate calls; all stages are pure functions over the request.
type Engine struct {
	settings   Settings
	scorer     scorer.Scorer
	expectancy ExpectancySource
	traits     map[string]domain.StrategyTraits
	budget     *domain.TradeBudget
	metrics    *metrics.Set
	log        zerolog.Logger
}

// Option tunes optional collaborators of the Engine.
type Option func(*Engine)

func WithExpectancy(src ExpectancySource) Option {
	return func(e *Engine) { e.expectancy = src }
}

func WithTraits(traits map[string]domain.StrategyTraits) Option {
	return func(e *Engine) { e.traits = traits }
}

func WithBudget(b *domain.TradeBudget) Option {
	return func(e *Engine) { e.budget = b }
}

func WithMetrics(m *metrics.Set) Option {
	return func(e *Engine) { e.metrics = m }
}

func NewEngine(settings Settings, sc scorer.Scorer, log zerolog.Logger, opts ...Option) *Engine {
	e := &Engine{
		settings: settings,
		scorer:   sc,
		traits:   map[string]domain.StrategyTraits{},
		log:      log.With().Str("component", "pipeline").Logger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Request carries one candidate plus the per-evaluation market context.
// Snapshots are read-only; the pipeline never blocks on a refresh.
type Request struct {
	Candidate Candidate
	// Features and Indicators may be precomputed by the caller; when nil
	// they are extracted from Candles.
	Features   *domain.FeatureVector
	Indicators *domain.IndicatorSnapshot
	Candles    []domain.Candle
	Market     domain.MarketSnapshot
	Calendar   *domain.CalendarSnapshot
	Regime     domain.MarketRegimeContext
	Now        time.Time
}

// Evaluate runs the funnel for one candidate. Gates short-circuit on veto;
// a fully passed candidate reaches classification and explanation. The
// returned result is complete in every case; errors are reserved for
// malformed input and hard internal failures.
func (e *Engine) Evaluate(ctx context.Context, req Request) (domain.EvaluationResult, error) {
	now := req.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	fv, ind, err := e.resolveInputs(req, now)
	if err != nil {
		return domain.EvaluationResult{}, err
	}
	if err := fv.Validate(); err != nil {
		return domain.EvaluationResult{}, err
	}

	c := req.Candidate
	res := domain.EvaluationResult{
		SignalID:    uuid.NewString(),
		Instrument:  c.Instrument,
		Timeframe:   c.Timeframe,
		StrategyID:  c.StrategyID,
		Features:    fv,
		EvaluatedAt: now,
	}
	traits := e.traits[c.StrategyID]

	technical := domain.EvaluateTechnicalGate(c.Direction, ind, e.settings.Technical)
	res.Stages = append(res.Stages, technical)
	if technical.Vetoed() {
		return e.finishVeto(res, technical, 0), nil
	}
	res.CompositeScore = creditTechnical

	playability := domain.EvaluatePlayabilityGate(domain.PlayabilityInputs{
		Instrument: c.Instrument,
		Now:        now,
		Market:     req.Market,
		Calendar:   req.Calendar,
		Regime:     req.Regime,
		Traits:     traits,
		Budget:     e.budget,
	}, e.settings.Playability)
	res.Stages = append(res.Stages, playability)
	if playability.Vetoed() {
		return e.finishVeto(res, playability, res.CompositeScore), nil
	}
	res.CompositeScore += creditPlayability

	safety := domain.EvaluateSafetyGate(fv, traits, e.settings.Safety)
	res.Stages = append(res.Stages, safety)
	if safety.Vetoed() {
		return e.finishVeto(res, safety, res.CompositeScore), nil
	}
	res.CompositeScore += creditSafety

	expectancy := 0.42
	if e.expectancy != nil {
		expectancy = e.expectancy.Expectancy(c.StrategyID, c.Instrument, req.Regime.Regime)
	}

	outcome, err := e.scorer.Score(ctx, scorer.Request{
		Instrument: c.Instrument,
		Timeframe:  c.Timeframe,
		StrategyID: c.StrategyID,
		Features:   fv,
		Regime:     req.Regime,
		Expectancy: expectancy,
	})
	if err != nil {
		return domain.EvaluationResult{}, fmt.Errorf("score candidate: %w", err)
	}
	if outcome.Blacklisted {
		veto := domain.Veto("scorer", outcome.Reason)
		res.Stages = append(res.Stages, veto)
		return e.finishVeto(res, veto, res.CompositeScore), nil
	}

	deltas := HeuristicDeltas(fv, outcome.ExpectedR, e.settings.Heuristics)
	deltaSum, deltaCapped := SumDeltas(deltas, e.settings.Heuristics.MaxAggregate)
	composite, clamped := Composite(outcome.WinProbability, deltaSum)
	if deltaCapped || clamped {
		e.log.Debug().
			Str("instrument", c.Instrument).
			Float64("win_probability", outcome.WinProbability).
			Float64("delta_sum", deltaSum).
			Bool("delta_capped", deltaCapped).
			Bool("score_clamped", clamped).
			Msg("composite score bounded")
	}
	res.CompositeScore = composite
	res.Stages = append(res.Stages, domain.Adjusted("heuristics", deltaSum, "aggregate heuristic adjustment"))

	profile := domain.ProfileForAggressiveness(e.settings.Aggressiveness)
	floors := domain.EffectiveFloors(e.settings.Safety, req.Regime, traits, profile, outcome.Adjustments, e.settings.Adaptive)
	adaptive := domain.EvaluateAdaptiveGate(fv, floors)
	res.Stages = append(res.Stages, adaptive)
	if adaptive.Vetoed() {
		return e.finishVeto(res, adaptive, composite), nil
	}

	plan, riskResult := domain.ResolveRisk(c.Entry, ind.ATR14, c.Direction, floors.MinRR, e.settings.Risk)
	res.Stages = append(res.Stages, riskResult)
	if riskResult.Vetoed() {
		return e.finishVeto(res, riskResult, composite), nil
	}
	res.RiskPlan = &plan

	res.Tier = domain.ClassifyTier(composite, e.settings.Classifier)
	res.Admitted = res.Tier.Admitted()
	res.Explanation = renderExplanation(explainInputs{
		result:    res,
		technical: technical,
		deltas:    deltas,
		floors:    floors,
	})

	// The playability gate's budget answer was advisory; the charge re-checks
	// the ceilings atomically so concurrent evaluations cannot overshoot them.
	if res.Admitted && e.budget != nil {
		if ok, reason := e.budget.TryRegister(c.Instrument, now); !ok {
			veto := domain.Veto(domain.StagePlayability, reason)
			res.Stages = append(res.Stages, veto)
			return e.finishVeto(res, veto, composite), nil
		}
	}
	e.observe(res)
	e.log.Info().
		Str("signal_id", res.SignalID).
		Str("instrument", c.Instrument).
		Str("strategy", c.StrategyID).
		Str("tier", string(res.Tier)).
		Float64("score", res.CompositeScore).
		Bool("admitted", res.Admitted).
		Msg("candidate evaluated")
	return res, nil
}

func (e *Engine) resolveInputs(req Request, now time.Time) (domain.FeatureVector, domain.IndicatorSnapshot, error) {
	if req.Features != nil && req.Indicators != nil {
		return *req.Features, *req.Indicators, nil
	}
	return ExtractFeatures(req.Candidate, req.Candles, req.Regime, req.Calendar, now)
}

func (e *Engine) finishVeto(res domain.EvaluationResult, g domain.GateResult, partialScore float64) domain.EvaluationResult {
	res.CompositeScore = partialScore
	res.MarkVeto(g)
	res.Explanation = renderExplanation(explainInputs{result: res})
	e.observe(res)
	e.log.Info().
		Str("signal_id", res.SignalID).
		Str("instrument", res.Instrument).
		Str("stage", g.Stage).
		Str("reason", g.Reason).
		Msg("candidate vetoed")
	return res
}

func (e *Engine) observe(res domain.EvaluationResult) {
	outcome := "rejected"
	switch {
	case res.Admitted:
		outcome = "admitted"
	case res.VetoReason != "":
		outcome = "vetoed"
	}
	e.metrics.Evaluation(outcome, res.CompositeScore)
	if res.VetoStage != "" {
		e.metrics.Veto(res.VetoStage)
	}
}
