// Package metrics exposes the funnel's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Set bundles all collectors. A nil Set is a valid no-op, so library code
// can instrument unconditionally.
type Set struct {
	evaluationsTotal *prometheus.CounterVec
	vetoesTotal      *prometheus.CounterVec
	compositeScore   prometheus.Histogram
	scorerFallbacks  prometheus.Counter
	recorderAppends  prometheus.Counter
	recorderErrors   prometheus.Counter
}

// NewSet registers the funnel collectors on the given registerer.
func NewSet(reg prometheus.Registerer) *Set {
	s := &Set{
		evaluationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "verdict_evaluations_total",
			Help: "Evaluations by final outcome (admitted, rejected, vetoed).",
		}, []string{"outcome"}),
		vetoesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "verdict_vetoes_total",
			Help: "Vetoes by funnel stage.",
		}, []string{"stage"}),
		compositeScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "verdict_composite_score",
			Help:    "Composite score distribution of completed evaluations.",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		}),
		scorerFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "verdict_scorer_fallbacks_total",
			Help: "Per-call degradations from the model scorer to rules.",
		}),
		recorderAppends: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "verdict_recorder_appends_total",
			Help: "Learning records appended to the feedback store.",
		}),
		recorderErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "verdict_recorder_errors_total",
			Help: "Feedback store write failures.",
		}),
	}
	reg.MustRegister(s.evaluationsTotal, s.vetoesTotal, s.compositeScore,
		s.scorerFallbacks, s.recorderAppends, s.recorderErrors)
	return s
}

func (s *Set) Evaluation(outcome string, score float64) {
	if s == nil {
		return
	}
	s.evaluationsTotal.WithLabelValues(outcome).Inc()
	s.compositeScore.Observe(score)
}

func (s *Set) Veto(stage string) {
	if s == nil {
		return
	}
	s.vetoesTotal.WithLabelValues(stage).Inc()
}

func (s *Set) ScorerFallback() {
	if s == nil {
		return
	}
	s.scorerFallbacks.Inc()
}

func (s *Set) RecorderAppend() {
	if s == nil {
		return
	}
	s.recorderAppends.Inc()
}

func (s *Set) RecorderError() {
	if s == nil {
		return
	}
	s.recorderErrors.Inc()
}
