package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSet_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := NewSet(reg)

	s.Evaluation("admitted", 90)
	s.Evaluation("admitted", 70)
	s.Evaluation("vetoed", 15)
	s.Veto("playability")
	s.ScorerFallback()
	s.RecorderAppend()
	s.RecorderError()

	assert.Equal(t, 2.0, testutil.ToFloat64(s.evaluationsTotal.WithLabelValues("admitted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.evaluationsTotal.WithLabelValues("vetoed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.vetoesTotal.WithLabelValues("playability")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.scorerFallbacks))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.recorderAppends))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.recorderErrors))
}

func TestSet_ScoreHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := NewSet(reg)

	s.Evaluation("admitted", 90)
	s.Evaluation("rejected", 40)

	families, err := reg.Gather()
	require.NoError(t, err)

	var hist *dto.Histogram
	for _, mf := range families {
		if mf.GetName() == "verdict_composite_score" {
			hist = mf.GetMetric()[0].GetHistogram()
		}
	}
	require.NotNil(t, hist)
	assert.Equal(t, uint64(2), hist.GetSampleCount())
	assert.Equal(t, 130.0, hist.GetSampleSum())
}

func TestSet_NilIsNoOp(t *testing.T) {
	var s *Set
	assert.NotPanics(t, func() {
		s.Evaluation("admitted", 50)
		s.Veto("safety")
		s.ScorerFallback()
		s.RecorderAppend()
		s.RecorderError()
	})
}
