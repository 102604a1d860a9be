package scorer

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

// DegradeFunc is notified whenever a primary scorer call degrades to the
// fallback, so the metrics layer can count it without this package importing
// it.
type DegradeFunc func()

// Fallback satisfies Scorer by trying the primary (model-backed) variant and
// degrading per call to the secondary. The degradation affects only the one
// evaluation; no process-wide state changes. A range violation from the
// primary is a hard internal error and is never papered over.
type Fallback struct {
	primary   Scorer
	secondary Scorer
	onDegrade DegradeFunc
	log       zerolog.Logger
}

func NewFallback(primary, secondary Scorer, log zerolog.Logger) *Fallback {
	return &Fallback{
		primary:   primary,
		secondary: secondary,
		log:       log.With().Str("component", "scorer_fallback").Logger(),
	}
}

// OnDegrade registers the degradation hook. Must be called before the first
// Score.
func (f *Fallback) OnDegrade(fn DegradeFunc) { f.onDegrade = fn }

func (f *Fallback) Name() string { return f.primary.Name() }

func (f *Fallback) Score(ctx context.Context, req Request) (Outcome, error) {
	out, err := f.primary.Score(ctx, req)
	if err == nil {
		return out, nil
	}
	if errors.Is(err, ErrScorerRange) {
		return Outcome{}, err
	}

	f.log.Warn().Err(err).
		Str("instrument", req.Instrument).
		Str("fallback", f.secondary.Name()).
		Msg("model scorer degraded for this evaluation")
	if f.onDegrade != nil {
		f.onDegrade()
	}
	return f.secondary.Score(ctx, req)
}
