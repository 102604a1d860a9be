package feedback

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/verdictfx/verdict/internal/domain"
	"github.com/verdictfx/verdict/internal/metrics"
)

// Recorder is the funnel's only side-effecting collaborator: it appends one
// learning record per user-facing signal and attaches the terminal decision
// exactly once. Write failures are logged, counted and surfaced to the
// caller; they never touch an already-returned evaluation result.
type Recorder struct {
	store   *Store
	ledger  *Ledger
	metrics *metrics.Set
	log     zerolog.Logger
}

// NewRecorder wires the JSONL store with an optional SQL ledger.
func NewRecorder(store *Store, ledger *Ledger, m *metrics.Set, log zerolog.Logger) *Recorder {
	return &Recorder{
		store:   store,
		ledger:  ledger,
		metrics: m,
		log:     log.With().Str("component", "recorder").Logger(),
	}
}

// RecordEmitted appends the unlabeled record for a signal that was surfaced
// to the user.
func (r *Recorder) RecordEmitted(ctx context.Context, res domain.EvaluationResult, regime domain.Regime) error {
	rec := LearningRecord{
		SignalID:   res.SignalID,
		Features:   res.Features,
		Timestamp:  res.EvaluatedAt,
		Instrument: res.Instrument,
		StrategyID: res.StrategyID,
		Regime:     regime,
	}
	if err := r.store.Append(rec); err != nil {
		r.metrics.RecorderError()
		return fmt.Errorf("record emitted signal: %w", err)
	}
	r.metrics.RecorderAppend()

	if r.ledger != nil {
		if err := r.ledger.Insert(ctx, res); err != nil {
			r.metrics.RecorderError()
			return fmt.Errorf("ledger emitted signal: %w", err)
		}
	}
	return nil
}

// RecordDecision attaches the accept/skip decision. Labeling the same signal
// twice leaves exactly one labeled record; the repeat is reported as
// ErrAlreadyLabeled so the API layer can answer with a no-op.
func (r *Recorder) RecordDecision(ctx context.Context, signalID string, accepted bool) error {
	label := 0
	if accepted {
		label = 1
	}

	err := r.store.Label(signalID, label)
	if errors.Is(err, ErrAlreadyLabeled) {
		r.log.Debug().Str("signal_id", signalID).Msg("signal already labeled, no-op")
		return ErrAlreadyLabeled
	}
	if err != nil {
		r.metrics.RecorderError()
		return fmt.Errorf("label signal: %w", err)
	}

	if r.ledger != nil {
		if err := r.ledger.SetLabel(ctx, signalID, label); err != nil && !errors.Is(err, ErrAlreadyLabeled) {
			r.metrics.RecorderError()
			return fmt.Errorf("ledger label: %w", err)
		}
	}
	r.log.Info().Str("signal_id", signalID).Int("label", label).Msg("decision recorded")
	return nil
}
