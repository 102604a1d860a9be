package feedback

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"

	"github.com/verdictfx/verdict/internal/domain"
)

func testLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := OpenLedger("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func emittedResult(id string) domain.EvaluationResult {
	return domain.EvaluationResult{
		SignalID:       id,
		Instrument:     "EURUSD",
		StrategyID:     "trend_rider",
		Tier:           domain.TierB,
		CompositeScore: 72.4,
		Admitted:       true,
		EvaluatedAt:    time.Date(2025, 3, 10, 13, 0, 0, 0, time.UTC),
	}
}

func TestLedger_InsertAndLabel(t *testing.T) {
	l := testLedger(t)
	ctx := context.Background()

	require.NoError(t, l.Insert(ctx, emittedResult("sig-1")))

	labeled, err := l.IsLabeled(ctx, "sig-1")
	require.NoError(t, err)
	assert.False(t, labeled)

	require.NoError(t, l.SetLabel(ctx, "sig-1", 1))

	labeled, err = l.IsLabeled(ctx, "sig-1")
	require.NoError(t, err)
	assert.True(t, labeled)
}

func TestLedger_SetLabelIdempotent(t *testing.T) {
	l := testLedger(t)
	ctx := context.Background()

	require.NoError(t, l.Insert(ctx, emittedResult("sig-1")))
	require.NoError(t, l.SetLabel(ctx, "sig-1", 1))

	err := l.SetLabel(ctx, "sig-1", 0)
	require.ErrorIs(t, err, ErrAlreadyLabeled)
}

func TestLedger_SetLabelUnknownSignal(t *testing.T) {
	l := testLedger(t)

	err := l.SetLabel(context.Background(), "missing", 1)
	require.ErrorIs(t, err, domain.ErrUnknownSignal)
}
