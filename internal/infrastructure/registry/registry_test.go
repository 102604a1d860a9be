package registry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdictfx/verdict/internal/domain"
)

func TestMemory_PutGet(t *testing.T) {
	m := NewMemory(time.Minute)
	ctx := context.Background()

	res := domain.EvaluationResult{SignalID: "sig-1", Instrument: "EURUSD", Tier: domain.TierB, Admitted: true}
	require.NoError(t, m.Put(ctx, res))

	got, err := m.Get(ctx, "sig-1")
	require.NoError(t, err)
	assert.Equal(t, res, got)
}

func TestMemory_UnknownSignal(t *testing.T) {
	m := NewMemory(time.Minute)

	_, err := m.Get(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrUnknownSignal)
}

func TestMemory_Expiry(t *testing.T) {
	m := NewMemory(10 * time.Millisecond)
	ctx := context.Background()

	require.NoError(t, m.Put(ctx, domain.EvaluationResult{SignalID: "sig-1"}))
	time.Sleep(25 * time.Millisecond)

	_, err := m.Get(ctx, "sig-1")
	require.ErrorIs(t, err, domain.ErrUnknownSignal)
}
