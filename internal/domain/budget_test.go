package domain

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTradeBudget_DailyCeiling(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	b := NewTradeBudget(2, 0)

	ok, _ := b.CanOpen("EURUSD", now)
	require.True(t, ok)

	b.Register("EURUSD", now)
	b.Register("GBPUSD", now)

	ok, reason := b.CanOpen("XAUUSD", now)
	require.False(t, ok)
	assert.Contains(t, reason, "daily trade budget exhausted")

	// A new UTC day resets the counters.
	ok, _ = b.CanOpen("XAUUSD", now.Add(24*time.Hour))
	assert.True(t, ok)
}

func TestTradeBudget_PerInstrumentCeiling(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	b := NewTradeBudget(10, 1)

	b.Register("EURUSD", now)

	ok, reason := b.CanOpen("EURUSD", now)
	require.False(t, ok)
	assert.Contains(t, reason, "EURUSD")

	ok, _ = b.CanOpen("GBPUSD", now)
	assert.True(t, ok, "other instruments keep their own allowance")
}

func TestTradeBudget_TryRegisterChargesAtomically(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	b := NewTradeBudget(1, 0)

	ok, _ := b.TryRegister("EURUSD", now)
	require.True(t, ok)

	// The ceiling is re-checked under the same lock as the charge, so a
	// stale CanOpen answer cannot let a second setup through.
	ok, reason := b.TryRegister("GBPUSD", now)
	require.False(t, ok)
	assert.Contains(t, reason, "daily trade budget exhausted")

	ok, _ = b.CanOpen("GBPUSD", now)
	assert.False(t, ok, "the failed attempt must not have consumed allowance twice")
}

func TestTradeBudget_TryRegisterConcurrent(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	b := NewTradeBudget(3, 0)

	var wg sync.WaitGroup
	var granted atomic.Int32
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := b.TryRegister("EURUSD", now); ok {
				granted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(3), granted.Load(), "grants never exceed the daily ceiling")
}

func TestTradeBudget_DisabledLimits(t *testing.T) {
	now := time.Now().UTC()
	b := NewTradeBudget(0, 0)
	for i := 0; i < 50; i++ {
		b.Register("EURUSD", now)
	}
	ok, _ := b.CanOpen("EURUSD", now)
	assert.True(t, ok)
}
