package domain

import (
	"fmt"
	"sync"
	"time"
)

// TradeBudget limits how many setups may be surfaced per UTC day, globally
// and per instrument. Counters reset on the first check of a new day.
type TradeBudget struct {
	mu            sync.Mutex
	day           time.Time
	total         int
	perInstrument map[string]int

	maxPerDay           int
	maxPerInstrumentDay int
}

// NewTradeBudget builds a budget with the given daily ceilings. Zero or
// negative ceilings disable the corresponding limit.
func NewTradeBudget(maxPerDay, maxPerInstrumentDay int) *TradeBudget {
	return &TradeBudget{
		perInstrument:       make(map[string]int),
		maxPerDay:           maxPerDay,
		maxPerInstrumentDay: maxPerInstrumentDay,
	}
}

func (b *TradeBudget) rollover(now time.Time) {
	day := now.UTC().Truncate(24 * time.Hour)
	if !day.Equal(b.day) {
		b.day = day
		b.total = 0
		b.perInstrument = make(map[string]int)
	}
}

// room checks both ceilings. Callers must hold b.mu.
func (b *TradeBudget) room(instrument string) (bool, string) {
	if b.maxPerDay > 0 && b.total >= b.maxPerDay {
		return false, fmt.Sprintf("daily trade budget exhausted (%d/%d)", b.total, b.maxPerDay)
	}
	if b.maxPerInstrumentDay > 0 && b.perInstrument[instrument] >= b.maxPerInstrumentDay {
		return false, fmt.Sprintf("instrument trade budget exhausted for %s (%d/%d)", instrument, b.perInstrument[instrument], b.maxPerInstrumentDay)
	}
	return true, "ok"
}

// CanOpen reports whether another setup may be surfaced for the instrument.
// It is advisory: allowance is only consumed by TryRegister, which re-checks
// the ceilings, so a concurrent evaluation cannot sneak past a stale answer.
func (b *TradeBudget) CanOpen(instrument string, now time.Time) (bool, string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollover(now)
	return b.room(instrument)
}

// TryRegister charges one surfaced setup against the budget. The ceiling
// check and the charge happen under one lock; when the budget has been
// exhausted since the earlier CanOpen, nothing is charged and the reason is
// returned.
func (b *TradeBudget) TryRegister(instrument string, now time.Time) (bool, string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollover(now)

	if ok, reason := b.room(instrument); !ok {
		return false, reason
	}
	b.total++
	b.perInstrument[instrument]++
	return true, "ok"
}

// Register counts one surfaced setup against the budget unconditionally,
// regardless of the ceilings. Used to seed or replay known fills.
func (b *TradeBudget) Register(instrument string, now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollover(now)
	b.total++
	b.perInstrument[instrument]++
}
