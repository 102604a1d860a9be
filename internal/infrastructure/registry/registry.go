// Package registry parks emitted evaluation results so a later user decision
// can recover the full feature vector by signal ID.
package registry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/verdictfx/verdict/internal/domain"
)

// Registry stores recent evaluation results keyed by signal ID. Entries
// expire; labeling an expired signal fails with domain.ErrUnknownSignal.
type Registry interface {
	Put(ctx context.Context, res domain.EvaluationResult) error
	Get(ctx context.Context, signalID string) (domain.EvaluationResult, error)
}

type memoryEntry struct {
	res       domain.EvaluationResult
	expiresAt time.Time
}

// Memory is the in-process registry used for single-binary runs and tests.
type Memory struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryEntry
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{ttl: ttl, entries: map[string]memoryEntry{}}
}

func (m *Memory) Put(_ context.Context, res domain.EvaluationResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweepLocked()
	m.entries[res.SignalID] = memoryEntry{res: res, expiresAt: time.Now().Add(m.ttl)}
	return nil
}

func (m *Memory) Get(_ context.Context, signalID string) (domain.EvaluationResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[signalID]
	if !ok || time.Now().After(entry.expiresAt) {
		return domain.EvaluationResult{}, fmt.Errorf("%w: %s", domain.ErrUnknownSignal, signalID)
	}
	return entry.res, nil
}

func (m *Memory) sweepLocked() {
	now := time.Now()
	for id, entry := range m.entries {
		if now.After(entry.expiresAt) {
			delete(m.entries, id)
		}
	}
}
