package feedback

import (
	"sync"

	"github.com/verdictfx/verdict/internal/domain"
)

// DefaultExpectancy is assumed for buckets with no labeled history yet.
const DefaultExpectancy = 0.42

const minSamplesForExpectancy = 5

type bucketKey struct {
	strategyID string
	instrument string
	regime     domain.Regime
}

type bucketStats struct {
	count int
	sumR  float64
}

// ExpectancyIndex aggregates labeled records into mean realized R per
// strategy/instrument/regime bucket. A win counts the planned R, a loss
// counts -1. Refresh rebuilds the whole index from the store; reads are
// lock-protected and cheap.
type ExpectancyIndex struct {
	mu    sync.RWMutex
	store *Store
	stats map[bucketKey]bucketStats
}

func NewExpectancyIndex(store *Store) *ExpectancyIndex {
	return &ExpectancyIndex{store: store, stats: map[bucketKey]bucketStats{}}
}

// Refresh rebuilds the index from the learning store, skipping unlabeled
// records.
func (x *ExpectancyIndex) Refresh() error {
	records, err := x.store.Labeled()
	if err != nil {
		return err
	}

	stats := make(map[bucketKey]bucketStats, len(records))
	for _, rec := range records {
		r := -1.0
		if *rec.Label == 1 {
			r = rec.Features.RR
		}
		key := bucketKey{rec.StrategyID, rec.Instrument, rec.Regime}
		s := stats[key]
		s.count++
		s.sumR += r
		stats[key] = s
	}

	x.mu.Lock()
	x.stats = stats
	x.mu.Unlock()
	return nil
}

// Expectancy returns the bucket's mean R, or DefaultExpectancy when the
// bucket has too little history to trust.
func (x *ExpectancyIndex) Expectancy(strategyID, instrument string, regime domain.Regime) float64 {
	x.mu.RLock()
	defer x.mu.RUnlock()

	s, ok := x.stats[bucketKey{strategyID, instrument, regime}]
	if !ok || s.count < minSamplesForExpectancy {
		return DefaultExpectancy
	}
	return s.sumR / float64(s.count)
}
