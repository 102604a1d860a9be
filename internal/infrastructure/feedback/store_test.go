package feedback

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdictfx/verdict/internal/domain"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "learning.jsonl"), zerolog.Nop())
	require.NoError(t, err)
	return s
}

func record(id string) LearningRecord {
	return LearningRecord{
		SignalID:   id,
		Instrument: "EURUSD",
		StrategyID: "trend_rider",
		Regime:     domain.RegimeTrending,
		Features:   domain.FeatureVector{Direction: domain.Long, RR: 2.0},
	}
}

func TestStore_AppendAndLoad(t *testing.T) {
	s := testStore(t)

	require.NoError(t, s.Append(record("sig-1")))
	require.NoError(t, s.Append(record("sig-2")))

	all, err := s.All()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, SchemaVersion, all[0].SchemaVersion)
	assert.Nil(t, all[0].Label, "fresh records are unlabeled")
	assert.False(t, all[0].Timestamp.IsZero())
}

func TestStore_LabelIsIdempotent(t *testing.T) {
	s := testStore(t)
	require.NoError(t, s.Append(record("sig-1")))
	require.NoError(t, s.Append(record("sig-2")))

	require.NoError(t, s.Label("sig-1", 1))

	err := s.Label("sig-1", 0)
	require.ErrorIs(t, err, ErrAlreadyLabeled)

	// Exactly one labeled record, and the first label won.
	labeled, err := s.Labeled()
	require.NoError(t, err)
	require.Len(t, labeled, 1)
	assert.Equal(t, "sig-1", labeled[0].SignalID)
	assert.Equal(t, 1, *labeled[0].Label)
}

func TestStore_LabelUnknownSignal(t *testing.T) {
	s := testStore(t)
	require.NoError(t, s.Append(record("sig-1")))

	err := s.Label("missing", 1)
	require.ErrorIs(t, err, domain.ErrUnknownSignal)
}

func TestStore_EmptyFileIsFine(t *testing.T) {
	s := testStore(t)

	all, err := s.All()
	require.NoError(t, err)
	assert.Empty(t, all)

	labeled, err := s.Labeled()
	require.NoError(t, err)
	assert.Empty(t, labeled)
}
