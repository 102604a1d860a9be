package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdictfx/verdict/internal/domain"
)

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, ":8090", cfg.HTTP.Addr)
	assert.Equal(t, "rules", cfg.Scorer.Mode)
	assert.Equal(t, 5, cfg.Funnel.Aggressiveness)
	assert.Equal(t, 50.0, cfg.Funnel.Safety.MinConfidence)
	assert.Equal(t, 0.90, cfg.Funnel.Adaptive.HighVolPercentile)
	assert.Equal(t, "memory", cfg.Registry.Backend)
	assert.Equal(t, 24*time.Hour, cfg.RegistryTTL())
	assert.Equal(t, "sqlite", cfg.LedgerDriverName())
}

func TestLoad_FileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "verdict.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level: debug
funnel:
  aggressiveness: 8
  playability:
    spread_ceilings:
      fx: 0.0003
scorer:
  mode: model
  endpoint: http://scorer:9000
strategies:
  panic_reversal:
    panic_reversal: true
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 8, cfg.Funnel.Aggressiveness)
	assert.Equal(t, "model", cfg.Scorer.Mode)
	assert.Equal(t, "http://scorer:9000", cfg.Scorer.Endpoint)
	assert.True(t, cfg.Strategies["panic_reversal"].PanicReversal)

	// Defaults still fill everything the file omits.
	assert.Equal(t, ":8090", cfg.HTTP.Addr)
	assert.Equal(t, 1500, cfg.Scorer.TimeoutMS)

	s := cfg.PipelineSettings()
	assert.Equal(t, 8, s.Aggressiveness)
	assert.Equal(t, 0.0003, s.Playability.SpreadCeilings[domain.ClassFX])
	assert.Equal(t, 0.0015, s.Playability.SpreadCeilings[domain.ClassCrypto], "unset classes keep their defaults")
	assert.Equal(t, 30*time.Minute, s.Playability.BlackoutBefore)
}

func TestLoad_ExplicitZerosSurvive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "verdict.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
funnel:
  playability:
    blackout_minutes: 0
    min_volume: 0
ledger:
  enabled: false
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	// Explicit zero values in the file must not be re-defaulted.
	assert.Zero(t, cfg.Funnel.Playability.BlackoutMinutes)
	assert.Zero(t, cfg.Funnel.Playability.MinVolume)
	assert.False(t, cfg.Ledger.Enabled)

	// Omitted siblings still pick up their defaults.
	assert.Equal(t, 80.0, cfg.Funnel.Playability.TensionExtreme)
	assert.Equal(t, "sqlite", cfg.Ledger.Driver)

	s := cfg.PipelineSettings()
	assert.Equal(t, time.Duration(0), s.Playability.BlackoutBefore)
	assert.Zero(t, s.Playability.MinVolume)
}

func TestLoad_ThresholdSectionsReachPipeline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "verdict.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
funnel:
  technical:
    long_rsi_min: 45
  safety:
    min_rr: 1.2
  heuristics:
    max_aggregate: 15
  classifier:
    b_from: 55
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	s := cfg.PipelineSettings()
	assert.Equal(t, 45.0, s.Technical.LongRSIMin)
	assert.Equal(t, 70.0, s.Technical.LongRSIMax, "omitted fields keep their defaults")
	assert.Equal(t, 1.2, s.Safety.MinRR)
	assert.Equal(t, 15.0, s.Heuristics.MaxAggregate)
	assert.Equal(t, 0.2, s.Heuristics.ChopVolatilityMax)
	assert.Equal(t, 55.0, s.Classifier.BFrom)
	assert.Equal(t, 85.0, s.Classifier.APlusAbove)
}

func TestLoad_Validation(t *testing.T) {
	write := func(t *testing.T, body string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "verdict.yaml")
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
		return path
	}

	_, err := Load(write(t, "log_level: loud\n"))
	require.Error(t, err)

	_, err = Load(write(t, "funnel:\n  aggressiveness: 11\n"))
	require.Error(t, err)

	_, err = Load(write(t, "registry:\n  backend: etcd\n"))
	require.Error(t, err)

	_, err = Load(write(t, "funnel:\n  technical:\n    long_rsi_max: 10\n"))
	require.Error(t, err, "RSI band must stay ordered")

	_, err = Load(write(t, "log_level: [broken\n"))
	require.Error(t, err)
}
