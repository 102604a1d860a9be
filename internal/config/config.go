// Package config loads the immutable process configuration. A Config value
// is hydrated once per process generation and passed explicitly into
// constructors; nothing reads mutable global state at evaluation time.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/verdictfx/verdict/internal/application/pipeline"
	"github.com/verdictfx/verdict/internal/application/scorer"
	"github.com/verdictfx/verdict/internal/domain"
)

type Config struct {
	LogLevel string `yaml:"log_level" default:"info" validate:"oneof=trace debug info warn error"`
	DataDir  string `yaml:"data_dir" default:"data"`

	HTTP struct {
		Addr string `yaml:"addr" default:":8090"`
	} `yaml:"http"`

	Scorer scorer.Config `yaml:"scorer"`

	// Threshold sections reuse the pipeline's own types; their yaml and
	// default tags are authoritative. Playability is translated below
	// because the wire unit (minutes) differs from the domain type.
	Funnel struct {
		Aggressiveness int `yaml:"aggressiveness" default:"5" validate:"min=1,max=10"`

		Technical  domain.TechnicalThresholds   `yaml:"technical"`
		Safety     domain.SafetyThresholds      `yaml:"safety"`
		Adaptive   domain.AdaptiveThresholds    `yaml:"adaptive"`
		Heuristics pipeline.HeuristicThresholds `yaml:"heuristics"`
		Classifier domain.ClassifierThresholds  `yaml:"classifier"`
		Risk       domain.RiskBounds            `yaml:"risk"`

		Playability struct {
			BlackoutMinutes int                `yaml:"blackout_minutes" default:"30" validate:"gte=0"`
			SpreadCeilings  map[string]float64 `yaml:"spread_ceilings"`
			MinVolume       float64            `yaml:"min_volume" default:"1"`
			TensionExtreme  float64            `yaml:"tension_extreme" default:"80" validate:"gte=0,lte=100"`
		} `yaml:"playability"`

		Budget struct {
			MaxTradesPerDay           int `yaml:"max_trades_per_day" default:"10" validate:"gte=0"`
			MaxTradesPerInstrumentDay int `yaml:"max_trades_per_instrument_day" default:"3" validate:"gte=0"`
		} `yaml:"budget"`
	} `yaml:"funnel"`

	// Strategies maps strategy IDs to their traits (panic-reversal,
	// scalp whitelist, trend-following).
	Strategies map[string]domain.StrategyTraits `yaml:"strategies"`

	Registry struct {
		Backend    string `yaml:"backend" default:"memory" validate:"oneof=memory redis"`
		TTLMinutes int    `yaml:"ttl_minutes" default:"1440" validate:"gt=0"`
		Redis      struct {
			Addr     string `yaml:"addr" default:"localhost:6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db" default:"0"`
		} `yaml:"redis"`
	} `yaml:"registry"`

	Ledger struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Driver  string `yaml:"driver" default:"sqlite" validate:"oneof=sqlite postgres"`
		DSN     string `yaml:"dsn" default:"data/verdict.db"`
	} `yaml:"ledger"`
}

// Load reads, defaults and validates the configuration file. A missing file
// yields pure defaults. Defaults are hydrated before the file is applied so
// an explicit zero in the file (min_volume: 0, enabled: false) survives
// instead of being re-defaulted.
func Load(path string) (Config, error) {
	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		return cfg, fmt.Errorf("apply config defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if err := validator.New().Struct(cfg); err != nil {
		return cfg, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// RegistryTTL returns the signal registry retention.
func (c Config) RegistryTTL() time.Duration {
	return time.Duration(c.Registry.TTLMinutes) * time.Minute
}

// LedgerDriverName maps the configured driver to its database/sql name.
func (c Config) LedgerDriverName() string {
	if c.Ledger.Driver == "postgres" {
		return "postgres"
	}
	return "sqlite"
}

// PipelineSettings converts the funnel section into engine settings.
func (c Config) PipelineSettings() pipeline.Settings {
	s := pipeline.DefaultSettings()
	s.Aggressiveness = c.Funnel.Aggressiveness
	s.Technical = c.Funnel.Technical
	s.Safety = c.Funnel.Safety
	s.Adaptive = c.Funnel.Adaptive
	s.Heuristics = c.Funnel.Heuristics
	s.Classifier = c.Funnel.Classifier
	s.Risk = c.Funnel.Risk

	blackout := time.Duration(c.Funnel.Playability.BlackoutMinutes) * time.Minute
	s.Playability.BlackoutBefore = blackout
	s.Playability.BlackoutAfter = blackout
	s.Playability.MinVolume = c.Funnel.Playability.MinVolume
	s.Playability.TensionExtreme = c.Funnel.Playability.TensionExtreme
	for class, ceiling := range c.Funnel.Playability.SpreadCeilings {
		s.Playability.SpreadCeilings[domain.InstrumentClass(class)] = ceiling
	}
	return s
}
