package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/verdictfx/verdict/internal/application/pipeline"
	"github.com/verdictfx/verdict/internal/application/scorer"
	"github.com/verdictfx/verdict/internal/config"
	"github.com/verdictfx/verdict/internal/domain"
	"github.com/verdictfx/verdict/internal/infrastructure/feedback"
	"github.com/verdictfx/verdict/internal/infrastructure/registry"
	"github.com/verdictfx/verdict/internal/metrics"
)

// app holds the wired process graph built once from configuration.
type app struct {
	cfg      config.Config
	engine   *pipeline.Engine
	store    *feedback.Store
	ledger   *feedback.Ledger
	recorder *feedback.Recorder
	registry registry.Registry
	prom     *prometheus.Registry
}

func buildApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	prom := prometheus.NewRegistry()
	prom.MustRegister(collectors.NewGoCollector())
	m := metrics.NewSet(prom)

	store, err := feedback.NewStore(filepath.Join(cfg.DataDir, "learning.jsonl"), log.Logger)
	if err != nil {
		return nil, err
	}

	var ledger *feedback.Ledger
	if cfg.Ledger.Enabled {
		ledger, err = feedback.OpenLedger(cfg.LedgerDriverName(), cfg.Ledger.DSN)
		if err != nil {
			return nil, fmt.Errorf("open ledger: %w", err)
		}
	}
	recorder := feedback.NewRecorder(store, ledger, m, log.Logger)

	expectancy := feedback.NewExpectancyIndex(store)
	if err := expectancy.Refresh(); err != nil {
		log.Warn().Err(err).Msg("expectancy index unavailable, using defaults")
	}

	sc := scorer.Select(ctx, cfg.Scorer, log.Logger)
	if fb, ok := sc.(*scorer.Fallback); ok {
		fb.OnDegrade(m.ScorerFallback)
	}

	budget := domain.NewTradeBudget(cfg.Funnel.Budget.MaxTradesPerDay, cfg.Funnel.Budget.MaxTradesPerInstrumentDay)

	engine := pipeline.NewEngine(cfg.PipelineSettings(), sc, log.Logger,
		pipeline.WithExpectancy(expectancy),
		pipeline.WithTraits(cfg.Strategies),
		pipeline.WithBudget(budget),
		pipeline.WithMetrics(m),
	)

	var reg registry.Registry
	if strings.EqualFold(cfg.Registry.Backend, "redis") {
		redisReg := registry.NewRedis(cfg.Registry.Redis.Addr, cfg.Registry.Redis.Password, cfg.Registry.Redis.DB, cfg.RegistryTTL())
		if err := redisReg.Ping(ctx); err != nil {
			return nil, fmt.Errorf("redis registry: %w", err)
		}
		reg = redisReg
	} else {
		reg = registry.NewMemory(cfg.RegistryTTL())
	}

	return &app{
		cfg:      cfg,
		engine:   engine,
		store:    store,
		ledger:   ledger,
		recorder: recorder,
		registry: reg,
		prom:     prom,
	}, nil
}

func (a *app) close() {
	if a.ledger != nil {
		if err := a.ledger.Close(); err != nil {
			log.Warn().Err(err).Msg("close ledger")
		}
	}
}
