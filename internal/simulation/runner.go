package simulation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/marketsim/internal/loader"
	"github.com/wonny/marketsim/pkg/logger"
)

type runOptions struct {
	runID   string
	name    string
	hook    func(DayRecord)
	rng     Source
	seed    int64
	hasSeed bool
}

// Option customizes Simulate
type Option func(*runOptions)

// WithDayHook is called after every simulated day
func WithDayHook(hook func(DayRecord)) Option {
	return func(o *runOptions) { o.hook = hook }
}

// WithRunID overrides the generated run id
func WithRunID(id string) Option {
	return func(o *runOptions) { o.runID = id }
}

// WithName labels the run, usually with the scenario name
func WithName(name string) Option {
	return func(o *runOptions) { o.name = name }
}

// WithSource replaces the seeded generator. seed is recorded in the result.
func WithSource(rng Source, seed int64) Option {
	return func(o *runOptions) {
		o.rng = rng
		o.seed = seed
		o.hasSeed = true
	}
}

// Simulate validates cfg, loads the market from src and runs every day.
// Nothing is simulated when validation or loading fails.
func Simulate(ctx context.Context, cfg Config, src loader.Source, log *logger.Logger, opts ...Option) (*Result, error) {
	if log == nil {
		log = logger.Nop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := runOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.runID == "" {
		o.runID = uuid.NewString()
	}
	if !o.hasSeed {
		o.rng, o.seed = NewSource(cfg.Seed)
	}

	m, err := loader.Load(src, cfg.Stocks)
	if err != nil {
		return nil, fmt.Errorf("load market: %w", err)
	}

	runLog := log.WithField("run_id", o.runID)
	engine, err := New(cfg, m, o.rng, runLog)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	runLog.WithFields(map[string]interface{}{
		"agents": cfg.Agents,
		"stocks": len(m.Stocks()),
		"days":   cfg.Days,
		"seed":   o.seed,
		"source": src.Name(),
	}).Info("Simulation started")

	if err := engine.Run(ctx, o.hook); err != nil {
		return nil, err
	}

	days := engine.Days()
	agents, stocks := engine.Snapshot()
	res := &Result{
		RunID:      o.runID,
		Name:       o.name,
		Config:     cfg,
		Seed:       o.seed,
		StartedAt:  started.UTC(),
		FinishedAt: time.Now().UTC(),
		Days:       days,
		Agents:     agents,
		Stocks:     stocks,
		Summary:    summarize(days),
	}

	runLog.WithFields(map[string]interface{}{
		"duration_ms":            res.FinishedAt.Sub(started).Milliseconds(),
		"final_price_index":      res.Summary.FinalPriceIndex,
		"final_market_cap_index": res.Summary.FinalMarketCapIndex,
		"trades":                 res.Summary.Trades,
	}).Info("Simulation completed")

	return res, nil
}

// Runner binds a table source and logger so callers only supply a config
type Runner struct {
	Source loader.Source
	Log    *logger.Logger
}

// Run calls Simulate with the bound source
func (r Runner) Run(ctx context.Context, cfg Config, opts ...Option) (*Result, error) {
	return Simulate(ctx, cfg, r.Source, r.Log, opts...)
}
