package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/marketsim/internal/loader"
	"github.com/wonny/marketsim/internal/simulation"
	"github.com/wonny/marketsim/internal/store"
	"github.com/wonny/marketsim/pkg/logger"
)

// SimulationJob runs one simulation per tick and saves the result
type SimulationJob struct {
	name     string
	schedule string
	cfg      simulation.Config
	source   loader.Source
	runs     store.RunStore
	logger   *logger.Logger
}

// NewSimulationJob creates a periodic simulation job.
// name labels both the job and every run it stores.
func NewSimulationJob(name, schedule string, cfg simulation.Config, src loader.Source, runs store.RunStore, log *logger.Logger) *SimulationJob {
	return &SimulationJob{
		name:     name,
		schedule: schedule,
		cfg:      cfg,
		source:   src,
		runs:     runs,
		logger:   log,
	}
}

// Name returns the job name
func (j *SimulationJob) Name() string {
	return "simulation:" + j.name
}

// Schedule returns the cron schedule
func (j *SimulationJob) Schedule() string {
	return j.schedule
}

// Run simulates and stores one run
func (j *SimulationJob) Run(ctx context.Context) error {
	res, err := simulation.Simulate(ctx, j.cfg, j.source, j.logger, simulation.WithName(j.name))
	if err != nil {
		return fmt.Errorf("simulate %s: %w", j.name, err)
	}

	if err := j.runs.Save(ctx, res); err != nil {
		return fmt.Errorf("save run %s: %w", res.RunID, err)
	}

	j.logger.WithFields(map[string]interface{}{
		"run_id":      res.RunID,
		"scenario":    j.name,
		"price_index": res.Summary.FinalPriceIndex,
	}).Info("Scheduled run stored")

	return nil
}
