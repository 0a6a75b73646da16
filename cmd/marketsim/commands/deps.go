package commands

import (
	"context"
	"fmt"

	"github.com/wonny/marketsim/internal/loader"
	"github.com/wonny/marketsim/internal/simulation"
	"github.com/wonny/marketsim/internal/store"
	"github.com/wonny/marketsim/internal/store/memory"
	"github.com/wonny/marketsim/internal/store/postgres"
	"github.com/wonny/marketsim/pkg/config"
	"github.com/wonny/marketsim/pkg/database"
	"github.com/wonny/marketsim/pkg/logger"
	"github.com/wonny/marketsim/pkg/redis"
)

// stack holds the shared infrastructure of long-running commands
type stack struct {
	runs  store.RunStore
	db    *database.DB  // nil without DATABASE_URL
	redis *redis.Client // disabled unless REDIS_ENABLED
}

// openStack picks postgres when DATABASE_URL is set and memory otherwise,
// wrapping either in the Redis cache when enabled
func openStack(ctx context.Context, cfg *config.Config, log *logger.Logger) (*stack, error) {
	s := &stack{}

	if cfg.HasDatabase() {
		db, err := database.Connect(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		s.db = db
		s.runs = postgres.NewRepository(db.Pool)
		log.Info("Connected to database")
	} else {
		s.runs = memory.New()
		log.Debug("DATABASE_URL not set, keeping runs in memory")
	}

	rc, err := redis.New(cfg)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	s.redis = rc
	if rc.Enabled() {
		s.runs = store.NewCached(s.runs, redis.NewCache(rc, "marketsim"), cfg.Redis.CacheTTL, log)
		log.Info("Redis result cache enabled")
	}

	return s, nil
}

// Close releases every connection
func (s *stack) Close() {
	if s.redis != nil {
		_ = s.redis.Close()
	}
	if s.db != nil {
		s.db.Close()
	}
}

// defaultConfig maps SIM_* settings onto a run config
func defaultConfig(cfg *config.Config) simulation.Config {
	sc := simulation.DefaultConfig()
	sc.Agents = cfg.Simulation.Agents
	sc.Stocks = cfg.Simulation.Stocks
	sc.Days = cfg.Simulation.Days
	sc.Seed = cfg.Simulation.Seed
	return sc
}

// defaultSource reads tables from SIM_DATA_DIR or the embedded set
func defaultSource(cfg *config.Config) loader.Source {
	if cfg.Simulation.DataDir != "" {
		return loader.NewCSVSource(cfg.Simulation.DataDir)
	}
	return loader.Embedded()
}
