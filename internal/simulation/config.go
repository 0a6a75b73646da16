package simulation

import (
	"errors"
	"fmt"

	"github.com/wonny/marketsim/internal/agent"
)

// Bounds on run size
const (
	MinAgents = 2
	MaxAgents = 50
	MinStocks = 1
	MaxStocks = 10
	MaxDays   = 10000
)

var (
	ErrInvalidConfig  = errors.New("invalid simulation config")
	ErrNotInitialized = errors.New("simulation not initialized")
	ErrCompleted      = errors.New("simulation already completed")
)

// ConfigError reports the first invalid field
type ConfigError struct {
	Field   string
	Message string
}

func (e ConfigError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// TierMix is the percentage of agents drawn into each overcommitment tier
type TierMix struct {
	Tier1 int `json:"tier1" yaml:"tier1"`
	Tier2 int `json:"tier2" yaml:"tier2"`
	Tier3 int `json:"tier3" yaml:"tier3"`
}

// Pick maps a draw in [0, 100) onto a tier using cumulative percentages
func (m TierMix) Pick(draw int) agent.Tier {
	switch {
	case draw < m.Tier1:
		return agent.Tier1
	case draw < m.Tier1+m.Tier2:
		return agent.Tier2
	default:
		return agent.Tier3
	}
}

// Config is the immutable input of one run
type Config struct {
	Agents int     `json:"agents"`
	Stocks int     `json:"stocks"`
	Days   int     `json:"days"`
	Seed   int64   `json:"seed"` // 0 = time seeded
	Tiers  TierMix `json:"tiers"`
}

// DefaultConfig returns 5 agents, 10 stocks and 50 days
func DefaultConfig() Config {
	return Config{
		Agents: 5,
		Stocks: 10,
		Days:   50,
		Tiers:  TierMix{Tier1: 34, Tier2: 33, Tier3: 33},
	}
}

// Validate checks bounds and the tier mix
func (c Config) Validate() error {
	if c.Agents < MinAgents || c.Agents > MaxAgents {
		return ConfigError{"agents", fmt.Sprintf("must be between %d and %d", MinAgents, MaxAgents)}
	}
	if c.Stocks < MinStocks || c.Stocks > MaxStocks {
		return ConfigError{"stocks", fmt.Sprintf("must be between %d and %d", MinStocks, MaxStocks)}
	}
	if c.Days <= 0 || c.Days > MaxDays {
		return ConfigError{"days", fmt.Sprintf("must be between 1 and %d", MaxDays)}
	}

	for _, t := range []struct {
		field string
		pct   int
	}{
		{"tiers.tier1", c.Tiers.Tier1},
		{"tiers.tier2", c.Tiers.Tier2},
		{"tiers.tier3", c.Tiers.Tier3},
	} {
		if t.pct < 0 || t.pct > 100 {
			return ConfigError{t.field, "must be between 0 and 100"}
		}
	}
	if sum := c.Tiers.Tier1 + c.Tiers.Tier2 + c.Tiers.Tier3; sum != 100 {
		return ConfigError{"tiers", fmt.Sprintf("must sum to 100, got %d", sum)}
	}

	return nil
}
