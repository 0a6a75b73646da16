package store

import (
	"context"
	"errors"
	"time"

	"github.com/wonny/marketsim/internal/simulation"
)

// ErrRunNotFound is returned by Get for an unknown run id
var ErrRunNotFound = errors.New("run not found")

// DefaultListLimit caps List when the caller passes limit <= 0
const DefaultListLimit = 50

// RunSummary is the list view of a stored run
type RunSummary struct {
	RunID               string    `json:"run_id"`
	Name                string    `json:"name,omitempty"`
	Seed                int64     `json:"seed"`
	Agents              int       `json:"agents"`
	Stocks              int       `json:"stocks"`
	Days                int       `json:"days"`
	Trades              int       `json:"trades"`
	FinalPriceIndex     float64   `json:"final_price_index"`
	FinalMarketCapIndex float64   `json:"final_market_cap_index"`
	FinishedAt          time.Time `json:"finished_at"`
}

// RunStore persists finished results. Simulation state itself is never stored.
type RunStore interface {
	Save(ctx context.Context, res *simulation.Result) error
	Get(ctx context.Context, runID string) (*simulation.Result, error)
	List(ctx context.Context, limit int) ([]RunSummary, error)
}

// Summarize builds the list view of a result
func Summarize(res *simulation.Result) RunSummary {
	return RunSummary{
		RunID:               res.RunID,
		Name:                res.Name,
		Seed:                res.Seed,
		Agents:              len(res.Agents),
		Stocks:              len(res.Stocks),
		Days:                res.Summary.Days,
		Trades:              res.Summary.Trades,
		FinalPriceIndex:     res.Summary.FinalPriceIndex,
		FinalMarketCapIndex: res.Summary.FinalMarketCapIndex,
		FinishedAt:          res.FinishedAt,
	}
}

// NormalizeLimit applies DefaultListLimit
func NormalizeLimit(limit int) int {
	if limit <= 0 || limit > DefaultListLimit {
		return DefaultListLimit
	}
	return limit
}
