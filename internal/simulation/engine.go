package simulation

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/marketsim/internal/agent"
	"github.com/wonny/marketsim/internal/market"
	"github.com/wonny/marketsim/pkg/logger"
)

// Initial endowment draws
const (
	startingCashBase   = 70000
	startingCashSpread = 50001 // cash in [70000, 120000]
	holdingSpread      = 1000  // shares per stock in [0, 999]
	tierDraw           = 100
)

// State is the lifecycle of an Engine
type State int

const (
	StateUninitialized State = iota
	StateInitialized
	StateRunning
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateInitialized:
		return "initialized"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	default:
		return "uninitialized"
	}
}

// DayRecord is what one simulated day produced
type DayRecord struct {
	Day            int     `json:"day"`
	PriceIndex     float64 `json:"price_index"`
	MarketCapIndex float64 `json:"market_cap_index"`
	Trades         int     `json:"trades"`
	NoCounterparty int     `json:"no_counterparty"`
	Infeasible     int     `json:"infeasible"`
}

// Engine runs the day loop over one market and one agent population.
// It is single threaded; callers must not share it between goroutines.
type Engine struct {
	cfg    Config
	log    *logger.Logger
	rng    Source
	market *market.Market
	agents []*agent.Agent // creation order
	order  []*agent.Agent // trading order, reshuffled daily

	state State
	days  []DayRecord
}

// New validates cfg, creates the agents and seeds company volumes.
// m must be fully loaded; the engine never sees partial data.
func New(cfg Config, m *market.Market, rng Source, log *logger.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if m == nil || len(m.Stocks()) == 0 {
		return nil, fmt.Errorf("empty market: %w", ErrNotInitialized)
	}
	if rng == nil {
		return nil, errors.New("random source is required")
	}
	if log == nil {
		log = logger.Nop()
	}

	e := &Engine{
		cfg:    cfg,
		log:    log,
		rng:    rng,
		market: m,
		days:   make([]DayRecord, 0, min(cfg.Days, 512)),
	}
	e.initialize()
	return e, nil
}

// initialize draws, per agent: cash, holdings per stock, risk, PE weight,
// EPS weight and tier. Company volumes start at the total initial holdings.
func (e *Engine) initialize() {
	stocks := e.market.Stocks()
	totals := make([]int64, len(stocks))

	e.agents = make([]*agent.Agent, e.cfg.Agents)
	for i := range e.agents {
		cash := float64(startingCashBase + e.rng.Intn(startingCashSpread))

		holdings := make([]int, len(stocks))
		for s := range holdings {
			holdings[s] = e.rng.Intn(holdingSpread)
			totals[s] += int64(holdings[s])
		}

		params := agent.Params{
			Risk:      e.drawParam(),
			PEWeight:  e.drawParam(),
			EPSWeight: e.drawParam(),
		}
		tier := e.cfg.Tiers.Pick(e.rng.Intn(tierDraw))

		e.agents[i] = agent.New(agent.ID(i), cash, holdings, params, tier)
	}

	for _, s := range stocks {
		e.market.CompanyOf(s).AddVolume(totals[s.ID])
	}

	e.order = make([]*agent.Agent, len(e.agents))
	copy(e.order, e.agents)
	e.state = StateInitialized
}

func (e *Engine) drawParam() int {
	return agent.ParamLowerLimit + e.rng.Intn(agent.ParamUpperLimit+1)
}

// State returns the current lifecycle state
func (e *Engine) State() State {
	return e.state
}

// Day returns how many days have completed
func (e *Engine) Day() int {
	return len(e.days)
}

// Market returns the market being simulated
func (e *Engine) Market() *market.Market {
	return e.market
}

// Agents returns the agents in creation order
func (e *Engine) Agents() []*agent.Agent {
	return e.agents
}

// Days returns the records of completed days
func (e *Engine) Days() []DayRecord {
	out := make([]DayRecord, len(e.days))
	copy(out, e.days)
	return out
}

// Step simulates one day:
//  1. company market caps from pre-update prices
//  2. price walk for every stock
//  3. re-rank every agent
//  4. shuffle trading order
//  5. one match and trade attempt per agent
//  6. record both indices
//
// ⭐ SSOT: 하루 처리 순서는 여기서만 정의
func (e *Engine) Step() (DayRecord, error) {
	switch e.state {
	case StateUninitialized:
		return DayRecord{}, ErrNotInitialized
	case StateCompleted:
		return DayRecord{}, ErrCompleted
	}
	e.state = StateRunning

	e.market.UpdateMarketCaps()
	rec := DayRecord{
		Day:            len(e.days) + 1,
		MarketCapIndex: e.market.MarketCapIndex(),
	}

	for _, s := range e.market.Stocks() {
		s.UpdatePrice(e.rng.Float64())
	}

	for _, a := range e.agents {
		a.Rank(e.market)
	}

	e.rng.Shuffle(len(e.order), func(i, j int) {
		e.order[i], e.order[j] = e.order[j], e.order[i]
	})

	picks := agent.IndexTopPicks(e.order)
	for _, buyer := range e.order {
		seller, stock, ok := buyer.FindCounterparty(picks)
		if !ok {
			rec.NoCounterparty++
			continue
		}
		if _, ok := agent.Execute(buyer, seller, stock, e.market.Price(stock)); !ok {
			rec.Infeasible++
			continue
		}
		rec.Trades++
	}

	rec.PriceIndex = e.market.PriceIndex()
	e.days = append(e.days, rec)

	e.log.WithFields(map[string]interface{}{
		"day":              rec.Day,
		"price_index":      rec.PriceIndex,
		"market_cap_index": rec.MarketCapIndex,
		"trades":           rec.Trades,
		"no_counterparty":  rec.NoCounterparty,
		"infeasible":       rec.Infeasible,
	}).Debug("Day simulated")

	if len(e.days) >= e.cfg.Days {
		e.state = StateCompleted
	}
	return rec, nil
}

// Run steps until the configured number of days has completed.
// hook, if set, is called after every day. Cancellation is checked between days.
func (e *Engine) Run(ctx context.Context, hook func(DayRecord)) error {
	if e.state == StateUninitialized {
		return ErrNotInitialized
	}

	for e.state != StateCompleted {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("stopped after day %d: %w", len(e.days), err)
		}
		rec, err := e.Step()
		if err != nil {
			return err
		}
		if hook != nil {
			hook(rec)
		}
	}
	return nil
}
