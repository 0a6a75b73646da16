package simulation

import (
	"slices"
	"time"

	"github.com/wonny/marketsim/internal/agent"
	"github.com/wonny/marketsim/internal/market"
)

// AgentSnapshot is an agent's end-of-run state
type AgentSnapshot struct {
	ID             agent.ID   `json:"id"`
	Cash           float64    `json:"cash"`
	TotalAssets    float64    `json:"total_assets"`
	Risk           int        `json:"risk"`
	EPSWeight      int        `json:"eps_weight"`
	PEWeight       int        `json:"pe_weight"`
	Tier           agent.Tier `json:"tier"`
	TierMultiplier float64    `json:"tier_multiplier"`
	Transactions   int        `json:"transactions"`
	Holdings       []int      `json:"holdings"`
}

// StockSnapshot is a stock's end-of-run state together with its company
type StockSnapshot struct {
	ID          market.StockID `json:"id"`
	Name        string         `json:"name"`
	Company     string         `json:"company"`
	Price       float64        `json:"price"`
	PriceChange float64        `json:"price_change"`
	Volatility  float64        `json:"volatility"`
	EPS         float64        `json:"eps"`
	PE          float64        `json:"pe"`
	MarketCap   float64        `json:"market_cap"`
	Volume      int64          `json:"volume"`
}

// ChangePercent is the last move relative to the price before it
func (s StockSnapshot) ChangePercent() float64 {
	prev := s.Price - s.PriceChange
	if prev <= 0 {
		return 0
	}
	return s.PriceChange / prev * 100
}

// Summary condenses the index series
type Summary struct {
	Days                int     `json:"days"`
	Trades              int     `json:"trades"`
	FinalPriceIndex     float64 `json:"final_price_index"`
	HighPriceIndex      float64 `json:"high_price_index"`
	LowPriceIndex       float64 `json:"low_price_index"`
	FinalMarketCapIndex float64 `json:"final_market_cap_index"`
}

// Result is everything a finished run reports
type Result struct {
	RunID      string          `json:"run_id"`
	Name       string          `json:"name,omitempty"`
	Config     Config          `json:"config"`
	Seed       int64           `json:"seed"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Days       []DayRecord     `json:"days"`
	Agents     []AgentSnapshot `json:"agents"`
	Stocks     []StockSnapshot `json:"stocks"`
	Summary    Summary         `json:"summary"`
}

// PriceIndex returns the price index series, one value per day
func (r *Result) PriceIndex() []float64 {
	out := make([]float64, len(r.Days))
	for i, d := range r.Days {
		out[i] = d.PriceIndex
	}
	return out
}

// MarketCapIndex returns the market cap index series, one value per day
func (r *Result) MarketCapIndex() []float64 {
	out := make([]float64, len(r.Days))
	for i, d := range r.Days {
		out[i] = d.MarketCapIndex
	}
	return out
}

// Snapshot captures the engine's current state. Agents are ordered by ID.
func (e *Engine) Snapshot() ([]AgentSnapshot, []StockSnapshot) {
	agents := make([]AgentSnapshot, 0, len(e.agents))
	for _, a := range e.agents {
		p := a.Params()
		agents = append(agents, AgentSnapshot{
			ID:             a.ID,
			Cash:           a.Cash(),
			TotalAssets:    a.TotalAssets(e.market),
			Risk:           p.Risk,
			EPSWeight:      p.EPSWeight,
			PEWeight:       p.PEWeight,
			Tier:           a.Tier(),
			TierMultiplier: a.Tier().Multiplier(),
			Transactions:   a.Transactions(),
			Holdings:       a.Holdings(),
		})
	}
	slices.SortFunc(agents, func(x, y AgentSnapshot) int { return int(x.ID) - int(y.ID) })

	stocks := make([]StockSnapshot, 0, len(e.market.Stocks()))
	for _, s := range e.market.Stocks() {
		c := e.market.CompanyOf(s)
		ind := e.market.Indicators(s.ID)
		stocks = append(stocks, StockSnapshot{
			ID:          s.ID,
			Name:        s.Name,
			Company:     c.Name,
			Price:       s.Price(),
			PriceChange: s.PriceChange(),
			Volatility:  ind.Volatility,
			EPS:         ind.EPS,
			PE:          ind.PE,
			MarketCap:   c.MarketCap(),
			Volume:      c.Volume(),
		})
	}
	return agents, stocks
}

func summarize(days []DayRecord) Summary {
	sum := Summary{Days: len(days)}
	for i, d := range days {
		sum.Trades += d.Trades
		if i == 0 || d.PriceIndex > sum.HighPriceIndex {
			sum.HighPriceIndex = d.PriceIndex
		}
		if i == 0 || d.PriceIndex < sum.LowPriceIndex {
			sum.LowPriceIndex = d.PriceIndex
		}
	}
	if n := len(days); n > 0 {
		sum.FinalPriceIndex = days[n-1].PriceIndex
		sum.FinalMarketCapIndex = days[n-1].MarketCapIndex
	}
	return sum
}
