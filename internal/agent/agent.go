package agent

import "github.com/wonny/marketsim/internal/market"

const (
	// ParamLowerLimit and ParamUpperLimit bound risk and the two weights.
	// Draws are ParamLowerLimit + Intn(ParamUpperLimit+1), i.e. [1, 1001].
	ParamLowerLimit = 1
	ParamUpperLimit = 1000
)

// ID identifies an agent within a run
type ID int

// Params are the per-agent weights drawn once at construction
type Params struct {
	Risk      int `json:"risk"`
	PEWeight  int `json:"pe_weight"`
	EPSWeight int `json:"eps_weight"`
}

// Tier is the overcommitment tier of an agent.
// The multiplier is reported but does not change trade size.
type Tier int

const (
	TierNone Tier = iota
	Tier1
	Tier2
	Tier3
)

// Multiplier maps a tier to its aggressiveness factor
func (t Tier) Multiplier() float64 {
	switch t {
	case Tier1:
		return 0.4
	case Tier2:
		return 0.7
	case Tier3:
		return 0.95
	default:
		return 0
	}
}

// Agent is a trader holding cash and integer quantities of stocks.
// Holdings are indexed by market.StockID; an agent never owns Stock objects.
type Agent struct {
	ID ID

	params       Params
	tier         Tier
	cash         float64
	holdings     []int
	ranked       []Ranked
	transactions int
}

// New creates an agent. Holdings are copied; negative quantities are clamped to 0.
func New(id ID, cash float64, holdings []int, params Params, tier Tier) *Agent {
	h := make([]int, len(holdings))
	for i, q := range holdings {
		if q > 0 {
			h[i] = q
		}
	}
	return &Agent{
		ID:       id,
		params:   params,
		tier:     tier,
		cash:     cash,
		holdings: h,
	}
}

// Params returns risk and weights
func (a *Agent) Params() Params {
	return a.params
}

// Tier returns the overcommitment tier
func (a *Agent) Tier() Tier {
	return a.tier
}

// Cash returns the cash balance
func (a *Agent) Cash() float64 {
	return a.cash
}

// Transactions returns the number of trades this agent initiated successfully
func (a *Agent) Transactions() int {
	return a.transactions
}

// Holding returns the quantity held of one stock
func (a *Agent) Holding(id market.StockID) int {
	if int(id) < 0 || int(id) >= len(a.holdings) {
		return 0
	}
	return a.holdings[id]
}

// Holdings returns a copy of the portfolio indexed by StockID
func (a *Agent) Holdings() []int {
	out := make([]int, len(a.holdings))
	copy(out, a.holdings)
	return out
}

// TotalAssets is cash plus every holding valued at the current price
func (a *Agent) TotalAssets(prices PriceSource) float64 {
	total := a.cash
	for id, q := range a.holdings {
		total += float64(q) * prices.Price(market.StockID(id))
	}
	return total
}
