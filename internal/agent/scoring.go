package agent

import (
	"cmp"
	"slices"

	"github.com/wonny/marketsim/internal/market"
)

const (
	normMin = 1.0
	normMax = 1000.0

	// neutralScore is used for every stock when an indicator has zero range
	neutralScore = (normMin + normMax) / 2
)

// PriceSource gives current prices by handle
type PriceSource interface {
	Price(id market.StockID) float64
}

// MarketView is what an agent reads from the market while scoring
type MarketView interface {
	PriceSource
	StockName(id market.StockID) string
	Indicators(id market.StockID) market.Indicators
}

// Ranked is one entry of an agent's daily preference list
type Ranked struct {
	Stock market.StockID `json:"stock"`
	Name  string         `json:"name"`
	Score float64        `json:"score"`
}

// Rank recomputes the composite score of every portfolio stock and rebuilds
// the ranked list, best first.
//
// Each indicator (volatility, EPS, PE) is min-max normalized over the agent's
// own portfolio into [1, 1000], multiplied by the matching weight (risk,
// epsWeight, peWeight) and summed.
func (a *Agent) Rank(m MarketView) []Ranked {
	n := len(a.holdings)
	vol := make([]float64, n)
	eps := make([]float64, n)
	pe := make([]float64, n)
	for i := 0; i < n; i++ {
		ind := m.Indicators(market.StockID(i))
		vol[i] = ind.Volatility
		eps[i] = ind.EPS
		pe[i] = ind.PE
	}

	vol = normalize(vol)
	eps = normalize(eps)
	pe = normalize(pe)

	ranked := make([]Ranked, n)
	for i := 0; i < n; i++ {
		id := market.StockID(i)
		ranked[i] = Ranked{
			Stock: id,
			Name:  m.StockName(id),
			Score: vol[i]*float64(a.params.Risk) +
				eps[i]*float64(a.params.EPSWeight) +
				pe[i]*float64(a.params.PEWeight),
		}
	}

	slices.SortFunc(ranked, compareRanked)
	a.ranked = ranked
	return a.Ranked()
}

// Ranked returns a copy of the list built by the last Rank call
func (a *Agent) Ranked() []Ranked {
	out := make([]Ranked, len(a.ranked))
	copy(out, a.ranked)
	return out
}

// Top returns the agent's preferred stock for the day
func (a *Agent) Top() (market.StockID, bool) {
	if len(a.ranked) == 0 {
		return 0, false
	}
	return a.ranked[0].Stock, true
}

// compareRanked orders by score descending, then name, then handle
func compareRanked(x, y Ranked) int {
	if c := cmp.Compare(y.Score, x.Score); c != 0 {
		return c
	}
	if c := cmp.Compare(x.Name, y.Name); c != 0 {
		return c
	}
	return cmp.Compare(x.Stock, y.Stock)
}

// normalize maps raw values into [normMin, normMax].
// Zero range (one stock, identical values) yields neutralScore for all.
func normalize(raw []float64) []float64 {
	out := make([]float64, len(raw))
	if len(raw) == 0 {
		return out
	}

	lo, hi := slices.Min(raw), slices.Max(raw)
	if hi == lo {
		for i := range out {
			out[i] = neutralScore
		}
		return out
	}

	for i, v := range raw {
		out[i] = normMin + (v-lo)*(normMax-normMin)/(hi-lo)
	}
	return out
}
