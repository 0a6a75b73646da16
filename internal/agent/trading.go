package agent

import "github.com/wonny/marketsim/internal/market"

// TradeVolume is the fixed number of shares moved by every trade
const TradeVolume = 100

// Trade records one executed transfer
type Trade struct {
	Buyer    ID             `json:"buyer"`
	Seller   ID             `json:"seller"`
	Stock    market.StockID `json:"stock"`
	Quantity int            `json:"quantity"`
	Cost     float64        `json:"cost"`
}

// TopPicks indexes agents by their current top-ranked stock.
// Agents appear under each stock in the order they were passed in.
type TopPicks map[market.StockID][]*Agent

// IndexTopPicks builds the lookup once rankings for the day are final.
// Rankings do not change while trades execute, so the index stays valid for
// the whole trading step.
func IndexTopPicks(agents []*Agent) TopPicks {
	picks := make(TopPicks, len(agents))
	for _, a := range agents {
		if top, ok := a.Top(); ok {
			picks[top] = append(picks[top], a)
		}
	}
	return picks
}

// FindCounterparty walks the agent's ranked list from the top and returns the
// first other agent whose own top pick equals the candidate stock.
// Returns ok=false when nothing in the list matches.
func (a *Agent) FindCounterparty(picks TopPicks) (*Agent, market.StockID, bool) {
	for _, r := range a.ranked {
		for _, other := range picks[r.Stock] {
			if other != a {
				return other, r.Stock, true
			}
		}
	}
	return nil, 0, false
}

// TradeCost is the cash a buyer pays for one trade at the given price
func TradeCost(price float64) float64 {
	return (price + market.TickSize) * TradeVolume
}

// Execute moves TradeVolume shares of stock from seller to buyer at
// TradeCost(price). It only executes when the buyer's cash is strictly
// greater than the cost and the seller holds strictly more than TradeVolume
// shares. An infeasible trade leaves both agents untouched and returns ok=false.
func Execute(buyer, seller *Agent, stock market.StockID, price float64) (Trade, bool) {
	if buyer == nil || seller == nil || buyer == seller {
		return Trade{}, false
	}

	cost := TradeCost(price)
	if !(buyer.cash > cost && seller.Holding(stock) > TradeVolume) {
		return Trade{}, false
	}
	if int(stock) >= len(buyer.holdings) {
		return Trade{}, false
	}

	buyer.holdings[stock] += TradeVolume
	buyer.cash -= cost
	seller.holdings[stock] -= TradeVolume
	seller.cash += cost
	buyer.transactions++

	return Trade{
		Buyer:    buyer.ID,
		Seller:   seller.ID,
		Stock:    stock,
		Quantity: TradeVolume,
		Cost:     cost,
	}, true
}
