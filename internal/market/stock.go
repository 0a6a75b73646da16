package market

import "math"

const (
	// TickSize is the minimum price movement and the price floor
	TickSize = 0.01

	// walkScale multiplies the tick size to give the largest daily move
	walkScale = 1000

	// downProbability is the share of uniform draws that move the price down
	downProbability = 0.7
)

// StockID is a stable handle for a stock, equal to its position in the market.
// Agents address their portfolios by StockID instead of by object identity.
type StockID int

// Stock is a tradable instrument owned by exactly one company.
type Stock struct {
	ID      StockID
	Name    string
	Company CompanyID

	price   float64
	change  float64
	history []float64

	// running mean / sum of squared deviations over history (Welford)
	mean float64
	m2   float64
}

// NewStock creates a stock and records its starting price as the first history entry.
// A non-positive starting price is floored to TickSize.
func NewStock(id StockID, name string, company CompanyID, startingPrice float64) *Stock {
	s := &Stock{
		ID:      id,
		Name:    name,
		Company: company,
	}
	if startingPrice <= 0 {
		startingPrice = TickSize
	}
	s.price = startingPrice
	s.record(startingPrice)
	return s
}

// Price returns the current price
func (s *Stock) Price() float64 {
	return s.price
}

// PriceChange returns the signed move applied by the last update
func (s *Stock) PriceChange() float64 {
	return s.change
}

// History returns a copy of every recorded price, oldest first
func (s *Stock) History() []float64 {
	out := make([]float64, len(s.history))
	copy(out, s.history)
	return out
}

// UpdatePrice applies one day of the random walk for a uniform draw u in [0,1).
//
// The move magnitude is TickSize*1000*u + TickSize. Draws below 0.7 move the
// price down, so the walk drifts downward. A result at or below zero resets the
// price to TickSize. Returns the signed change.
func (s *Stock) UpdatePrice(u float64) float64 {
	change := TickSize*walkScale*u + TickSize
	if u < downProbability {
		change = -change
	}

	s.change = change
	s.price += change
	if s.price <= 0 {
		s.price = TickSize
	}
	s.record(s.price)

	return change
}

// Volatility is the population standard deviation of the whole price history
func (s *Stock) Volatility() float64 {
	n := len(s.history)
	if n == 0 {
		return 0
	}
	return math.Sqrt(s.m2 / float64(n))
}

// PERatio returns price / eps, or 0 when eps is 0
func (s *Stock) PERatio(eps float64) float64 {
	if eps == 0 {
		return 0
	}
	return s.price / eps
}

func (s *Stock) record(p float64) {
	s.history = append(s.history, p)

	n := float64(len(s.history))
	delta := p - s.mean
	s.mean += delta / n
	s.m2 += delta * (p - s.mean)
	if s.m2 < 0 {
		s.m2 = 0
	}
}
