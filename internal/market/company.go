package market

// BillionModifier scales company income (EPS) and market capitalisation.
const BillionModifier = 1_000_000_000

// CompanyID is a stable handle for a company, equal to its position in the market.
type CompanyID int

// Company is a passive issuer record.
// Volume is the number of shares held by all agents and only ever grows.
type Company struct {
	ID     CompanyID
	Name   string
	Income float64

	volume    int64
	eps       float64
	marketCap float64
}

// NewCompany creates a company with zero volume (EPS 0 until shares are allocated)
func NewCompany(id CompanyID, name string, income float64) *Company {
	c := &Company{
		ID:     id,
		Name:   name,
		Income: income,
	}
	c.calcEPS()
	return c
}

// Volume returns the cumulative share volume
func (c *Company) Volume() int64 {
	return c.volume
}

// EPS returns earnings per share: income * 1e9 / volume
func (c *Company) EPS() float64 {
	return c.eps
}

// MarketCap returns the market capitalisation computed by the last UpdateMarketCap call
func (c *Company) MarketCap() float64 {
	return c.marketCap
}

// AddVolume adds shares to the cumulative volume and recomputes EPS.
// Non-positive amounts are ignored: shares are never returned to the company.
func (c *Company) AddVolume(shares int64) {
	if shares <= 0 {
		return
	}
	c.volume += shares
	c.calcEPS()
}

// UpdateMarketCap recomputes market cap from the given stock price
func (c *Company) UpdateMarketCap(price float64) {
	c.marketCap = float64(c.volume) * price / BillionModifier
}

// calcEPS defines EPS as 0 while no shares have been allocated
func (c *Company) calcEPS() {
	if c.volume == 0 {
		c.eps = 0
		return
	}
	c.eps = c.Income * BillionModifier / float64(c.volume)
}
