package market

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateName = errors.New("duplicate name")
	ErrUnknownEntity = errors.New("unknown entity")
	ErrSharedCompany = errors.New("company already has a stock")
)

// Indicators are the raw valuation inputs an agent reads for one stock
type Indicators struct {
	Volatility float64
	EPS        float64
	PE         float64
}

// Market holds the fixed set of companies and stocks for one run.
// ⭐ SSOT: 종목/기업 집합은 여기서만 보관 (run 중 발행 없음)
type Market struct {
	companies []*Company
	stocks    []*Stock
}

// New validates handles and ownership and returns a Market.
// Handles must equal slice positions, names must be unique and every stock
// must belong to its own company.
func New(companies []*Company, stocks []*Stock) (*Market, error) {
	names := make(map[string]struct{}, len(companies))
	for i, c := range companies {
		if c.ID != CompanyID(i) {
			return nil, fmt.Errorf("company %q: handle %d at position %d: %w", c.Name, c.ID, i, ErrUnknownEntity)
		}
		if _, dup := names[c.Name]; dup {
			return nil, fmt.Errorf("company %q: %w", c.Name, ErrDuplicateName)
		}
		names[c.Name] = struct{}{}
	}

	owned := make(map[CompanyID]string, len(stocks))
	stockNames := make(map[string]struct{}, len(stocks))
	for i, s := range stocks {
		if s.ID != StockID(i) {
			return nil, fmt.Errorf("stock %q: handle %d at position %d: %w", s.Name, s.ID, i, ErrUnknownEntity)
		}
		if s.Company < 0 || int(s.Company) >= len(companies) {
			return nil, fmt.Errorf("stock %q: company %d: %w", s.Name, s.Company, ErrUnknownEntity)
		}
		if other, taken := owned[s.Company]; taken {
			return nil, fmt.Errorf("stock %q: company %q owned by %q: %w", s.Name, companies[s.Company].Name, other, ErrSharedCompany)
		}
		if _, dup := stockNames[s.Name]; dup {
			return nil, fmt.Errorf("stock %q: %w", s.Name, ErrDuplicateName)
		}
		owned[s.Company] = s.Name
		stockNames[s.Name] = struct{}{}
	}

	return &Market{companies: companies, stocks: stocks}, nil
}

// Companies returns the companies in handle order
func (m *Market) Companies() []*Company {
	return m.companies
}

// Stocks returns the stocks in handle order
func (m *Market) Stocks() []*Stock {
	return m.stocks
}

// Stock returns the stock for a handle
func (m *Market) Stock(id StockID) *Stock {
	return m.stocks[id]
}

// Company returns the company for a handle
func (m *Market) Company(id CompanyID) *Company {
	return m.companies[id]
}

// CompanyOf returns the owning company of a stock
func (m *Market) CompanyOf(s *Stock) *Company {
	return m.companies[s.Company]
}

// StockName returns the name of a stock
func (m *Market) StockName(id StockID) string {
	return m.stocks[id].Name
}

// Price returns the current price of a stock
func (m *Market) Price(id StockID) float64 {
	return m.stocks[id].Price()
}

// Indicators returns volatility, company EPS and PE for a stock
func (m *Market) Indicators(id StockID) Indicators {
	s := m.stocks[id]
	eps := m.CompanyOf(s).EPS()
	return Indicators{
		Volatility: s.Volatility(),
		EPS:        eps,
		PE:         s.PERatio(eps),
	}
}

// UpdateMarketCaps recomputes every owning company's cap from its stock's current price
func (m *Market) UpdateMarketCaps() {
	for _, s := range m.stocks {
		m.CompanyOf(s).UpdateMarketCap(s.Price())
	}
}

// PriceIndex is the sum of all stock prices
func (m *Market) PriceIndex() float64 {
	total := 0.0
	for _, s := range m.stocks {
		total += s.Price()
	}
	return total
}

// MarketCapIndex is the sum of all company market caps
func (m *Market) MarketCapIndex() float64 {
	total := 0.0
	for _, c := range m.companies {
		total += c.MarketCap()
	}
	return total
}
