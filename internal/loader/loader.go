package loader

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/wonny/marketsim/internal/market"
)

var (
	ErrMalformedRow      = errors.New("malformed row")
	ErrDanglingCompany   = errors.New("company id does not resolve to a loaded company")
	ErrNoStocks          = errors.New("no stocks loaded")
	ErrInvalidStockCount = errors.New("stock count must be positive")
)

// Table names used in RowError
const (
	TableCompanies = "companies"
	TableStocks    = "stocks"
)

// Row is one raw record with its 1-based position in the source
type Row struct {
	Line   int
	Fields []string
}

// Source supplies the raw companies and stocks tables.
// Rows are (id, name, income) and (companyId, name, startingPrice).
type Source interface {
	Name() string
	ReadTables() (companies, stocks []Row, err error)
}

// RowError describes the first bad row of a table
type RowError struct {
	Table string
	Line  int
	Field string
	Err   error
	Msg   string
}

func (e *RowError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s line %d: %s", e.Table, e.Line, e.Msg)
	}
	return fmt.Sprintf("%s line %d: %s: %s", e.Table, e.Line, e.Field, e.Msg)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// Load reads both tables from src and builds the market for up to count stocks.
//
// Company rows with id <= count are loaded and must be sequential from 1.
// Stock rows with company id <= count are loaded and must reference a company
// already loaded at position id-1. Any bad row fails the whole load and no
// market is returned.
// ⭐ SSOT: 초기 종목/기업 로딩은 여기서만
func Load(src Source, count int) (*market.Market, error) {
	if count <= 0 {
		return nil, ErrInvalidStockCount
	}

	companyRows, stockRows, err := src.ReadTables()
	if err != nil {
		return nil, fmt.Errorf("read tables from %s: %w", src.Name(), err)
	}

	companies, err := parseCompanies(companyRows, count)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", src.Name(), err)
	}

	stocks, err := parseStocks(stockRows, companies, count)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", src.Name(), err)
	}
	if len(stocks) == 0 {
		return nil, fmt.Errorf("load %s: %w", src.Name(), ErrNoStocks)
	}

	m, err := market.New(companies, stocks)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", src.Name(), err)
	}
	return m, nil
}

func parseCompanies(rows []Row, count int) ([]*market.Company, error) {
	companies := make([]*market.Company, 0, count)
	for _, row := range rows {
		if err := checkColumns(TableCompanies, row); err != nil {
			return nil, err
		}

		id, err := parseID(TableCompanies, row, "id")
		if err != nil {
			return nil, err
		}
		if id > count {
			continue
		}
		if id != len(companies)+1 {
			return nil, malformed(TableCompanies, row, "id", fmt.Sprintf("expected %d, got %d", len(companies)+1, id))
		}

		name := strings.TrimSpace(row.Fields[1])
		if name == "" {
			return nil, malformed(TableCompanies, row, "name", "empty")
		}

		income, err := parseDecimal(row.Fields[2])
		if err != nil {
			return nil, malformed(TableCompanies, row, "income", err.Error())
		}

		companies = append(companies, market.NewCompany(market.CompanyID(len(companies)), name, income))
	}
	return companies, nil
}

func parseStocks(rows []Row, companies []*market.Company, count int) ([]*market.Stock, error) {
	stocks := make([]*market.Stock, 0, count)
	for _, row := range rows {
		if err := checkColumns(TableStocks, row); err != nil {
			return nil, err
		}

		companyID, err := parseID(TableStocks, row, "company id")
		if err != nil {
			return nil, err
		}
		if companyID > count {
			continue
		}
		if companyID > len(companies) {
			return nil, &RowError{
				Table: TableStocks,
				Line:  row.Line,
				Field: "company id",
				Err:   ErrDanglingCompany,
				Msg:   fmt.Sprintf("%d exceeds %d loaded companies", companyID, len(companies)),
			}
		}

		name := strings.TrimSpace(row.Fields[1])
		if name == "" {
			return nil, malformed(TableStocks, row, "name", "empty")
		}

		price, err := parseDecimal(row.Fields[2])
		if err != nil {
			return nil, malformed(TableStocks, row, "price", err.Error())
		}
		if price <= 0 {
			return nil, malformed(TableStocks, row, "price", "must be > 0")
		}

		company := companies[companyID-1]
		stocks = append(stocks, market.NewStock(market.StockID(len(stocks)), name, company.ID, price))
	}
	return stocks, nil
}

func checkColumns(table string, row Row) error {
	if len(row.Fields) != 3 {
		return malformed(table, row, "", fmt.Sprintf("expected 3 columns, got %d", len(row.Fields)))
	}
	return nil
}

// parseID accepts positive integers only
func parseID(table string, row Row, field string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(row.Fields[0]))
	if err != nil {
		return 0, malformed(table, row, field, "not an integer")
	}
	if id < 1 {
		return 0, malformed(table, row, field, "must be >= 1")
	}
	return id, nil
}

// parseDecimal parses an exact decimal column before converting to float64
func parseDecimal(s string) (float64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("not a decimal: %q", s)
	}
	f, _ := d.Float64()
	return f, nil
}

func malformed(table string, row Row, field, msg string) *RowError {
	return &RowError{
		Table: table,
		Line:  row.Line,
		Field: field,
		Err:   ErrMalformedRow,
		Msg:   msg,
	}
}
