package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/wonny/marketsim/internal/simulation"
)

// Export file names
const (
	DaysFile   = "indices.csv"
	AgentsFile = "agents.csv"
	StocksFile = "stocks.csv"
)

// ExportCSV writes the index series and both snapshot tables into dir and
// returns the written paths
func ExportCSV(dir string, res *simulation.Result) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}

	writers := []struct {
		name  string
		write func(io.Writer, *simulation.Result) error
	}{
		{DaysFile, WriteDays},
		{AgentsFile, WriteAgents},
		{StocksFile, WriteStocks},
	}

	paths := make([]string, 0, len(writers))
	for _, w := range writers {
		path := filepath.Join(dir, w.name)
		if err := writeFile(path, res, w.write); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(path string, res *simulation.Result, write func(io.Writer, *simulation.Result) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f, res); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// WriteDays writes one row per simulated day
func WriteDays(w io.Writer, res *simulation.Result) error {
	rows := [][]string{{"day", "price_index", "market_cap_index", "trades", "no_counterparty", "infeasible"}}
	for _, d := range res.Days {
		rows = append(rows, []string{
			strconv.Itoa(d.Day),
			ftoa(d.PriceIndex),
			ftoa(d.MarketCapIndex),
			strconv.Itoa(d.Trades),
			strconv.Itoa(d.NoCounterparty),
			strconv.Itoa(d.Infeasible),
		})
	}
	return writeAll(w, rows)
}

// WriteAgents writes the agent snapshots with one holdings column per stock
func WriteAgents(w io.Writer, res *simulation.Result) error {
	header := []string{"id", "cash", "total_assets", "risk", "eps_weight", "pe_weight", "tier", "tier_multiplier", "transactions"}
	for _, s := range res.Stocks {
		header = append(header, "holding_"+s.Name)
	}

	rows := [][]string{header}
	for _, a := range res.Agents {
		row := []string{
			strconv.Itoa(int(a.ID)),
			ftoa(a.Cash),
			ftoa(a.TotalAssets),
			strconv.Itoa(a.Risk),
			strconv.Itoa(a.EPSWeight),
			strconv.Itoa(a.PEWeight),
			strconv.Itoa(int(a.Tier)),
			ftoa(a.TierMultiplier),
			strconv.Itoa(a.Transactions),
		}
		for _, q := range a.Holdings {
			row = append(row, strconv.Itoa(q))
		}
		rows = append(rows, row)
	}
	return writeAll(w, rows)
}

// WriteStocks writes the stock snapshots
func WriteStocks(w io.Writer, res *simulation.Result) error {
	rows := [][]string{{"id", "name", "company", "price", "price_change", "volatility", "eps", "pe", "market_cap", "volume"}}
	for _, s := range res.Stocks {
		rows = append(rows, []string{
			strconv.Itoa(int(s.ID)),
			s.Name,
			s.Company,
			ftoa(s.Price),
			ftoa(s.PriceChange),
			ftoa(s.Volatility),
			ftoa(s.EPS),
			ftoa(s.PE),
			ftoa(s.MarketCap),
			strconv.FormatInt(s.Volume, 10),
		})
	}
	return writeAll(w, rows)
}

func writeAll(w io.Writer, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
