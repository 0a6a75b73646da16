package report

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/marketsim/internal/agent"
	"github.com/wonny/marketsim/internal/simulation"
)

func sampleResult() *simulation.Result {
	return &simulation.Result{
		RunID: "0123456789abcdef",
		Name:  "baseline",
		Seed:  42,
		Days: []simulation.DayRecord{
			{Day: 1, PriceIndex: 150, MarketCapIndex: 0.0011, Trades: 1, NoCounterparty: 1},
			{Day: 2, PriceIndex: 140.5, MarketCapIndex: 0.0010, Infeasible: 2},
		},
		Agents: []simulation.AgentSnapshot{
			{ID: 0, Cash: 100000, TotalAssets: 150000, Risk: 10, EPSWeight: 20, PEWeight: 30, Tier: agent.Tier1, TierMultiplier: 0.4, Transactions: 1, Holdings: []int{500, 400}},
			{ID: 1, Cash: 70000, TotalAssets: 90000, Risk: 1, EPSWeight: 2, PEWeight: 3, Tier: agent.Tier3, TierMultiplier: 0.95, Holdings: []int{300, 200}},
		},
		Stocks: []simulation.StockSnapshot{
			{ID: 0, Name: "ALP", Company: "Alpha Corp", Price: 94.99, PriceChange: -5.01, Volatility: 2.505, EPS: 1.25e6, Volume: 800, MarketCap: 0.00008},
			{ID: 1, Name: "BET", Company: "Beta Corp", Price: 58.01, PriceChange: 8.01, Volatility: 4.005, EPS: 1.6e6, Volume: 600, MarketCap: 0.00003},
		},
		Summary: simulation.Summary{Days: 2, Trades: 1, FinalPriceIndex: 140.5, HighPriceIndex: 150, LowPriceIndex: 140.5, FinalMarketCapIndex: 0.001},
	}
}

func TestRender(t *testing.T) {
	out := Render(sampleResult(), 20)

	for _, want := range []string{"Run 01234567 (baseline)", "Price index", "140.5", "150", "ALP", "Beta Corp", "Agents", "Stocks", "1 (x0.40)"} {
		assert.Contains(t, out, want)
	}
}

func TestConsole(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Console(&buf, sampleResult()))
	assert.True(t, strings.HasSuffix(buf.String(), "\n"))
}

func TestStockRows_ChangePercent(t *testing.T) {
	rows := StockRows(sampleResult())
	require.Len(t, rows, 2)
	require.Len(t, rows[0], len(StockColumns))
	assert.Equal(t, "-5.01", rows[0][3])
	assert.Equal(t, "+16.02", rows[1][3])
}

func TestSparkline(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		width  int
		want   string
	}{
		{"empty", nil, 10, ""},
		{"rising", []float64{0, 1, 2, 3, 4, 5, 6, 7}, 0, "▁▂▃▄▅▆▇█"},
		{"flat", []float64{3, 3, 3}, 0, "▅▅▅"},
		{"resampled", []float64{0, 0, 10, 10}, 2, "▁█"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sparkline(tt.values, tt.width)
			assert.Equal(t, tt.want, got)
		})
	}

	long := make([]float64, 100)
	assert.Equal(t, 30, utf8.RuneCountInString(Sparkline(long, 30)))
}

func TestExportCSV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	paths, err := ExportCSV(dir, sampleResult())
	require.NoError(t, err)
	require.Len(t, paths, 3)

	days := readCSV(t, filepath.Join(dir, DaysFile))
	require.Len(t, days, 3)
	assert.Equal(t, []string{"2", "140.5", "0.001", "0", "0", "2"}, days[2])

	agents := readCSV(t, filepath.Join(dir, AgentsFile))
	require.Len(t, agents, 3)
	assert.Equal(t, "holding_BET", agents[0][len(agents[0])-1])
	assert.Equal(t, "400", agents[1][len(agents[1])-1])

	stocks := readCSV(t, filepath.Join(dir, StocksFile))
	require.Len(t, stocks, 3)
	assert.Equal(t, "Alpha Corp", stocks[1][2])
	assert.Equal(t, "800", stocks[1][9])
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}
