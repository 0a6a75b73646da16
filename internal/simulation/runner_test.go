package simulation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/marketsim/internal/loader"
)

// rowsSource serves prepared rows
type rowsSource struct {
	companies, stocks []loader.Row
}

func (s rowsSource) Name() string { return "rows" }

func (s rowsSource) ReadTables() ([]loader.Row, []loader.Row, error) {
	return s.companies, s.stocks, nil
}

func TestSimulate_Deterministic(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Seed = 42
	cfg.Agents = 10

	first, err := Simulate(context.Background(), cfg, loader.Embedded(), nil)
	require.NoError(t, err)
	second, err := Simulate(context.Background(), cfg, loader.Embedded(), nil)
	require.NoError(t, err)

	assert.Equal(t, int64(42), first.Seed)
	assert.Equal(t, first.PriceIndex(), second.PriceIndex())
	assert.Equal(t, first.MarketCapIndex(), second.MarketCapIndex())
	assert.Equal(t, first.Agents, second.Agents)
	assert.Equal(t, first.Stocks, second.Stocks)
	assert.NotEqual(t, first.RunID, second.RunID)

	other := cfg
	other.Seed = 43
	third, err := Simulate(context.Background(), other, loader.Embedded(), nil)
	require.NoError(t, err)
	assert.NotEqual(t, first.PriceIndex(), third.PriceIndex())
}

func TestSimulate_Result(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Seed = 9
	cfg.Stocks = 4
	cfg.Days = 12

	var hooked []DayRecord
	res, err := Simulate(context.Background(), cfg, loader.Embedded(), nil,
		WithRunID("run-1"),
		WithName("nightly"),
		WithDayHook(func(rec DayRecord) { hooked = append(hooked, rec) }),
	)
	require.NoError(t, err)

	assert.Equal(t, "run-1", res.RunID)
	assert.Equal(t, "nightly", res.Name)
	assert.Len(t, res.Days, 12)
	assert.Equal(t, res.Days, hooked)
	assert.Len(t, res.Stocks, 4)
	assert.Len(t, res.Agents, cfg.Agents)

	for i, a := range res.Agents {
		assert.Equal(t, i, int(a.ID))
		assert.Len(t, a.Holdings, 4)
		assert.Equal(t, a.Tier.Multiplier(), a.TierMultiplier)
		assert.GreaterOrEqual(t, a.Risk, 1)
		assert.LessOrEqual(t, a.Risk, 1001)
	}

	sum := res.Summary
	assert.Equal(t, 12, sum.Days)
	assert.Equal(t, res.Days[11].PriceIndex, sum.FinalPriceIndex)
	assert.GreaterOrEqual(t, sum.HighPriceIndex, sum.FinalPriceIndex)
	assert.LessOrEqual(t, sum.LowPriceIndex, sum.FinalPriceIndex)

	trades := 0
	for _, d := range res.Days {
		trades += d.Trades
		assert.Equal(t, cfg.Agents, d.Trades+d.Infeasible+d.NoCounterparty)
	}
	assert.Equal(t, trades, sum.Trades)
}

func TestSimulate_LoadErrorBuildsNothing(t *testing.T) {
	src := rowsSource{
		companies: []loader.Row{{Line: 1, Fields: []string{"1", "A", "1"}}},
		stocks: []loader.Row{
			{Line: 1, Fields: []string{"1", "AA", "10"}},
			{Line: 2, Fields: []string{"2", "BB", "10"}},
		},
	}

	called := false
	res, err := Simulate(context.Background(), twoAgentConfig(), src, nil,
		WithDayHook(func(DayRecord) { called = true }))

	require.Error(t, err)
	assert.ErrorIs(t, err, loader.ErrDanglingCompany)
	assert.Nil(t, res)
	assert.False(t, called)
}

func TestSimulate_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Agents = 1

	_, err := Simulate(context.Background(), cfg, loader.Embedded(), nil)

	var cfgErr ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "agents", cfgErr.Field)
}

func TestSimulate_TimeSeeded(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Days = 2

	res, err := Simulate(context.Background(), cfg, loader.Embedded(), nil)
	require.NoError(t, err)
	assert.NotZero(t, res.Seed)
	assert.Zero(t, res.Config.Seed)
}

func TestSummarize_Empty(t *testing.T) {
	assert.Equal(t, Summary{}, summarize(nil))
}

func TestStockSnapshot_ChangePercent(t *testing.T) {
	assert.InDelta(t, 10.0, StockSnapshot{Price: 110, PriceChange: 10}.ChangePercent(), 1e-9)
	assert.InDelta(t, -5.0, StockSnapshot{Price: 95, PriceChange: -5}.ChangePercent(), 1e-9)
	assert.Zero(t, StockSnapshot{Price: 0.01, PriceChange: 0.01}.ChangePercent())
}

func TestRunner(t *testing.T) {
	r := Runner{Source: loader.Embedded()}
	cfg := DefaultConfig()
	cfg.Days = 3

	res, err := r.Run(context.Background(), cfg, WithRunID("x"))
	require.NoError(t, err)
	assert.Equal(t, "x", res.RunID)
	assert.Len(t, res.Days, 3)
}
