package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/wonny/marketsim/internal/simulation"
)

// Column headers shared by the console tables, the CSV export and the viewer
var (
	AgentColumns = []string{"Agent", "Cash", "Assets", "Risk", "EPS Wt", "PE Wt", "Tier", "Trades"}
	StockColumns = []string{"Stock", "Company", "Price", "Change %", "Volatility", "EPS", "PE", "Volume", "Market Cap"}
)

// Render formats a finished run: summary panel, price index chart, agents and stocks
func Render(res *simulation.Result, chartWidth int) string {
	summary := PanelStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		TitleStyle.Render(runTitle(res)),
		summaryLine("Days", strconv.Itoa(res.Summary.Days)),
		summaryLine("Seed", strconv.FormatInt(res.Seed, 10)),
		summaryLine("Price index", formatFloat(res.Summary.FinalPriceIndex)),
		summaryLine("  high", formatFloat(res.Summary.HighPriceIndex)),
		summaryLine("  low", formatFloat(res.Summary.LowPriceIndex)),
		summaryLine("Market cap index", formatFloat(res.Summary.FinalMarketCapIndex)),
		summaryLine("Trades", strconv.Itoa(res.Summary.Trades)),
	))

	chart := PanelStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		TitleStyle.Render("Price Index"),
		ChartStyle.Render(Sparkline(res.PriceIndex(), chartWidth)),
	))

	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, summary, chart),
		TitleStyle.Render("Agents"),
		newTable(AgentColumns, AgentRows(res)).Render(),
		TitleStyle.Render("Stocks"),
		newTable(StockColumns, StockRows(res)).Render(),
	)
}

// Console writes Render output followed by a newline
func Console(w io.Writer, res *simulation.Result) error {
	_, err := fmt.Fprintln(w, Render(res, 40))
	return err
}

// AgentRows formats agent snapshots in AgentColumns order
func AgentRows(res *simulation.Result) [][]string {
	rows := make([][]string, 0, len(res.Agents))
	for _, a := range res.Agents {
		rows = append(rows, []string{
			strconv.Itoa(int(a.ID)),
			formatMoney(a.Cash),
			formatMoney(a.TotalAssets),
			strconv.Itoa(a.Risk),
			strconv.Itoa(a.EPSWeight),
			strconv.Itoa(a.PEWeight),
			fmt.Sprintf("%d (x%.2f)", a.Tier, a.TierMultiplier),
			strconv.Itoa(a.Transactions),
		})
	}
	return rows
}

// StockRows formats stock snapshots in StockColumns order
func StockRows(res *simulation.Result) [][]string {
	rows := make([][]string, 0, len(res.Stocks))
	for _, s := range res.Stocks {
		rows = append(rows, []string{
			s.Name,
			s.Company,
			formatMoney(s.Price),
			fmt.Sprintf("%+.2f", s.ChangePercent()),
			formatFloat(s.Volatility),
			formatFloat(s.EPS),
			formatFloat(s.PE),
			strconv.FormatInt(s.Volume, 10),
			formatFloat(s.MarketCap),
		})
	}
	return rows
}

func newTable(headers []string, rows [][]string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(BorderColor)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return HeaderStyle
			}
			return CellStyle
		})
}

func runTitle(res *simulation.Result) string {
	if res.Name != "" {
		return fmt.Sprintf("Run %s (%s)", shortID(res.RunID), res.Name)
	}
	return "Run " + shortID(res.RunID)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func summaryLine(label, value string) string {
	return LabelStyle.Render(fmt.Sprintf("%-18s", label)) + ValueStyle.Render(value)
}

func formatMoney(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// formatFloat keeps small magnitudes (caps, PE) readable
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}
