package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wonny/marketsim/internal/report"
	"github.com/wonny/marketsim/internal/simulation"
)

// Tab is the visible page
type Tab int

const (
	TabIndices Tab = iota
	TabAgents
	TabStocks
	tabCount
)

func (t Tab) String() string {
	switch t {
	case TabAgents:
		return "Agents"
	case TabStocks:
		return "Stocks"
	default:
		return "Indices"
	}
}

// Event is one message from a run in progress.
// Exactly one of Day, Result or Err is set.
type Event struct {
	Day    *simulation.DayRecord
	Result *simulation.Result
	Err    error
}

type eventMsg Event

var keys = struct {
	quit, next, prev, indices, agents, stocks key.Binding
}{
	quit:    key.NewBinding(key.WithKeys("q", "ctrl+c")),
	next:    key.NewBinding(key.WithKeys("tab", "right", "l")),
	prev:    key.NewBinding(key.WithKeys("shift+tab", "left", "h")),
	indices: key.NewBinding(key.WithKeys("1")),
	agents:  key.NewBinding(key.WithKeys("2")),
	stocks:  key.NewBinding(key.WithKeys("3")),
}

// Model is the run viewer.
// It either shows a finished result or follows a live run through an Event channel.
type Model struct {
	result *simulation.Result
	days   []simulation.DayRecord
	events <-chan Event
	err    error

	tab    Tab
	agents table.Model
	stocks table.Model

	width  int
	height int
}

// New creates a viewer for a finished run
func New(res *simulation.Result) *Model {
	m := newModel()
	m.setResult(res)
	return m
}

// NewLive creates a viewer that follows events until a Result or Err arrives
func NewLive(events <-chan Event) *Model {
	m := newModel()
	m.events = events
	return m
}

func newModel() *Model {
	return &Model{
		agents: newTable(report.AgentColumns),
		stocks: newTable(report.StockColumns),
		width:  80,
		height: 24,
	}
}

// Init starts listening for live events
func (m *Model) Init() tea.Cmd {
	return m.listen()
}

func (m *Model) listen() tea.Cmd {
	if m.events == nil {
		return nil
	}
	events := m.events
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return eventMsg{}
		}
		return eventMsg(ev)
	}
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.quit):
			return m, tea.Quit
		case key.Matches(msg, keys.next):
			m.tab = (m.tab + 1) % tabCount
			return m, nil
		case key.Matches(msg, keys.prev):
			m.tab = (m.tab + tabCount - 1) % tabCount
			return m, nil
		case key.Matches(msg, keys.indices):
			m.tab = TabIndices
			return m, nil
		case key.Matches(msg, keys.agents):
			m.tab = TabAgents
			return m, nil
		case key.Matches(msg, keys.stocks):
			m.tab = TabStocks
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case eventMsg:
		return m, m.handleEvent(Event(msg))
	}

	var cmd tea.Cmd
	switch m.tab {
	case TabAgents:
		m.agents, cmd = m.agents.Update(msg)
	case TabStocks:
		m.stocks, cmd = m.stocks.Update(msg)
	}
	return m, cmd
}

func (m *Model) handleEvent(ev Event) tea.Cmd {
	switch {
	case ev.Err != nil:
		m.err = ev.Err
		m.events = nil
		return nil
	case ev.Result != nil:
		m.setResult(ev.Result)
		m.events = nil
		return nil
	case ev.Day != nil:
		m.days = append(m.days, *ev.Day)
		return m.listen()
	default:
		// channel closed without a result
		m.events = nil
		return nil
	}
}

func (m *Model) setResult(res *simulation.Result) {
	m.result = res
	m.days = res.Days
	agentRows, stockRows := report.AgentRows(res), report.StockRows(res)
	m.agents.SetColumns(fitColumns(report.AgentColumns, agentRows))
	m.stocks.SetColumns(fitColumns(report.StockColumns, stockRows))
	m.agents.SetRows(toRows(agentRows))
	m.stocks.SetRows(toRows(stockRows))
	m.resize()
}

func (m *Model) resize() {
	h := m.height - 6
	if h < 3 {
		h = 3
	}
	m.agents.SetHeight(h)
	m.stocks.SetHeight(h)
}

// Tab returns the visible page
func (m *Model) Tab() Tab {
	return m.tab
}

// Done reports whether the run being viewed has finished
func (m *Model) Done() bool {
	return m.result != nil || m.err != nil
}

// Err returns the failure of a live run
func (m *Model) Err() error {
	return m.err
}

// View renders the model
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(m.tabBar())
	b.WriteString("\n\n")

	switch {
	case m.err != nil:
		b.WriteString(report.DownStyle.Render("run failed: " + m.err.Error()))
	case m.tab == TabIndices:
		b.WriteString(m.indicesView())
	case m.result == nil:
		b.WriteString(report.LabelStyle.Render(fmt.Sprintf("running... day %d", len(m.days))))
	case m.tab == TabAgents:
		b.WriteString(m.agents.View())
	case m.tab == TabStocks:
		b.WriteString(m.stocks.View())
	}

	b.WriteString("\n\n")
	b.WriteString(report.LabelStyle.Render("tab/1-3: switch  ↑/↓: scroll  q: quit"))
	return b.String()
}

func (m *Model) tabBar() string {
	tabs := make([]string, 0, tabCount)
	for t := Tab(0); t < tabCount; t++ {
		label := fmt.Sprintf(" %d %s ", t+1, t)
		if t == m.tab {
			tabs = append(tabs, activeTab.Render(label))
		} else {
			tabs = append(tabs, inactiveTab.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m *Model) indicesView() string {
	if len(m.days) == 0 {
		return report.LabelStyle.Render("waiting for the first day")
	}

	prices := make([]float64, len(m.days))
	caps := make([]float64, len(m.days))
	for i, d := range m.days {
		prices[i] = d.PriceIndex
		caps[i] = d.MarketCapIndex
	}
	last := m.days[len(m.days)-1]

	width := m.width - 6
	if width < 10 {
		width = 10
	}

	chart := func(title string, values []float64, current float64) string {
		return report.PanelStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
			report.TitleStyle.Render(fmt.Sprintf("%s  %s", title, report.ValueStyle.Render(fmt.Sprintf("%.6g", current)))),
			report.ChartStyle.Render(report.Sparkline(values, width)),
		))
	}

	status := fmt.Sprintf("day %d", last.Day)
	if m.result != nil {
		status = fmt.Sprintf("day %d of %d, %d trades", last.Day, m.result.Summary.Days, m.result.Summary.Trades)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		chart("Price Index", prices, last.PriceIndex),
		chart("Market Cap Index", caps, last.MarketCapIndex),
		report.LabelStyle.Render(status),
	)
}

var (
	activeTab   = lipgloss.NewStyle().Bold(true).Foreground(report.TextColor).Background(report.PrimaryColor)
	inactiveTab = lipgloss.NewStyle().Foreground(report.TextDimColor)
)

func newTable(headers []string) table.Model {
	t := table.New(
		table.WithColumns(fitColumns(headers, nil)),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(report.BorderColor).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(report.TextColor).
		Background(report.PrimaryColor)
	t.SetStyles(styles)
	return t
}

// fitColumns sizes each column to its widest cell
func fitColumns(headers []string, rows [][]string) []table.Column {
	cols := make([]table.Column, len(headers))
	for i, h := range headers {
		w := lipgloss.Width(h)
		for _, r := range rows {
			if i < len(r) && lipgloss.Width(r[i]) > w {
				w = lipgloss.Width(r[i])
			}
		}
		cols[i] = table.Column{Title: h, Width: w + 1}
	}
	return cols
}

func toRows(rows [][]string) []table.Row {
	out := make([]table.Row, len(rows))
	for i, r := range rows {
		out[i] = table.Row(r)
	}
	return out
}

// Run starts the full-screen viewer
func Run(m *Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
