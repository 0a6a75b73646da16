package report

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	PrimaryColor  = lipgloss.Color("#7C3AED")
	UpColor       = lipgloss.Color("#10B981")
	DownColor     = lipgloss.Color("#EF4444")
	BorderColor   = lipgloss.Color("#374151")
	TextColor     = lipgloss.Color("#F9FAFB")
	TextDimColor  = lipgloss.Color("#9CA3AF")
	HighlightText = lipgloss.Color("#F59E0B")
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor).
			Padding(0, 1)

	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderColor).
			Padding(0, 1)

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(TextDimColor).
			Padding(0, 1)

	CellStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			Padding(0, 1)

	LabelStyle = lipgloss.NewStyle().
			Foreground(TextDimColor)

	ValueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(TextColor)

	UpStyle = lipgloss.NewStyle().
		Foreground(UpColor)

	DownStyle = lipgloss.NewStyle().
			Foreground(DownColor)

	ChartStyle = lipgloss.NewStyle().
			Foreground(HighlightText)
)

// Signed picks the up or down style for a change
func Signed(v float64) lipgloss.Style {
	if v < 0 {
		return DownStyle
	}
	return UpStyle
}
