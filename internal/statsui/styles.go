package statsui

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

var (
	accent = lipgloss.Color("#7FB77E")
	dim    = lipgloss.Color("#5C6370")

	tabStyle = lipgloss.NewStyle().
			Padding(0, 2).
			Foreground(dim).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(dim)
	currentTabStyle = tabStyle.
			Foreground(accent).
			Bold(true).
			BorderForeground(accent)
	mutedStyle = lipgloss.NewStyle().Foreground(dim)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#E06C75"))

	tileStyle = lipgloss.NewStyle().
			Width(16).
			Padding(0, 1).
			MarginRight(1).
			Border(lipgloss.ThickBorder(), false, false, false, true).
			BorderForeground(accent)
	tileLabelStyle = mutedStyle
	tileValueStyle = lipgloss.NewStyle().Bold(true)
)

func bitTableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		Bold(true).
		Foreground(accent).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(dim)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#1E1E1E")).
		Background(accent)
	return s
}
