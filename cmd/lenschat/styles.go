package main

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	colorPrimary   = lipgloss.Color("#00ff00")
	colorText      = lipgloss.Color("#ffffff")
	colorTextMuted = lipgloss.Color("#808080")
	colorError     = lipgloss.Color("#ff5f5f")

	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Padding(0, 1)
	cellStyle      = lipgloss.NewStyle().Foreground(colorText).Padding(0, 1)
	mutedStyle     = lipgloss.NewStyle().Foreground(colorTextMuted)
	errorStyle     = lipgloss.NewStyle().Foreground(colorError)
	userLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	botLabelStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorText)
	thinkingStyle  = lipgloss.NewStyle().Italic(true).Foreground(colorTextMuted).
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(colorTextMuted).PaddingLeft(1)
)

// newTable returns a table in the CLI style.
func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(mutedStyle).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}
