// Package tui renders ledger projections for the terminal.
package tui

import (
	"github.com/charmbracelet/lipgloss"

	"stipendi/internal/core"
)

// Theme holds the styles for one palette.
type Theme struct {
	Primary lipgloss.Color
	Muted   lipgloss.Color
	Border  lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color

	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Cell     lipgloss.Style
	Selected lipgloss.Style
	Filled   lipgloss.Style
	Current  lipgloss.Style
	Label    lipgloss.Style
	Value    lipgloss.Style
	Box      lipgloss.Style
	Positive lipgloss.Style
	Negative lipgloss.Style
}

func newTheme(primary, muted, border, fg, selectedFg, success, errColor lipgloss.Color) Theme {
	return Theme{
		Primary: primary,
		Muted:   muted,
		Border:  border,
		Success: success,
		Error:   errColor,

		Title:    lipgloss.NewStyle().Bold(true).Foreground(primary),
		Subtitle: lipgloss.NewStyle().Foreground(muted),
		Cell:     lipgloss.NewStyle().Width(6).Align(lipgloss.Center).Foreground(fg),
		Selected: lipgloss.NewStyle().Width(6).Align(lipgloss.Center).Bold(true).Background(primary).Foreground(selectedFg),
		Filled:   lipgloss.NewStyle().Width(6).Align(lipgloss.Center).Foreground(success),
		Current:  lipgloss.NewStyle().Underline(true),
		Label:    lipgloss.NewStyle().Foreground(muted),
		Value:    lipgloss.NewStyle().Bold(true).Foreground(fg),
		Box:      lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(border).Padding(0, 1),
		Positive: lipgloss.NewStyle().Foreground(success),
		Negative: lipgloss.NewStyle().Foreground(errColor),
	}
}

var (
	Light = newTheme("#4f46e5", "#6b7280", "#d1d5db", "#111827", "#ffffff", "#059669", "#dc2626")
	Dark  = newTheme("#a78bfa", "#9ca3af", "#404040", "#fafafa", "#1a1a1a", "#10b981", "#ef4444")
)

// For returns the palette matching the ledger theme.
func For(t core.Theme) Theme {
	if t == core.ThemeDark {
		return Dark
	}
	return Light
}
