package tui

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	colorPrimary   = lipgloss.Color("#7C3AED")
	colorSecondary = lipgloss.Color("#06B6D4")
	colorError     = lipgloss.Color("#EF4444")
	colorMuted     = lipgloss.Color("#6B7280")
	colorWhite     = lipgloss.Color("#F9FAFB")

	styleTitle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	styleUser = lipgloss.NewStyle().
			Foreground(colorSecondary)

	styleAgent = lipgloss.NewStyle().
			Foreground(colorWhite)

	styleSystem = lipgloss.NewStyle().
			Foreground(colorMuted).
			Italic(true)

	styleTimestamp = lipgloss.NewStyle().
			Foreground(colorMuted)

	styleTyping = lipgloss.NewStyle().
			Foreground(colorPrimary)

	styleError = lipgloss.NewStyle().
			Foreground(colorError)

	styleBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMuted).
			Padding(0, 1)

	styleStatusBar = lipgloss.NewStyle().
			Foreground(colorMuted)
)
