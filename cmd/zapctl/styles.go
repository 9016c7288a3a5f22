package main

import "github.com/charmbracelet/lipgloss"

// Centralized style definitions for terminal output.
var (
	// Error output styles.
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1")) // red

	// Operation event styles.
	shockStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1")) // red
	vibrateStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("3")) // yellow
	beepStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")) // cyan
	burstStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("5")) // magenta

	// Status / informational styles.
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2")) // green
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8")) // gray
	headerStyle = lipgloss.NewStyle().Bold(true)

	// Spinner / animation styles.
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("5")) // magenta
)

func errorPrefix() string {
	return errorStyle.Render("Error:")
}
