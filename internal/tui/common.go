// Package tui renders console tables and styled text for the CLI.
package tui

import "github.com/charmbracelet/lipgloss"

// Color palette matching existing fatih/color usage
var (
	// ColorGreen for created documents and success counts
	ColorGreen = lipgloss.AdaptiveColor{Light: "#00AF00", Dark: "#00D700"}

	// ColorCyan for headings
	ColorCyan = lipgloss.AdaptiveColor{Light: "#00AFAF", Dark: "#00D7D7"}

	// ColorWhite for primary text
	ColorWhite = lipgloss.AdaptiveColor{Light: "#262626", Dark: "#FFFFFF"}

	// ColorGray for borders and secondary text
	ColorGray = lipgloss.AdaptiveColor{Light: "#767676", Dark: "#808080"}

	// ColorYellow for skipped items
	ColorYellow = lipgloss.AdaptiveColor{Light: "#D7AF00", Dark: "#FFD700"}

	// ColorRed for failures
	ColorRed = lipgloss.AdaptiveColor{Light: "#D70000", Dark: "#FF5F5F"}
)

// Reusable styles
var (
	StyleNormal = lipgloss.NewStyle().Foreground(ColorWhite)

	StyleHeader = lipgloss.NewStyle().
			Foreground(ColorCyan).
			Bold(true)

	StyleOK   = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleWarn = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleFail = lipgloss.NewStyle().Foreground(ColorRed)

	// StyleHelp is for hints under a table
	StyleHelp = lipgloss.NewStyle().Foreground(ColorGray)

	StyleBorder = lipgloss.NewStyle().Foreground(ColorGray)
)
