// internal/browse/styles.go
package browse

import "github.com/charmbracelet/lipgloss"

// Styles
var (
	primaryColor   = lipgloss.Color("#7aa2f7")
	checkedColor   = lipgloss.Color("#9ece6a")
	partialColor   = lipgloss.Color("#e0af68")
	uncheckedColor = lipgloss.Color("#f7768e")
	textColor      = lipgloss.Color("#c0caf5")
	dimColor       = lipgloss.Color("#565f89")
	borderColor    = lipgloss.Color("#414868")

	titleStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true).
			MarginBottom(1)

	rowStyle = lipgloss.NewStyle().
			Foreground(textColor)

	cursorRowStyle = lipgloss.NewStyle().
			Foreground(textColor).
			Background(borderColor).
			Bold(true)

	checkedStyle   = lipgloss.NewStyle().Foreground(checkedColor)
	partialStyle   = lipgloss.NewStyle().Foreground(partialColor)
	uncheckedStyle = lipgloss.NewStyle().Foreground(uncheckedColor)

	statusStyle = lipgloss.NewStyle().
			Foreground(dimColor).
			MarginTop(1)

	helpStyle = lipgloss.NewStyle().
			Foreground(dimColor).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(uncheckedColor).
			Bold(true)
)
