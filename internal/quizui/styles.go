package quizui

import "charm.land/lipgloss/v2"

var (
	colorPrimary = lipgloss.Color("#2563EB")
	colorSuccess = lipgloss.Color("#16A34A")
	colorError   = lipgloss.Color("#DC2626")
	colorDim     = lipgloss.Color("#94A3B8")
	colorWarn    = lipgloss.Color("#D97706")
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	questionStyle = lipgloss.NewStyle().Bold(true)
	cursorStyle   = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	chosenStyle   = lipgloss.NewStyle().Foreground(colorSuccess)
	hintStyle     = lipgloss.NewStyle().Foreground(colorDim).Italic(true)
	warnStyle     = lipgloss.NewStyle().Foreground(colorWarn).Bold(true)
	errorStyle    = lipgloss.NewStyle().Foreground(colorError)
	correctStyle  = lipgloss.NewStyle().Foreground(colorSuccess)
	wrongStyle    = lipgloss.NewStyle().Foreground(colorError)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim).
			Padding(1, 2)
)
