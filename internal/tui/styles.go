package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorMauve = lipgloss.Color("#cba6f7")
	colorText  = lipgloss.Color("#cdd6f4")
	colorBlue  = lipgloss.Color("#89b4fa")
	colorGreen = lipgloss.Color("#a6e3a1")
	colorPeach = lipgloss.Color("#fab387")
	colorDim   = lipgloss.Color("#6c7086")
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#1e1e2e")).
			Background(colorBlue).
			Padding(0, 1)

	dimStyle = lipgloss.NewStyle().Foreground(colorDim).Italic(true)

	textLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(colorBlue)

	toolLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(colorPeach)

	toolResultStyle = lipgloss.NewStyle().Foreground(colorGreen)

	resultLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(colorGreen)
)
