package tui

import "github.com/charmbracelet/lipgloss"

var (
	ColorInk     = lipgloss.Color("#ECEFF4")
	ColorDim     = lipgloss.Color("#7A8291")
	ColorAccent  = lipgloss.Color("#D08770")
	ColorSuccess = lipgloss.Color("#A3BE8C")
	ColorWarn    = lipgloss.Color("#EBCB8B")
	ColorError   = lipgloss.Color("#BF616A")
)

var (
	TitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	LabelStyle   = lipgloss.NewStyle().Foreground(ColorInk)
	DimStyle     = lipgloss.NewStyle().Foreground(ColorDim)
	SuccessStyle = lipgloss.NewStyle().Foreground(ColorSuccess)
	WarnStyle    = lipgloss.NewStyle().Foreground(ColorWarn)
	ErrorStyle   = lipgloss.NewStyle().Foreground(ColorError)
	valueStyle   = lipgloss.NewStyle().Foreground(ColorInk).Bold(true)
	barStyle     = lipgloss.NewStyle().Foreground(ColorAccent)
)
