package watch

import "github.com/charmbracelet/lipgloss"

var (
	styleHeader    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	styleFound     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	stylePending   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	styleComplete  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	styleLearner   = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	styleAssistant = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))
	styleDimmed    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	styleError     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)
