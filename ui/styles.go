package ui

import "github.com/charmbracelet/lipgloss"

// TimeLayout is the hu-HU date-time layout messages are stamped with.
const TimeLayout = "2006. 01. 02. 15:04:05"

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	timeStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	authorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("213"))
	editedStyle   = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("244"))
	selectedStyle = lipgloss.NewStyle().Background(lipgloss.Color("237"))
	editingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	focusedStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	inputBox      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("245")).Padding(0, 1)
)
