package ui

import "github.com/charmbracelet/lipgloss"

// Shared terminal styles for command output.
var (
	Success = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	Failure = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	Warning = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	Bold    = lipgloss.NewStyle().Bold(true)
	Faint   = lipgloss.NewStyle().Faint(true)
	Link    = lipgloss.NewStyle().Underline(true)
)
