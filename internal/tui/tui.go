// Package tui implements the interactive spreadsheet editor: grid editing
// with undo/redo, find/replace, the mapping panel, and the preview/confirm
// flow against the import service.
package tui

import "github.com/charmbracelet/lipgloss"

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	columnStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	selectedStyle  = lipgloss.NewStyle().Reverse(true)
	matchStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true)
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	statusOKStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	statusErrStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	issueStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	hintStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)
