package tui

import "github.com/charmbracelet/lipgloss"

// Styles contains all lipgloss styles for the dashboard.
type Styles struct {
	Title  lipgloss.Style
	Timer  lipgloss.Style
	Header lipgloss.Style

	StatusRunning   lipgloss.Style
	StatusSucceeded lipgloss.Style
	StatusFailed    lipgloss.Style
	StatusOther     lipgloss.Style

	Benchmark lipgloss.Style
	Dim       lipgloss.Style
	Error     lipgloss.Style

	Footer    lipgloss.Style
	FooterKey lipgloss.Style
}

// DefaultStyles returns the default dashboard styles.
func DefaultStyles() Styles {
	return Styles{
		Title:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		Timer:  lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Header: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("250")),

		StatusRunning:   lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		StatusSucceeded: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		StatusFailed:    lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		StatusOther:     lipgloss.NewStyle().Foreground(lipgloss.Color("245")),

		Benchmark: lipgloss.NewStyle().Bold(true),
		Dim:       lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Italic(true),

		Footer:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")).MarginTop(1),
		FooterKey: lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
	}
}

// statusStyle picks the style for a status string.
func (s Styles) statusStyle(status string) lipgloss.Style {
	switch status {
	case "running":
		return s.StatusRunning
	case "succeeded", "exited":
		return s.StatusSucceeded
	case "failed":
		return s.StatusFailed
	default:
		return s.StatusOther
	}
}
