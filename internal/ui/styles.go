package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/petasbytes/agent-chat/memory"
)

var (
	userLabel      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	assistantLabel = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	errorBody      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	statusStyle    = lipgloss.NewStyle().Faint(true)

	buttonStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8"))
	buttonFocused = buttonStyle.
			BorderForeground(lipgloss.Color("12")).
			Bold(true)
	buttonDisabled = buttonStyle.Faint(true)

	inputBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")).
			Padding(0, 1)
)

func renderEntry(e entry, width int) string {
	label := assistantLabel
	if e.role == memory.RoleUser {
		label = userLabel
	}
	body := e.body()
	if e.failed {
		body = errorBody.Render(body)
	}
	line := label.Render(e.label()+":") + " " + body
	if width > 0 {
		return lipgloss.NewStyle().Width(width).Render(line)
	}
	return line
}
