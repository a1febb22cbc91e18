package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Run connects to the control API at controlURL and drives the
// dashboard until the user quits. It blocks for the lifetime of the
// program and restores the terminal on exit.
func Run(controlURL string) error {
	model := NewModel(NewClient(controlURL))

	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}
