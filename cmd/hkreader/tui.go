package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mailarchive/hkreader/pkg/hkreader/archive"
	"github.com/mailarchive/hkreader/pkg/hkreader/tui"
)

func runTUI(mgr *archive.Manager) error {
	program := tea.NewProgram(tui.NewModel(mgr), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("TUI failed: %w", err)
	}
	return nil
}
