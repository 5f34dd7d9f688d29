package tui

import "github.com/charmbracelet/lipgloss"

// Theme holds the lipgloss styles for the reader. A single dark
// palette for now; kept in one place so a light variant stays cheap.
type Theme struct {
	Header       lipgloss.Style
	StatusBar    lipgloss.Style
	StatusError  lipgloss.Style
	Sidebar      lipgloss.Style
	SidebarFocus lipgloss.Style
	Cursor       lipgloss.Style
	ThreadRead   lipgloss.Style
	ThreadNew    lipgloss.Style
	Dim          lipgloss.Style
	EmailHeader  lipgloss.Style
	Help         lipgloss.Style
}

// DefaultTheme is the built-in dark-terminal color scheme.
var DefaultTheme = Theme{
	Header: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("230")).
		Background(lipgloss.Color("62")).
		Padding(0, 1),
	StatusBar: lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")),
	StatusError: lipgloss.NewStyle().
		Foreground(lipgloss.Color("203")),
	Sidebar: lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, true, false, false).
		BorderForeground(lipgloss.Color("238")),
	SidebarFocus: lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, true, false, false).
		BorderForeground(lipgloss.Color("62")),
	Cursor: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("230")).
		Background(lipgloss.Color("62")),
	ThreadRead: lipgloss.NewStyle().
		Foreground(lipgloss.Color("243")),
	ThreadNew: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("84")),
	Dim: lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")),
	EmailHeader: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("110")),
	Help: lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")),
}
