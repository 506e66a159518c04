package main

import "github.com/charmbracelet/lipgloss"

var (
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#959595"))
)

func errorText(s string) string   { return errStyle.Render(s) }
func successText(s string) string { return successStyle.Render(s) }
func infoText(s string) string    { return infoStyle.Render(s) }
