package main

import (
	"os"

	"github.com/charmbracelet/lipgloss"
)

// Styles for status lines written to stderr. Results on stdout stay plain
// so they can be piped. The color profile comes from stderr itself, so a
// redirected stderr gets no escape codes.
var (
	stderrRenderer = lipgloss.NewRenderer(os.Stderr)

	successStyle = statusStyle(stderrRenderer, "#8BC34A")
	errorStyle   = statusStyle(stderrRenderer, "#e53935")
	mutedStyle   = statusStyle(stderrRenderer, "#8a94a6")
)

func statusStyle(r *lipgloss.Renderer, color string) lipgloss.Style {
	return r.NewStyle().Foreground(lipgloss.Color(color))
}
