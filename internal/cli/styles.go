package cli

import (
	"strings"

	"setpace/internal/core/model"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	clockStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#CDD6F4"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#A6E3A1"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F9E2AF"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F38BA8"))
)

// phaseStyles colours each phase of a rep.
var phaseStyles = map[model.Phase]lipgloss.Style{
	model.PhaseEccentric:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#06B6D4")),
	model.PhaseBottomPause: lipgloss.NewStyle().Foreground(lipgloss.Color("#F9E2AF")),
	model.PhaseConcentric:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#A6E3A1")),
	model.PhaseTopPause:    lipgloss.NewStyle().Foreground(lipgloss.Color("#F9E2AF")),
}

var phaseLabels = map[model.Phase]string{
	model.PhaseEccentric:   "lower",
	model.PhaseBottomPause: "hold",
	model.PhaseConcentric:  "lift",
	model.PhaseTopPause:    "hold",
}

const barWidth = 20

// progressBar renders fraction (0..1) as a fixed-width bar.
func progressBar(fraction float64) string {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	filled := int(fraction*barWidth + 0.5)
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", barWidth-filled) + "]"
}
