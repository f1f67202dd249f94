package main

import (
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/wolfman30/symptom-scout/internal/triage"
)

var (
	colorAccent = lipgloss.Color("#fe8019")
	colorGreen  = lipgloss.Color("#8ec07c")
	colorYellow = lipgloss.Color("#fabd2f")
	colorRed    = lipgloss.Color("#fb4934")
	colorBlue   = lipgloss.Color("#83a598")
	colorDim    = lipgloss.Color("#928374")
	colorFg     = lipgloss.Color("#ebdbb2")
)

var (
	styleUser   = lipgloss.NewStyle().Foreground(colorBlue).Bold(true)
	styleBot    = lipgloss.NewStyle().Foreground(colorFg)
	styleSystem = lipgloss.NewStyle().Foreground(colorYellow).Italic(true)
	styleDim    = lipgloss.NewStyle().Foreground(colorDim)
	styleWarn   = lipgloss.NewStyle().Foreground(colorYellow)
	styleError  = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	styleHeader = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
)

func urgencyStyle(u string) lipgloss.Style {
	switch triage.Urgency(u) {
	case triage.UrgencyUrgent:
		return styleError
	case triage.UrgencyAppointmentNeeded:
		return styleWarn
	case triage.UrgencyNonUrgent:
		return lipgloss.NewStyle().Foreground(colorGreen)
	default:
		return styleDim
	}
}

func scoutHuhTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	t.Focused.SelectSelector = lipgloss.NewStyle().Foreground(colorAccent)
	t.Focused.SelectedOption = lipgloss.NewStyle().Foreground(colorGreen)
	t.Focused.UnselectedOption = lipgloss.NewStyle().Foreground(colorFg)
	t.Focused.FocusedButton = lipgloss.NewStyle().Foreground(colorFg).Background(colorAccent).Padding(0, 1)
	t.Focused.BlurredButton = lipgloss.NewStyle().Foreground(colorDim).Padding(0, 1)
	t.Focused.TextInput.Cursor = lipgloss.NewStyle().Foreground(colorAccent)
	t.Focused.TextInput.Placeholder = lipgloss.NewStyle().Foreground(colorDim)
	t.Focused.ErrorMessage = lipgloss.NewStyle().Foreground(colorRed)

	t.Blurred.Title = lipgloss.NewStyle().Foreground(colorDim)
	t.Blurred.TextInput.Text = lipgloss.NewStyle().Foreground(colorDim)
	return t
}
