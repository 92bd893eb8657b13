package cli

import (
	"fmt"
	"strings"

	"estuda/internal/cli/formatter"
	"estuda/internal/ledger"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// estudaHuhTheme returns a custom huh theme using the existing Gruvbox palette.
func estudaHuhTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = lipgloss.NewStyle().Foreground(formatter.ColorHeader).Bold(true)
	t.Focused.FocusedButton = lipgloss.NewStyle().Foreground(formatter.ColorFg).Background(formatter.ColorHeader).Padding(0, 1)
	t.Focused.BlurredButton = lipgloss.NewStyle().Foreground(formatter.ColorDim).Padding(0, 1)
	t.Focused.TextInput.Cursor = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.TextInput.Placeholder = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Focused.Description = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	t.Blurred.Title = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	return t
}

// taskAddForm collects the task text and hour estimate.
func taskAddForm(text, hours *string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("O que você vai estudar?").
				Placeholder("Revisar frações equivalentes").
				Value(text).
				Validate(validateNonEmpty),
			huh.NewInput().
				Title("Horas estimadas").
				Placeholder("1,5").
				Value(hours).
				Validate(validateHours),
		),
	).WithTheme(estudaHuhTheme()).WithShowHelp(false)
}

func validateNonEmpty(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("cannot be empty")
	}
	return nil
}

func validateHours(s string) error {
	if s == "" {
		return nil
	}
	if _, err := ledger.ParseHours(s); err != nil {
		return fmt.Errorf("enter a positive number of hours")
	}
	return nil
}
