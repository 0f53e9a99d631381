package render

import (
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// HuhTheme derives a form theme for interactive prompts from t.
func HuhTheme(t *Theme) *huh.Theme {
	h := huh.ThemeBase()

	accent := t.SelectedStyle.GetForeground()
	subtle := t.SubtleStyle.GetForeground()
	text := t.GenericTextStyle.GetForeground()
	errColor := t.ErrorStyle.GetForeground()

	h.Focused.Base = h.Focused.Base.BorderForeground(accent)
	h.Focused.Card = h.Focused.Base
	h.Focused.Title = h.Focused.Title.Foreground(accent).Bold(true)
	h.Focused.NoteTitle = h.Focused.NoteTitle.Foreground(accent).Bold(true).MarginBottom(1)
	h.Focused.Description = h.Focused.Description.Foreground(subtle)
	h.Focused.ErrorIndicator = h.Focused.ErrorIndicator.Foreground(errColor)
	h.Focused.ErrorMessage = h.Focused.ErrorMessage.Foreground(errColor)
	h.Focused.SelectSelector = h.Focused.SelectSelector.Foreground(accent)
	h.Focused.NextIndicator = h.Focused.NextIndicator.Foreground(accent)
	h.Focused.PrevIndicator = h.Focused.PrevIndicator.Foreground(accent)
	h.Focused.Option = h.Focused.Option.Foreground(text)
	h.Focused.MultiSelectSelector = h.Focused.MultiSelectSelector.Foreground(accent)
	h.Focused.SelectedOption = h.Focused.SelectedOption.Foreground(accent)
	h.Focused.SelectedPrefix = lipgloss.NewStyle().
		Foreground(accent).
		SetString("✓ ")
	h.Focused.UnselectedPrefix = lipgloss.NewStyle().
		Foreground(subtle).
		SetString("• ")
	h.Focused.UnselectedOption = h.Focused.UnselectedOption.Foreground(text)
	h.Focused.FocusedButton = h.Focused.FocusedButton.
		Foreground(t.LogoStyle.GetForeground()).
		Background(t.LogoStyle.GetBackground())
	h.Focused.Next = h.Focused.FocusedButton
	h.Focused.BlurredButton = h.Focused.BlurredButton.
		Foreground(t.LogoStyle.GetForeground()).
		Background(subtle)

	h.Focused.TextInput.Cursor = h.Focused.TextInput.Cursor.Foreground(accent)
	h.Focused.TextInput.Placeholder = h.Focused.TextInput.Placeholder.Foreground(subtle)
	h.Focused.TextInput.Prompt = h.Focused.TextInput.Prompt.Foreground(accent)

	h.Blurred = h.Focused
	h.Blurred.Base = h.Focused.Base.BorderStyle(lipgloss.HiddenBorder())
	h.Blurred.Card = h.Blurred.Base
	h.Blurred.NextIndicator = lipgloss.NewStyle()
	h.Blurred.PrevIndicator = lipgloss.NewStyle()

	h.Group.Title = h.Focused.Title
	h.Group.Description = h.Focused.Description

	return h
}
