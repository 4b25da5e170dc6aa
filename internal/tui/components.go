package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

func renderHeader(title string, width int) string {
	return HeaderStyle.Render(truncateEnd(title, width-2))
}

// renderInputFrame boxes the search input and highlights it while focused.
func renderInputFrame(view string, focused bool, width int) string {
	border := MutedColor
	if focused {
		border = AccentColor
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1).
		Width(width + 4).
		Render(view)
}

func renderCentered(width, height int, content string) string {
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}

func renderMuted(text string) string {
	return lipgloss.NewStyle().Foreground(MutedColor).Render(text)
}

// actionErr names the action that failed in front of err.
func actionErr(action string, err error) error {
	return fmt.Errorf("%s: %w", action, err)
}
