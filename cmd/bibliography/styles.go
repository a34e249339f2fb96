package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"bibliography/internal/module"
)

var (
	successColor = lipgloss.Color("#8BC34A")
	noticeColor  = lipgloss.Color("#2196F3")
	warningColor = lipgloss.Color("#FFC107")
	errorColor   = lipgloss.Color("#e53935")
	mutedColor   = lipgloss.Color("#6b7280")

	titleStyle   = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(mutedColor)
	successStyle = lipgloss.NewStyle().Foreground(successColor)
	noticeStyle  = lipgloss.NewStyle().Foreground(noticeColor)
	warningStyle = lipgloss.NewStyle().Foreground(warningColor)
	errorStyle   = lipgloss.NewStyle().Foreground(errorColor).Bold(true)
)

func levelStyle(level module.Level) (lipgloss.Style, string) {
	switch level {
	case module.LevelSuccess:
		return successStyle, "✓"
	case module.LevelWarning:
		return warningStyle, "!"
	case module.LevelError:
		return errorStyle, "✗"
	default:
		return noticeStyle, "•"
	}
}

// printMessages writes messenger output, one styled line per message.
func printMessages(w io.Writer, msgs []module.Message) {
	for _, m := range msgs {
		style, mark := levelStyle(m.Level)
		fmt.Fprintln(w, style.Render(mark+" "+m.Text))
	}
}
