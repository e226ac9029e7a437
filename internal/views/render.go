// Package views turns plain data snapshots of the app state into styled
// terminal output. Nothing here mutates state.
package views

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

type Theme struct {
	Dark bool
}

type palette struct {
	header   lipgloss.Color
	accent   lipgloss.Color
	muted    lipgloss.Color
	success  lipgloss.Color
	errColor lipgloss.Color
}

func (t Theme) colors() palette {
	if t.Dark {
		return palette{
			header:   lipgloss.Color("12"),
			accent:   lipgloss.Color("13"),
			muted:    lipgloss.Color("8"),
			success:  lipgloss.Color("10"),
			errColor: lipgloss.Color("9"),
		}
	}
	return palette{
		header:   lipgloss.Color("4"),
		accent:   lipgloss.Color("5"),
		muted:    lipgloss.Color("7"),
		success:  lipgloss.Color("2"),
		errColor: lipgloss.Color("1"),
	}
}

func (t Theme) headerStyle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(t.colors().header)
}

func (t Theme) panelStyle() lipgloss.Style {
	return lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
}

func (t Theme) mutedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.colors().muted)
}

func (t Theme) successStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.colors().success)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.colors().errColor)
}

type ToastData struct {
	Message string
	IsError bool
}

type AppData struct {
	Header string
	Body   string
	Toasts []ToastData
	Footer string
}

func RenderApp(theme Theme, data AppData) string {
	lines := []string{
		theme.headerStyle().Render(data.Header),
		data.Body,
	}
	for _, toast := range data.Toasts {
		if toast.IsError {
			lines = append(lines, theme.errorStyle().Render("✗ "+toast.Message))
		} else {
			lines = append(lines, theme.successStyle().Render("✓ "+toast.Message))
		}
	}
	if data.Footer != "" {
		lines = append(lines, theme.mutedStyle().Render(data.Footer))
	}
	return strings.Join(lines, "\n")
}

// RenderMarkdown renders a task description with glamour, falling back
// to the raw text on error.
func RenderMarkdown(md string, theme Theme) string {
	if strings.TrimSpace(md) == "" {
		return ""
	}
	style := "dark"
	if !theme.Dark {
		style = "light"
	}
	out, err := glamour.Render(md, style)
	if err != nil {
		return md
	}
	return strings.TrimSpace(out)
}
