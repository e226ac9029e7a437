package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type SidebarItemData struct {
	Label  string
	Color  string
	Count  int
	Active bool
}

type TaskRowData struct {
	Title         string
	Priority      string
	CategoryName  string
	CategoryColor string
	DueLabel      string
	Overdue       bool
	Completed     bool
	Selected      bool
	Pending       bool
}

type StatsData struct {
	Total     int
	Completed int
	Pending   int
	Percent   int
	BarView   string
}

type DashboardData struct {
	Sidebar     []SidebarItemData
	SortLabel   string
	Rows        []TaskRowData
	Stats       StatsData
	Detail      string
	FormView    string
	SpinnerView string
	Loading     bool
}

func RenderDashboard(theme Theme, data DashboardData) string {
	panel := theme.panelStyle()

	left := panel.Width(26).Render(renderSidebar(theme, data.Sidebar))
	middle := panel.Width(56).Render(renderTaskList(theme, data))
	right := panel.Width(36).Render(renderStats(theme, data.Stats) + renderDetail(theme, data.Detail))

	body := lipgloss.JoinHorizontal(lipgloss.Top, left, middle, right)
	if data.FormView != "" {
		body = lipgloss.JoinVertical(lipgloss.Left, body, panel.Width(120).Render(data.FormView))
	}
	return body
}

func renderSidebar(theme Theme, items []SidebarItemData) string {
	lines := []string{theme.headerStyle().Render("Filters")}
	for _, item := range items {
		marker := "  "
		if item.Active {
			marker = "> "
		}
		dot := ""
		if item.Color != "" {
			dot = lipgloss.NewStyle().Foreground(lipgloss.Color(item.Color)).Render("● ")
		}
		lines = append(lines, fmt.Sprintf("%s%s%s (%d)", marker, dot, item.Label, item.Count))
	}
	return strings.Join(lines, "\n")
}

func renderTaskList(theme Theme, data DashboardData) string {
	header := theme.headerStyle().Render("Tasks") + theme.mutedStyle().Render("  sort: "+data.SortLabel)
	lines := []string{header}

	if data.Loading {
		lines = append(lines, data.SpinnerView+" loading…")
		return strings.Join(lines, "\n")
	}
	if len(data.Rows) == 0 {
		lines = append(lines, theme.mutedStyle().Render("no tasks match this filter"))
		return strings.Join(lines, "\n")
	}

	for _, row := range data.Rows {
		lines = append(lines, renderTaskRow(theme, row, data.SpinnerView))
	}
	return strings.Join(lines, "\n")
}

func renderTaskRow(theme Theme, row TaskRowData, spinnerView string) string {
	marker := "  "
	if row.Selected {
		marker = "> "
	}

	check := "[ ]"
	if row.Completed {
		check = "[x]"
	}
	if row.Pending {
		check = spinnerView
	}

	title := row.Title
	if row.Completed {
		title = theme.mutedStyle().Strikethrough(true).Render(title)
	}

	badges := []string{priorityBadge(theme, row.Priority)}
	if row.CategoryName != "" {
		badge := row.CategoryName
		if row.CategoryColor != "" {
			badge = lipgloss.NewStyle().Foreground(lipgloss.Color(row.CategoryColor)).Render(badge)
		}
		badges = append(badges, badge)
	}
	if row.DueLabel != "" {
		due := row.DueLabel
		if row.Overdue {
			due = theme.errorStyle().Render(due + " (overdue)")
		}
		badges = append(badges, due)
	}

	return fmt.Sprintf("%s%s %s  %s", marker, check, title, theme.mutedStyle().Render(strings.Join(badges, " · ")))
}

func priorityBadge(theme Theme, priority string) string {
	switch priority {
	case "high":
		return theme.errorStyle().Render("high")
	case "low":
		return theme.mutedStyle().Render("low")
	default:
		return priority
	}
}

func renderStats(theme Theme, stats StatsData) string {
	lines := []string{
		theme.headerStyle().Render("Progress"),
		fmt.Sprintf("total %d · done %d · open %d", stats.Total, stats.Completed, stats.Pending),
		stats.BarView,
		fmt.Sprintf("%d%% complete", stats.Percent),
	}
	return strings.Join(lines, "\n")
}

func renderDetail(theme Theme, detail string) string {
	if detail == "" {
		return ""
	}
	return "\n\n" + theme.headerStyle().Render("Detail") + "\n" + detail
}

type FieldData struct {
	Label   string
	View    string
	Focused bool
}

type FormData struct {
	Title  string
	Fields []FieldData
	Hint   string
}

func RenderForm(theme Theme, data FormData) string {
	lines := []string{theme.headerStyle().Render(data.Title)}
	for _, field := range data.Fields {
		marker := "  "
		if field.Focused {
			marker = "> "
		}
		lines = append(lines, fmt.Sprintf("%s%s: %s", marker, field.Label, field.View))
	}
	if data.Hint != "" {
		lines = append(lines, theme.mutedStyle().Render(data.Hint))
	}
	return strings.Join(lines, "\n")
}

type LoginData struct {
	Signup       bool
	EmailView    string
	PasswordView string
	Busy         bool
	SpinnerView  string
}

func RenderLogin(theme Theme, data LoginData) string {
	title := "Sign in"
	if data.Signup {
		title = "Create account"
	}
	lines := []string{
		theme.headerStyle().Render(title),
		"email:    " + data.EmailView,
		"password: " + data.PasswordView,
	}
	if data.Busy {
		lines = append(lines, data.SpinnerView+" signing in…")
	}
	lines = append(lines, theme.mutedStyle().Render("enter submit · tab switch field · ctrl+s toggle signup · esc back"))
	return theme.panelStyle().Width(60).Render(strings.Join(lines, "\n"))
}

type HomeData struct {
	RemoteMode bool
}

func RenderHome(theme Theme, data HomeData) string {
	lines := []string{
		theme.headerStyle().Render("taskflow"),
		"Organize tasks by category, priority and due date.",
	}
	if data.RemoteMode {
		lines = append(lines, theme.mutedStyle().Render("enter sign in · q quit"))
	} else {
		lines = append(lines, theme.mutedStyle().Render("enter open dashboard · q quit"))
	}
	return theme.panelStyle().Width(60).Render(strings.Join(lines, "\n"))
}
