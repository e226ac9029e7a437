package update

import (
	"fmt"
	"time"

	"taskflow/internal/auth"
	"taskflow/internal/derive"
	"taskflow/internal/form"
	"taskflow/internal/views"
)

func (m Model) View() string {
	if m.Quitting {
		return "bye\n"
	}

	theme := views.Theme{Dark: m.DarkMode}

	var body string
	switch m.Route {
	case auth.RouteHome:
		body = views.RenderHome(theme, views.HomeData{RemoteMode: m.RemoteMode()})
	case auth.RouteLogin:
		body = views.RenderLogin(theme, views.LoginData{
			Signup:       m.Login.Signup,
			EmailView:    m.Login.Email.View(),
			PasswordView: m.Login.Password.View(),
			Busy:         m.Login.Busy,
			SpinnerView:  m.busySpinner.View(),
		})
	case auth.RouteDashboard:
		body = views.RenderDashboard(theme, m.dashboardData())
	}

	toasts := make([]views.ToastData, 0, len(m.Toasts))
	for _, t := range m.Toasts {
		toasts = append(toasts, views.ToastData{Message: t.Message, IsError: t.Kind == ToastError})
	}

	return views.RenderApp(theme, views.AppData{
		Header: m.headerLine(),
		Body:   body,
		Toasts: toasts,
		Footer: m.footerLine(),
	})
}

func (m Model) headerLine() string {
	header := "taskflow"
	if m.Session.State() == auth.Authenticated {
		header += " | " + m.Session.User().Email
	}
	if m.Route == auth.RouteDashboard {
		header += fmt.Sprintf(" | filter: %s | sort: %s %s", m.Query.Filter, m.Query.Sort, m.Query.Direction)
	}
	return header
}

func (m Model) footerLine() string {
	if m.Route != auth.RouteDashboard {
		return ""
	}
	if m.Form.Active() {
		return "tab next field | enter submit | esc cancel"
	}
	base := fmt.Sprintf("%s/%s move | %s toggle | %s new | %s edit | %s del | %s del cat | %s/%s filter | %s sort | %s detail | %s theme | %s quit",
		m.Keys.Up, m.Keys.Down, m.Keys.Toggle, m.Keys.NewTask, m.Keys.Edit, m.Keys.Delete, m.Keys.DeleteCategory,
		m.Keys.NextFilter, m.Keys.PrevFilter, m.Keys.CycleSort, m.Keys.Detail, m.Keys.ToggleTheme, m.Keys.Quit)
	if m.RemoteMode() {
		base += " | " + m.Keys.Logout + " logout"
	}
	return base
}

func (m Model) dashboardData() views.DashboardData {
	theme := views.Theme{Dark: m.DarkMode}
	tasks := m.Store.Tasks()
	visible := m.VisibleTasks()
	now := time.Now()

	stats := derive.ComputeStats(tasks)

	data := views.DashboardData{
		Sidebar:   m.sidebarItems(),
		SortLabel: fmt.Sprintf("%s %s", m.Query.Sort, m.Query.Direction),
		Stats: views.StatsData{
			Total:     stats.Total,
			Completed: stats.Completed,
			Pending:   stats.Pending,
			Percent:   stats.CompletionPercent,
			BarView:   m.statsBar.ViewAs(float64(stats.CompletionPercent) / 100),
		},
		SpinnerView: m.busySpinner.View(),
		Loading:     m.Loading,
	}

	for i, task := range visible {
		row := views.TaskRowData{
			Title:     task.Title,
			Priority:  string(task.Priority),
			Completed: task.IsCompleted,
			Selected:  i == m.Cursor,
			Overdue:   derive.IsOverdue(task, now),
			Pending:   m.Store.MutationPending(task.ID),
		}
		// A dangling category reference just means no badge.
		if cat, ok := m.Store.CategoryByID(task.CategoryID); ok {
			row.CategoryName = cat.Name
			row.CategoryColor = cat.Color
		}
		if task.DueDate != nil {
			row.DueLabel = derive.DueLabel(*task.DueDate, now)
		}
		data.Rows = append(data.Rows, row)
	}

	if m.ShowDetail {
		if task, ok := m.SelectedTask(); ok {
			data.Detail = views.RenderMarkdown(task.Description, theme)
			if data.Detail == "" {
				data.Detail = "no description"
			}
		}
	}

	if m.Form.Active() {
		data.FormView = m.formView(theme)
	}
	return data
}

func (m Model) sidebarItems() []views.SidebarItemData {
	tasks := m.Store.Tasks()
	completed := 0
	byCategory := make(map[string]int)
	for _, t := range tasks {
		if t.IsCompleted {
			completed++
		}
		byCategory[t.CategoryID]++
	}

	items := []views.SidebarItemData{
		{Label: "All", Count: len(tasks), Active: m.Query.Filter == derive.FilterAll},
		{Label: "Completed", Count: completed, Active: m.Query.Filter == derive.FilterCompleted},
	}
	for _, c := range m.Store.Categories() {
		items = append(items, views.SidebarItemData{
			Label:  c.Name,
			Color:  c.Color,
			Count:  byCategory[c.ID],
			Active: m.Query.Filter == derive.FilterKey(c.ID),
		})
	}
	return items
}

func (m Model) formView(theme views.Theme) string {
	if m.Form.Kind() == form.KindCategory {
		return views.RenderForm(theme, views.FormData{
			Title: "New category",
			Fields: []views.FieldData{
				{Label: "name", View: m.nameInput.View(), Focused: m.FormFocus == 0},
				{Label: "color", View: m.colorInput.View(), Focused: m.FormFocus == 1},
			},
			Hint: "enter save · esc cancel",
		})
	}

	title := "New task"
	if m.Form.IsEdit() {
		title = "Edit task"
	}
	category := "none"
	if cat, ok := m.Store.CategoryByID(m.Form.Task.CategoryID); ok {
		category = cat.Name
	}
	fields := []views.FieldData{
		{Label: "title", View: m.titleInput.View(), Focused: m.FormFocus == taskFieldTitle},
		{Label: "description", View: m.descArea.View(), Focused: m.FormFocus == taskFieldDescription},
		{Label: "due date", View: m.dueInput.View(), Focused: m.FormFocus == taskFieldDueDate},
		{Label: "priority", View: string(m.Form.Task.Priority), Focused: m.FormFocus == taskFieldPriority},
		{Label: "category", View: category, Focused: m.FormFocus == taskFieldCategory},
	}
	if m.Form.IsEdit() {
		done := "no"
		if m.Form.Task.IsCompleted {
			done = "yes"
		}
		fields = append(fields, views.FieldData{Label: "completed", View: done, Focused: m.FormFocus == taskFieldCompleted})
	}
	return views.RenderForm(theme, views.FormData{
		Title:  title,
		Fields: fields,
		Hint:   "tab next · ←/→ change value · enter save · esc cancel",
	})
}
