package update

import (
	tea "github.com/charmbracelet/bubbletea"

	"taskflow/internal/derive"
)

var sortCycle = []derive.SortKey{derive.SortDueDate, derive.SortPriority, derive.SortTitle}

func (m Model) handleDashboardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case m.Keys.Quit:
		m.Quitting = true
		return m, tea.Quit

	case m.Keys.Up, "up":
		if m.Cursor > 0 {
			m.Cursor--
		}
		return m, nil

	case m.Keys.Down, "down":
		if m.Cursor < len(m.VisibleTasks())-1 {
			m.Cursor++
		}
		return m, nil

	case m.Keys.NextFilter:
		m.FilterIndex++
		m.clampFilter()
		m.Cursor = 0
		return m, nil

	case m.Keys.PrevFilter:
		m.FilterIndex--
		m.clampFilter()
		m.Cursor = 0
		return m, nil

	case m.Keys.CycleSort:
		m.Query.Sort = nextSortKey(m.Query.Sort)
		return m, nil

	case m.Keys.FlipSort:
		if m.Query.Direction == derive.Ascending {
			m.Query.Direction = derive.Descending
		} else {
			m.Query.Direction = derive.Ascending
		}
		return m, nil

	case m.Keys.Toggle:
		task, ok := m.SelectedTask()
		if !ok {
			return m, nil
		}
		if m.Store.MutationPending(task.ID) {
			m.pushToast("change already in flight for this task", ToastError)
			return m, expireToastCmd()
		}
		return m, tea.Batch(toggleTaskCmd(m.Store, task.ID), m.busySpinner.Tick)

	case m.Keys.Delete:
		task, ok := m.SelectedTask()
		if !ok {
			return m, nil
		}
		if m.Store.MutationPending(task.ID) {
			m.pushToast("change already in flight for this task", ToastError)
			return m, expireToastCmd()
		}
		return m, deleteTaskCmd(m.Store, task.ID)

	case m.Keys.NewTask:
		m.Form.OpenTaskCreate(m.Store.Categories())
		m.seedTaskInputs()
		return m, nil

	case m.Keys.Edit:
		task, ok := m.SelectedTask()
		if !ok {
			return m, nil
		}
		m.Form.OpenTaskEdit(task)
		m.seedTaskInputs()
		return m, nil

	case m.Keys.NewCategory:
		m.Form.OpenCategoryCreate()
		m.seedCategoryInputs()
		return m, nil

	case m.Keys.DeleteCategory:
		// Delete the category selected in the sidebar. Fixed filters
		// are not deletable.
		opts := m.FilterOptions()
		if m.FilterIndex < 2 || m.FilterIndex >= len(opts) {
			return m, nil
		}
		return m, deleteCategoryCmd(m.Store, string(opts[m.FilterIndex]))

	case m.Keys.Detail:
		m.ShowDetail = !m.ShowDetail
		return m, nil

	case m.Keys.ToggleTheme:
		m.DarkMode = !m.DarkMode
		return m, saveThemeCmd(m.ConfigPath, m.DarkMode)

	case m.Keys.Logout:
		if !m.RemoteMode() {
			return m, nil
		}
		m.Route = m.Session.Logout()
		if m.Remote != nil {
			m.Remote.SetToken("")
		}
		return m, logoutCmd(m.Provider)
	}

	return m, nil
}

func nextSortKey(current derive.SortKey) derive.SortKey {
	for i, key := range sortCycle {
		if key == current {
			return sortCycle[(i+1)%len(sortCycle)]
		}
	}
	return sortCycle[0]
}
