package update

import (
	tea "github.com/charmbracelet/bubbletea"

	"taskflow/internal/form"
	"taskflow/internal/model"
)

var priorityCycle = []model.Priority{model.PriorityLow, model.PriorityMedium, model.PriorityHigh}

func (m *Model) seedTaskInputs() {
	m.titleInput.SetValue(m.Form.Task.Title)
	m.descArea.SetValue(m.Form.Task.Description)
	m.dueInput.SetValue(m.Form.Task.DueDate)
	m.FormFocus = taskFieldTitle
	m.applyTaskFocus()
}

func (m *Model) seedCategoryInputs() {
	m.nameInput.SetValue(m.Form.Category.Name)
	m.colorInput.SetValue(m.Form.Category.Color)
	m.FormFocus = 0
	m.nameInput.Focus()
	m.colorInput.Blur()
}

func (m *Model) applyTaskFocus() {
	m.titleInput.Blur()
	m.descArea.Blur()
	m.dueInput.Blur()
	switch m.FormFocus {
	case taskFieldTitle:
		m.titleInput.Focus()
	case taskFieldDescription:
		m.descArea.Focus()
	case taskFieldDueDate:
		m.dueInput.Focus()
	}
}

func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.Form.Kind() == form.KindCategory {
		return m.handleCategoryFormKey(msg)
	}
	return m.handleTaskFormKey(msg)
}

func (m Model) handleTaskFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case m.Keys.Cancel:
		m.Form.Cancel()
		return m, nil

	case "tab":
		m.FormFocus = (m.FormFocus + 1) % taskFieldCount
		m.applyTaskFocus()
		return m, nil

	case "shift+tab":
		m.FormFocus = (m.FormFocus + taskFieldCount - 1) % taskFieldCount
		m.applyTaskFocus()
		return m, nil

	case "left", "right":
		switch m.FormFocus {
		case taskFieldPriority:
			m.Form.Task.Priority = cyclePriority(m.Form.Task.Priority, msg.String() == "right")
			return m, nil
		case taskFieldCategory:
			m.Form.Task.CategoryID = m.cycleCategory(m.Form.Task.CategoryID, msg.String() == "right")
			return m, nil
		}

	case " ":
		if m.FormFocus == taskFieldCompleted && m.Form.IsEdit() {
			m.Form.Task.IsCompleted = !m.Form.Task.IsCompleted
			return m, nil
		}

	case "ctrl+s":
		return m.submitTaskForm()

	case "enter":
		// Enter inserts a newline inside the description; everywhere
		// else it submits.
		if m.FormFocus != taskFieldDescription {
			return m.submitTaskForm()
		}
	}

	var cmd tea.Cmd
	switch m.FormFocus {
	case taskFieldTitle:
		m.titleInput, cmd = m.titleInput.Update(msg)
	case taskFieldDescription:
		m.descArea, cmd = m.descArea.Update(msg)
	case taskFieldDueDate:
		m.dueInput, cmd = m.dueInput.Update(msg)
	}
	return m, cmd
}

func (m Model) submitTaskForm() (tea.Model, tea.Cmd) {
	m.Form.Task.Title = m.titleInput.Value()
	m.Form.Task.Description = m.descArea.Value()
	m.Form.Task.DueDate = m.dueInput.Value()

	cmd, err := m.Form.SubmitTask()
	if err != nil {
		m.pushToast(err.Error(), ToastError)
		return m, expireToastCmd()
	}
	return m, tea.Batch(submitTaskCmd(m.Store, cmd), m.busySpinner.Tick)
}

func (m Model) handleCategoryFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case m.Keys.Cancel:
		m.Form.Cancel()
		return m, nil

	case "tab", "shift+tab":
		m.FormFocus = 1 - m.FormFocus
		if m.FormFocus == 0 {
			m.nameInput.Focus()
			m.colorInput.Blur()
		} else {
			m.colorInput.Focus()
			m.nameInput.Blur()
		}
		return m, nil

	case "enter", "ctrl+s":
		m.Form.Category.Name = m.nameInput.Value()
		if v := m.colorInput.Value(); v != "" {
			m.Form.Category.Color = v
		}
		draft, err := m.Form.SubmitCategory()
		if err != nil {
			m.pushToast(err.Error(), ToastError)
			return m, expireToastCmd()
		}
		return m, submitCategoryCmd(m.Store, draft)
	}

	var cmd tea.Cmd
	if m.FormFocus == 0 {
		m.nameInput, cmd = m.nameInput.Update(msg)
	} else {
		m.colorInput, cmd = m.colorInput.Update(msg)
	}
	return m, cmd
}

func cyclePriority(current model.Priority, forward bool) model.Priority {
	for i, p := range priorityCycle {
		if p == current {
			if forward {
				return priorityCycle[(i+1)%len(priorityCycle)]
			}
			return priorityCycle[(i+len(priorityCycle)-1)%len(priorityCycle)]
		}
	}
	return model.PriorityMedium
}

// cycleCategory walks the category list, with the empty id ("no
// category") as an extra stop.
func (m Model) cycleCategory(current string, forward bool) string {
	ids := []string{""}
	for _, c := range m.Store.Categories() {
		ids = append(ids, c.ID)
	}
	idx := 0
	for i, id := range ids {
		if id == current {
			idx = i
			break
		}
	}
	if forward {
		return ids[(idx+1)%len(ids)]
	}
	return ids[(idx+len(ids)-1)%len(ids)]
}
