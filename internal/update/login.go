package update

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"taskflow/internal/auth"
)

func (m Model) handleHomeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case m.Keys.Quit:
		m.Quitting = true
		return m, tea.Quit
	case m.Keys.ToggleTheme:
		m.DarkMode = !m.DarkMode
		return m, saveThemeCmd(m.ConfigPath, m.DarkMode)
	case m.Keys.Confirm:
		m.Route = m.Session.Require(auth.RouteDashboard)
		if m.Route == auth.RouteLogin {
			m.Login.Focus = 0
			m.Login.Email.Focus()
			m.Login.Password.Blur()
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.Login.Busy {
		return m, nil
	}

	switch msg.String() {
	case m.Keys.Cancel:
		m.Route = auth.RouteHome
		return m, nil
	case "tab", "shift+tab", "up", "down":
		m.Login.Focus = 1 - m.Login.Focus
		if m.Login.Focus == 0 {
			m.Login.Email.Focus()
			m.Login.Password.Blur()
		} else {
			m.Login.Password.Focus()
			m.Login.Email.Blur()
		}
		return m, nil
	case "ctrl+s":
		m.Login.Signup = !m.Login.Signup
		return m, nil
	case "enter":
		email := strings.TrimSpace(m.Login.Email.Value())
		password := m.Login.Password.Value()
		if email == "" || password == "" {
			m.pushToast("email and password required", ToastError)
			return m, expireToastCmd()
		}
		if _, err := m.Session.Begin(); err != nil {
			return m, nil
		}
		m.Login.Busy = true
		return m, tea.Batch(
			loginCmd(m.Provider, email, password, m.Login.Signup),
			m.busySpinner.Tick,
		)
	}

	var cmd tea.Cmd
	if m.Login.Focus == 0 {
		m.Login.Email, cmd = m.Login.Email.Update(msg)
	} else {
		m.Login.Password, cmd = m.Login.Password.Update(msg)
	}
	return m, cmd
}
