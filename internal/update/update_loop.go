package update

import (
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"taskflow/internal/auth"
	"taskflow/internal/store"
)

func (m Model) Init() tea.Cmd {
	if m.RemoteMode() {
		return tea.Batch(restoreCmd(m.Provider), m.busySpinner.Tick)
	}
	return tea.Batch(loadCmd(m.Store), m.busySpinner.Tick)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		if typed.String() == "ctrl+c" {
			m.Quitting = true
			return m, tea.Quit
		}
		switch m.Route {
		case auth.RouteHome:
			return m.handleHomeKey(typed)
		case auth.RouteLogin:
			return m.handleLoginKey(typed)
		case auth.RouteDashboard:
			if m.Form.Active() {
				return m.handleFormKey(typed)
			}
			return m.handleDashboardKey(typed)
		}
		return m, nil

	case LoadDoneMsg:
		m.Loading = false
		if typed.Err != nil {
			m.pushToast("load failed: "+typed.Err.Error(), ToastError)
			return m, expireToastCmd()
		}
		m.clampFilter()
		m.clampCursor()
		return m, nil

	case MutationDoneMsg:
		if typed.Err != nil {
			m.pushToast(mutationErrorText(typed.Err), ToastError)
			return m, expireToastCmd()
		}
		m.pushToast(typed.Op, ToastSuccess)
		m.clampFilter()
		m.clampCursor()
		return m, expireToastCmd()

	case LoginDoneMsg:
		m.Login.Busy = false
		if typed.Err != nil {
			m.Route = m.Session.Fail()
			m.pushToast(loginErrorText(typed.Err), ToastError)
			return m, expireToastCmd()
		}
		m.Route = m.Session.Succeed(typed.User)
		if m.Remote != nil {
			m.Remote.SetToken(typed.User.Token)
		}
		m.Loading = true
		return m, loadCmd(m.Store)

	case RestoreDoneMsg:
		if typed.Err != nil {
			m.pushToast("session restore failed: "+typed.Err.Error(), ToastError)
			return m, expireToastCmd()
		}
		if !typed.Found {
			return m, nil
		}
		m.Session.Begin()
		m.Route = m.Session.Succeed(typed.User)
		if m.Remote != nil {
			m.Remote.SetToken(typed.User.Token)
		}
		m.Loading = true
		return m, loadCmd(m.Store)

	case ExpireToastMsg:
		m.dropExpiredToasts(time.Now())
		return m, nil

	case spinner.TickMsg:
		if m.Loading || m.Login.Busy {
			var cmd tea.Cmd
			m.busySpinner, cmd = m.busySpinner.Update(typed)
			return m, cmd
		}
		return m, nil
	}

	return m, nil
}

func (m *Model) dropExpiredToasts(now time.Time) {
	kept := m.Toasts[:0]
	for _, t := range m.Toasts {
		if now.Sub(t.At) < toastLifetime {
			kept = append(kept, t)
		}
	}
	m.Toasts = kept
}

func mutationErrorText(err error) string {
	switch {
	case errors.Is(err, store.ErrBusy):
		return "another change to this item is still in flight"
	case store.IsNotFound(err):
		return "item no longer exists"
	default:
		return err.Error()
	}
}

func loginErrorText(err error) string {
	if errors.Is(err, auth.ErrBadCredentials) {
		return "invalid email or password"
	}
	return "login failed: " + err.Error()
}
