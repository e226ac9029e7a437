// Package update holds the bubbletea program state and message loop for
// the taskflow TUI.
package update

import (
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"

	"taskflow/internal/auth"
	"taskflow/internal/backend"
	"taskflow/internal/config"
	"taskflow/internal/derive"
	"taskflow/internal/form"
	"taskflow/internal/model"
	"taskflow/internal/store"
)

const maxToasts = 5

type ToastKind string

const (
	ToastSuccess ToastKind = "success"
	ToastError   ToastKind = "error"
)

type Toast struct {
	Message string
	Kind    ToastKind
	At      time.Time
}

// Field order inside the task form.
const (
	taskFieldTitle = iota
	taskFieldDescription
	taskFieldDueDate
	taskFieldPriority
	taskFieldCategory
	taskFieldCompleted
	taskFieldCount
)

type LoginState struct {
	Email    textinput.Model
	Password textinput.Model
	Focus    int // 0 email, 1 password
	Signup   bool
	Busy     bool
}

type Model struct {
	Route   auth.Route
	Session *auth.Session

	Store    *store.EntityStore
	Provider *auth.RemoteProvider   // nil in local modes
	Remote   *backend.RemoteBackend // set in remote mode so login can hand over the token

	Query       derive.Query
	FilterIndex int
	Cursor      int
	ShowDetail  bool

	Form      form.Controller
	FormFocus int

	DarkMode   bool
	ConfigPath string // theme toggles are written back here; empty disables persistence
	Toasts     []Toast
	Keys       config.Keymap
	Loading    bool
	Quitting   bool

	Login LoginState

	// Bubble components for form fields and async feedback
	titleInput  textinput.Model
	descArea    textarea.Model
	dueInput    textinput.Model
	nameInput   textinput.Model
	colorInput  textinput.Model
	busySpinner spinner.Model
	statsBar    progress.Model
}

// Messages resolving asynchronous work.

type LoadDoneMsg struct {
	Err error
}

type MutationDoneMsg struct {
	Op  string
	Err error
}

type LoginDoneMsg struct {
	User auth.User
	Err  error
}

type RestoreDoneMsg struct {
	User  auth.User
	Found bool
	Err   error
}

type ExpireToastMsg struct{}

func NewModel(st *store.EntityStore, session *auth.Session, provider *auth.RemoteProvider, cfg config.Config) Model {
	if session == nil {
		session = auth.NewSession()
	}

	title := textinput.New()
	title.Placeholder = "Task title"
	title.CharLimit = model.MaxTitleLen

	desc := textarea.New()
	desc.Placeholder = "Description (markdown supported)"
	desc.CharLimit = model.MaxDescriptionLen

	due := textinput.New()
	due.Placeholder = form.DueDateLayout

	name := textinput.New()
	name.Placeholder = "Category name"

	color := textinput.New()
	color.Placeholder = "#818cf8"

	email := textinput.New()
	email.Placeholder = "email"

	password := textinput.New()
	password.Placeholder = "password"
	password.EchoMode = textinput.EchoPassword

	m := Model{
		Route:    auth.RouteHome,
		Session:  session,
		Store:    st,
		Provider: provider,
		Query: derive.Query{
			Filter:    derive.FilterAll,
			Sort:      derive.SortDueDate,
			Direction: derive.Ascending,
		},
		DarkMode:    cfg.DarkMode,
		Keys:        cfg.Keys,
		titleInput:  title,
		descArea:    desc,
		dueInput:    due,
		nameInput:   name,
		colorInput:  color,
		busySpinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		statsBar:    progress.New(progress.WithDefaultGradient()),
		Login:       LoginState{Email: email, Password: password},
	}
	// Local modes run unauthenticated and open straight on the dashboard.
	if provider == nil {
		m.Route = auth.RouteDashboard
		m.Loading = true
	}
	return m
}

// RemoteMode reports whether the app authenticates against a server.
func (m Model) RemoteMode() bool {
	return m.Provider != nil
}

// FilterOptions is the ordered set of sidebar entries: the two fixed
// filters followed by one per category.
func (m Model) FilterOptions() []derive.FilterKey {
	out := []derive.FilterKey{derive.FilterAll, derive.FilterCompleted}
	for _, c := range m.Store.Categories() {
		out = append(out, derive.FilterKey(c.ID))
	}
	return out
}

// VisibleTasks is the derived view the dashboard renders.
func (m Model) VisibleTasks() []model.Task {
	return derive.Apply(m.Store.Tasks(), m.Store.Categories(), m.Query)
}

// SelectedTask returns the task under the cursor, if any.
func (m Model) SelectedTask() (model.Task, bool) {
	tasks := m.VisibleTasks()
	if m.Cursor < 0 || m.Cursor >= len(tasks) {
		return model.Task{}, false
	}
	return tasks[m.Cursor], true
}

func (m *Model) pushToast(message string, kind ToastKind) {
	m.Toasts = append(m.Toasts, Toast{Message: message, Kind: kind, At: time.Now()})
	if len(m.Toasts) > maxToasts {
		m.Toasts = m.Toasts[len(m.Toasts)-maxToasts:]
	}
}

func (m *Model) clampCursor() {
	n := len(m.VisibleTasks())
	if n == 0 {
		m.Cursor = 0
		return
	}
	if m.Cursor >= n {
		m.Cursor = n - 1
	}
	if m.Cursor < 0 {
		m.Cursor = 0
	}
}

func (m *Model) clampFilter() {
	opts := m.FilterOptions()
	if m.FilterIndex >= len(opts) {
		m.FilterIndex = 0
	}
	if m.FilterIndex < 0 {
		m.FilterIndex = len(opts) - 1
	}
	m.Query.Filter = opts[m.FilterIndex]
}
