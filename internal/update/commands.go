package update

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"taskflow/internal/auth"
	"taskflow/internal/config"
	"taskflow/internal/form"
	"taskflow/internal/store"
)

const toastLifetime = 4 * time.Second

func loadCmd(st *store.EntityStore) tea.Cmd {
	return func() tea.Msg {
		return LoadDoneMsg{Err: st.Load(context.Background())}
	}
}

func submitTaskCmd(st *store.EntityStore, cmd form.TaskCommand) tea.Cmd {
	return func() tea.Msg {
		var err error
		op := "task created"
		if cmd.IsEdit {
			op = "task updated"
			_, err = st.UpdateTask(context.Background(), cmd.Update)
		} else {
			_, err = st.CreateTask(context.Background(), cmd.Create)
		}
		return MutationDoneMsg{Op: op, Err: err}
	}
}

func submitCategoryCmd(st *store.EntityStore, draft store.CategoryDraft) tea.Cmd {
	return func() tea.Msg {
		_, err := st.CreateCategory(context.Background(), draft)
		return MutationDoneMsg{Op: "category created", Err: err}
	}
}

func toggleTaskCmd(st *store.EntityStore, id string) tea.Cmd {
	return func() tea.Msg {
		_, err := st.ToggleTaskCompletion(context.Background(), id)
		return MutationDoneMsg{Op: "task toggled", Err: err}
	}
}

func deleteTaskCmd(st *store.EntityStore, id string) tea.Cmd {
	return func() tea.Msg {
		return MutationDoneMsg{Op: "task deleted", Err: st.DeleteTask(context.Background(), id)}
	}
}

func deleteCategoryCmd(st *store.EntityStore, id string) tea.Cmd {
	return func() tea.Msg {
		return MutationDoneMsg{Op: "category deleted", Err: st.DeleteCategory(context.Background(), id)}
	}
}

func loginCmd(provider *auth.RemoteProvider, email, password string, signup bool) tea.Cmd {
	return func() tea.Msg {
		var user auth.User
		var err error
		if signup {
			user, err = provider.Signup(context.Background(), email, password)
		} else {
			user, err = provider.Login(context.Background(), email, password)
		}
		return LoginDoneMsg{User: user, Err: err}
	}
}

func restoreCmd(provider *auth.RemoteProvider) tea.Cmd {
	return func() tea.Msg {
		user, found, err := provider.Restore(context.Background())
		return RestoreDoneMsg{User: user, Found: found, Err: err}
	}
}

func logoutCmd(provider *auth.RemoteProvider) tea.Cmd {
	return func() tea.Msg {
		return MutationDoneMsg{Op: "logged out", Err: provider.Logout(context.Background())}
	}
}

// saveThemeCmd writes the theme choice back to the config file so it
// survives restarts. Only failures surface as a toast.
func saveThemeCmd(path string, dark bool) tea.Cmd {
	if path == "" {
		return nil
	}
	return func() tea.Msg {
		if err := config.SaveDarkMode(path, dark); err != nil {
			return MutationDoneMsg{Op: "theme saved", Err: err}
		}
		return nil
	}
}

func expireToastCmd() tea.Cmd {
	return tea.Tick(toastLifetime, func(time.Time) tea.Msg { return ExpireToastMsg{} })
}
