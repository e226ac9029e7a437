package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"taskflow/internal/auth"
	"taskflow/internal/backend"
	"taskflow/internal/config"
	"taskflow/internal/server"
	"taskflow/internal/store"
	"taskflow/internal/update"
)

var configPath string

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "taskflow",
		Short: "taskflow - terminal task manager",
		Long: `taskflow is a terminal task manager with categories, priorities,
due dates and completion tracking. State lives in a local file, a SQLite
database, or a remote taskflow server, depending on configuration.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI()
		},
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: user config dir)")
	rootCmd.AddCommand(newServeCommand())
	return rootCmd
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the taskflow API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Server.PostgresDSN == "" {
				return fmt.Errorf("serve: postgres_dsn is not configured")
			}
			if cfg.Server.JWTSecret == "" {
				return fmt.Errorf("serve: jwt_secret is not configured")
			}
			st, err := server.OpenStore(cfg.Server.PostgresDSN)
			if err != nil {
				return err
			}
			defer st.Close()
			srv := server.New(st, []byte(cfg.Server.JWTSecret), nil)
			return srv.ListenAndServe(cfg.Server.ListenAddr)
		},
	}
}

func loadConfig() (config.Config, string, error) {
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.LoadOrCreate(path)
	return cfg, path, err
}

func runTUI() error {
	cfg, cfgPath, err := loadConfig()
	if err != nil {
		return err
	}

	var (
		b        backend.Backend
		provider *auth.RemoteProvider
		remote   *backend.RemoteBackend
	)
	switch cfg.Mode {
	case config.ModeSQLite:
		sq, err := backend.OpenSQLite(cfg.DBPath)
		if err != nil {
			return err
		}
		defer sq.Close()
		b = sq
	case config.ModeRemote:
		remote = backend.NewRemoteBackend(cfg.Server.URL, "")
		provider = auth.NewRemoteProvider(cfg.Server.URL, cfg.TokenPath)
		b = remote
	case config.ModeFile, "":
		fb, err := backend.OpenFile(cfg.StatePath)
		if err != nil {
			return err
		}
		b = fb
	default:
		return fmt.Errorf("unknown backend mode %q", cfg.Mode)
	}

	m := update.NewModel(store.New(b), auth.NewSession(), provider, cfg)
	m.Remote = remote
	m.ConfigPath = cfgPath

	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("taskflow failed: %w", err)
	}
	return nil
}
