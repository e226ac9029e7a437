// Package config loads the taskflow TOML configuration, creating it with
// defaults on first run. Environment variables override file values.
package config

import (
	"errors"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	DefaultConfigFileName = "config.toml"
	DefaultStateFileName  = "state.json"
	DefaultDBName         = "taskflow.db"
	DefaultTokenFileName  = "token"
	DefaultListenAddr     = ":8080"
)

// Backend modes.
const (
	ModeFile   = "file"
	ModeSQLite = "sqlite"
	ModeRemote = "remote"
)

type Keymap struct {
	Quit           string `toml:"quit"`
	Up             string `toml:"up"`
	Down           string `toml:"down"`
	NewTask        string `toml:"new_task"`
	NewCategory    string `toml:"new_category"`
	Edit           string `toml:"edit"`
	Delete         string `toml:"delete"`
	DeleteCategory string `toml:"delete_category"`
	Toggle         string `toml:"toggle"`
	Detail         string `toml:"detail"`
	Confirm        string `toml:"confirm"`
	Cancel         string `toml:"cancel"`
	NextFilter     string `toml:"next_filter"`
	PrevFilter     string `toml:"prev_filter"`
	CycleSort      string `toml:"cycle_sort"`
	FlipSort       string `toml:"flip_sort"`
	ToggleTheme    string `toml:"toggle_theme"`
	Logout         string `toml:"logout"`
}

type Server struct {
	URL         string `toml:"url"`
	ListenAddr  string `toml:"listen_addr"`
	PostgresDSN string `toml:"postgres_dsn"`
	JWTSecret   string `toml:"jwt_secret"`
}

type Config struct {
	Mode      string `toml:"mode"`
	StatePath string `toml:"state_path"`
	DBPath    string `toml:"db_path"`
	TokenPath string `toml:"token_path"`
	DarkMode  bool   `toml:"dark_mode"`
	Server    Server `toml:"server"`
	Keys      Keymap `toml:"keys"`
}

// LoadOrCreate reads the config at path, writing the defaults there first
// if no file exists yet. TASKFLOW_* environment variables win over both.
func LoadOrCreate(path string) (Config, error) {
	cfg := defaultConfig(filepath.Dir(path))
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := Save(path, cfg); err != nil {
			return cfg, err
		}
		return applyEnv(cfg), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeFile
	}
	return applyEnv(cfg), nil
}

// Save writes the config back to disk, so in-app preference changes
// (the theme toggle) survive restarts.
func Save(path string, cfg Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// SaveDarkMode rewrites only the theme flag in the config file, leaving
// the other file values (and any env overrides) untouched.
func SaveDarkMode(path string, dark bool) error {
	cfg := defaultConfig(filepath.Dir(path))
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return err
	default:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return err
		}
	}
	cfg.DarkMode = dark
	return Save(path, cfg)
}

func applyEnv(cfg Config) Config {
	if v := os.Getenv("TASKFLOW_MODE"); v != "" {
		cfg.Mode = v
	}
	if v := os.Getenv("TASKFLOW_STATE_PATH"); v != "" {
		cfg.StatePath = v
	}
	if v := os.Getenv("TASKFLOW_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("TASKFLOW_SERVER_URL"); v != "" {
		cfg.Server.URL = v
	}
	if v := os.Getenv("TASKFLOW_LISTEN_ADDR"); v != "" {
		cfg.Server.ListenAddr = v
	}
	if v := os.Getenv("TASKFLOW_POSTGRES_DSN"); v != "" {
		cfg.Server.PostgresDSN = v
	}
	if v := os.Getenv("TASKFLOW_JWT_SECRET"); v != "" {
		cfg.Server.JWTSecret = v
	}
	return cfg
}

// DefaultPath places the config under the user config dir, falling back
// to the working directory when that cannot be resolved.
func DefaultPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return DefaultConfigFileName
	}
	return filepath.Join(base, "taskflow", DefaultConfigFileName)
}

func defaultConfig(dir string) Config {
	return Config{
		Mode:      ModeFile,
		StatePath: filepath.Join(dir, DefaultStateFileName),
		DBPath:    filepath.Join(dir, DefaultDBName),
		TokenPath: filepath.Join(dir, DefaultTokenFileName),
		DarkMode:  true,
		Server: Server{
			URL:        "http://localhost:8080",
			ListenAddr: DefaultListenAddr,
		},
		Keys: Keymap{
			Quit:           "q",
			Up:             "k",
			Down:           "j",
			NewTask:        "a",
			NewCategory:    "c",
			Edit:           "e",
			Delete:         "d",
			DeleteCategory: "D",
			Toggle:         " ",
			Detail:         "enter",
			Confirm:        "enter",
			Cancel:         "esc",
			NextFilter:     "tab",
			PrevFilter:     "shift+tab",
			CycleSort:      "s",
			FlipSort:       "S",
			ToggleTheme:    "t",
			Logout:         "L",
		},
	}
}
