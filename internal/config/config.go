// Package config loads todo-desk settings from a TOML file and the
// environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Backends.
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

// Themes.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

const appDir = "todo-desk"

// Config holds the full configuration.
type Config struct {
	Store  StoreConfig  `toml:"store"`
	UI     UIConfig     `toml:"ui"`
	Server ServerConfig `toml:"server"`
	Log    LogConfig    `toml:"log"`

	// Path the config was loaded from and is saved back to.
	Path string `toml:"-"`
}

type StoreConfig struct {
	Backend     string `toml:"backend"`
	Path        string `toml:"path"`
	DatabaseURL string `toml:"database_url,omitempty"`
}

type UIConfig struct {
	Theme string `toml:"theme"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Store:  StoreConfig{Backend: BackendFile, Path: DefaultDataFile()},
		UI:     UIConfig{Theme: ThemeLight},
		Server: ServerConfig{Addr: ":8080"},
		Log:    LogConfig{Level: "info"},
		Path:   DefaultPath(),
	}
}

// DefaultPath is $XDG_CONFIG_HOME/todo-desk/config.toml, falling back to
// ~/.config.
func DefaultPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appDir, "config.toml")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", appDir, "config.toml")
	}
	return filepath.Join(".", appDir, "config.toml")
}

// DefaultDataFile is $XDG_DATA_HOME/todo-desk/tasks.json, falling back to
// ~/.local/share.
func DefaultDataFile() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, appDir, "tasks.json")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", appDir, "tasks.json")
	}
	return "tasks.json"
}

// Load reads the config file at path (DefaultPath when empty), then applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	applyEnv(cfg)

	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads only the config file, without environment overrides. Use it
// to change and Save the file without persisting values that came from the
// environment or flags.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		cfg.Path = path
	}
	if _, err := toml.DecodeFile(cfg.Path, cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read config %s: %w", cfg.Path, err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	set := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v := strings.TrimSpace(os.Getenv(k)); v != "" {
				*dst = v
				return
			}
		}
	}
	set(&cfg.Store.Path, "TODO_FILE")
	set(&cfg.Store.Backend, "TODO_BACKEND")
	set(&cfg.Store.DatabaseURL, "DATABASE_URL")
	set(&cfg.UI.Theme, "TODO_THEME")
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		cfg.Server.Addr = ":" + port
	}
	set(&cfg.Server.Addr, "TODO_ADDR")
	set(&cfg.Log.Level, "TODO_LOG_LEVEL")
}

func (c *Config) finalize() error {
	c.Store.Backend = strings.ToLower(c.Store.Backend)
	switch c.Store.Backend {
	case "", BackendFile:
		c.Store.Backend = BackendFile
	case BackendPostgres:
		if c.Store.DatabaseURL == "" {
			return errors.New("config: postgres backend needs store.database_url or DATABASE_URL")
		}
	default:
		return fmt.Errorf("config: unknown store backend %q", c.Store.Backend)
	}
	if c.Store.Path == "" {
		c.Store.Path = DefaultDataFile()
	}
	c.Store.Path = expandHome(c.Store.Path)

	theme, err := ParseTheme(c.UI.Theme)
	if err != nil {
		return err
	}
	c.UI.Theme = theme
	return nil
}

// ParseTheme normalises a theme name. Empty means light.
func ParseTheme(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", ThemeLight:
		return ThemeLight, nil
	case ThemeDark:
		return ThemeDark, nil
	}
	return "", fmt.Errorf("config: unknown theme %q, want light or dark", s)
}

// Save writes c to c.Path, creating the directory if needed.
func (c *Config) Save() error {
	if c.Path == "" {
		return errors.New("config: no path to save to")
	}
	if err := os.MkdirAll(filepath.Dir(c.Path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(c.Path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p[1:], "/"))
}
