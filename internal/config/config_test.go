package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// isolate points every lookup at a temp dir and clears overrides.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	for _, k := range []string{"TODO_FILE", "TODO_BACKEND", "DATABASE_URL", "TODO_THEME", "TODO_ADDR", "PORT", "TODO_LOG_LEVEL"} {
		t.Setenv(k, "")
	}
	return dir
}

func TestLoadDefaults(t *testing.T) {
	dir := isolate(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store.Backend != BackendFile {
		t.Errorf("backend = %q, want file", cfg.Store.Backend)
	}
	if want := filepath.Join(dir, "data", "todo-desk", "tasks.json"); cfg.Store.Path != want {
		t.Errorf("data file = %q, want %q", cfg.Store.Path, want)
	}
	if want := filepath.Join(dir, "config", "todo-desk", "config.toml"); cfg.Path != want {
		t.Errorf("config path = %q, want %q", cfg.Path, want)
	}
	if cfg.UI.Theme != ThemeLight || cfg.Server.Addr != ":8080" || cfg.Log.Level != "info" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "todo.toml")
	os.WriteFile(path, []byte(`
[store]
path = "/srv/tasks.json"

[ui]
theme = "Dark"

[log]
level = "debug"
`), 0o644)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store.Path != "/srv/tasks.json" {
		t.Errorf("path = %q", cfg.Store.Path)
	}
	if cfg.UI.Theme != ThemeDark {
		t.Errorf("theme = %q, want dark", cfg.UI.Theme)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("level = %q", cfg.Log.Level)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("addr = %q, want default", cfg.Server.Addr)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "todo.toml")
	os.WriteFile(path, []byte("[store]\npath = \"/from/file.json\"\n"), 0o644)
	t.Setenv("TODO_FILE", "/from/env.json")
	t.Setenv("PORT", "9000")
	t.Setenv("TODO_THEME", "dark")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store.Path != "/from/env.json" {
		t.Errorf("path = %q, want env value", cfg.Store.Path)
	}
	if cfg.Server.Addr != ":9000" {
		t.Errorf("addr = %q, want :9000", cfg.Server.Addr)
	}
	if cfg.UI.Theme != ThemeDark {
		t.Errorf("theme = %q", cfg.UI.Theme)
	}

	t.Setenv("TODO_ADDR", "127.0.0.1:7000")
	cfg, _ = Load(path)
	if cfg.Server.Addr != "127.0.0.1:7000" {
		t.Errorf("TODO_ADDR should win over PORT, got %q", cfg.Server.Addr)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	dir := isolate(t)
	cases := map[string]string{
		"bad toml":         "[store\n",
		"bad backend":      "[store]\nbackend = \"sqlite\"\n",
		"bad theme":        "[ui]\ntheme = \"neon\"\n",
		"postgres, no url": "[store]\nbackend = \"postgres\"\n",
	}
	for name, body := range cases {
		path := filepath.Join(dir, strings.ReplaceAll(name, " ", "_")+".toml")
		os.WriteFile(path, []byte(body), 0o644)
		if _, err := Load(path); err == nil {
			t.Errorf("%s: Load succeeded", name)
		}
	}
}

func TestPostgresBackendFromEnv(t *testing.T) {
	isolate(t)
	t.Setenv("TODO_BACKEND", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/todo")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store.Backend != BackendPostgres || cfg.Store.DatabaseURL != "postgres://localhost/todo" {
		t.Fatalf("store = %+v", cfg.Store)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	isolate(t)
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.UI.Theme = ThemeDark
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	again, err := Load("")
	if err != nil {
		t.Fatalf("Load after Save: %v", err)
	}
	if again.UI.Theme != ThemeDark {
		t.Fatalf("theme after reload = %q, want dark", again.UI.Theme)
	}
	if again.Store.Path != cfg.Store.Path {
		t.Fatalf("path after reload = %q, want %q", again.Store.Path, cfg.Store.Path)
	}
}

func TestParseTheme(t *testing.T) {
	for in, want := range map[string]string{"": ThemeLight, "LIGHT": ThemeLight, " dark": ThemeDark} {
		got, err := ParseTheme(in)
		if err != nil || got != want {
			t.Errorf("ParseTheme(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseTheme("solarized"); err == nil {
		t.Error("ParseTheme accepted solarized")
	}
}

func TestLoadFileIgnoresEnv(t *testing.T) {
	isolate(t)
	t.Setenv("TODO_FILE", "/from/env.json")

	cfg, err := LoadFile("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.UI.Theme = ThemeDark
	if err := cfg.Save(); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(cfg.Path)
	if strings.Contains(string(data), "/from/env.json") {
		t.Fatalf("environment override persisted:\n%s", data)
	}
}
