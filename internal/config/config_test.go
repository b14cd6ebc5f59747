package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dshills/inkwell/internal/engine"
	"github.com/dshills/inkwell/internal/engine/history"
	"github.com/dshills/inkwell/internal/logging"
)

func writeConfig(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Editor.Editable {
		t.Error("editor is read-only by default")
	}
	if !cfg.History.Enabled || cfg.History.MaxEntries != history.DefaultMaxEntries {
		t.Errorf("history = %+v", cfg.History)
	}
	if cfg.History.MergeDelay != history.DefaultMergeDelay {
		t.Errorf("merge delay = %v", cfg.History.MergeDelay)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("level = %q", cfg.Logging.Level)
	}
}

func TestLoadFormats(t *testing.T) {
	tests := []struct {
		name string
		file string
		data string
	}{
		{
			name: "toml",
			file: "inkwell.toml",
			data: `
[editor]
namespace = "notes"
editable = false

[editor.theme]
paragraph = "para"
"text.bold" = "strong"

[history]
max_entries = 25
merge_delay = "300ms"

[logging]
level = "debug"
`,
		},
		{
			name: "yaml",
			file: "inkwell.yml",
			data: `
editor:
  namespace: notes
  editable: false
  theme:
    paragraph: para
    text.bold: strong
history:
  max_entries: 25
  merge_delay: 300ms
logging:
  level: debug
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, tt.file, tt.data))
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if cfg.Editor.Namespace != "notes" || cfg.Editor.Editable {
				t.Errorf("editor = %+v", cfg.Editor)
			}
			if got := cfg.Theme().Class("text.bold"); got != "strong" {
				t.Errorf("text.bold class = %q", got)
			}
			if cfg.History.MaxEntries != 25 || cfg.History.MergeDelay != 300*time.Millisecond {
				t.Errorf("history = %+v", cfg.History)
			}
			if !cfg.History.Enabled {
				t.Error("file layer dropped the default history.enabled")
			}
			if cfg.Logging.Level != "debug" {
				t.Errorf("level = %q", cfg.Logging.Level)
			}
		})
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "inkwell.toml", "[history]\nmax_entries = 25\n")
	t.Setenv("INKWELL_HISTORY_MAX_ENTRIES", "7")
	t.Setenv("INKWELL_LOG_LEVEL", "error")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.History.MaxEntries != 7 {
		t.Errorf("max entries = %d, want 7", cfg.History.MaxEntries)
	}
	if cfg.Logging.Level != "error" {
		t.Errorf("level = %q, want error", cfg.Logging.Level)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		file string
		data string
		is   error
	}{
		{"extension", "inkwell.ini", "x=1", ErrUnsupportedFormat},
		{"negative entries", "inkwell.toml", "[history]\nmax_entries = -1\n", ErrInvalid},
		{"bad level", "inkwell.yaml", "logging:\n  level: loud\n", ErrInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.file, tt.data))
			if !errors.Is(err, tt.is) {
				t.Errorf("Load error = %v, want %v", err, tt.is)
			}
		})
	}

	_, err := Load(writeConfig(t, "inkwell.toml", "[history]\nmerge_delay = \"soon\"\n"))
	if err == nil {
		t.Error("bad duration accepted")
	}
}

func TestParse(t *testing.T) {
	cfg, err := Parse(strings.NewReader("editor:\n  namespace: piped\n"), "yaml")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Editor.Namespace != "piped" || !cfg.Editor.Editable {
		t.Errorf("editor = %+v", cfg.Editor)
	}
	if _, err := Parse(strings.NewReader(""), "json"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("json = %v", err)
	}
}

func TestOptions(t *testing.T) {
	cfg := Default()
	cfg.Editor.Namespace = "opts"
	cfg.Editor.Editable = false

	ed := engine.New(cfg.Options()...)
	if ed.Namespace() != "opts" {
		t.Errorf("namespace = %q", ed.Namespace())
	}
	if ed.IsEditable() {
		t.Error("editor is editable")
	}
	if ed.History() == nil {
		t.Error("history not enabled")
	}

	cfg.History.Enabled = false
	if engine.New(cfg.Options()...).History() != nil {
		t.Error("history enabled after disabling it")
	}
}

func TestLogger(t *testing.T) {
	cfg := Default()
	cfg.Logging.Level = "warn"
	cfg.Logging.File = filepath.Join(t.TempDir(), "inkwell.log")

	l, closer, err := cfg.Logger()
	if err != nil {
		t.Fatal(err)
	}
	l.Info("dropped")
	l.Warn("kept")
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}
	if !l.Enabled(logging.LevelWarn) || l.Enabled(logging.LevelInfo) {
		t.Error("level not applied")
	}

	data, err := os.ReadFile(cfg.Logging.File)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "kept") || strings.Contains(string(data), "dropped") {
		t.Errorf("log file = %q", data)
	}
}

func TestWatchReloads(t *testing.T) {
	path := writeConfig(t, "inkwell.toml", "[editor]\nnamespace = \"one\"\n")
	got := make(chan *Config, 4)

	w, err := Watch(path, 20*time.Millisecond, func(cfg *Config, err error) {
		if err == nil {
			got <- cfg
		}
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := os.WriteFile(path, []byte("[editor]\nnamespace = \"two\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-got:
		if cfg.Editor.Namespace != "two" {
			t.Errorf("namespace = %q, want two", cfg.Editor.Namespace)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload")
	}
}
