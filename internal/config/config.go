package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dshills/inkwell/internal/config/loader"
	"github.com/dshills/inkwell/internal/engine"
	"github.com/dshills/inkwell/internal/engine/history"
	"github.com/dshills/inkwell/internal/engine/node"
	"github.com/dshills/inkwell/internal/logging"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "INKWELL_"

// Config holds every inkwell setting.
type Config struct {
	Editor  EditorConfig  `yaml:"editor"`
	History HistoryConfig `yaml:"history"`
	Logging LoggingConfig `yaml:"logging"`
}

// EditorConfig configures the editor instance.
type EditorConfig struct {
	// Namespace labels the editor. Empty means a random ID.
	Namespace string `yaml:"namespace"`

	// Editable controls whether edit commands are accepted.
	Editable bool `yaml:"editable"`

	// Theme maps node types ("paragraph") and text formats ("text.bold")
	// to class names.
	Theme map[string]string `yaml:"theme"`
}

// HistoryConfig configures undo and redo.
type HistoryConfig struct {
	Enabled    bool          `yaml:"enabled"`
	MaxEntries int           `yaml:"max_entries"`
	MergeDelay time.Duration `yaml:"merge_delay"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// File receives log output. Empty means stderr.
	File string `yaml:"file"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Editor: EditorConfig{
			Editable: true,
		},
		History: HistoryConfig{
			Enabled:    true,
			MaxEntries: history.DefaultMaxEntries,
			MergeDelay: history.DefaultMergeDelay,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads path over the defaults and applies environment overrides. An
// empty path or a missing file leaves the defaults in place.
func Load(path string) (*Config, error) {
	layers := []loader.Loader{defaultsLoader{}}
	if path != "" {
		l, err := fileLoader(path)
		if err != nil {
			return nil, err
		}
		layers = append(layers, l)
	}
	layers = append(layers, loader.NewEnvLoader(EnvPrefix))
	return loadLayers(layers...)
}

// Parse reads a config document of the given format ("toml" or "yaml")
// over the defaults. Environment overrides are not applied.
func Parse(r io.Reader, format string) (*Config, error) {
	var rl loader.ReaderLoader
	switch strings.ToLower(format) {
	case "toml":
		rl = loader.NewTOMLLoader("")
	case "yaml", "yml":
		rl = loader.NewYAMLLoader("")
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	m, err := rl.LoadFromReader(r)
	if err != nil {
		return nil, err
	}
	return loadLayers(defaultsLoader{}, staticLoader(m))
}

func fileLoader(path string) (loader.Loader, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return loader.NewTOMLLoader(path), nil
	case ".yaml", ".yml":
		return loader.NewYAMLLoader(path), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

func loadLayers(layers ...loader.Loader) (*Config, error) {
	merged := make(map[string]any)
	for _, l := range layers {
		m, err := l.Load()
		if err != nil {
			return nil, err
		}
		merged = loader.DeepMerge(merged, m)
	}

	cfg, err := decode(merged)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decode turns a merged settings map into a Config.
func decode(m map[string]any) (*Config, error) {
	data, err := yaml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encoding merged config: %w", err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, nil
}

// Validate reports every out-of-range setting.
func (c *Config) Validate() error {
	var problems []string
	if c.History.MaxEntries < 0 {
		problems = append(problems, "history.max_entries must not be negative")
	}
	if c.History.MergeDelay < 0 {
		problems = append(problems, "history.merge_delay must not be negative")
	}
	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		problems = append(problems, fmt.Sprintf("logging.level %q is not a level", c.Logging.Level))
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// Theme returns the configured class names, or nil when none are set.
func (c *Config) Theme() *node.Theme {
	if len(c.Editor.Theme) == 0 {
		return nil
	}
	classes := make(map[string]string, len(c.Editor.Theme))
	for k, v := range c.Editor.Theme {
		classes[k] = v
	}
	return &node.Theme{Classes: classes}
}

// Logger builds the configured logger. The returned closer releases the
// log file, if any.
func (c *Config) Logger() (*logging.Logger, io.Closer, error) {
	lc := logging.DefaultConfig()
	lc.Level = logging.ParseLevel(c.Logging.Level)
	if c.Logging.File == "" {
		return logging.New(lc), nopCloser{}, nil
	}
	f, err := os.OpenFile(c.Logging.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	lc.Output = f
	return logging.New(lc), f, nil
}

// Options returns the editor options the settings describe.
func (c *Config) Options() []engine.Option {
	opts := []engine.Option{
		engine.WithNamespace(c.Editor.Namespace),
		engine.WithEditable(c.Editor.Editable),
	}
	if theme := c.Theme(); theme != nil {
		opts = append(opts, engine.WithTheme(theme))
	}
	if c.History.Enabled {
		opts = append(opts, engine.WithHistory(history.NewHistory(c.History.MaxEntries, c.History.MergeDelay)))
	}
	return opts
}

// defaultsLoader feeds Default into the layer merge.
type defaultsLoader struct{}

func (defaultsLoader) Load() (map[string]any, error) {
	d := Default()
	return map[string]any{
		"editor": map[string]any{
			"editable": d.Editor.Editable,
		},
		"history": map[string]any{
			"enabled":     d.History.Enabled,
			"max_entries": d.History.MaxEntries,
			"merge_delay": d.History.MergeDelay.String(),
		},
		"logging": map[string]any{
			"level": d.Logging.Level,
		},
	}, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

type staticLoader map[string]any

func (s staticLoader) Load() (map[string]any, error) {
	return s, nil
}
