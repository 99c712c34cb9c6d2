package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/rewind/internal/config/loader"
	"github.com/dshills/rewind/internal/logging"
)

// Config is the fully merged rewind configuration.
type Config struct {
	History HistoryConfig `toml:"history"`
	Logging LoggingConfig `toml:"logging"`
	Script  ScriptConfig  `toml:"script"`
	Keymap  KeymapConfig  `toml:"keymap"`
	Theme   ThemeConfig   `toml:"theme"`
	Watch   WatchConfig   `toml:"watch"`

	// Path is the file the configuration was read from, if any.
	Path string `toml:"-"`
}

// HistoryConfig configures the history store.
type HistoryConfig struct {
	// Initial is the present value a new history starts with.
	Initial string `toml:"initial"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Level string `toml:"level"`
	// File receives log output. Empty means stderr.
	File string `toml:"file"`
}

// ScriptConfig limits Lua script execution.
type ScriptConfig struct {
	// CallLimit caps calls into the history module per script run.
	CallLimit int64  `toml:"callLimit"`
	Timeout   string `toml:"timeout"`
}

// KeymapConfig binds editor actions to keys, e.g. "ctrl+z".
type KeymapConfig struct {
	Undo  string `toml:"undo"`
	Redo  string `toml:"redo"`
	Reset string `toml:"reset"`
	Quit  string `toml:"quit"`
}

// ThemeConfig holds "#rrggbb" colours. Empty means the terminal default.
type ThemeConfig struct {
	Foreground string `toml:"foreground"`
	Background string `toml:"background"`
	Status     string `toml:"status"`
}

// WatchConfig controls live reload of the config file.
type WatchConfig struct {
	Enabled  bool   `toml:"enabled"`
	Debounce string `toml:"debounce"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Script: ScriptConfig{
			CallLimit: 100_000,
			Timeout:   "5s",
		},
		Keymap: KeymapConfig{
			Undo:  "ctrl+z",
			Redo:  "ctrl+y",
			Reset: "ctrl+r",
			Quit:  "ctrl+q",
		},
		Theme: ThemeConfig{
			Foreground: "#d0d0d0",
			Status:     "#5f87af",
		},
		Watch: WatchConfig{
			Enabled:  true,
			Debounce: "100ms",
		},
	}
}

// DefaultPath returns the user config file location, or "" if the user
// config directory cannot be determined.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "rewind", "config.toml")
}

// Option configures Load.
type Option func(*options)

type options struct {
	fs        loader.FileSystem
	envPrefix string
	env       loader.Loader
	required  bool
}

// WithFS sets the file system config files are read from.
func WithFS(fsys loader.FileSystem) Option {
	return func(o *options) {
		if fsys != nil {
			o.fs = fsys
		}
	}
}

// WithEnvPrefix sets the environment variable prefix. An empty prefix
// disables environment overrides.
func WithEnvPrefix(prefix string) Option {
	return func(o *options) {
		o.envPrefix = prefix
	}
}

// WithEnvLoader replaces the environment source, mainly for tests.
func WithEnvLoader(l loader.Loader) Option {
	return func(o *options) {
		o.env = l
	}
}

// Required makes a missing config file an error instead of falling back
// to defaults.
func Required() Option {
	return func(o *options) {
		o.required = true
	}
}

// Load builds a Config from defaults, the file at path (if any) and the
// environment, in increasing priority, then validates it.
func Load(path string, opts ...Option) (*Config, error) {
	o := options{
		fs:        loader.DefaultFS(),
		envPrefix: loader.DefaultEnvPrefix,
	}
	for _, opt := range opts {
		opt(&o)
	}

	merged, err := toMap(Default())
	if err != nil {
		return nil, err
	}
	schema, err := toMap(Default())
	if err != nil {
		return nil, err
	}

	if path != "" {
		if _, err := o.fs.Stat(path); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("stat %s: %w", path, err)
			}
			if o.required {
				return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
			}
		}

		l, err := loader.ForPath(o.fs, path)
		if err != nil {
			return nil, err
		}
		fileMap, err := l.Load()
		if err != nil {
			return nil, err
		}
		merged = loader.DeepMerge(merged, loader.Conform(fileMap, schema))
	}

	env := o.env
	if env == nil && o.envPrefix != "" {
		env = loader.NewEnvLoader(o.envPrefix)
	}
	if env != nil {
		envMap, err := env.Load()
		if err != nil {
			return nil, fmt.Errorf("loading environment: %w", err)
		}
		merged = loader.DeepMerge(merged, loader.Conform(envMap, schema))
	}

	cfg, err := fromMap(merged)
	if err != nil {
		return nil, err
	}
	cfg.Path = path

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// toMap round-trips c through TOML to get the same shape loaders produce.
func toMap(c Config) (map[string]any, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encoding defaults: %w", err)
	}
	var m map[string]any
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding defaults: %w", err)
	}
	return m, nil
}

func fromMap(m map[string]any) (*Config, error) {
	data, err := toml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encoding merged config: %w", err)
	}
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, &ValidationError{Path: "config", Message: err.Error()}
	}
	return &cfg, nil
}

// Validate checks every setting and returns the first problem found.
func (c *Config) Validate() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return &ValidationError{Path: "logging.level", Message: "unknown level", Value: c.Logging.Level}
	}
	if c.Script.CallLimit <= 0 {
		return &ValidationError{Path: "script.callLimit", Message: "must be positive", Value: c.Script.CallLimit}
	}
	if d, err := time.ParseDuration(c.Script.Timeout); err != nil || d <= 0 {
		return &ValidationError{Path: "script.timeout", Message: "must be a positive duration", Value: c.Script.Timeout}
	}
	if d, err := time.ParseDuration(c.Watch.Debounce); err != nil || d < 0 {
		return &ValidationError{Path: "watch.debounce", Message: "must be a duration", Value: c.Watch.Debounce}
	}

	keys := map[string]string{
		"keymap.undo":  c.Keymap.Undo,
		"keymap.redo":  c.Keymap.Redo,
		"keymap.reset": c.Keymap.Reset,
		"keymap.quit":  c.Keymap.Quit,
	}
	for path, v := range keys {
		if strings.TrimSpace(v) == "" {
			return &ValidationError{Path: path, Message: "must not be empty", Value: v}
		}
	}

	colors := map[string]string{
		"theme.foreground": c.Theme.Foreground,
		"theme.background": c.Theme.Background,
		"theme.status":     c.Theme.Status,
	}
	for path, v := range colors {
		if v == "" {
			continue
		}
		if _, err := colorful.Hex(v); err != nil {
			return &ValidationError{Path: path, Message: "must be #rrggbb", Value: v}
		}
	}

	return nil
}

// ScriptTimeout returns the parsed script timeout.
func (c *Config) ScriptTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Script.Timeout)
	return d
}

// WatchDebounce returns the parsed watcher debounce interval.
func (c *Config) WatchDebounce() time.Duration {
	d, _ := time.ParseDuration(c.Watch.Debounce)
	return d
}

// LogLevel returns the parsed log level.
func (c *Config) LogLevel() logging.Level {
	return logging.ParseLevel(c.Logging.Level)
}
