// Package config resolves where deja reads logs and keeps its state.
// Values are layered: defaults, then the YAML file, then environment
// variables. Command-line flags are applied last by the CLI.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jasperwreed/deja/internal/scanner"
	"github.com/jasperwreed/deja/internal/storage"
)

const (
	EnvProjects  = "CLAUDE_PROJECTS_PATH"
	EnvCache     = "CLAUDE_MEMORY_CACHE_PATH"
	EnvNotes     = "CLAUDE_MEMORY_NOTES_PATH"
	EnvBackend   = "DEJA_CACHE_BACKEND"
	EnvLogLevel  = "DEJA_LOG_LEVEL"
	EnvConfig    = "DEJA_CONFIG"
	DefaultLevel = "warn"
)

var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	ProjectsPath string `yaml:"projects_path"`
	CachePath    string `yaml:"cache_path"`
	NotesPath    string `yaml:"notes_path"`
	Backend      string `yaml:"backend"`
	LogLevel     string `yaml:"log_level"`
}

// Default returns the built-in locations under ~/.claude. An empty cache
// path means the default file of the chosen backend; see CacheFile.
func Default() Config {
	return Config{
		ProjectsPath: "~/.claude/projects",
		NotesPath:    "~/.claude/memory-notes.json",
		Backend:      storage.BackendJSON,
		LogLevel:     DefaultLevel,
	}
}

// DefaultPath is $DEJA_CONFIG or ~/.config/deja/config.yaml.
func DefaultPath() string {
	if p := os.Getenv(EnvConfig); p != "" {
		return p
	}
	return scanner.ExpandHome("~/.config/deja/config.yaml")
}

// Load applies the file at path (if it exists) and the environment over
// the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return cfg, err
		}
	}
	cfg.mergeEnv(os.Getenv)
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	c.override(file)
	return nil
}

func (c *Config) mergeEnv(getenv func(string) string) {
	c.override(Config{
		ProjectsPath: getenv(EnvProjects),
		CachePath:    getenv(EnvCache),
		NotesPath:    getenv(EnvNotes),
		Backend:      getenv(EnvBackend),
		LogLevel:     getenv(EnvLogLevel),
	})
}

// override copies the non-empty fields of o.
func (c *Config) override(o Config) {
	if o.ProjectsPath != "" {
		c.ProjectsPath = o.ProjectsPath
	}
	if o.CachePath != "" {
		c.CachePath = o.CachePath
	}
	if o.NotesPath != "" {
		c.NotesPath = o.NotesPath
	}
	if o.Backend != "" {
		c.Backend = o.Backend
	}
	if o.LogLevel != "" {
		c.LogLevel = o.LogLevel
	}
}

// Override applies explicitly set values such as command-line flags.
func (c *Config) Override(o Config) {
	c.override(o)
}

// Expand resolves a leading ~ in every path.
func (c *Config) Expand() {
	c.ProjectsPath = scanner.ExpandHome(c.ProjectsPath)
	c.NotesPath = scanner.ExpandHome(c.NotesPath)
	if c.CachePath != "" {
		c.CachePath = scanner.ExpandHome(c.CachePath)
	}
}

// CacheFile is CachePath, or the default file for the backend.
func (c Config) CacheFile() string {
	if c.CachePath != "" {
		return c.CachePath
	}
	if c.Backend == storage.BackendSQLite {
		return scanner.ExpandHome("~/.claude/memory-cache.db")
	}
	return scanner.ExpandHome("~/.claude/memory-cache.json")
}

func (c Config) Validate() error {
	switch c.Backend {
	case storage.BackendJSON, storage.BackendSQLite:
	default:
		return fmt.Errorf("%w: unknown cache backend %q (want %s or %s)", ErrInvalid, c.Backend, storage.BackendJSON, storage.BackendSQLite)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if strings.TrimSpace(c.ProjectsPath) == "" {
		return fmt.Errorf("%w: projects path is empty", ErrInvalid)
	}
	if strings.TrimSpace(c.NotesPath) == "" {
		return fmt.Errorf("%w: notes path is empty", ErrInvalid)
	}
	return nil
}

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("%w: unknown log level %q", ErrInvalid, s)
}

// YAML encodes c in the config file format.
func (c Config) YAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return data, nil
}

// Write saves c as YAML, creating parent directories.
func (c Config) Write(path string) error {
	data, err := c.YAML()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
