package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/jasperwreed/deja/internal/config"
	"github.com/jasperwreed/deja/internal/notes"
	"github.com/jasperwreed/deja/internal/query"
	"github.com/jasperwreed/deja/internal/scanner"
	"github.com/jasperwreed/deja/internal/storage"
)

// app is everything a command needs, built from the layered config.
type app struct {
	cfg     config.Config
	logger  *slog.Logger
	backend storage.Backend
	store   *storage.Store
	scanner *scanner.ClaudeScanner
	service *query.Service
}

// loadConfig layers the persistent flags over the file and environment.
func loadConfig() (config.Config, error) {
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}

	v := NewValidator()
	flags := config.Config{Backend: backendName}
	for _, p := range []struct {
		flag string
		dst  *string
	}{
		{projectsPath, &flags.ProjectsPath},
		{cachePath, &flags.CachePath},
		{notesPath, &flags.NotesPath},
	} {
		if *p.dst, err = v.ResolvePath(p.flag); err != nil {
			return cfg, err
		}
	}
	cfg.Override(flags)
	if verbose {
		cfg.LogLevel = "debug"
	}
	cfg.Expand()

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func newLogger(cfg config.Config, w io.Writer) *slog.Logger {
	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// openApp wires config, logging, the cache and the query service. Logs go
// to logOut, which must not be the stream carrying command output.
func openApp(logOut io.Writer) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg, logOut)

	backend, err := storage.Open(cfg.Backend, cfg.CacheFile())
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	sc := scanner.NewClaudeScanner(cfg.ProjectsPath)
	store := storage.NewStore(backend, sc, storage.WithLogger(logger))
	notesStore := notes.NewStore(cfg.NotesPath, logger)

	logger.Debug("configured",
		"projects", cfg.ProjectsPath, "cache", backend.Path(), "backend", backend.Name(), "notes", cfg.NotesPath)

	return &app{
		cfg:     cfg,
		logger:  logger,
		backend: backend,
		store:   store,
		scanner: sc,
		service: query.NewService(store, notesStore, sc, logger),
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

// emit prints the status line and, with --json, the indented payload.
func emit(w io.Writer, line string, payload any) error {
	if _, err := fmt.Fprintln(w, line); err != nil {
		return err
	}
	if !jsonOutput {
		return nil
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
