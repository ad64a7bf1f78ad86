// Package watcher notices session log changes under the projects root and
// triggers a cache refresh once writes settle.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jasperwreed/deja/internal/scanner"
)

// DefaultDebounce is how long the watcher waits after the last change.
const DefaultDebounce = 500 * time.Millisecond

// ChangeHandler is called once per settled batch with the changed log paths.
type ChangeHandler func(paths []string)

// SessionWatcher watches the projects root and every project directory in it.
type SessionWatcher struct {
	watcher      *fsnotify.Watcher
	root         string
	debounce     time.Duration
	logger       *slog.Logger
	handler      ChangeHandler
	mu           sync.Mutex
	watchedPaths map[string]bool
	pending      map[string]bool
}

func NewSessionWatcher(root string, handler ChangeHandler, logger *slog.Logger) (*SessionWatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fs watcher: %w", err)
	}

	return &SessionWatcher{
		watcher:      fsWatcher,
		root:         root,
		debounce:     DefaultDebounce,
		logger:       logger,
		handler:      handler,
		watchedPaths: make(map[string]bool),
		pending:      make(map[string]bool),
	}, nil
}

// SetDebounce changes the settle delay. Call before Run.
func (w *SessionWatcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// WatchDirectory adds dir to the watch set.
func (w *SessionWatcher) WatchDirectory(dir string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.watchedPaths[dir] {
		return nil
	}
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}
	w.watchedPaths[dir] = true
	w.logger.Debug("watching", "dir", dir)
	return nil
}

// unwatch forgets a removed or renamed directory so it is watched again if
// it reappears. It reports whether path was being watched.
func (w *SessionWatcher) unwatch(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.watchedPaths[path] {
		return false
	}
	delete(w.watchedPaths, path)
	// fsnotify has usually dropped the watch already when the directory went away.
	_ = w.watcher.Remove(path)
	w.logger.Debug("stopped watching", "dir", path)
	return true
}

func (w *SessionWatcher) isWatched(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.watchedPaths[path]
}

// watchTree watches the root and its non-hidden project directories.
func (w *SessionWatcher) watchTree() error {
	if err := w.WatchDirectory(w.root); err != nil {
		return err
	}
	entries, err := os.ReadDir(w.root)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", w.root, err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		dir := filepath.Join(w.root, e.Name())
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			continue
		}
		if err := w.WatchDirectory(dir); err != nil {
			w.logger.Warn("skipping project directory", "error", err)
		}
	}
	return nil
}

// Run blocks until ctx is done, calling the handler after each quiet period
// that follows a change to a session log.
func (w *SessionWatcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	if err := w.watchTree(); err != nil {
		return err
	}

	timer := time.NewTimer(w.debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if w.handleEvent(event) {
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)

		case <-timer.C:
			w.flush()
		}
	}
}

// handleEvent records a change and reports whether it concerns a session log.
func (w *SessionWatcher) handleEvent(event fsnotify.Event) bool {
	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, ".") {
		return false
	}

	if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 && w.unwatch(event.Name) {
		return false
	}

	if event.Op&fsnotify.Create == fsnotify.Create && filepath.Dir(event.Name) == w.root {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.WatchDirectory(event.Name); err != nil {
				w.logger.Warn("could not watch new project", "error", err)
			}
			return false
		}
	}

	if filepath.Ext(name) != scanner.LogExtension {
		return false
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}

	w.mu.Lock()
	w.pending[event.Name] = true
	w.mu.Unlock()
	return true
}

func (w *SessionWatcher) flush() {
	w.mu.Lock()
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	w.pending = make(map[string]bool)
	w.mu.Unlock()

	if len(paths) == 0 || w.handler == nil {
		return
	}
	w.logger.Debug("session logs changed", "count", len(paths))
	w.handler(paths)
}
