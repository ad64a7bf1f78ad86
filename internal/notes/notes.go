// Package notes keeps short free-text notes attached to sessions.
package notes

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Store maps session ids to their notes, persisted as one indented JSON
// object. The file is read on first use.
type Store struct {
	path   string
	logger *slog.Logger
	notes  map[string][]string
	loaded bool
}

func NewStore(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		path:   path,
		logger: logger,
		notes:  make(map[string][]string),
	}
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) load() {
	if s.loaded {
		return
	}
	s.loaded = true

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return
	}
	if err == nil {
		err = json.Unmarshal(data, &s.notes)
	}
	if err != nil {
		s.logger.Warn("could not load notes", "path", s.path, "error", err)
	}
	if s.notes == nil || err != nil {
		s.notes = make(map[string][]string)
	}
}

// NotesFor returns the notes attached to sessionID, oldest first.
func (s *Store) NotesFor(sessionID string) []string {
	s.load()
	return s.notes[sessionID]
}

// Add appends note to sessionID and returns how many notes the session now
// has. The in-memory note survives a failed save.
func (s *Store) Add(sessionID, note string) (int, error) {
	s.load()
	s.notes[sessionID] = append(s.notes[sessionID], note)
	total := len(s.notes[sessionID])

	if err := s.save(); err != nil {
		return total, err
	}
	return total, nil
}

func (s *Store) save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create notes directory: %w", err)
	}

	data, err := json.MarshalIndent(s.notes, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode notes: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write notes: %w", err)
	}
	return nil
}
