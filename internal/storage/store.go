package storage

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/jasperwreed/deja/internal/index"
	"github.com/jasperwreed/deja/internal/models"
	"github.com/jasperwreed/deja/internal/scanner"
)

// ErrNotLoaded is returned when records are read before the store is loaded.
var ErrNotLoaded = errors.New("cache not loaded")

// ExtractFunc builds a fresh record from a log file.
type ExtractFunc func(path string) (*models.ConversationRecord, error)

type Option func(*Store)

// WithExtractor replaces index.Build as the extraction function.
func WithExtractor(fn ExtractFunc) Option {
	return func(s *Store) { s.extract = fn }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Store owns the in-memory record map, keyed by the session id taken from
// the log file name. It is loaded once and persisted only when a scan
// changed something.
type Store struct {
	backend Backend
	scanner scanner.Scanner
	extract ExtractFunc
	logger  *slog.Logger

	records map[string]*models.ConversationRecord
	loaded  bool
	dirty   bool
}

func NewStore(backend Backend, sc scanner.Scanner, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		scanner: sc,
		extract: index.Build,
		logger:  slog.Default(),
		records: make(map[string]*models.ConversationRecord),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads the persisted map once per process. A missing or corrupt cache
// leaves the store empty.
func (s *Store) Load() {
	if s.loaded {
		return
	}
	s.loaded = true

	records, err := s.backend.Load()
	if err != nil {
		s.logger.Warn("could not load cache, starting empty",
			"backend", s.backend.Name(), "path", s.backend.Path(), "error", err)
		return
	}

	for id, rec := range records {
		if rec != nil {
			s.records[id] = rec
		}
	}
	s.logger.Debug("cache loaded", "records", len(s.records), "backend", s.backend.Name())
}

// Refresh loads the cache if needed, re-extracts every log that is new,
// modified or stale, and persists the map once if anything changed.
func (s *Store) Refresh() scanner.ScanResult {
	s.Load()

	var result scanner.ScanResult
	sessions, err := s.scanner.ScanForSessions()
	if err != nil {
		s.logger.Warn("could not enumerate session logs", "root", s.scanner.Root(), "error", err)
		result.Errors = append(result.Errors, err.Error())
		return result
	}
	result.SessionsFound = len(sessions)

	for _, info := range sessions {
		if !s.needsReparse(info) {
			continue
		}

		rec, err := s.extract(info.Path)
		if err != nil {
			s.logger.Warn("skipping unreadable session log", "path", info.Path, "error", err)
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", info.Path, err))
			continue
		}

		rec.Mtime = info.Mtime()
		rec.FilePath = info.Path
		s.records[info.SessionID] = rec
		s.dirty = true
		result.Reparsed++
	}

	if s.dirty {
		if err := s.Flush(); err != nil {
			s.logger.Warn("could not save cache", "path", s.backend.Path(), "error", err)
		}
	}
	return result
}

func (s *Store) needsReparse(info scanner.SessionInfo) bool {
	rec, ok := s.records[info.SessionID]
	if !ok {
		return true
	}
	if rec.Mtime < info.Mtime() {
		return true
	}
	return !Migrate(rec)
}

// Flush persists the whole map and clears the dirty flag on success.
func (s *Store) Flush() error {
	if err := s.backend.Save(s.records); err != nil {
		return fmt.Errorf("failed to persist %d records: %w", len(s.records), err)
	}
	s.dirty = false
	return nil
}

// Records returns the live record map.
func (s *Store) Records() (map[string]*models.ConversationRecord, error) {
	if !s.loaded {
		return nil, ErrNotLoaded
	}
	return s.records, nil
}

// Get returns the record cached under sessionID.
func (s *Store) Get(sessionID string) (*models.ConversationRecord, bool) {
	rec, ok := s.records[sessionID]
	return rec, ok
}

func (s *Store) Dirty() bool {
	return s.dirty
}

func (s *Store) Close() error {
	return s.backend.Close()
}
