package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jasperwreed/deja/internal/models"
)

// Backend names accepted by Open.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// ErrUnknownBackend is returned by Open for an unrecognized backend name.
var ErrUnknownBackend = errors.New("unknown cache backend")

// Backend persists the whole record map. Save always rewrites everything.
type Backend interface {
	Name() string
	Path() string
	Load() (map[string]*models.ConversationRecord, error)
	Save(records map[string]*models.ConversationRecord) error
	Close() error
}

// Open returns the backend called name, persisting at path.
func Open(name, path string) (Backend, error) {
	switch name {
	case "", BackendJSON:
		return NewJSONFileBackend(path), nil
	case BackendSQLite:
		return NewSQLiteBackend(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}
}

// JSONFileBackend stores the cache as one JSON object keyed by session id.
type JSONFileBackend struct {
	path string
}

func NewJSONFileBackend(path string) *JSONFileBackend {
	return &JSONFileBackend{path: path}
}

func (b *JSONFileBackend) Name() string {
	return BackendJSON
}

func (b *JSONFileBackend) Path() string {
	return b.path
}

// Load returns an empty map when the file does not exist yet.
func (b *JSONFileBackend) Load() (map[string]*models.ConversationRecord, error) {
	records := make(map[string]*models.ConversationRecord)

	data, err := os.ReadFile(b.path)
	if errors.Is(err, os.ErrNotExist) {
		return records, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}

	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode cache file: %w", err)
	}
	return records, nil
}

func (b *JSONFileBackend) Save(records map[string]*models.ConversationRecord) error {
	if err := os.MkdirAll(filepath.Dir(b.path), 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode cache: %w", err)
	}

	if err := os.WriteFile(b.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	return nil
}

func (b *JSONFileBackend) Close() error {
	return nil
}
