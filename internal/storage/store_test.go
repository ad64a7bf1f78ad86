package storage

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/jasperwreed/deja/internal/index"
	"github.com/jasperwreed/deja/internal/models"
	"github.com/jasperwreed/deja/internal/scanner"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type memoryBackend struct {
	records map[string]*models.ConversationRecord
	loadErr error
	saveErr error
	saves   int
}

func (m *memoryBackend) Name() string { return "memory" }
func (m *memoryBackend) Path() string { return ":memory:" }
func (m *memoryBackend) Close() error { return nil }

func (m *memoryBackend) Load() (map[string]*models.ConversationRecord, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	out := make(map[string]*models.ConversationRecord, len(m.records))
	for k, v := range m.records {
		out[k] = v
	}
	return out, nil
}

func (m *memoryBackend) Save(records map[string]*models.ConversationRecord) error {
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.records = make(map[string]*models.ConversationRecord, len(records))
	for k, v := range records {
		m.records[k] = v
	}
	return nil
}

type countingExtractor struct {
	calls []string
}

func (c *countingExtractor) extract(path string) (*models.ConversationRecord, error) {
	c.calls = append(c.calls, path)
	return index.Build(path)
}

func setupProjects(t *testing.T, sessions map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range sessions {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

const sampleLog = `{"type":"user","message":{"content":"fix the login bug"},"timestamp":"2025-03-01T10:00:00Z","sessionId":"s1"}
{"type":"assistant","message":{"content":[{"type":"text","text":"On it."}]}}
`

func TestStore_RefreshIsIncremental(t *testing.T) {
	root := setupProjects(t, map[string]string{
		"proj/s1.jsonl": sampleLog,
		"proj/s2.jsonl": sampleLog,
	})

	backend := &memoryBackend{}
	ex := &countingExtractor{}
	store := NewStore(backend, scanner.NewClaudeScanner(root), WithExtractor(ex.extract), WithLogger(quietLogger))

	result := store.Refresh()
	if result.SessionsFound != 2 || result.Reparsed != 2 {
		t.Fatalf("first Refresh() = %+v, want 2 found and 2 reparsed", result)
	}
	if backend.saves != 1 {
		t.Fatalf("first Refresh() saved %d times, want 1", backend.saves)
	}

	rec, ok := store.Get("s2")
	if !ok {
		t.Fatal("s2 not cached")
	}
	if rec.FilePath != filepath.Join(root, "proj", "s2.jsonl") || rec.Mtime == 0 {
		t.Errorf("record file metadata not set: path=%q mtime=%f", rec.FilePath, rec.Mtime)
	}

	// unchanged files must not be re-extracted or persisted again
	result = store.Refresh()
	if result.Reparsed != 0 || len(ex.calls) != 2 || backend.saves != 1 {
		t.Errorf("second Refresh() reparsed %d, extracted %d total, saved %d times", result.Reparsed, len(ex.calls), backend.saves)
	}

	// a fresh process with the persisted cache behaves the same
	ex2 := &countingExtractor{}
	store2 := NewStore(backend, scanner.NewClaudeScanner(root), WithExtractor(ex2.extract), WithLogger(quietLogger))
	store2.Refresh()
	if len(ex2.calls) != 0 || backend.saves != 1 {
		t.Errorf("reloaded store extracted %d files and saved %d times", len(ex2.calls), backend.saves)
	}

	// touching a file forces exactly that one to be re-extracted
	later := time.Now().Add(time.Hour)
	touched := filepath.Join(root, "proj", "s1.jsonl")
	if err := os.Chtimes(touched, later, later); err != nil {
		t.Fatal(err)
	}
	store2.Refresh()
	if len(ex2.calls) != 1 || ex2.calls[0] != touched {
		t.Errorf("after touch extracted %v, want only %s", ex2.calls, touched)
	}
	if backend.saves != 2 {
		t.Errorf("saves = %d, want 2", backend.saves)
	}
}

func TestStore_MissingEpisodesKeyIsStale(t *testing.T) {
	root := setupProjects(t, map[string]string{"proj/s1.jsonl": sampleLog})
	info, err := os.Stat(filepath.Join(root, "proj", "s1.jsonl"))
	if err != nil {
		t.Fatal(err)
	}
	mtime := float64(info.ModTime().UnixNano()) / float64(time.Second)

	cachePath := filepath.Join(t.TempDir(), "cache.json")
	legacy := `{"s1":{"session_id":"s1","project":"proj","first_message":"old","term_counts":{"old":1},` +
		`"mtime":` + strconv.FormatFloat(mtime+10, 'f', -1, 64) + `,"file_path":"x"}}`
	if err := os.WriteFile(cachePath, []byte(legacy), 0644); err != nil {
		t.Fatal(err)
	}

	ex := &countingExtractor{}
	store := NewStore(NewJSONFileBackend(cachePath), scanner.NewClaudeScanner(root), WithExtractor(ex.extract), WithLogger(quietLogger))
	store.Refresh()

	if len(ex.calls) != 1 {
		t.Fatalf("extracted %d files, want 1", len(ex.calls))
	}
	rec, _ := store.Get("s1")
	if rec.FirstMessage != "fix the login bug" || rec.SchemaVersion != index.CurrentSchemaVersion {
		t.Errorf("stale record not replaced: %+v", rec)
	}

	data, err := os.ReadFile(cachePath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"episodes":[]`) {
		t.Errorf("persisted cache lacks episodes key: %s", data)
	}
}

func TestStore_UnversionedCompleteRecordIsKept(t *testing.T) {
	root := setupProjects(t, map[string]string{"proj/s1.jsonl": sampleLog})
	info, err := os.Stat(filepath.Join(root, "proj", "s1.jsonl"))
	if err != nil {
		t.Fatal(err)
	}

	backend := &memoryBackend{records: map[string]*models.ConversationRecord{
		"s1": {
			SessionID:  "s1",
			Episodes:   []models.Episode{},
			TermCounts: map[string]int{"login": 1},
			Mtime:      float64(info.ModTime().Unix()) + 1,
		},
	}}
	ex := &countingExtractor{}
	store := NewStore(backend, scanner.NewClaudeScanner(root), WithExtractor(ex.extract), WithLogger(quietLogger))
	store.Refresh()

	if len(ex.calls) != 0 || backend.saves != 0 {
		t.Errorf("complete legacy record was rebuilt (extracted %d, saved %d)", len(ex.calls), backend.saves)
	}
	rec, _ := store.Get("s1")
	if rec.SchemaVersion != index.CurrentSchemaVersion || rec.WorkItems == nil {
		t.Errorf("legacy record not migrated in memory: %+v", rec)
	}
}

func TestStore_CorruptCacheStartsEmpty(t *testing.T) {
	cachePath := filepath.Join(t.TempDir(), "cache.json")
	if err := os.WriteFile(cachePath, []byte(`{"s1": {"session_id": `), 0644); err != nil {
		t.Fatal(err)
	}
	root := setupProjects(t, map[string]string{"proj/s1.jsonl": sampleLog})

	store := NewStore(NewJSONFileBackend(cachePath), scanner.NewClaudeScanner(root), WithLogger(quietLogger))
	result := store.Refresh()

	if result.Reparsed != 1 {
		t.Errorf("Reparsed = %d, want 1", result.Reparsed)
	}
	if _, err := NewJSONFileBackend(cachePath).Load(); err != nil {
		t.Errorf("cache was not rewritten cleanly: %v", err)
	}
}

func TestStore_SaveFailureIsNotFatal(t *testing.T) {
	root := setupProjects(t, map[string]string{"proj/s1.jsonl": sampleLog})
	backend := &memoryBackend{saveErr: errors.New("disk full")}

	store := NewStore(backend, scanner.NewClaudeScanner(root), WithLogger(quietLogger))
	store.Refresh()

	if _, ok := store.Get("s1"); !ok {
		t.Error("record should stay available in memory after a failed save")
	}
	if !store.Dirty() {
		t.Error("store should remain dirty after a failed save")
	}
}

func TestStore_UnreadableLogKeepsPreviousRecord(t *testing.T) {
	root := setupProjects(t, map[string]string{"proj/s1.jsonl": sampleLog})
	previous := &models.ConversationRecord{SessionID: "s1", FirstMessage: "previous", Mtime: 0}
	backend := &memoryBackend{records: map[string]*models.ConversationRecord{"s1": previous}}

	failing := func(string) (*models.ConversationRecord, error) {
		return nil, errors.New("permission denied")
	}
	store := NewStore(backend, scanner.NewClaudeScanner(root), WithExtractor(failing), WithLogger(quietLogger))
	result := store.Refresh()

	if result.Failed != 1 || len(result.Errors) != 1 {
		t.Errorf("Refresh() = %+v, want one failure", result)
	}
	if rec, _ := store.Get("s1"); rec != previous {
		t.Error("previous record should be left in place")
	}
	if backend.saves != 0 {
		t.Errorf("saves = %d, want 0", backend.saves)
	}
}

func TestStore_RecordsBeforeLoad(t *testing.T) {
	store := NewStore(&memoryBackend{}, scanner.NewClaudeScanner(t.TempDir()), WithLogger(quietLogger))
	if _, err := store.Records(); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("Records() error = %v, want ErrNotLoaded", err)
	}

	store.Load()
	if _, err := store.Records(); err != nil {
		t.Errorf("Records() after Load error = %v", err)
	}
}

func TestMigrate(t *testing.T) {
	tests := []struct {
		name     string
		rec      models.ConversationRecord
		expected bool
	}{
		{"current", models.ConversationRecord{SchemaVersion: index.CurrentSchemaVersion}, true},
		{"legacy complete", models.ConversationRecord{Episodes: []models.Episode{}, TermCounts: map[string]int{}}, true},
		{"legacy without term counts", models.ConversationRecord{Episodes: []models.Episode{}}, false},
		{"legacy without episodes", models.ConversationRecord{TermCounts: map[string]int{}}, false},
		{"unknown intermediate version", models.ConversationRecord{SchemaVersion: 1}, false},
		{"newer than supported", models.ConversationRecord{SchemaVersion: index.CurrentSchemaVersion + 1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := tt.rec
			if got := Migrate(&rec); got != tt.expected {
				t.Errorf("Migrate() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	b, err := Open("", filepath.Join(dir, "cache.json"))
	if err != nil || b.Name() != BackendJSON {
		t.Errorf("Open(\"\") = %v, %v", b, err)
	}

	if _, err := Open("redis", "x"); !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("Open(redis) error = %v, want ErrUnknownBackend", err)
	}
}
