package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jasperwreed/deja/internal/models"
	_ "modernc.org/sqlite"
)

// SQLiteBackend keeps one row per record, with the record itself stored as
// JSON next to a few columns useful for inspection.
type SQLiteBackend struct {
	db     *sql.DB
	dbPath string
}

func NewSQLiteBackend(dbPath string) (*SQLiteBackend, error) {
	if dbPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dbPath = filepath.Join(homeDir, ".claude", "memory-cache.db")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	config := DefaultConfig()
	config.Path = dbPath

	db, err := sql.Open("sqlite", config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	backend := &SQLiteBackend{db: db, dbPath: dbPath}

	if err := backend.initializeDB(config); err != nil {
		backend.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := backend.createTables(); err != nil {
		backend.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return backend, nil
}

func (s *SQLiteBackend) initializeDB(config *Config) error {
	for _, pragma := range config.pragmas() {
		if _, err := s.db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to set %s: %w", pragma, err)
		}
	}
	return nil
}

func (s *SQLiteBackend) createTables() error {
	queries := []string{
		queryCreateRecordsTable,
		queryCreateIndexRecordsProject,
		queryCreateIndexRecordsMtime,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

func (s *SQLiteBackend) Name() string {
	return "sqlite"
}

func (s *SQLiteBackend) Path() string {
	return s.dbPath
}

// Load reads every row. Rows whose JSON no longer decodes are left out so
// the store re-extracts them.
func (s *SQLiteBackend) Load() (map[string]*models.ConversationRecord, error) {
	rows, err := s.db.Query(querySelectRecords)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	records := make(map[string]*models.ConversationRecord)
	for rows.Next() {
		var sessionID, raw string
		if err := rows.Scan(&sessionID, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}

		var rec models.ConversationRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			continue
		}
		records[sessionID] = &rec
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}
	return records, nil
}

// Save replaces the table contents in one transaction.
func (s *SQLiteBackend) Save(records map[string]*models.ConversationRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(queryDeleteAllRecords); err != nil {
		return fmt.Errorf("failed to clear records: %w", err)
	}

	stmt, err := tx.Prepare(queryInsertRecord)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for sessionID, rec := range records {
		if rec == nil {
			continue
		}
		raw, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to encode record %s: %w", sessionID, err)
		}
		if _, err := stmt.Exec(sessionID, rec.SchemaVersion, rec.Project, rec.Timestamp,
			rec.Mtime, rec.FilePath, string(raw), now); err != nil {
			return fmt.Errorf("failed to insert record %s: %w", sessionID, err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteBackend) Close() error {
	if _, err := s.db.Exec("PRAGMA optimize"); err != nil {
		s.db.Close()
		return fmt.Errorf("failed to optimize: %w", err)
	}
	return s.db.Close()
}
