package storage

// Database schema queries
const (
	queryCreateRecordsTable = `CREATE TABLE IF NOT EXISTS records (
		session_id TEXT PRIMARY KEY,
		schema_version INTEGER NOT NULL DEFAULT 0,
		project TEXT,
		timestamp TEXT,
		mtime REAL NOT NULL DEFAULT 0,
		file_path TEXT,
		record_json TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`

	queryCreateIndexRecordsProject = `CREATE INDEX IF NOT EXISTS idx_records_project ON records(project)`
	queryCreateIndexRecordsMtime   = `CREATE INDEX IF NOT EXISTS idx_records_mtime ON records(mtime)`

	queryDeleteAllRecords = `DELETE FROM records`

	queryInsertRecord = `INSERT INTO records (session_id, schema_version, project, timestamp, mtime, file_path, record_json, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	querySelectRecords = `SELECT session_id, record_json FROM records`
)
