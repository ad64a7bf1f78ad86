package storage

import (
	"fmt"
	"time"
)

// Config tunes the SQLite cache database, which has a single connection.
type Config struct {
	Path        string
	BusyTimeout time.Duration
	CacheSizeKB int
	JournalMode string
}

func DefaultConfig() *Config {
	return &Config{
		BusyTimeout: 5 * time.Second,
		CacheSizeKB: 8000,
		JournalMode: "WAL",
	}
}

func (c *Config) pragmas() []string {
	return []string{
		fmt.Sprintf("PRAGMA journal_mode = %s", c.JournalMode),
		"PRAGMA synchronous = NORMAL",
		fmt.Sprintf("PRAGMA busy_timeout = %d", c.BusyTimeout.Milliseconds()),
		fmt.Sprintf("PRAGMA cache_size = -%d", c.CacheSizeKB),
	}
}
