package storage

import (
	"github.com/jasperwreed/deja/internal/index"
	"github.com/jasperwreed/deja/internal/models"
)

// migrations upgrade a record from the keyed version to a newer one. A step
// returns false when the record has to be re-extracted instead.
var migrations = map[int]func(*models.ConversationRecord) bool{
	0: migrateUnversioned,
}

// Migrate brings rec up to index.CurrentSchemaVersion in place. It reports
// false when rec is stale and must be rebuilt from its log.
func Migrate(rec *models.ConversationRecord) bool {
	for rec.SchemaVersion < index.CurrentSchemaVersion {
		step, ok := migrations[rec.SchemaVersion]
		if !ok || !step(rec) {
			return false
		}
	}
	return rec.SchemaVersion == index.CurrentSchemaVersion
}

// IsStale reports whether rec lacks a field every current extraction
// produces. Only records written before versioning rely on it.
func IsStale(rec *models.ConversationRecord) bool {
	return rec.TermCounts == nil || rec.Episodes == nil
}

// migrateUnversioned accepts pre-versioned records that already carry
// term_counts and episodes.
func migrateUnversioned(rec *models.ConversationRecord) bool {
	if IsStale(rec) {
		return false
	}
	if rec.WorkItems == nil {
		rec.WorkItems = []string{}
	}
	if rec.UserMessageArc == nil {
		rec.UserMessageArc = []string{}
	}
	if rec.FinalTodos.Completed == nil {
		rec.FinalTodos.Completed = []string{}
	}
	if rec.FinalTodos.InProgress == nil {
		rec.FinalTodos.InProgress = []string{}
	}
	if rec.FinalTodos.Pending == nil {
		rec.FinalTodos.Pending = []string{}
	}
	rec.SchemaVersion = index.CurrentSchemaVersion
	return true
}
