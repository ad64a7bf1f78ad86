// Package index builds conversation records from session log files.
package index

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jasperwreed/deja/internal/capture"
	"github.com/jasperwreed/deja/internal/episodes"
	"github.com/jasperwreed/deja/internal/models"
	"github.com/jasperwreed/deja/internal/stemmer"
)

// CurrentSchemaVersion is stamped on every record Build produces. Bump it
// whenever a change to extraction must invalidate cached records.
const CurrentSchemaVersion = 3

const (
	userMessageLimit = 200
	unknownSession   = "unknown"
	noMessage        = "No message"
)

// Build parses the log at path and returns a complete record. Mtime and
// FilePath are left for the caller, which knows the file's stat.
func Build(path string) (*models.ConversationRecord, error) {
	entries, err := capture.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to extract %s: %w", path, err)
	}

	rec := FromEntries(entries)
	rec.Project = filepath.Base(filepath.Dir(path))
	rec.FilePath = path
	return rec, nil
}

// FromEntries composes a record from already parsed entries.
func FromEntries(entries []capture.Entry) *models.ConversationRecord {
	var (
		tracker      episodes.Tracker
		messageIndex int
		sessionID    string
		timestamp    string
		userMessages []string
	)

	for _, e := range entries {
		if sessionID == "" && e.SessionID != "" {
			sessionID = e.SessionID
		}

		if text, ok := capture.UserTurnText(e); ok {
			userMessages = append(userMessages, capture.Truncate(text, userMessageLimit))
			if timestamp == "" {
				timestamp = e.Timestamp
			}
		}

		if e.IsMessage() {
			messageIndex++
		}

		for _, use := range e.ToolUses() {
			if op, ok := episodes.OpFromToolUse(use); ok {
				tracker.Apply(op, messageIndex, e.Timestamp)
			}
		}

		if e.Type == capture.TypeUser && len(e.Todos) > 0 {
			if op, ok := episodes.OpFromEntryTodos(e.Todos); ok {
				tracker.Apply(op, messageIndex, e.Timestamp)
			}
		}
	}

	snapshots := tracker.Snapshots()
	final := episodes.Final(snapshots)
	eps := episodes.Segment(snapshots)
	workItems := episodes.WorkItems(final, eps)
	signals := capture.ExtractSignals(entries)

	searchable := strings.Join([]string{
		capture.FullText(entries),
		strings.Join(workItems, " "),
		strings.Join(episodes.Descriptions(snapshots), " "),
		strings.Join(signals.FilesTouched, " "),
		strings.Join(signals.CommandsRun, " "),
	}, " ")

	rec := &models.ConversationRecord{
		SchemaVersion:    CurrentSchemaVersion,
		SessionID:        sessionID,
		FirstMessage:     noMessage,
		UserMessageArc:   arc(userMessages),
		UserMessageCount: len(userMessages),
		Timestamp:        timestamp,
		FinalTodos:       final,
		WorkItems:        workItems,
		Episodes:         eps,
		MessageCount:     messageIndex,
		FilesTouched:     signals.FilesTouched,
		CommandsRun:      signals.CommandsRun,
		URLsFetched:      signals.URLsFetched,
		TermCounts:       stemmer.Counts(searchable),
	}
	if rec.SessionID == "" {
		rec.SessionID = unknownSession
	}
	if len(userMessages) > 0 {
		rec.FirstMessage = userMessages[0]
	}
	return rec
}

// arc keeps the first and, when there is more than one, the last message.
func arc(messages []string) []string {
	switch len(messages) {
	case 0:
		return []string{}
	case 1:
		return []string{messages[0]}
	default:
		return []string{messages[0], messages[len(messages)-1]}
	}
}
