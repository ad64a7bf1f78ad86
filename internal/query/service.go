// Package query implements the operations behind the CLI, the MCP tools and
// the browser. Each returns a one-line status and a payload meant for JSON;
// failures are reported inside the payload.
package query

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/jasperwreed/deja/internal/models"
	"github.com/jasperwreed/deja/internal/scanner"
	"github.com/jasperwreed/deja/internal/search"
	"github.com/jasperwreed/deja/internal/storage"
)

// Notes is the note store the service reads and appends to.
type Notes interface {
	NotesFor(sessionID string) []string
	Add(sessionID, note string) (int, error)
}

// Service runs the operations over one cache and notes store. It is safe
// for concurrent use; operations run one at a time.
type Service struct {
	mu      sync.Mutex
	store   *storage.Store
	notes   Notes
	scanner scanner.Scanner
	ranker  *search.Ranker
	logger  *slog.Logger
	// Now is the clock used for relative times and recency.
	Now func() time.Time
}

func NewService(store *storage.Store, notes Notes, sc scanner.Scanner, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		store:   store,
		notes:   notes,
		scanner: sc,
		ranker:  search.NewRanker(notes),
		logger:  logger,
		Now:     time.Now,
	}
	s.ranker.Now = func() time.Time { return s.Now() }
	return s
}

// records refreshes the cache and returns the live record map.
func (s *Service) records() map[string]*models.ConversationRecord {
	s.store.Refresh()
	records, err := s.store.Records()
	if err != nil {
		s.logger.Warn("cache unavailable", "error", err)
		return map[string]*models.ConversationRecord{}
	}
	return records
}

// resolve looks up a possibly partial id. When it fails, line and status
// describe why; summaryLen clips candidate summaries.
func (s *Service) resolve(records map[string]*models.ConversationRecord, partial string, summaryLen int) (id, line string, status Status, ok bool) {
	switch r := Resolve(records, partial).(type) {
	case Found:
		return r.SessionID, "", Status{Success: true}, true
	case Ambiguous:
		now := s.Now()
		matches := make([]Match, 0, len(r.Candidates))
		for _, cand := range r.Candidates {
			rec := records[cand]
			matches = append(matches, Match{
				SessionID: cand,
				When:      ShortTimestamp(rec.Timestamp, now),
				Project:   ShortProject(rec.Project),
				Summary:   candidateSummary(rec, summaryLen),
			})
		}
		line = fmt.Sprintf("%d sessions match %q", r.Total, partial)
		return "", line, Status{Matches: matches, MatchCount: r.Total}, false
	case NotFound:
		return "", "Session not found: " + partial, Status{Error: r.Message}, false
	}
	return "", "Session not found: " + partial, Status{Error: "Session not found."}, false
}

// timeBound parses an optional filter timestamp. Invalid input is logged
// and the filter dropped.
func (s *Service) timeBound(name, value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, ok := search.ParseTimestamp(value)
	if !ok {
		s.logger.Warn("ignoring invalid time filter", "filter", name, "value", value)
		return time.Time{}
	}
	return t
}

// Index refreshes the cache and reports what the scan did.
func (s *Service) Index() (string, IndexPayload) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := s.store.Refresh()
	records, err := s.store.Records()
	if err != nil {
		s.logger.Warn("cache unavailable", "error", err)
	}

	payload := IndexPayload{
		Success:       result.Failed == 0 && len(result.Errors) == 0,
		SessionsFound: result.SessionsFound,
		Reparsed:      result.Reparsed,
		Failed:        result.Failed,
		Cached:        len(records),
		Errors:        result.Errors,
	}
	line := fmt.Sprintf("Indexed %d sessions: %d re-extracted, %d failed, %d cached",
		result.SessionsFound, result.Reparsed, result.Failed, len(records))
	return line, payload
}

// Note attaches text to a session.
func (s *Service) Note(sessionID, text string) (string, NotePayload) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.records()
	id, line, status, ok := s.resolve(records, sessionID, 40)
	if !ok {
		return line, NotePayload{Status: status}
	}

	total, err := s.notes.Add(id, text)
	if err != nil {
		s.logger.Warn("could not save note", "session", id, "error", err)
	}
	return fmt.Sprintf("Added note to %s (%d total notes)", clip(id, 8), total), NotePayload{
		Status:     Status{Success: true},
		SessionID:  id,
		Note:       text,
		TotalNotes: total,
	}
}

// Projects lists the project directories under the projects root.
func (s *Service) Projects() (string, ProjectsPayload) {
	s.mu.Lock()
	defer s.mu.Unlock()

	projects, err := s.scanner.Projects()
	if err != nil {
		s.logger.Warn("could not list projects", "root", s.scanner.Root(), "error", err)
		projects = []string{}
	}
	sort.Strings(projects)
	return fmt.Sprintf("%d projects", len(projects)), ProjectsPayload{Projects: projects}
}
