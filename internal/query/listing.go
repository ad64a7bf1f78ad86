package query

import (
	"fmt"
	"sort"

	"github.com/jasperwreed/deja/internal/models"
	"github.com/jasperwreed/deja/internal/search"
)

const (
	DefaultSearchLimit = 5
	DefaultRecentLimit = 10
)

type SearchOptions struct {
	Query   string
	Project string
	After   string
	Before  string
	Skip    int
	Limit   int
	// Recent sorts matches by time only.
	Recent bool
}

type RecentOptions struct {
	Project string
	After   string
	Before  string
	Skip    int
	Limit   int
}

// Search ranks cached sessions against a keyword query.
func (s *Service) Search(opts SearchOptions) (string, SearchPayload) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.records()
	if opts.Limit <= 0 {
		opts.Limit = DefaultSearchLimit
	}

	ranked := s.ranker.Rank(records, search.Options{
		Query:   opts.Query,
		Project: opts.Project,
		After:   s.timeBound("after", opts.After),
		Before:  s.timeBound("before", opts.Before),
		Skip:    opts.Skip,
		Limit:   opts.Limit,
		Recent:  opts.Recent,
	})

	now := s.Now()
	payload := SearchPayload{Results: []SearchResult{}, TotalMatches: ranked.Total, Query: opts.Query}
	for _, r := range ranked.Results {
		payload.Results = append(payload.Results, SearchResult{
			SessionID:   r.SessionID,
			Score:       r.Score,
			MatchSource: r.MatchSource,
			Summary:     arcSummary(r.Record, shortTurns, 60, 100),
			Project:     ShortProject(r.Record.Project),
			When:        ShortMtime(r.Record.Mtime, now),
			Turns:       r.Record.UserMessageCount,
			FirstMatch:  r.FirstMatch,
		})
	}

	line := fmt.Sprintf("Found %d sessions matching %q. %s", ranked.Total, opts.Query, showing(opts.Skip, len(payload.Results), "Showing top %d."))
	return line, payload
}

// Recent lists sessions by log modification time, newest first.
func (s *Service) Recent(opts RecentOptions) (string, RecentPayload) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.records()
	if opts.Limit <= 0 {
		opts.Limit = DefaultRecentLimit
	}
	filter := search.Options{
		Project: opts.Project,
		After:   s.timeBound("after", opts.After),
		Before:  s.timeBound("before", opts.Before),
	}

	ids := make([]string, 0, len(records))
	projects := make(map[string]struct{})
	for id, rec := range records {
		if rec == nil || !search.MatchesFilters(rec, filter) {
			continue
		}
		ids = append(ids, id)
		projects[rec.Project] = struct{}{}
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := records[ids[i]].Mtime, records[ids[j]].Mtime
		if a != b {
			return a > b
		}
		return ids[i] < ids[j]
	})

	total := len(ids)
	page := paginate(ids, opts.Skip, opts.Limit)

	now := s.Now()
	payload := RecentPayload{Sessions: make([]RecentSession, 0, len(page)), Total: total}
	for _, id := range page {
		rec := records[id]
		item := RecentSession{
			SessionID:   id,
			Project:     ShortProject(rec.Project),
			When:        ShortMtime(rec.Mtime, now),
			Summary:     arcSummary(rec, longTurns, 60, 120),
			Turns:       rec.UserMessageCount,
			Completed:   rec.FinalTodos.Completed,
			InProgress:  rec.FinalTodos.InProgress,
			Pending:     rec.FinalTodos.Pending,
			HasEpisodes: len(rec.Episodes) > 0,
			WorkDone:    workDone(rec, 5, 3, 8),
			HasNotes:    s.notes != nil && len(s.notes.NotesFor(id)) > 0,
		}
		payload.Sessions = append(payload.Sessions, item)
	}

	line := fmt.Sprintf("%d conversations across %d projects. %s", total, len(projects), showing(opts.Skip, len(page), "Showing %d most recent."))
	return line, payload
}

// Episodes summarizes one session: its episodes, todos, notes and work.
func (s *Service) Episodes(sessionID string) (string, EpisodesPayload) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.records()
	id, line, status, ok := s.resolve(records, sessionID, 60)
	if !ok {
		if len(status.Matches) > 0 {
			line += ". Be more specific or use full ID."
		}
		return line, EpisodesPayload{Status: status}
	}

	rec := records[id]
	now := s.Now()
	payload := EpisodesPayload{
		Status:     status,
		SessionID:  id,
		Project:    ShortProject(rec.Project),
		When:       ShortTimestamp(rec.Timestamp, now),
		Completed:  rec.FinalTodos.Completed,
		InProgress: rec.FinalTodos.InProgress,
		Pending:    rec.FinalTodos.Pending,
		WorkDone:   workDone(rec, 10, 5, 15),
		Turns:      rec.UserMessageCount,
	}
	if s.notes != nil {
		payload.Notes = s.notes.NotesFor(id)
	}
	for i, ep := range rec.Episodes {
		payload.Episodes = append(payload.Episodes, EpisodeSummary{
			N:        i + 1,
			Title:    ep.Title,
			Messages: ep.MessageCount,
			Range:    ep.MessageRange,
		})
	}

	line = fmt.Sprintf("Session %s · %s · %s · %s", clip(id, 8), longTurns(rec.UserMessageCount), payload.Project, payload.When)
	return line, payload
}

// workDone lists touched files then commands, capped at limit.
func workDone(rec *models.ConversationRecord, files, commands, limit int) []string {
	var out []string
	out = append(out, firstN(rec.FilesTouched, files)...)
	out = append(out, firstN(rec.CommandsRun, commands)...)
	return firstN(out, limit)
}

func paginate(ids []string, skip, limit int) []string {
	if skip < 0 {
		skip = 0
	}
	if skip > len(ids) {
		skip = len(ids)
	}
	end := len(ids)
	if limit >= 0 && skip+limit < end {
		end = skip + limit
	}
	return ids[skip:end]
}

// showing describes the page; firstPage formats the count when skip is 0.
func showing(skip, n int, firstPage string) string {
	if skip > 0 {
		return fmt.Sprintf("Showing %d-%d.", skip+1, skip+n)
	}
	return fmt.Sprintf(firstPage, n)
}
