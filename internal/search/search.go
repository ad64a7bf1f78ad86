// Package search ranks cached conversation records against a keyword query.
package search

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jasperwreed/deja/internal/capture"
	"github.com/jasperwreed/deja/internal/models"
	"github.com/jasperwreed/deja/internal/stemmer"
)

// Category weights. Each category counts at most once per record.
const (
	ScoreWorkItems      = 3
	ScoreNotes          = 3
	ScoreFiles          = 2
	ScoreCommands       = 1
	ScoreText           = 1
	ScoreMultiTermBonus = 2
)

// Match sources reported on results.
const (
	SourceTodos    = "todos"
	SourceNotes    = "notes"
	SourceFiles    = "files"
	SourceCommands = "commands"
	SourceText     = "text"
)

const snippetLength = 50

// NotesLookup supplies the notes attached to a session.
type NotesLookup interface {
	NotesFor(sessionID string) []string
}

type Options struct {
	Query   string
	Project string
	After   time.Time
	Before  time.Time
	Skip    int
	Limit   int
	Recent  bool
}

type Result struct {
	SessionID    string
	Record       *models.ConversationRecord
	Score        int
	MatchSource  []string
	MatchedTerms []string
	TextMatched  bool
	// FirstMatch is ":N title" for the first matching episode or
	// "@N snippet" for the first matching user turn.
	FirstMatch string

	sortTime time.Time
}

type Results struct {
	Results []Result
	Total   int
}

type Ranker struct {
	notes NotesLookup
	// Now is the clock used for the recency boost.
	Now func() time.Time
	// TurnHints enables reading log files for "@N" hints when no episode
	// title matched.
	TurnHints bool
}

func NewRanker(notes NotesLookup) *Ranker {
	return &Ranker{notes: notes, Now: time.Now, TurnHints: true}
}

// Rank filters, scores, sorts and paginates records. Total counts every
// scored record before pagination.
func (r *Ranker) Rank(records map[string]*models.ConversationRecord, opts Options) Results {
	terms := strings.Fields(strings.ToLower(opts.Query))
	stems := stemmer.Query(opts.Query)
	now := r.Now()

	var scored []Result
	for id, rec := range records {
		if rec == nil || !MatchesFilters(rec, opts) {
			continue
		}
		res, ok := r.Score(id, rec, terms, stems, now)
		if !ok {
			continue
		}
		scored = append(scored, res)
	}

	sortResults(scored, opts.Recent)

	out := Results{Results: []Result{}, Total: len(scored)}
	start := opts.Skip
	if start < 0 {
		start = 0
	}
	if start > len(scored) {
		start = len(scored)
	}
	end := len(scored)
	if opts.Limit >= 0 && start+opts.Limit < end {
		end = start + opts.Limit
	}

	for _, res := range scored[start:end] {
		if res.FirstMatch == "" && res.TextMatched && r.TurnHints {
			res.FirstMatch = turnHint(res.Record.FilePath, res.MatchedTerms)
		}
		out.Results = append(out.Results, res)
	}
	return out
}

// Score applies the category weights, the multi-term bonus and the recency
// boost. It reports false when no category matched.
func (r *Ranker) Score(sessionID string, rec *models.ConversationRecord, terms []string, stems map[string]struct{}, now time.Time) (Result, bool) {
	res := Result{SessionID: sessionID, Record: rec, MatchSource: []string{}}
	matched := make(map[string]struct{})

	var notes []string
	if r.notes != nil {
		notes = r.notes.NotesFor(sessionID)
	}

	categories := []struct {
		source string
		weight int
		values []string
	}{
		{SourceTodos, ScoreWorkItems, rec.WorkItems},
		{SourceNotes, ScoreNotes, notes},
		{SourceFiles, ScoreFiles, rec.FilesTouched},
		{SourceCommands, ScoreCommands, rec.CommandsRun},
	}
	for _, c := range categories {
		haystack := strings.ToLower(strings.Join(c.values, " "))
		hit := false
		for _, t := range terms {
			if strings.Contains(haystack, t) {
				matched[t] = struct{}{}
				hit = true
			}
		}
		if hit {
			res.Score += c.weight
			res.MatchSource = append(res.MatchSource, c.source)
		}
	}

	for stem := range stems {
		if _, ok := rec.TermCounts[stem]; !ok {
			continue
		}
		res.TextMatched = true
		for _, t := range terms {
			if _, ok := stemmer.Query(t)[stem]; ok {
				matched[t] = struct{}{}
			}
		}
	}
	if res.TextMatched {
		res.Score += ScoreText
		res.MatchSource = append(res.MatchSource, SourceText)
	}

	if res.Score == 0 {
		return Result{}, false
	}

	if n := len(matched); n > 1 {
		res.Score += (n - 1) * ScoreMultiTermBonus
	}

	ts, tsOK := ParseTimestamp(rec.Timestamp)
	if tsOK {
		res.Score += RecencyBoost(ts, now)
		res.sortTime = ts
	} else {
		res.sortTime = MtimeTime(rec.Mtime)
	}

	res.MatchedTerms = make([]string, 0, len(matched))
	for t := range matched {
		res.MatchedTerms = append(res.MatchedTerms, t)
	}
	sort.Strings(res.MatchedTerms)

	res.FirstMatch = episodeHint(rec.Episodes, res.MatchedTerms)
	return res, true
}

// RecencyBoost is +2 under a day old, +1 under a week, else 0.
func RecencyBoost(ts, now time.Time) int {
	age := now.Sub(ts)
	switch {
	case age < 24*time.Hour:
		return 2
	case age < 7*24*time.Hour:
		return 1
	default:
		return 0
	}
}

// ParseTimestamp accepts RFC 3339 timestamps with or without a zone; zoneless
// values are taken as UTC.
func ParseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	layouts := []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// MatchesFilters applies the project substring and after <= ts < before.
// Records without a parseable timestamp pass the time filters.
func MatchesFilters(rec *models.ConversationRecord, opts Options) bool {
	if opts.Project != "" && !strings.Contains(rec.Project, opts.Project) {
		return false
	}
	if opts.After.IsZero() && opts.Before.IsZero() {
		return true
	}
	ts, ok := ParseTimestamp(rec.Timestamp)
	if !ok {
		return true
	}
	if !opts.After.IsZero() && ts.Before(opts.After) {
		return false
	}
	if !opts.Before.IsZero() && !ts.Before(opts.Before) {
		return false
	}
	return true
}

func sortResults(results []Result, recentOnly bool) {
	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if !recentOnly && a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.sortTime.Equal(b.sortTime) {
			return a.sortTime.After(b.sortTime)
		}
		return a.SessionID < b.SessionID
	})
}

// MtimeTime converts a cached fractional-second mtime to a time.
func MtimeTime(mtime float64) time.Time {
	sec := int64(mtime)
	return time.Unix(sec, int64((mtime-float64(sec))*float64(time.Second))).UTC()
}

func episodeHint(episodes []models.Episode, terms []string) string {
	for i, ep := range episodes {
		title := strings.ToLower(ep.Title)
		for _, t := range terms {
			if strings.Contains(title, t) {
				return ":" + strconv.Itoa(i+1) + " " + ep.Title
			}
		}
	}
	return ""
}

// turnHint reads the log and points at the first message containing a
// matched term, labelled with its user turn.
func turnHint(path string, terms []string) string {
	if path == "" || len(terms) == 0 {
		return ""
	}
	entries, err := capture.ParseFile(path)
	if err != nil {
		return ""
	}
	for _, m := range capture.Transcript(entries) {
		content := strings.ToLower(m.Content)
		for _, t := range terms {
			if strings.Contains(content, t) {
				return "@" + strconv.Itoa(m.UserTurn) + " " + snippet(m.Content)
			}
		}
	}
	return ""
}

func snippet(s string) string {
	if short := capture.Truncate(s, snippetLength); short != s {
		return short + "..."
	}
	return s
}
