package query

import "github.com/jasperwreed/deja/internal/models"

// Match is one candidate listed when a partial id is ambiguous.
type Match struct {
	SessionID string `json:"sessionId"`
	When      string `json:"when"`
	Project   string `json:"project"`
	Summary   string `json:"summary"`
}

// Status carries the outcome of operations that address a single session.
type Status struct {
	Success    bool    `json:"success"`
	Error      string  `json:"error,omitempty"`
	Matches    []Match `json:"matches,omitempty"`
	MatchCount int     `json:"matchCount,omitempty"`
}

// Bounds names the valid range when a navigation target is out of range.
type Bounds struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

type SearchResult struct {
	SessionID   string   `json:"sessionId"`
	Score       int      `json:"score"`
	MatchSource []string `json:"matchSource"`
	Summary     string   `json:"summary"`
	Project     string   `json:"project"`
	When        string   `json:"when"`
	Turns       int      `json:"turns"`
	FirstMatch  string   `json:"firstMatch,omitempty"`
}

type SearchPayload struct {
	Results      []SearchResult `json:"results"`
	TotalMatches int            `json:"totalMatches"`
	Query        string         `json:"query"`
}

type RecentSession struct {
	SessionID   string   `json:"sessionId"`
	Project     string   `json:"project"`
	When        string   `json:"when"`
	Summary     string   `json:"summary"`
	Turns       int      `json:"turns"`
	Completed   []string `json:"completed,omitempty"`
	InProgress  []string `json:"inProgress,omitempty"`
	Pending     []string `json:"pending,omitempty"`
	HasEpisodes bool     `json:"hasEpisodes,omitempty"`
	WorkDone    []string `json:"workDone,omitempty"`
	HasNotes    bool     `json:"hasNotes,omitempty"`
}

type RecentPayload struct {
	Sessions []RecentSession `json:"sessions"`
	Total    int             `json:"total"`
}

type EpisodeSummary struct {
	N        int    `json:"n"`
	Title    string `json:"title"`
	Messages int    `json:"messages"`
	Range    [2]int `json:"range"`
}

type EpisodesPayload struct {
	Status
	SessionID  string           `json:"sessionId,omitempty"`
	Project    string           `json:"project,omitempty"`
	When       string           `json:"when,omitempty"`
	Episodes   []EpisodeSummary `json:"episodes,omitempty"`
	Completed  []string         `json:"completed,omitempty"`
	InProgress []string         `json:"inProgress,omitempty"`
	Pending    []string         `json:"pending,omitempty"`
	Notes      []string         `json:"notes,omitempty"`
	WorkDone   []string         `json:"workDone,omitempty"`
	Turns      int              `json:"turns,omitempty"`
}

type ReadPayload struct {
	Status
	SessionID     string           `json:"sessionId,omitempty"`
	Messages      []models.Message `json:"messages,omitempty"`
	TotalMessages int              `json:"totalMessages,omitempty"`
	Episode       int              `json:"episode,omitempty"`
	Title         string           `json:"title,omitempty"`
	Turn          int              `json:"turn,omitempty"`
	Turns         int              `json:"turns,omitempty"`
	Valid         *Bounds          `json:"valid,omitempty"`
	Hint          string           `json:"hint,omitempty"`
}

type NotePayload struct {
	Status
	SessionID  string `json:"sessionId,omitempty"`
	Note       string `json:"note,omitempty"`
	TotalNotes int    `json:"totalNotes,omitempty"`
}

type ProjectsPayload struct {
	Projects []string `json:"projects"`
}

type IndexPayload struct {
	Success       bool     `json:"success"`
	SessionsFound int      `json:"sessionsFound"`
	Reparsed      int      `json:"reparsed"`
	Failed        int      `json:"failed"`
	Cached        int      `json:"cached"`
	Errors        []string `json:"errors,omitempty"`
}
