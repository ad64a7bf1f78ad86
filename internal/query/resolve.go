package query

import (
	"sort"
	"strings"

	"github.com/jasperwreed/deja/internal/models"
)

const maxCandidates = 10

// Resolution is the outcome of resolving a possibly partial session id:
// Found, Ambiguous or NotFound.
type Resolution interface {
	resolution()
}

type Found struct {
	SessionID string
}

// Ambiguous lists the most recent candidates first, capped at ten. Total
// counts every match.
type Ambiguous struct {
	Candidates []string
	Total      int
}

type NotFound struct {
	Message string
}

func (Found) resolution()     {}
func (Ambiguous) resolution() {}
func (NotFound) resolution()  {}

// Resolve matches partial exactly first, then as a unique prefix.
func Resolve(records map[string]*models.ConversationRecord, partial string) Resolution {
	if _, ok := records[partial]; ok {
		return Found{SessionID: partial}
	}

	var matches []string
	if partial != "" {
		for id := range records {
			if strings.HasPrefix(id, partial) {
				matches = append(matches, id)
			}
		}
	}

	switch len(matches) {
	case 0:
		return NotFound{Message: `Session "` + partial + `" not found.`}
	case 1:
		return Found{SessionID: matches[0]}
	}

	sort.Slice(matches, func(i, j int) bool {
		a, b := records[matches[i]].Timestamp, records[matches[j]].Timestamp
		if a != b {
			return a > b
		}
		return matches[i] < matches[j]
	})
	total := len(matches)
	if total > maxCandidates {
		matches = matches[:maxCandidates]
	}
	return Ambiguous{Candidates: matches, Total: total}
}
