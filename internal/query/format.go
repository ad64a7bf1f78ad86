package query

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jasperwreed/deja/internal/capture"
	"github.com/jasperwreed/deja/internal/models"
	"github.com/jasperwreed/deja/internal/scanner"
	"github.com/jasperwreed/deja/internal/search"
)

var recentMagnitudes = []humanize.RelTimeMagnitude{
	{D: time.Hour, Format: "now", DivBy: time.Hour},
	{D: humanize.Day, Format: "%dh %s", DivBy: time.Hour},
	{D: 2 * humanize.Day, Format: "yesterday", DivBy: humanize.Day},
	{D: humanize.Week, Format: "%dd %s", DivBy: humanize.Day},
}

// ShortTime renders t relative to now for the past week ("now", "3h ago",
// "yesterday", "4d ago") and as "Jan 02" after that.
func ShortTime(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	if now.Sub(t) >= humanize.Week {
		return t.Format("Jan 02")
	}
	return humanize.CustomRelTime(t, now, "ago", "from now", recentMagnitudes)
}

// ShortTimestamp is ShortTime for an ISO-8601 string; unparseable input
// renders as "".
func ShortTimestamp(ts string, now time.Time) string {
	t, ok := search.ParseTimestamp(ts)
	if !ok {
		return ""
	}
	return ShortTime(t, now)
}

// ShortMtime is ShortTime for a cached fractional-second mtime.
func ShortMtime(mtime float64, now time.Time) string {
	if mtime == 0 {
		return ""
	}
	return ShortTime(search.MtimeTime(mtime), now)
}

// ShortProject trims an encoded project directory to its last segment.
func ShortProject(project string) string {
	return scanner.ShortProjectName(project)
}

func clip(s string, n int) string {
	return capture.Truncate(s, n)
}

// arcSummary prefers completed todos and falls back to the user message arc.
func arcSummary(rec *models.ConversationRecord, turnLabel func(int) string, arcLen, fallbackLen int) string {
	if completed := rec.FinalTodos.Completed; len(completed) > 0 {
		if len(completed) > 3 {
			completed = completed[:3]
		}
		return strings.Join(completed, ", ")
	}

	arc := rec.UserMessageArc
	switch len(arc) {
	case 1:
		return fmt.Sprintf("[%s] %s", turnLabel(rec.UserMessageCount), clip(arc[0], fallbackLen))
	case 2:
		return fmt.Sprintf("[%s] %s... → %s", turnLabel(rec.UserMessageCount), clip(arc[0], arcLen), clip(arc[1], arcLen))
	default:
		return clip(rec.FirstMessage, fallbackLen)
	}
}

func shortTurns(n int) string {
	return fmt.Sprintf("%dt", n)
}

func longTurns(n int) string {
	if n == 1 {
		return "1 turn"
	}
	return humanize.Comma(int64(n)) + " turns"
}

// candidateSummary is the one-line label used when listing ambiguous ids.
func candidateSummary(rec *models.ConversationRecord, n int) string {
	if len(rec.FinalTodos.Completed) > 0 {
		return clip(rec.FinalTodos.Completed[0], n)
	}
	return clip(rec.FirstMessage, n)
}

func firstN(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}
