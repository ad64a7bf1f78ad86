package query

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jasperwreed/deja/internal/capture"
	"github.com/jasperwreed/deja/internal/models"
	"github.com/jasperwreed/deja/internal/scanner"
)

const (
	assistantPreviewLength = 500
	turnContext            = 2
	defaultReadCount       = 50
)

// ReadOptions selects what part of a session to show. At most one of
// Episode, Turn, Message, the range and Last is used, in that order; with
// none set the first 50 messages are shown. The Has flags mark which target
// was given, so a zero target is reported as out of range rather than
// ignored. Episode and Turn are 1-based; Start, End and Message are message
// indexes.
type ReadOptions struct {
	Episode    int
	HasEpisode bool
	Turn       int
	HasTurn    bool
	Message    int
	HasMessage bool
	Start      int
	End        int
	HasRange   bool
	Last       int
	// Expand widens the selection by this many messages (or turns for
	// turn navigation) on each side.
	Expand int
	// Full disables truncation of assistant text.
	Full bool
}

// ParseTarget reads the shorthand navigation forms ":N" (episode), "@N"
// (turn), "N" (message) and "N-M" (range) into opts.
func ParseTarget(target string, opts *ReadOptions) error {
	target = strings.TrimSpace(target)
	if target == "" {
		return nil
	}

	switch {
	case strings.HasPrefix(target, ":"):
		n, err := strconv.Atoi(target[1:])
		if err != nil {
			return fmt.Errorf("invalid episode %q: %w", target, err)
		}
		opts.Episode, opts.HasEpisode = n, true
	case strings.HasPrefix(target, "@"):
		n, err := strconv.Atoi(target[1:])
		if err != nil {
			return fmt.Errorf("invalid turn %q: %w", target, err)
		}
		opts.Turn, opts.HasTurn = n, true
	case strings.Contains(target, "-"):
		lo, hi, _ := strings.Cut(target, "-")
		start, err := strconv.Atoi(lo)
		if err != nil {
			return fmt.Errorf("invalid range %q: %w", target, err)
		}
		end, err := strconv.Atoi(hi)
		if err != nil {
			return fmt.Errorf("invalid range %q: %w", target, err)
		}
		opts.Start, opts.End, opts.HasRange = start, end, true
	default:
		n, err := strconv.Atoi(target)
		if err != nil {
			return fmt.Errorf("invalid message %q: %w", target, err)
		}
		opts.Message, opts.HasMessage = n, true
	}
	return nil
}

// Read loads a session log and returns the selected messages.
func (s *Service) Read(sessionID string, opts ReadOptions) (string, ReadPayload) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.records()
	id, line, status, ok := s.resolve(records, sessionID, 40)
	if !ok {
		return line, ReadPayload{Status: status}
	}

	rec := records[id]
	if rec.FilePath == "" || !scanner.FileExists(rec.FilePath) {
		return "Session file not found on disk", ReadPayload{
			Status:    Status{Error: "Session file not found on disk"},
			SessionID: id,
		}
	}

	entries, err := capture.ParseFile(rec.FilePath)
	if err != nil {
		s.logger.Warn("could not read session log", "path", rec.FilePath, "error", err)
		return "Could not read session file", ReadPayload{
			Status:    Status{Error: err.Error()},
			SessionID: id,
		}
	}

	transcript := capture.Transcript(entries)
	totalMessages := lastIndex(transcript)
	totalTurns := lastTurn(transcript)

	payload := ReadPayload{
		Status:        Status{Success: true},
		SessionID:     id,
		TotalMessages: totalMessages,
	}

	full := opts.Full
	var selected []models.Message
	switch {
	case opts.HasEpisode:
		if len(rec.Episodes) == 0 {
			return "Session has no episodes", ReadPayload{
				Status:    Status{Error: "Session has no episodes"},
				SessionID: id,
				Hint:      "turn",
				Turns:     totalTurns,
			}
		}
		if opts.Episode < 1 || opts.Episode > len(rec.Episodes) {
			msg := fmt.Sprintf("Episode %d not found. Available: 1-%d", opts.Episode, len(rec.Episodes))
			return msg, ReadPayload{
				Status:    Status{Error: msg},
				SessionID: id,
				Valid:     &Bounds{Min: 1, Max: len(rec.Episodes)},
			}
		}
		ep := rec.Episodes[opts.Episode-1]
		lo, hi := ep.MessageRange[0]-opts.Expand, ep.MessageRange[1]+opts.Expand
		selected = byIndex(transcript, func(m models.Message) bool { return m.Index > lo && m.Index <= hi })
		payload.Episode = opts.Episode
		payload.Title = ep.Title
		line = fmt.Sprintf("Episode %d: %s · %d messages", opts.Episode, ep.Title, len(selected))

	case opts.HasTurn:
		if opts.Turn < 1 || opts.Turn > totalTurns {
			msg := fmt.Sprintf("Turn %d out of range. Session has %d turns.", opts.Turn, totalTurns)
			return msg, ReadPayload{
				Status:    Status{Error: msg},
				SessionID: id,
				Valid:     &Bounds{Min: 1, Max: totalTurns},
			}
		}
		ctx := turnContext + opts.Expand
		selected = byIndex(transcript, func(m models.Message) bool {
			return m.UserTurn >= opts.Turn-ctx && m.UserTurn <= opts.Turn+ctx
		})
		payload.Turn = opts.Turn
		payload.Turns = totalTurns
		line = fmt.Sprintf("Turn %d of %d (showing context)", opts.Turn, totalTurns)

	case opts.HasMessage:
		lo, hi := opts.Message-opts.Expand, opts.Message+opts.Expand
		selected = byIndex(transcript, func(m models.Message) bool { return m.Index >= lo && m.Index <= hi })
		if !containsIndex(selected, opts.Message) {
			msg := fmt.Sprintf("Message %d not found. Session has %d messages.", opts.Message, totalMessages)
			return msg, ReadPayload{
				Status:    Status{Error: msg},
				SessionID: id,
				Valid:     &Bounds{Min: 1, Max: totalMessages},
			}
		}
		line = fmt.Sprintf("Message %d", opts.Message)
		full = true

	case opts.HasRange:
		if opts.Start > opts.End || opts.End < 1 || opts.Start > totalMessages {
			msg := fmt.Sprintf("Range %d-%d out of bounds. Session has %d messages.", opts.Start, opts.End, totalMessages)
			return msg, ReadPayload{
				Status:    Status{Error: msg},
				SessionID: id,
				Valid:     &Bounds{Min: 1, Max: totalMessages},
			}
		}
		lo, hi := opts.Start-opts.Expand, opts.End+opts.Expand
		selected = byIndex(transcript, func(m models.Message) bool { return m.Index >= lo && m.Index <= hi })
		line = fmt.Sprintf("Messages %d-%d of %d", opts.Start, opts.End, totalMessages)

	case opts.Last > 0:
		selected = transcript
		if len(selected) > opts.Last {
			selected = selected[len(selected)-opts.Last:]
		}
		line = fmt.Sprintf("Last %d messages of %d", len(selected), totalMessages)

	default:
		selected = firstMessages(transcript, defaultReadCount)
		if len(selected) == 0 {
			line = fmt.Sprintf("Messages 0-0 of %d", totalMessages)
		} else {
			line = fmt.Sprintf("Messages %d-%d of %d", selected[0].Index, selected[len(selected)-1].Index, totalMessages)
		}
	}

	payload.Messages = preview(selected, full)
	return line, payload
}

// preview copies msgs, shortening assistant text unless full is set.
func preview(msgs []models.Message, full bool) []models.Message {
	out := make([]models.Message, len(msgs))
	copy(out, msgs)
	if full {
		return out
	}
	for i := range out {
		if out[i].Role != "assistant" {
			continue
		}
		if short := capture.Truncate(out[i].Content, assistantPreviewLength); short != out[i].Content {
			out[i].Content = short + "..."
			out[i].Truncated = true
		}
	}
	return out
}

func byIndex(msgs []models.Message, keep func(models.Message) bool) []models.Message {
	out := []models.Message{}
	for _, m := range msgs {
		if keep(m) {
			out = append(out, m)
		}
	}
	return out
}

func containsIndex(msgs []models.Message, index int) bool {
	for _, m := range msgs {
		if m.Index == index {
			return true
		}
	}
	return false
}

func firstMessages(msgs []models.Message, n int) []models.Message {
	if len(msgs) > n {
		return msgs[:n]
	}
	return msgs
}

func lastIndex(msgs []models.Message) int {
	if len(msgs) == 0 {
		return 0
	}
	return msgs[len(msgs)-1].Index
}

func lastTurn(msgs []models.Message) int {
	if len(msgs) == 0 {
		return 0
	}
	return msgs[len(msgs)-1].UserTurn
}
