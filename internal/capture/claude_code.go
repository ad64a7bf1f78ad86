package capture

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Entry types that count as conversation messages.
const (
	TypeUser      = "user"
	TypeAssistant = "assistant"
)

// ErrEmptyPath is returned when a log file path is empty.
var ErrEmptyPath = errors.New("empty log file path")

// Entry is one line of a Claude Code session log.
type Entry struct {
	Type      string          `json:"type"`
	Message   json.RawMessage `json:"message"`
	Timestamp string          `json:"timestamp"`
	SessionID string          `json:"sessionId"`
	CWD       string          `json:"cwd"`
	Todos     json.RawMessage `json:"todos"`
}

type messageBody struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

// ContentItem is one element of an array-shaped message content.
type ContentItem struct {
	Type  string          `json:"type"`
	Text  string          `json:"text,omitempty"`
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`
}

// ToolUse is a tool invocation made by the assistant.
type ToolUse struct {
	Name  string
	Input json.RawMessage
}

// IsMessage reports whether the entry advances the message index.
func (e Entry) IsMessage() bool {
	return e.Type == TypeUser || e.Type == TypeAssistant
}

// HasMessage reports whether the entry carries a message payload.
func (e Entry) HasMessage() bool {
	return !isNull(e.Message)
}

func (e Entry) content() json.RawMessage {
	if !e.HasMessage() {
		return nil
	}
	var body messageBody
	if err := json.Unmarshal(e.Message, &body); err != nil {
		return nil
	}
	return body.Content
}

func (e Entry) items() []ContentItem {
	raw := e.content()
	if isNull(raw) {
		return nil
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil
	}
	items := make([]ContentItem, 0, len(elems))
	for _, elem := range elems {
		var item ContentItem
		if err := json.Unmarshal(elem, &item); err != nil {
			continue
		}
		items = append(items, item)
	}
	return items
}

// Text returns the message text using ExtractText.
func (e Entry) Text() string {
	return ExtractText(e.content())
}

// ToolUses returns the tool_use items of an assistant entry.
func (e Entry) ToolUses() []ToolUse {
	if e.Type != TypeAssistant {
		return nil
	}
	var uses []ToolUse
	for _, item := range e.items() {
		if item.Type == "tool_use" {
			uses = append(uses, ToolUse{Name: item.Name, Input: item.Input})
		}
	}
	return uses
}

// ExtractText accepts a plain string, an array of strings, or an array of
// {type:"text"} objects and joins the recognized text with single spaces.
// Any other shape yields "".
func ExtractText(raw json.RawMessage) string {
	if isNull(raw) {
		return ""
	}

	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return ""
	}

	parts := make([]string, 0, len(elems))
	for _, elem := range elems {
		if err := json.Unmarshal(elem, &str); err == nil {
			parts = append(parts, str)
			continue
		}
		var item ContentItem
		if err := json.Unmarshal(elem, &item); err == nil && item.Type == "text" {
			parts = append(parts, item.Text)
		}
	}
	return strings.Join(parts, " ")
}

// ParseJSONL reads one JSON object per line. Blank and malformed lines are
// skipped; only a read failure is returned as an error.
func ParseJSONL(r io.Reader) ([]Entry, error) {
	reader := bufio.NewReaderSize(r, 64*1024)
	var entries []Entry

	for {
		line, err := reader.ReadBytes('\n')
		if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
			var entry Entry
			if jsonErr := json.Unmarshal(trimmed, &entry); jsonErr == nil {
				entries = append(entries, entry)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading JSONL: %w", err)
		}
	}

	return entries, nil
}

// ParseFile opens path and parses it with ParseJSONL.
func ParseFile(path string) ([]Entry, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open session file: %w", err)
	}
	defer file.Close()

	return ParseJSONL(file)
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
