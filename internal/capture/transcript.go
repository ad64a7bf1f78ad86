package capture

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/jasperwreed/deja/internal/models"
)

const (
	bashDetailLength = 50
	roleUser         = "user"
	roleAssistant    = "assistant"
)

// Transcript renders entries as navigable messages. Index follows the
// message index used for episode ranges; UserTurn counts user turns that
// survive the noise filter. Assistant tool calls appear as [Tool: detail].
func Transcript(entries []Entry) []models.Message {
	var (
		messages []models.Message
		index    int
		turn     int
	)

	for _, e := range entries {
		if !e.IsMessage() {
			continue
		}
		index++
		if !e.HasMessage() {
			continue
		}

		switch e.Type {
		case TypeUser:
			text, ok := UserTurnText(e)
			if !ok {
				continue
			}
			turn++
			messages = append(messages, models.Message{
				Role:      roleUser,
				Content:   text,
				Timestamp: e.Timestamp,
				Index:     index,
				UserTurn:  turn,
			})

		case TypeAssistant:
			var parts []string
			for _, item := range e.items() {
				switch item.Type {
				case "text":
					parts = append(parts, item.Text)
				case "tool_use":
					parts = append(parts, toolLabel(item.Name, item.Input))
				}
			}
			messages = append(messages, models.Message{
				Role:      roleAssistant,
				Content:   strings.Join(parts, "\n"),
				Timestamp: e.Timestamp,
				Index:     index,
				UserTurn:  turn,
			})
		}
	}
	return messages
}

func toolLabel(name string, input json.RawMessage) string {
	if name == "" {
		name = "unknown"
	}
	if detail := toolDetail(name, input); detail != "" {
		return "[" + name + ": " + detail + "]"
	}
	return "[" + name + "]"
}

// toolDetail picks the one input field worth showing for a tool call.
func toolDetail(name string, input json.RawMessage) string {
	var in struct {
		FilePath    string            `json:"file_path"`
		Command     string            `json:"command"`
		Pattern     string            `json:"pattern"`
		URL         string            `json:"url"`
		Description string            `json:"description"`
		Todos       []json.RawMessage `json:"todos"`
	}
	if len(input) > 0 {
		if err := json.Unmarshal(input, &in); err != nil {
			return ""
		}
	}

	switch name {
	case "Read", "Write", "Edit":
		if in.FilePath == "" {
			return ""
		}
		return in.FilePath[strings.LastIndex(in.FilePath, "/")+1:]
	case "Bash":
		if short := Truncate(in.Command, bashDetailLength); short != in.Command {
			return short + "..."
		}
		return in.Command
	case "Grep", "Glob":
		return in.Pattern
	case "WebFetch":
		url := in.URL
		if i := strings.Index(url, "://"); i >= 0 {
			url = url[i+3:]
		}
		if i := strings.Index(url, "/"); i >= 0 {
			url = url[:i]
		}
		return url
	case "Task":
		return in.Description
	case "TodoWrite":
		return strconv.Itoa(len(in.Todos)) + " items"
	}
	return ""
}
