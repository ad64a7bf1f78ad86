package capture

import (
	"regexp"
	"strings"
)

// localCommandCaveat opens the system-generated disclaimer Claude Code writes
// before replaying local command output.
const localCommandCaveat = "Caveat: The messages below were generated"

var commandNamePattern = regexp.MustCompile(`<command-name>([^<]+)</command-name>`)

// IsLocalCommandNoise reports whether a user turn is the local command
// disclaimer and should be dropped entirely.
func IsLocalCommandNoise(content string) bool {
	return strings.HasPrefix(content, localCommandCaveat)
}

// CleanLocalCommand rewrites command invocation and output markup into short
// bracketed placeholders. Other content is returned unchanged.
func CleanLocalCommand(content string) string {
	if strings.Contains(content, "<command-name>") {
		if m := commandNamePattern.FindStringSubmatch(content); m != nil {
			return "[" + m[1] + "]"
		}
	}
	if strings.Contains(content, "<local-command-stdout>") {
		return "[command output]"
	}
	return content
}

// UserTurnText returns the indexable text of a user entry and whether the
// entry counts as a user turn.
func UserTurnText(e Entry) (string, bool) {
	if e.Type != TypeUser || !e.HasMessage() {
		return "", false
	}
	content := e.Text()
	if content == "" || IsLocalCommandNoise(content) {
		return "", false
	}
	return CleanLocalCommand(content), true
}

// FullText concatenates user turn text and assistant text items for indexing.
func FullText(entries []Entry) string {
	var parts []string
	for _, e := range entries {
		switch e.Type {
		case TypeUser:
			if text, ok := UserTurnText(e); ok {
				parts = append(parts, text)
			}
		case TypeAssistant:
			if e.HasMessage() {
				for _, item := range e.items() {
					if item.Type == "text" {
						parts = append(parts, item.Text)
					}
				}
			}
		}
	}
	return strings.Join(parts, " ")
}

// Truncate shortens s to at most n runes.
func Truncate(s string, n int) string {
	if n < 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
