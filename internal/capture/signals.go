package capture

import (
	"encoding/json"
	"path/filepath"
	"sort"
	"strings"
)

// maxCommandLength bounds how much of a shell command is kept as a signal.
const maxCommandLength = 100

// ActivitySignals records what an assistant did during a session.
type ActivitySignals struct {
	FilesTouched []string
	CommandsRun  []string
	URLsFetched  []string
}

type toolInput struct {
	FilePath string `json:"file_path"`
	Command  string `json:"command"`
	URL      string `json:"url"`
}

// ExtractSignals scans assistant tool uses for files, commands and URLs.
// Each list is deduplicated and sorted.
func ExtractSignals(entries []Entry) ActivitySignals {
	files := make(map[string]struct{})
	commands := make(map[string]struct{})
	urls := make(map[string]struct{})

	for _, e := range entries {
		for _, use := range e.ToolUses() {
			var in toolInput
			if len(use.Input) > 0 {
				if err := json.Unmarshal(use.Input, &in); err != nil {
					continue
				}
			}

			switch use.Name {
			case "Read", "Write", "Edit":
				if in.FilePath != "" {
					files[filepath.Base(in.FilePath)] = struct{}{}
					files[in.FilePath] = struct{}{}
				}
			case "Bash":
				if in.Command != "" {
					if fields := strings.Fields(in.Command); len(fields) > 0 {
						commands[fields[0]] = struct{}{}
					}
					commands[Truncate(in.Command, maxCommandLength)] = struct{}{}
				}
			case "WebFetch":
				if in.URL != "" {
					urls[in.URL] = struct{}{}
				}
			}
		}
	}

	return ActivitySignals{
		FilesTouched: sortedKeys(files),
		CommandsRun:  sortedKeys(commands),
		URLsFetched:  sortedKeys(urls),
	}
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
