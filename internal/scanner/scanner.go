package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// LogExtension is the suffix of session log files.
const LogExtension = ".jsonl"

type Scanner interface {
	Name() string
	Root() string
	ScanForSessions() ([]SessionInfo, error)
	Projects() ([]string, error)
}

type SessionInfo struct {
	Path        string
	SessionID   string
	ProjectName string
	Size        int64
	ModTime     time.Time
}

// Mtime returns the modification time as fractional seconds since the epoch,
// the unit cached records store.
func (s SessionInfo) Mtime() float64 {
	return float64(s.ModTime.UnixNano()) / float64(time.Second)
}

type ScanResult struct {
	SessionsFound int
	Reparsed      int
	Failed        int
	Errors        []string
}

func GetHomeDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return home, nil
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := GetHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ShortProjectName turns an encoded project directory such as
// "-Users-me-code-deja" into its last segment.
func ShortProjectName(dirName string) string {
	if dirName == "" {
		return ""
	}
	parts := strings.Split(dirName, "-")
	return parts[len(parts)-1]
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

type ClaudeScanner struct {
	root string
}

// NewClaudeScanner scans root, or ~/.claude/projects when root is empty.
func NewClaudeScanner(root string) *ClaudeScanner {
	if root == "" {
		root = filepath.Join("~", ".claude", "projects")
	}
	return &ClaudeScanner{root: ExpandHome(root)}
}

func (s *ClaudeScanner) Name() string {
	return "Claude Code"
}

func (s *ClaudeScanner) Root() string {
	return s.root
}

// ScanForSessions lists every <root>/<project>/<session>.jsonl file, sorted by
// path. A missing root yields no sessions.
func (s *ClaudeScanner) ScanForSessions() ([]SessionInfo, error) {
	sessions := []SessionInfo{}

	projects, err := s.Projects()
	if err != nil {
		return nil, err
	}

	for _, project := range projects {
		projectPath := filepath.Join(s.root, project)
		sessionFiles, err := os.ReadDir(projectPath)
		if err != nil {
			continue
		}

		for _, file := range sessionFiles {
			name := file.Name()
			if isHidden(name) || !strings.HasSuffix(name, LogExtension) {
				continue
			}
			info, err := entryInfo(projectPath, file)
			if err != nil || info.IsDir() {
				continue
			}

			sessions = append(sessions, SessionInfo{
				Path:        filepath.Join(projectPath, name),
				SessionID:   strings.TrimSuffix(name, LogExtension),
				ProjectName: project,
				Size:        info.Size(),
				ModTime:     info.ModTime(),
			})
		}
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].Path < sessions[j].Path
	})
	return sessions, nil
}

// Projects returns the sorted names of the project directories under root.
func (s *ClaudeScanner) Projects() ([]string, error) {
	projects := []string{}
	if !FileExists(s.root) {
		return projects, nil
	}

	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read projects directory: %w", err)
	}

	for _, entry := range entries {
		if isHidden(entry.Name()) {
			continue
		}
		if info, err := entryInfo(s.root, entry); err == nil && info.IsDir() {
			projects = append(projects, entry.Name())
		}
	}
	sort.Strings(projects)
	return projects, nil
}

// entryInfo describes entry, following it when it is a symlink.
func entryInfo(dir string, entry os.DirEntry) (os.FileInfo, error) {
	if entry.Type()&os.ModeSymlink != 0 {
		return os.Stat(filepath.Join(dir, entry.Name()))
	}
	return entry.Info()
}
