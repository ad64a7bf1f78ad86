package scanner

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestGetHomeDir(t *testing.T) {
	home, err := GetHomeDir()
	if err != nil {
		t.Fatalf("GetHomeDir() error = %v", err)
	}

	if home == "" {
		t.Error("GetHomeDir() returned empty string")
	}
}

func TestExpandHome(t *testing.T) {
	home, err := GetHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	tests := []struct {
		name     string
		path     string
		expected string
	}{
		{"tilde only", "~", home},
		{"tilde prefix", "~/.claude/projects", filepath.Join(home, ".claude", "projects")},
		{"absolute", "/var/log", "/var/log"},
		{"tilde in middle", "/a/~/b", "/a/~/b"},
		{"tilde user form", "~bob/x", "~bob/x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExpandHome(tt.path); got != tt.expected {
				t.Errorf("ExpandHome(%q) = %q, want %q", tt.path, got, tt.expected)
			}
		})
	}
}

func TestFileExists(t *testing.T) {
	tempFile, err := os.CreateTemp("", "test-file-exists-*")
	if err != nil {
		t.Fatal(err)
	}
	tempPath := tempFile.Name()
	tempFile.Close()
	defer os.Remove(tempPath)

	tests := []struct {
		name     string
		path     string
		expected bool
	}{
		{
			name:     "existing file",
			path:     tempPath,
			expected: true,
		},
		{
			name:     "non-existent file",
			path:     "/non/existent/file/that/should/not/exist.txt",
			expected: false,
		},
		{
			name:     "empty path",
			path:     "",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FileExists(tt.path)
			if result != tt.expected {
				t.Errorf("FileExists(%q) = %v, want %v", tt.path, result, tt.expected)
			}
		})
	}
}

func TestShortProjectName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"-Users-kate-Projects-foo", "foo"},
		{"plain", "plain"},
		{"trailing-", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := ShortProjectName(tt.input); got != tt.expected {
			t.Errorf("ShortProjectName(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestClaudeScanner_ScanForSessions(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "test-claude-scan-*")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tempDir)

	files := []string{
		"-Users-me-alpha/aaa.jsonl",
		"-Users-me-alpha/bbb.jsonl",
		"-Users-me-alpha/notes.txt",
		"-Users-me-alpha/.hidden.jsonl",
		"-Users-me-alpha/nested/ccc.jsonl",
		"-Users-me-beta/ddd.jsonl",
		".cache/eee.jsonl",
		"stray.jsonl",
	}
	for _, file := range files {
		fullPath := filepath.Join(tempDir, file)
		if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(fullPath, []byte("{}\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	stamp := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := os.Chtimes(filepath.Join(tempDir, "-Users-me-beta", "ddd.jsonl"), stamp, stamp); err != nil {
		t.Fatal(err)
	}

	s := NewClaudeScanner(tempDir)
	sessions, err := s.ScanForSessions()
	if err != nil {
		t.Fatalf("ScanForSessions() error = %v", err)
	}

	var ids []string
	for _, info := range sessions {
		ids = append(ids, info.SessionID)
	}
	if got := strings.Join(ids, ","); got != "aaa,bbb,ddd" {
		t.Fatalf("session ids = %s, want aaa,bbb,ddd", got)
	}

	ddd := sessions[2]
	if ddd.ProjectName != "-Users-me-beta" {
		t.Errorf("ProjectName = %q", ddd.ProjectName)
	}
	if ddd.Size != 3 {
		t.Errorf("Size = %d, want 3", ddd.Size)
	}
	if want := float64(stamp.Unix()); ddd.Mtime() != want {
		t.Errorf("Mtime() = %f, want %f", ddd.Mtime(), want)
	}

	projects, err := s.Projects()
	if err != nil {
		t.Fatalf("Projects() error = %v", err)
	}
	if got := strings.Join(projects, ","); got != "-Users-me-alpha,-Users-me-beta" {
		t.Errorf("Projects() = %s", got)
	}
}

func TestClaudeScanner_FollowsSymlinks(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()

	linkedProject := filepath.Join(outside, "project")
	if err := os.MkdirAll(linkedProject, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(linkedProject, "linked.jsonl"), []byte("{}\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(linkedProject, filepath.Join(root, "-Users-me-linked")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	realProject := filepath.Join(root, "-Users-me-real")
	if err := os.MkdirAll(realProject, 0755); err != nil {
		t.Fatal(err)
	}
	logFile := filepath.Join(outside, "stored.jsonl")
	if err := os.WriteFile(logFile, []byte("{}\n{}\n"), 0644); err != nil {
		t.Fatal(err)
	}
	stamp := time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)
	if err := os.Chtimes(logFile, stamp, stamp); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(logFile, filepath.Join(realProject, "stored.jsonl")); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(filepath.Join(outside, "gone.jsonl"), filepath.Join(realProject, "broken.jsonl")); err != nil {
		t.Fatal(err)
	}

	s := NewClaudeScanner(root)

	projects, err := s.Projects()
	if err != nil {
		t.Fatalf("Projects() error = %v", err)
	}
	if strings.Join(projects, ",") != "-Users-me-linked,-Users-me-real" {
		t.Errorf("Projects() = %v", projects)
	}

	sessions, err := s.ScanForSessions()
	if err != nil {
		t.Fatalf("ScanForSessions() error = %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("ScanForSessions() = %+v, want linked and stored", sessions)
	}
	if sessions[0].SessionID != "linked" || sessions[1].SessionID != "stored" {
		t.Errorf("session ids = %s, %s", sessions[0].SessionID, sessions[1].SessionID)
	}
	if !sessions[1].ModTime.Equal(stamp) || sessions[1].Size != 6 {
		t.Errorf("symlinked log info = %v size %d, want the target's", sessions[1].ModTime, sessions[1].Size)
	}
}

func TestClaudeScanner_MissingRoot(t *testing.T) {
	s := NewClaudeScanner("/non/existent/projects/root")

	sessions, err := s.ScanForSessions()
	if err != nil {
		t.Fatalf("ScanForSessions() error = %v", err)
	}
	if sessions == nil || len(sessions) != 0 {
		t.Errorf("ScanForSessions() = %#v, want empty slice", sessions)
	}

	projects, err := s.Projects()
	if err != nil || len(projects) != 0 {
		t.Errorf("Projects() = %v, %v", projects, err)
	}
}

func TestNewClaudeScanner_DefaultRoot(t *testing.T) {
	home, err := GetHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	s := NewClaudeScanner("")
	if want := filepath.Join(home, ".claude", "projects"); s.Root() != want {
		t.Errorf("Root() = %q, want %q", s.Root(), want)
	}
	if s.Name() != "Claude Code" {
		t.Errorf("Name() = %q", s.Name())
	}
}
