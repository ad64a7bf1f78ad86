package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jasperwreed/deja/internal/query"
)

func TestValidator_ValidatePaging(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name    string
		limit   int
		skip    int
		wantErr bool
		errMsg  string
	}{
		{
			name:    "defaults",
			limit:   5,
			skip:    0,
			wantErr: false,
		},
		{
			name:    "zero limit",
			limit:   0,
			wantErr: true,
			errMsg:  "--limit must be positive",
		},
		{
			name:    "negative skip",
			limit:   5,
			skip:    -1,
			wantErr: true,
			errMsg:  "--skip cannot be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidatePaging(tt.limit, tt.skip)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePaging() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr && !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("ValidatePaging() error message = %v, want to contain %v", err.Error(), tt.errMsg)
			}
		})
	}
}

func TestValidator_ValidateRead(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name    string
		opts    query.ReadOptions
		wantErr bool
	}{
		{name: "default window", opts: query.ReadOptions{}, wantErr: false},
		{name: "episode only", opts: query.ReadOptions{Episode: 2, HasEpisode: true, Expand: 1}, wantErr: false},
		{name: "range only", opts: query.ReadOptions{Start: 3, End: 9, HasRange: true}, wantErr: false},
		{name: "episode and turn", opts: query.ReadOptions{Episode: 1, HasEpisode: true, Turn: 4, HasTurn: true}, wantErr: true},
		{name: "message and last", opts: query.ReadOptions{Message: 3, HasMessage: true, Last: 10}, wantErr: true},
		{name: "zero episode and message", opts: query.ReadOptions{HasEpisode: true, HasMessage: true}, wantErr: true},
		{name: "negative expand", opts: query.ReadOptions{Expand: -1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateRead(tt.opts)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRead() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidator_ValidateNote(t *testing.T) {
	v := NewValidator()

	if err := v.ValidateNote("  check arm64 build  "); err != nil {
		t.Errorf("ValidateNote() error = %v", err)
	}
	if err := v.ValidateNote(" \t\n"); err == nil {
		t.Error("ValidateNote() accepted a blank note")
	}
}

func TestValidator_ValidateDirectory(t *testing.T) {
	v := NewValidator()

	tempDir := t.TempDir()
	tempFile := filepath.Join(tempDir, "testfile.txt")
	if err := os.WriteFile(tempFile, []byte("test"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		path    string
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid directory",
			path:    tempDir,
			wantErr: false,
		},
		{
			name:    "empty path allowed",
			path:    "",
			wantErr: false,
		},
		{
			name:    "file instead of directory",
			path:    tempFile,
			wantErr: true,
			errMsg:  "path is not a directory",
		},
		{
			name:    "non-existent path",
			path:    "/non/existent/path/that/should/not/exist",
			wantErr: true,
			errMsg:  "invalid directory",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateDirectory(tt.path)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDirectory() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr && !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("ValidateDirectory() error message = %v, want to contain %v", err.Error(), tt.errMsg)
			}
		})
	}
}

func TestValidator_ResolvePath(t *testing.T) {
	v := NewValidator()

	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
		want string
	}{
		{name: "empty path", path: "", want: ""},
		{name: "current directory", path: ".", want: cwd},
		{name: "absolute path", path: "/usr/local/bin", want: "/usr/local/bin"},
		{name: "relative path", path: "subdir", want: filepath.Join(cwd, "subdir")},
		{name: "relative path with parent", path: "../test", want: filepath.Join(filepath.Dir(cwd), "test")},
		{name: "home relative", path: "~/.claude/projects", want: filepath.Join(home, ".claude", "projects")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.ResolvePath(tt.path)
			if err != nil {
				t.Fatalf("ResolvePath() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ResolvePath() = %v, want %v", got, tt.want)
			}
		})
	}
}
