package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jasperwreed/deja/internal/query"
	"github.com/jasperwreed/deja/internal/scanner"
)

// Validator provides methods for validating CLI inputs
type Validator struct{}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ValidatePaging rejects non-positive limits and negative skips
func (v *Validator) ValidatePaging(limit, skip int) error {
	if limit <= 0 {
		return fmt.Errorf("--limit must be positive, got %d", limit)
	}
	if skip < 0 {
		return fmt.Errorf("--skip cannot be negative, got %d", skip)
	}
	return nil
}

// ValidateRead checks that at most one navigation target is set
func (v *Validator) ValidateRead(opts query.ReadOptions) error {
	targets := 0
	for _, set := range []bool{opts.HasEpisode, opts.HasTurn, opts.HasMessage, opts.HasRange, opts.Last != 0} {
		if set {
			targets++
		}
	}
	if targets > 1 {
		return fmt.Errorf("choose one of episode, turn, message, range or --last")
	}
	if opts.Last < 0 || opts.Expand < 0 {
		return fmt.Errorf("--last and --expand cannot be negative")
	}
	return nil
}

// ValidateNote rejects blank notes
func (v *Validator) ValidateNote(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("note text cannot be empty")
	}
	return nil
}

// ValidateDirectory checks if a directory path is valid
func (v *Validator) ValidateDirectory(path string) error {
	if path == "" {
		return nil // Empty path is allowed, will use default
	}

	stat, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("invalid directory: %w", err)
	}

	if !stat.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}

	return nil
}

// ResolvePath resolves a path to an absolute path, expanding a leading ~
func (v *Validator) ResolvePath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	path = scanner.ExpandHome(path)

	if path == "." {
		return os.Getwd()
	}

	if filepath.IsAbs(path) {
		return path, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}

	return filepath.Join(cwd, path), nil
}
