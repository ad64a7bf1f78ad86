package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath   string
	projectsPath string
	cachePath    string
	notesPath    string
	backendName  string
	verbose      bool
	jsonOutput   bool
)

func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "deja",
		Short: "Search and navigate past Claude Code sessions",
		Long: `deja indexes the session logs under ~/.claude/projects and lets you find
past conversations by keyword, list recent work, and read a session by
episode, turn or message range.`,
		Version:       "0.1.0",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "Config file (default: $DEJA_CONFIG or ~/.config/deja/config.yaml)")
	pf.StringVar(&projectsPath, "projects", "", "Projects root holding session logs (default: ~/.claude/projects)")
	pf.StringVar(&cachePath, "cache", "", "Cache file (default: ~/.claude/memory-cache.json or .db)")
	pf.StringVar(&notesPath, "notes", "", "Notes file (default: ~/.claude/memory-notes.json)")
	pf.StringVar(&backendName, "backend", "", "Cache backend: json or sqlite")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")
	pf.BoolVar(&jsonOutput, "json", false, "Print the payload as JSON after the status line")

	rootCmd.AddCommand(
		NewSearchCommand(),
		NewRecentCommand(),
		NewEpisodesCommand(),
		NewReadCommand(),
		NewNoteCommand(),
		NewProjectsCommand(),
		NewIndexCommand(),
		NewBrowseCommand(),
		NewMCPCommand(),
		NewConfigCommand(),
	)

	return rootCmd
}

func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
