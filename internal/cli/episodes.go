package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jasperwreed/deja/internal/query"
)

func NewEpisodesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "episodes <session-id>",
		Short: "Show a session's episodes, todos, notes and work",
		Long: `Show the overview of one session. The id may be any unique prefix of a
session id; an ambiguous prefix lists the candidates.`,
		Example: `  deja episodes 3f2a9c1e`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()
			return runEpisodes(cmd.OutOrStdout(), a.service, args[0])
		},
	}
	return cmd
}

func runEpisodes(w io.Writer, svc *query.Service, sessionID string) error {
	line, payload := svc.Episodes(sessionID)
	if err := emit(w, line, payload); err != nil || jsonOutput {
		return err
	}
	if !payload.Success {
		printFailure(w, payload.Status)
		return nil
	}

	if len(payload.Episodes) > 0 {
		fmt.Fprintln(w, "\nEpisodes:")
		for _, ep := range payload.Episodes {
			fmt.Fprintf(w, "  :%d %s (%d messages)\n", ep.N, ep.Title, ep.Messages)
		}
	}
	printList(w, "In progress", payload.InProgress)
	printList(w, "Pending", payload.Pending)
	printList(w, "Notes", payload.Notes)
	printList(w, "Work done", payload.WorkDone)
	return nil
}

func printList(w io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s:\n", title)
	for _, item := range items {
		fmt.Fprintf(w, "  - %s\n", item)
	}
}

// printFailure shows the error and any ambiguous candidates.
func printFailure(w io.Writer, s query.Status) {
	if s.Error != "" {
		fmt.Fprintln(w, s.Error)
	}
	for _, m := range s.Matches {
		fmt.Fprintf(w, "  %s  %s · %s  %s\n", m.SessionID, m.Project, m.When, m.Summary)
	}
}
