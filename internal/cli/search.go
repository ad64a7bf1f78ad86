package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jasperwreed/deja/internal/query"
)

func NewSearchCommand() *cobra.Command {
	var opts query.SearchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Rank sessions by keywords",
		Long: `Search cached sessions. Matches in todos, notes, touched files, commands
and the stemmed conversation text add to a session's score; recent
sessions get a small boost.`,
		Example: `  # Find the session where the login bug was fixed
  deja search "login bug"

  # Only sessions from one project, newest first
  deja search websocket --project api --recent

  # Second page of results
  deja search migration --skip 5 --limit 5`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Query = strings.Join(args, " ")
			if err := NewValidator().ValidatePaging(opts.Limit, opts.Skip); err != nil {
				return err
			}
			a, err := openApp(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()
			return runSearch(cmd.OutOrStdout(), a.service, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", query.DefaultSearchLimit, "Maximum number of results")
	cmd.Flags().IntVar(&opts.Skip, "skip", 0, "Number of results to skip")
	cmd.Flags().StringVar(&opts.Project, "project", "", "Only sessions whose project contains this text")
	cmd.Flags().StringVar(&opts.After, "after", "", "Only sessions at or after this ISO-8601 time")
	cmd.Flags().StringVar(&opts.Before, "before", "", "Only sessions before this ISO-8601 time")
	cmd.Flags().BoolVar(&opts.Recent, "recent", false, "Sort matches by time instead of score")

	return cmd
}

func runSearch(w io.Writer, svc *query.Service, opts query.SearchOptions) error {
	line, payload := svc.Search(opts)
	if err := emit(w, line, payload); err != nil || jsonOutput {
		return err
	}

	for i, r := range payload.Results {
		fmt.Fprintf(w, "\n%d. %s  %s · %s · score %d\n", opts.Skip+i+1, r.SessionID, r.Project, r.When, r.Score)
		fmt.Fprintf(w, "   %s\n", r.Summary)
		if r.FirstMatch != "" {
			fmt.Fprintf(w, "   %s\n", r.FirstMatch)
		}
	}
	return nil
}
