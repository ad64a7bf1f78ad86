package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jasperwreed/deja/internal/query"
)

func NewRecentCommand() *cobra.Command {
	var opts query.RecentOptions

	cmd := &cobra.Command{
		Use:   "recent",
		Short: "List the most recently active sessions",
		Example: `  # Ten most recent sessions
  deja recent

  # Recent sessions in one project since a date
  deja recent --project backend --after 2025-06-01`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := NewValidator().ValidatePaging(opts.Limit, opts.Skip); err != nil {
				return err
			}
			a, err := openApp(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()
			return runRecent(cmd.OutOrStdout(), a.service, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", query.DefaultRecentLimit, "Maximum number of sessions")
	cmd.Flags().IntVar(&opts.Skip, "skip", 0, "Number of sessions to skip")
	cmd.Flags().StringVar(&opts.Project, "project", "", "Only sessions whose project contains this text")
	cmd.Flags().StringVar(&opts.After, "after", "", "Only sessions at or after this ISO-8601 time")
	cmd.Flags().StringVar(&opts.Before, "before", "", "Only sessions before this ISO-8601 time")

	return cmd
}

func runRecent(w io.Writer, svc *query.Service, opts query.RecentOptions) error {
	line, payload := svc.Recent(opts)
	if err := emit(w, line, payload); err != nil || jsonOutput {
		return err
	}

	for _, s := range payload.Sessions {
		fmt.Fprintf(w, "\n%s  %s · %s\n", s.SessionID, s.Project, s.When)
		fmt.Fprintf(w, "  %s\n", s.Summary)
		if len(s.InProgress) > 0 {
			fmt.Fprintf(w, "  in progress: %s\n", strings.Join(s.InProgress, ", "))
		}
		if len(s.WorkDone) > 0 {
			fmt.Fprintf(w, "  work: %s\n", strings.Join(s.WorkDone, ", "))
		}
	}
	return nil
}
