package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jasperwreed/deja/internal/query"
	"github.com/jasperwreed/deja/internal/scanner"
)

func NewProjectsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List project directories under the projects root",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()
			return runProjects(cmd.OutOrStdout(), a.service)
		},
	}
}

func runProjects(w io.Writer, svc *query.Service) error {
	line, payload := svc.Projects()
	if err := emit(w, line, payload); err != nil || jsonOutput {
		return err
	}
	for _, p := range payload.Projects {
		fmt.Fprintf(w, "  %-20s %s\n", scanner.ShortProjectName(p), p)
	}
	return nil
}
