package cli

import (
	"github.com/spf13/cobra"

	"github.com/jasperwreed/deja/internal/tui"
)

func NewBrowseCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse sessions in a terminal UI",
		Long:  `Open an interactive terminal UI to list, search and read sessions.`,
		Example: `  # Browse with the default cache
  deja browse

  # Browse a SQLite cache
  deja browse --backend sqlite`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			return tui.NewBrowser(a.service, a.backend.Name()+": "+a.backend.Path()).Run()
		},
	}
	return cmd
}
