package cli

import (
	"github.com/spf13/cobra"

	"github.com/jasperwreed/deja/internal/mcpserver"
)

func NewMCPCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the search and navigation tools over MCP stdio",
		Long: `Run an MCP server on stdin and stdout exposing deja_search, deja_recent,
deja_episodes, deja_read, deja_note and deja_projects. Logs go to stderr.`,
		Example: `  # Register with Claude Code
  claude mcp add deja -- deja mcp`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			return mcpserver.NewMCPService(a.service, a.logger).ServeStdio()
		},
	}
}
