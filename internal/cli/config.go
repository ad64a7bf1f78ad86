package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jasperwreed/deja/internal/config"
	"github.com/jasperwreed/deja/internal/scanner"
)

func NewConfigCommand() *cobra.Command {
	var write, force bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration or save it to the config file",
		Long: `Print the configuration after layering the config file, the environment
and the command-line flags. With --write, save it to the config file so
later runs pick it up without flags.`,
		Example: `  # Inspect where deja reads and writes
  deja config

  # Make the SQLite cache the default
  deja config --backend sqlite --write`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			path := configPath
			if path == "" {
				path = config.DefaultPath()
			}
			out := cmd.OutOrStdout()

			if !write {
				data, err := cfg.YAML()
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "# %s\n%s", path, data)
				return nil
			}

			if scanner.FileExists(path) && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := cfg.Write(path); err != nil {
				return err
			}
			fmt.Fprintf(out, "Wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&write, "write", false, "Save the effective configuration to the config file")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	return cmd
}
