package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jasperwreed/deja/internal/query"
	"github.com/jasperwreed/deja/internal/watcher"
)

func NewIndexCommand() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Bring the cache up to date with the session logs",
		Long: `Scan the projects root and re-extract every session log that is new,
modified since it was cached, or cached under an older schema. With
--watch, keep running and re-index whenever session logs change.`,
		Example: `  # One-off refresh
  deja index

  # Keep the cache warm while working
  deja index --watch --verbose`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := runIndex(cmd.OutOrStdout(), a.service); err != nil || !watch {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runIndexWatch(ctx, cmd.OutOrStdout(), a)
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "Re-index when session logs change")
	return cmd
}

func runIndex(w io.Writer, svc *query.Service) error {
	line, payload := svc.Index()
	if err := emit(w, line, payload); err != nil || jsonOutput {
		return err
	}
	for _, e := range payload.Errors {
		fmt.Fprintf(w, "  %s\n", e)
	}
	return nil
}

func runIndexWatch(ctx context.Context, w io.Writer, a *app) error {
	if err := NewValidator().ValidateDirectory(a.cfg.ProjectsPath); err != nil {
		return fmt.Errorf("cannot watch projects root: %w", err)
	}
	sw, err := watcher.NewSessionWatcher(a.cfg.ProjectsPath, func(paths []string) {
		a.logger.Info("re-indexing", "changed", len(paths))
		if err := runIndex(w, a.service); err != nil {
			a.logger.Warn("could not print index result", "error", err)
		}
	}, a.logger)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Watching %s (Ctrl+C to stop)\n", a.cfg.ProjectsPath)
	return sw.Run(ctx)
}
