package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jasperwreed/deja/internal/query"
)

func NewReadCommand() *cobra.Command {
	var (
		opts      query.ReadOptions
		rangeSpec string
	)

	cmd := &cobra.Command{
		Use:   "read <session-id> [target]",
		Short: "Read messages from a session",
		Long: `Read a session log. The optional target selects what to show:
  :N    episode N
  @N    user turn N with two turns of context
  N     message N
  N-M   messages N through M
Without a target the first 50 messages are shown. Assistant text is cut
at 500 characters unless --full is given.`,
		Example: `  # Second episode of a session
  deja read 3f2a :2

  # Turn 7 with extra context
  deja read 3f2a @7 --expand 2

  # Last 10 messages, untruncated
  deja read 3f2a --last 10 --full`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 2 {
				if err := query.ParseTarget(args[1], &opts); err != nil {
					return err
				}
			}
			if rangeSpec != "" {
				if err := query.ParseTarget(rangeSpec, &opts); err != nil {
					return err
				}
				if !opts.HasRange {
					return fmt.Errorf("--range wants N-M, got %q", rangeSpec)
				}
			}
			flags := cmd.Flags()
			opts.HasEpisode = opts.HasEpisode || flags.Changed("episode")
			opts.HasTurn = opts.HasTurn || flags.Changed("turn")
			opts.HasMessage = opts.HasMessage || flags.Changed("message")
			if err := NewValidator().ValidateRead(opts); err != nil {
				return err
			}

			a, err := openApp(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()
			return runRead(cmd.OutOrStdout(), a.service, args[0], opts)
		},
	}

	cmd.Flags().IntVar(&opts.Episode, "episode", 0, "Episode number")
	cmd.Flags().IntVar(&opts.Turn, "turn", 0, "User turn number")
	cmd.Flags().IntVar(&opts.Message, "message", 0, "Message index")
	cmd.Flags().StringVar(&rangeSpec, "range", "", "Message range N-M")
	cmd.Flags().IntVar(&opts.Last, "last", 0, "Show the last N messages")
	cmd.Flags().IntVar(&opts.Expand, "expand", 0, "Widen the selection on each side")
	cmd.Flags().BoolVar(&opts.Full, "full", false, "Do not truncate assistant text")

	return cmd
}

func runRead(w io.Writer, svc *query.Service, sessionID string, opts query.ReadOptions) error {
	line, payload := svc.Read(sessionID, opts)
	if err := emit(w, line, payload); err != nil || jsonOutput {
		return err
	}
	if !payload.Success {
		printFailure(w, payload.Status)
		if payload.Hint == "turn" {
			fmt.Fprintf(w, "Navigate by turn instead: @1 to @%d\n", payload.Turns)
		}
		return nil
	}

	for _, m := range payload.Messages {
		if m.Role == "user" {
			fmt.Fprintf(w, "\n[%d] User @%d:\n%s\n", m.Index, m.UserTurn, m.Content)
		} else {
			fmt.Fprintf(w, "\n[%d] Assistant:\n%s\n", m.Index, m.Content)
		}
	}
	return nil
}
