package cli

import (
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jasperwreed/deja/internal/query"
)

func NewNoteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "note <session-id> <text>",
		Short: "Attach a note to a session",
		Long:  `Attach free text to a session. Notes are searchable and shown in the session overview.`,
		Example: `  deja note 3f2a "root cause was the retry backoff"`,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.TrimSpace(strings.Join(args[1:], " "))
			if err := NewValidator().ValidateNote(text); err != nil {
				return err
			}
			a, err := openApp(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()
			return runNote(cmd.OutOrStdout(), a.service, args[0], text)
		},
	}
	return cmd
}

func runNote(w io.Writer, svc *query.Service, sessionID, text string) error {
	line, payload := svc.Note(sessionID, text)
	if err := emit(w, line, payload); err != nil || jsonOutput {
		return err
	}
	if !payload.Success {
		printFailure(w, payload.Status)
	}
	return nil
}
