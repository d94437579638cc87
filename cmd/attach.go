package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/termkeep/termkeep/internal/attach"
	"github.com/termkeep/termkeep/internal/result"
)

var attachCmd = &cobra.Command{
	Use:   "attach",
	Short: "Stream a session's live output",
	Long: `Stream a session's output to this terminal until interrupted.

When a graphical terminal is available the session is opened in a new
window instead. Detaching never affects the backing session.`,
	RunE: runAttach,
}

var attachNameFlag string

func init() {
	attachCmd.Flags().StringVar(&attachNameFlag, "name", "", "Session name")
	attachCmd.MarkFlagRequired("name")
}

func runAttach(cmd *cobra.Command, args []string) error {
	st, b, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	handedOff, err := attach.Run(attachNameFlag, b.Kind(), st, log)
	if err != nil {
		result.Failure(err).Print()
		return nil
	}
	if handedOff {
		res := result.Ok()
		res.Session = attachNameFlag
		res.Message = fmt.Sprintf("session %q opened in a terminal window", attachNameFlag)
		res.Print()
	}
	return nil
}
