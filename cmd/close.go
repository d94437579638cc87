package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/termkeep/termkeep/internal/result"
)

var closeCmd = &cobra.Command{
	Use:   "close",
	Short: "Terminate a session",
	Long: `Terminate a session's backing process and delete its record.

Closing a session that does not exist reports a clean failure.`,
	RunE: runClose,
}

var closeNameFlag string

func init() {
	closeCmd.Flags().StringVar(&closeNameFlag, "name", "", "Session name")
	closeCmd.MarkFlagRequired("name")
}

func runClose(cmd *cobra.Command, args []string) error {
	_, b, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	if err := b.Close(closeNameFlag); err != nil {
		result.Failure(err).Print()
		return nil
	}

	res := result.Ok()
	res.Session = closeNameFlag
	res.Message = fmt.Sprintf("session %q closed", closeNameFlag)
	res.Print()
	return nil
}
