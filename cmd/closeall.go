package cmd

import (
	"github.com/spf13/cobra"

	"github.com/termkeep/termkeep/internal/result"
)

var closeAllCmd = &cobra.Command{
	Use:   "close-all",
	Short: "Terminate every session",
	Long:  `Terminate all sessions. Succeeds trivially when none exist.`,
	RunE:  runCloseAll,
}

func runCloseAll(cmd *cobra.Command, args []string) error {
	_, b, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	if err := b.CloseAll(); err != nil {
		result.Failure(err).Print()
		return nil
	}

	res := result.Ok()
	res.Message = "all sessions closed"
	res.Print()
	return nil
}
