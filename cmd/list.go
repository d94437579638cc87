package cmd

import (
	"github.com/spf13/cobra"

	"github.com/termkeep/termkeep/internal/result"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions with liveness",
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	_, b, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	sessions, err := b.List()
	if err != nil {
		result.Failure(err).Print()
		return nil
	}

	res := result.Ok()
	res.Backend = b.Kind()
	res.Sessions = sessions
	res.Print()
	return nil
}
