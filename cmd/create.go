package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/termkeep/termkeep/internal/attach"
	"github.com/termkeep/termkeep/internal/result"
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new persistent session",
	Long: `Create a new named session running an interactive shell.

Unless --background is given, the command attaches to the new session
after printing the result and streams its output until interrupted.`,
	RunE: runCreate,
}

var (
	createNameFlag       string
	createShellFlag      string
	createBackgroundFlag bool
)

func init() {
	createCmd.Flags().StringVar(&createNameFlag, "name", "", "Session name")
	createCmd.Flags().StringVar(&createShellFlag, "shell", "", "Shell to run (default: /bin/bash)")
	createCmd.Flags().BoolVar(&createBackgroundFlag, "background", false, "Create in background, do not attach")
	createCmd.MarkFlagRequired("name")
}

func runCreate(cmd *cobra.Command, args []string) error {
	st, b, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	rec, err := b.Create(createNameFlag, createShellFlag)
	if err != nil {
		result.Failure(err).Print()
		return nil
	}

	res := result.Ok()
	res.Session = rec.Name
	res.Backend = b.Kind()
	res.Message = fmt.Sprintf("session %q created (pid %d)", rec.Name, rec.PID)
	res.Print()

	if !createBackgroundFlag {
		if _, err := attach.Run(rec.Name, b.Kind(), st, log); err != nil {
			result.Failure(err).Print()
		}
	}
	return nil
}
