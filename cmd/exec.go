package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/termkeep/termkeep/internal/result"
)

var execCmd = &cobra.Command{
	Use:   "exec",
	Short: "Run one command in a session and return its output",
	Long: `Run one command inside a session and wait for its output.

The wait is bounded by --timeout. Hitting the timeout is not a failure:
the command may still be running, so the result is a success with empty
output and a warning; use read later to collect what it printed.`,
	RunE: runExec,
}

var (
	execNameFlag    string
	execCmdFlag     string
	execTimeoutFlag int
)

func init() {
	execCmd.Flags().StringVar(&execNameFlag, "name", "", "Session name")
	execCmd.Flags().StringVar(&execCmdFlag, "cmd", "", "Command to execute")
	execCmd.Flags().IntVar(&execTimeoutFlag, "timeout", 10, "Max wait in seconds")
	execCmd.MarkFlagRequired("name")
	execCmd.MarkFlagRequired("cmd")
}

func runExec(cmd *cobra.Command, args []string) error {
	_, b, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	er, err := b.Exec(execNameFlag, execCmdFlag, time.Duration(execTimeoutFlag)*time.Second)
	if err != nil {
		result.Failure(err).Print()
		return nil
	}

	res := result.Ok()
	res.Session = execNameFlag
	res.Output = result.Text(er.Output)
	res.Note = er.Note
	if er.TimedOut {
		res.Warning = "no completed output within the timeout; the command may still be running. Use read later to collect its output"
	}
	res.Print()
	return nil
}
