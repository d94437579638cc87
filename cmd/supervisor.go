package cmd

import (
	"github.com/spf13/cobra"

	"github.com/termkeep/termkeep/internal/logging"
	"github.com/termkeep/termkeep/internal/supervisor"
)

// The supervisor subcommand is the re-exec target for the pipe backend;
// create spawns it detached and it outlives the invocation.
var supervisorCmd = &cobra.Command{
	Use:    "supervisor",
	Short:  "Run a session supervisor (internal)",
	Hidden: true,
	RunE:   runSupervisor,
}

var (
	supervisorNameFlag  string
	supervisorShellFlag string
	supervisorDirFlag   string
)

func init() {
	supervisorCmd.Flags().StringVar(&supervisorNameFlag, "name", "", "Session name")
	supervisorCmd.Flags().StringVar(&supervisorShellFlag, "shell", "", "Shell to run")
	supervisorCmd.Flags().StringVar(&supervisorDirFlag, "dir", "", "Session directory")
	supervisorCmd.MarkFlagRequired("name")
	supervisorCmd.MarkFlagRequired("shell")
	supervisorCmd.MarkFlagRequired("dir")
}

func runSupervisor(cmd *cobra.Command, args []string) error {
	log := logging.Open(logging.DefaultPath())
	defer log.Sync()

	return supervisor.Run(supervisor.Options{
		Dir:   supervisorDirFlag,
		Shell: supervisorShellFlag,
		Log:   log,
	})
}
