package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "termkeep",
	Short: "Persistent terminal session manager",
	Long: `termkeep manages long-lived interactive shell sessions that outlive any
single invocation. Sessions are backed by tmux when available, with a
portable pipe/daemon fallback otherwise.

Quick start:
  termkeep create --name build --background   # Start a session
  termkeep exec --name build --cmd "make"     # Run a command, get output
  termkeep read --name build --lines 50       # Tail recent output
  termkeep close --name build                 # Tear the session down

Every command prints a single JSON result object.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(attachCmd)
	rootCmd.AddCommand(execCmd)
	rootCmd.AddCommand(readCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(closeCmd)
	rootCmd.AddCommand(closeAllCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(supervisorCmd)
	rootCmd.AddCommand(versionCmd)
}
