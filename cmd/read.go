package cmd

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/termkeep/termkeep/internal/result"
)

var readCmd = &cobra.Command{
	Use:   "read",
	Short: "Read the tail of a session's output",
	Long: `Read the last N lines of a session's output stream.

Output longer than --max-chars is truncated to its tail with a notice.
With --output the text is written to a file instead of returned inline,
which keeps the result small for automated callers.`,
	RunE: runRead,
}

var (
	readNameFlag     string
	readLinesFlag    int
	readMaxCharsFlag int
	readOutputFlag   string
)

func init() {
	readCmd.Flags().StringVar(&readNameFlag, "name", "", "Session name")
	readCmd.Flags().IntVar(&readLinesFlag, "lines", 30, "Number of trailing lines")
	readCmd.Flags().IntVar(&readMaxCharsFlag, "max-chars", 2000, "Max characters returned (0 = unlimited)")
	readCmd.Flags().StringVar(&readOutputFlag, "output", "", "Write output to this file instead of returning it")
	readCmd.MarkFlagRequired("name")
}

func runRead(cmd *cobra.Command, args []string) error {
	_, b, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	output, err := b.Read(readNameFlag, readLinesFlag, readMaxCharsFlag)
	if err != nil {
		result.Failure(err).Print()
		return nil
	}

	res := result.Ok()
	res.Session = readNameFlag

	if readOutputFlag != "" {
		if err := os.MkdirAll(filepath.Dir(readOutputFlag), 0755); err == nil {
			err = os.WriteFile(readOutputFlag, []byte(output), 0644)
		}
		if err != nil {
			result.Failure(err).Print()
			return nil
		}
		res.OutputFile = readOutputFlag
		res.LinesCount = len(strings.Split(output, "\n"))
	} else {
		res.Output = result.Text(output)
	}
	res.Print()
	return nil
}
