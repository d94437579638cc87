package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/termkeep/termkeep/internal/backend"
	"github.com/termkeep/termkeep/internal/keyfile"
	"github.com/termkeep/termkeep/internal/result"
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send raw text to a session",
	Long: `Send literal text plus a newline to a session, with no completion
markers and no wait. Meant for interactive prompts such as password
entry, where marker echoes would corrupt the exchange.

The text comes from --text, or from a JSON/YAML file via --config with a
dotted --key path (e.g. --config secrets.json --key profiles.db.password),
which keeps credentials off the command line.`,
	RunE: runSend,
}

var (
	sendNameFlag   string
	sendTextFlag   string
	sendConfigFlag string
	sendKeyFlag    string
)

func init() {
	sendCmd.Flags().StringVar(&sendNameFlag, "name", "", "Session name")
	sendCmd.Flags().StringVar(&sendTextFlag, "text", "", "Text to send")
	sendCmd.Flags().StringVar(&sendConfigFlag, "config", "", "JSON or YAML file to read the text from")
	sendCmd.Flags().StringVar(&sendKeyFlag, "key", "", "Dotted key path inside --config")
	sendCmd.MarkFlagRequired("name")
}

func runSend(cmd *cobra.Command, args []string) error {
	_, b, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	text := sendTextFlag
	switch {
	case sendConfigFlag != "" && sendKeyFlag != "":
		text, err = keyfile.Lookup(sendConfigFlag, sendKeyFlag)
		if err != nil {
			result.Failure(fmt.Errorf("%w: %v", backend.ErrConfig, err)).Print()
			return nil
		}
	case !cmd.Flags().Changed("text"):
		result.Failure(fmt.Errorf("%w: either --text or --config with --key is required", backend.ErrConfig)).Print()
		return nil
	}

	if err := b.Send(sendNameFlag, text); err != nil {
		result.Failure(err).Print()
		return nil
	}

	res := result.Ok()
	res.Session = sendNameFlag
	res.Message = "text sent"
	res.Print()
	return nil
}
