//go:build windows

package backend

import (
	"fmt"
	"os/exec"
)

const DefaultShell = "cmd.exe"

// No named pipes here: sessions are recorded with no backing process and
// every exec takes the one-shot path.

func supportsPipes() bool {
	return false
}

func mkfifo(path string) error {
	return fmt.Errorf("named pipes unsupported on this platform")
}

func writePipeLine(path, line string) error {
	return fmt.Errorf("named pipes unsupported on this platform")
}

func detach(cmd *exec.Cmd) {}

func oneShotArgs(shell, command string) []string {
	return []string{shell, "/c", command}
}
