//go:build !windows

package backend

import (
	"os"
	"os/exec"
	"syscall"
)

// DefaultShell is used when create is given no shell.
const DefaultShell = "/bin/bash"

func supportsPipes() bool {
	return true
}

func mkfifo(path string) error {
	return syscall.Mkfifo(path, 0600)
}

// writePipeLine writes one newline-terminated line to the FIFO without
// blocking. ENXIO (no reader) surfaces as an error so exec can fall back
// to one-shot execution.
func writePipeLine(path, line string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|syscall.O_NONBLOCK, 0)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.WriteString(line + "\n")
	return err
}

// detach puts the supervisor in its own session so it survives the
// invoking process.
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}

func oneShotArgs(shell, command string) []string {
	return []string{shell, "-c", command}
}
