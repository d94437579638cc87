// Package supervisor implements the detached process that owns a pipe
// backend session: it persists its own pid as the liveness handle, runs
// the shell as a child with combined output redirected to an append-only
// log, and relays newline-terminated commands from the session's named
// pipe to the shell's input until it receives the exit sentinel.
//
// The shell reads commands from a plain pipe, so it runs non-interactively:
// no prompt, no echo. That keeps the log a pure record of command output,
// which is what lets exec detect completion from size alone.
package supervisor

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Per-session file names inside the session's private directory.
const (
	LogFile  = "output.log"
	PipeFile = "stdin.fifo"
	PidFile  = "supervisor.pid"
)

// ExitCommand is the sentinel line that tells the supervisor to close the
// shell's input, wait for it to exit, and terminate itself.
const ExitCommand = "__EXIT_SESSION__"

const exitGracePeriod = 2 * time.Second

// Options configures one supervisor run.
type Options struct {
	Dir   string
	Shell string
	Log   *zap.Logger
}

// Run blocks for the lifetime of the session. It returns once the shell
// has exited, either because the exit sentinel arrived or because the
// shell terminated on its own.
func Run(opts Options) error {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}

	pidPath := filepath.Join(opts.Dir, PidFile)
	if err := os.WriteFile(pidPath, []byte(strconv.Itoa(os.Getpid())), 0644); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}

	logPath := filepath.Join(opts.Dir, LogFile)
	out, err := os.OpenFile(logPath, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("open output log: %w", err)
	}
	defer out.Close()

	cmd := exec.Command(opts.Shell)
	cmd.Stdout = out
	cmd.Stderr = out
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("open shell stdin: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start shell: %w", err)
	}

	shellDone := make(chan struct{})
	go func() {
		cmd.Wait()
		close(shellDone)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		shutdown(stdin, cmd, shellDone)
		os.Exit(0)
	}()

	log.Info("supervisor started",
		zap.String("dir", opts.Dir),
		zap.String("shell", opts.Shell),
		zap.Int("shell_pid", cmd.Process.Pid))

	// Opening read-write keeps the pipe from hitting EOF between writers
	// and guarantees a reader exists for clients' non-blocking writes.
	pipePath := filepath.Join(opts.Dir, PipeFile)
	pipe, err := os.OpenFile(pipePath, os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("open pipe: %w", err)
	}
	defer pipe.Close()

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(pipe)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-shellDone:
			log.Info("shell exited", zap.String("dir", opts.Dir))
			return nil
		case line, ok := <-lines:
			if !ok {
				shutdown(stdin, cmd, shellDone)
				return nil
			}
			if line == ExitCommand {
				shutdown(stdin, cmd, shellDone)
				log.Info("supervisor exiting", zap.String("dir", opts.Dir))
				return nil
			}
			if _, err := stdin.Write([]byte(line + "\n")); err != nil {
				<-shellDone
				return fmt.Errorf("write to shell: %w", err)
			}
		}
	}
}

// shutdown closes the shell's input and waits for it to exit, escalating
// to SIGTERM after a grace period.
func shutdown(stdin io.WriteCloser, cmd *exec.Cmd, shellDone chan struct{}) {
	stdin.Close()

	select {
	case <-shellDone:
	case <-time.After(exitGracePeriod):
		cmd.Process.Signal(syscall.SIGTERM)
		<-shellDone
	}
}
