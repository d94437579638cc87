// Package attach streams a live session's output to the caller's
// terminal. When a graphical terminal is available the tmux path hands
// the session off to a new window instead; the fallback for both backends
// is polling with diff printing until interrupted.
package attach

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/termkeep/termkeep/internal/backend"
	"github.com/termkeep/termkeep/internal/store"
	"github.com/termkeep/termkeep/internal/supervisor"
	"github.com/termkeep/termkeep/internal/tmux"
)

const (
	paneDepth        = 100
	panePollInterval = 300 * time.Millisecond
	tailPollInterval = 200 * time.Millisecond
)

// Run attaches to the named session. It returns handedOff=true when the
// session was opened in a new terminal window instead of being streamed
// inline. Streaming blocks until the caller interrupts it; detaching
// never affects the backing session.
func Run(name, kind string, st *store.Store, log *zap.Logger) (handedOff bool, err error) {
	if kind == backend.KindTmux {
		if !tmux.HasSession(name) {
			return false, fmt.Errorf("%w: %q", backend.ErrNotFound, name)
		}
		if openTerminalWindow(name) {
			log.Info("attached via terminal window", zap.String("session", name))
			return true, nil
		}
		return false, followPane(name)
	}

	logPath := filepath.Join(st.SessionDir(name), supervisor.LogFile)
	if _, err := os.Stat(logPath); err != nil {
		return false, fmt.Errorf("%w: %q", backend.ErrNotFound, name)
	}
	return false, tailLog(name, logPath)
}

// openTerminalWindow tries to hand the session off to a new terminal
// window running tmux attach. Best effort; false means stream inline.
func openTerminalWindow(name string) bool {
	attachCmd := fmt.Sprintf("tmux attach-session -t %s", name)

	switch runtime.GOOS {
	case "darwin":
		script := fmt.Sprintf(`tell application "Terminal"
	do script %q
	activate
end tell`, attachCmd)
		return exec.Command("osascript", "-e", script).Run() == nil
	case "linux":
		candidates := [][]string{
			{"gnome-terminal", "--", "tmux", "attach-session", "-t", name},
			{"xterm", "-e", attachCmd},
			{"konsole", "-e", attachCmd},
		}
		for _, argv := range candidates {
			if _, err := exec.LookPath(argv[0]); err != nil {
				continue
			}
			cmd := exec.Command(argv[0], argv[1:]...)
			if err := cmd.Start(); err == nil {
				go cmd.Wait()
				return true
			}
		}
	}
	return false
}

func interruptContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()
	return ctx, cancel
}

// followPane polls the tmux pane and prints only what changed since the
// previous capture.
func followPane(name string) error {
	fmt.Printf("[attached to session %q, Ctrl+C to detach]\n", name)

	ctx, cancel := interruptContext()
	defer cancel()

	ticker := time.NewTicker(panePollInterval)
	defer ticker.Stop()

	var last string
	for {
		select {
		case <-ctx.Done():
			fmt.Printf("\n[detached from session %q]\n", name)
			return nil
		case <-ticker.C:
			captured, err := tmux.CapturePane(name, paneDepth)
			if err != nil {
				return err
			}
			content := strings.TrimRight(captured, " \t\n")
			if content == last {
				continue
			}
			if last != "" && strings.HasPrefix(content, last) {
				fmt.Print(content[len(last):])
			} else {
				fmt.Println(content)
			}
			last = content
		}
	}
}

// tailLog prints the session log and then follows it.
func tailLog(name, logPath string) error {
	f, err := os.Open(logPath)
	if err != nil {
		return fmt.Errorf("%w: %v", backend.ErrIO, err)
	}
	defer f.Close()

	fmt.Printf("[attached to session %q, Ctrl+C to detach]\n", name)

	ctx, cancel := interruptContext()
	defer cancel()

	reader := bufio.NewReader(f)
	for {
		select {
		case <-ctx.Done():
			fmt.Printf("\n[detached from session %q]\n", name)
			return nil
		default:
		}

		line, err := reader.ReadString('\n')
		if line != "" {
			fmt.Print(line)
		}
		if err == io.EOF {
			time.Sleep(tailPollInterval)
		} else if err != nil {
			return err
		}
	}
}
