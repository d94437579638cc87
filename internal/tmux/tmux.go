// Package tmux wraps the external tmux binary. Every function shells out;
// the tmux server itself is the long-lived process that keeps sessions
// alive across invocations.
package tmux

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Fixed virtual terminal geometry for new sessions.
const (
	Cols = 200
	Rows = 50
)

// SessionInfo describes one live tmux session.
type SessionInfo struct {
	Name     string
	Created  time.Time
	Attached bool
}

// Available reports whether the tmux binary is on PATH.
func Available() bool {
	_, err := exec.LookPath("tmux")
	return err == nil
}

// HasSession checks if a session exists on the tmux server.
func HasSession(name string) bool {
	return exec.Command("tmux", "has-session", "-t", name).Run() == nil
}

// NewSession starts a detached session with the fixed geometry running
// shell, and returns the pid of the backing tmux server process.
func NewSession(name, shell string) (int, error) {
	cmd := exec.Command("tmux", "new-session", "-d", "-s", name,
		"-x", strconv.Itoa(Cols), "-y", strconv.Itoa(Rows), shell)
	if out, err := cmd.CombinedOutput(); err != nil {
		return 0, fmt.Errorf("tmux new-session: %v: %s", err, strings.TrimSpace(string(out)))
	}

	out, err := exec.Command("tmux", "display-message", "-t", name, "-p", "#{pid}").Output()
	if err != nil {
		return 0, nil
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(out)))
	if err != nil {
		return 0, nil
	}
	return pid, nil
}

// SendLine sends text literally (no key-name interpretation), then Enter
// as a separate write to submit it.
func SendLine(name, text string) error {
	if err := exec.Command("tmux", "send-keys", "-t", name, "-l", text).Run(); err != nil {
		return fmt.Errorf("tmux send-keys: %w", err)
	}
	return exec.Command("tmux", "send-keys", "-t", name, "Enter").Run()
}

// CapturePane captures the last depth lines of pane content including
// scrollback.
func CapturePane(name string, depth int) (string, error) {
	out, err := exec.Command("tmux", "capture-pane", "-t", name, "-p",
		"-S", fmt.Sprintf("-%d", depth)).Output()
	if err != nil {
		return "", fmt.Errorf("tmux capture-pane: %w", err)
	}
	return string(out), nil
}

// ListSessions enumerates live sessions directly from the tmux server.
// A missing server means no sessions, not an error.
func ListSessions() ([]SessionInfo, error) {
	out, err := exec.Command("tmux", "list-sessions", "-F",
		"#{session_name}|#{session_created}|#{session_attached}").Output()
	if err != nil {
		return nil, nil
	}
	return parseSessionList(string(out)), nil
}

func parseSessionList(output string) []SessionInfo {
	var sessions []SessionInfo
	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "|", 3)
		if len(parts) != 3 {
			continue
		}
		createdUnix, _ := strconv.ParseInt(parts[1], 10, 64)
		sessions = append(sessions, SessionInfo{
			Name:     parts[0],
			Created:  time.Unix(createdUnix, 0),
			Attached: parts[2] == "1",
		})
	}
	return sessions
}

// KillSession terminates one session.
func KillSession(name string) error {
	out, err := exec.Command("tmux", "kill-session", "-t", name).CombinedOutput()
	if err != nil {
		return fmt.Errorf("tmux kill-session: %v: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// KillServer terminates the tmux server and with it every session. A
// server that is not running is not an error.
func KillServer() {
	_ = exec.Command("tmux", "kill-server").Run()
}
