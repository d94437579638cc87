// Package backend defines the session capability set and its two
// implementations: one driving an external tmux server, one built on a
// detached supervisor process and a named pipe. A caller invocation
// selects exactly one backend, performs one operation, and exits; nothing
// survives in process memory between invocations.
package backend

import (
	"time"

	"github.com/termkeep/termkeep/internal/store"
)

const (
	KindTmux = "tmux"
	KindPipe = "pipe"
)

// SessionInfo is one row of a list operation.
type SessionInfo struct {
	Name     string `json:"name"`
	PID      int    `json:"pid,omitempty"`
	Shell    string `json:"shell,omitempty"`
	Created  int64  `json:"created"`
	Attached bool   `json:"attached,omitempty"`
	Alive    bool   `json:"alive"`
}

// ExecResult carries one command's extracted output. TimedOut means the
// wait was abandoned, not that execution failed.
type ExecResult struct {
	Output   string
	TimedOut bool
	Note     string
}

// Backend is the capability set shared by both implementations.
type Backend interface {
	Kind() string

	// Create starts a new named session running shell and persists its
	// record. Fails with ErrAlreadyExists against a live session.
	Create(name, shell string) (*store.Record, error)

	// Exec runs one command in the session and returns its output,
	// waiting up to timeout for completion.
	Exec(name, cmd string, timeout time.Duration) (*ExecResult, error)

	// Send injects literal text plus a newline with no markers and no
	// completion wait. Used for interactive input such as credentials.
	Send(name, text string) error

	// Read returns the trailing lines of the session's output stream,
	// truncated to the last maxChars characters when maxChars > 0.
	Read(name string, lines, maxChars int) (string, error)

	// List enumerates sessions with liveness.
	List() ([]SessionInfo, error)

	// Close terminates the named session and deletes its record.
	Close(name string) error

	// CloseAll terminates every session; trivially succeeds on none.
	CloseAll() error
}

const (
	// ExecPollInterval paces the completion-wait loops in both backends.
	ExecPollInterval = 100 * time.Millisecond

	// TruncationNotice is appended when read output exceeds max-chars.
	TruncationNotice = "\n... (output truncated)"
)

func truncate(output string, maxChars int) string {
	if maxChars > 0 && len(output) > maxChars {
		return output[len(output)-maxChars:] + TruncationNotice
	}
	return output
}
