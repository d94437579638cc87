// Package marker implements the completion protocol: a pair of sentinel
// lines sharing a unique token that bracket one command's output inside an
// unstructured terminal stream. Detection is best-effort frame detection
// over a byte stream, not a guarantee; a command that prints the sentinel
// pattern itself breaks it.
package marker

import (
	"fmt"
	"strings"
	"time"
)

// Token is the correlation token for a single exec call. It lives only for
// the duration of that call and is never persisted.
type Token string

// New derives a token from a sub-millisecond timestamp so it cannot
// plausibly collide with ordinary shell output or with a concurrent exec.
func New() Token {
	return Token(fmt.Sprintf("__CMD_%d__", time.Now().UnixNano()))
}

func (t Token) Start() string {
	return string(t) + "_START"
}

func (t Token) End() string {
	return string(t) + "_END"
}

// StartCommand and EndCommand are the shell lines injected around the
// command to emit the sentinels.
func (t Token) StartCommand() string {
	return fmt.Sprintf("echo '%s'", t.Start())
}

func (t Token) EndCommand() string {
	return fmt.Sprintf("echo '%s'", t.End())
}

// Complete reports whether the end sentinel has appeared in captured.
func (t Token) Complete(captured string) bool {
	return strings.Contains(captured, t.End())
}

// Extract returns the text strictly between the start and end sentinels.
// Lines containing a sentinel are skipped, which also drops the terminal's
// echo of the injected echo commands. A leading line that echoes the
// submitted command itself is dropped too.
func (t Token) Extract(captured, cmd string) string {
	var collecting bool
	var lines []string
	for _, line := range strings.Split(captured, "\n") {
		if strings.Contains(line, t.Start()) {
			collecting = true
			continue
		}
		if strings.Contains(line, t.End()) {
			collecting = false
			continue
		}
		if collecting {
			lines = append(lines, line)
		}
	}
	if len(lines) > 0 && strings.Contains(lines[0], strings.TrimSpace(cmd)) {
		lines = lines[1:]
	}
	return strings.TrimRight(strings.Join(lines, "\n"), " \t\n")
}
