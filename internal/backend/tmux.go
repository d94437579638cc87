package backend

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/termkeep/termkeep/internal/marker"
	"github.com/termkeep/termkeep/internal/store"
	"github.com/termkeep/termkeep/internal/tmux"
)

// captureDepth is how far back exec looks in the scrollback for the
// completion sentinels.
const captureDepth = 1000

// Tmux drives an external tmux server. The server is the long-lived
// process backing every session; liveness comes from tmux itself, never
// from the record store.
type Tmux struct {
	store *store.Store
	log   *zap.Logger
}

func NewTmux(st *store.Store, log *zap.Logger) *Tmux {
	return &Tmux{store: st, log: log}
}

func (t *Tmux) Kind() string { return KindTmux }

func (t *Tmux) Create(name, shell string) (*store.Record, error) {
	if err := store.ValidateName(name); err != nil {
		return nil, err
	}
	if shell == "" {
		shell = DefaultShell
	}

	if tmux.HasSession(name) {
		return nil, fmt.Errorf("%w: %q", ErrAlreadyExists, name)
	}

	pid, err := tmux.NewSession(name, shell)
	if err != nil {
		return nil, err
	}

	rec := &store.Record{
		Name:      name,
		PID:       pid,
		Shell:     shell,
		Backend:   KindTmux,
		CreatedAt: time.Now(),
	}
	if err := t.store.Save(rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}

	t.log.Info("created tmux session",
		zap.String("session", name), zap.String("shell", shell), zap.Int("pid", pid))
	return rec, nil
}

func (t *Tmux) Exec(name, command string, timeout time.Duration) (*ExecResult, error) {
	if !tmux.HasSession(name) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}

	// Bracket the command with sentinel lines so its output can be cut
	// out of the shared screen buffer once the end sentinel appears.
	tok := marker.New()
	if err := tmux.SendLine(name, tok.StartCommand()); err != nil {
		return nil, err
	}
	time.Sleep(ExecPollInterval)
	if err := tmux.SendLine(name, command); err != nil {
		return nil, err
	}
	if err := tmux.SendLine(name, tok.EndCommand()); err != nil {
		return nil, err
	}

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		time.Sleep(ExecPollInterval)
		captured, err := tmux.CapturePane(name, captureDepth)
		if err != nil {
			return nil, err
		}
		if tok.Complete(captured) {
			t.log.Info("executed command",
				zap.String("session", name), zap.String("cmd", command))
			return &ExecResult{Output: tok.Extract(captured, command)}, nil
		}
	}

	// The wait is abandoned, not the command: it may still be running in
	// the session, so this is a qualified success.
	t.log.Warn("exec wait timed out",
		zap.String("session", name), zap.String("cmd", command))
	return &ExecResult{TimedOut: true}, nil
}

func (t *Tmux) Send(name, text string) error {
	if !tmux.HasSession(name) {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if err := tmux.SendLine(name, text); err != nil {
		return err
	}
	t.log.Info("sent text", zap.String("session", name), zap.Int("len", len(text)))
	return nil
}

func (t *Tmux) Read(name string, lines, maxChars int) (string, error) {
	if !tmux.HasSession(name) {
		return "", fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	captured, err := tmux.CapturePane(name, lines)
	if err != nil {
		return "", err
	}
	output := strings.TrimRight(captured, " \t\n")
	return truncate(output, maxChars), nil
}

func (t *Tmux) List() ([]SessionInfo, error) {
	sessions, err := tmux.ListSessions()
	if err != nil {
		return nil, err
	}
	infos := make([]SessionInfo, 0, len(sessions))
	for _, s := range sessions {
		infos = append(infos, SessionInfo{
			Name:     s.Name,
			Created:  s.Created.Unix(),
			Attached: s.Attached,
			Alive:    true,
		})
	}
	return infos, nil
}

func (t *Tmux) Close(name string) error {
	if !tmux.HasSession(name) {
		// Self-heal any leftover record before reporting the failure.
		t.store.Delete(name)
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if err := tmux.KillSession(name); err != nil {
		return err
	}
	t.store.Delete(name)
	t.log.Info("closed session", zap.String("session", name))
	return nil
}

func (t *Tmux) CloseAll() error {
	tmux.KillServer()
	records, err := t.store.List()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	for _, rec := range records {
		t.store.Delete(rec.Name)
	}
	t.log.Info("closed all sessions")
	return nil
}
