package backend

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/termkeep/termkeep/internal/proc"
	"github.com/termkeep/termkeep/internal/store"
	"github.com/termkeep/termkeep/internal/supervisor"
)

const (
	// settleRecheck is how long exec waits before confirming the output
	// log has stopped growing.
	settleRecheck = 300 * time.Millisecond

	// spawnTimeout bounds the wait for the supervisor's pid file.
	spawnTimeout = 2 * time.Second

	// closeDrain gives the supervisor a moment to act on the exit
	// sentinel before the owning process is signalled.
	closeDrain = 300 * time.Millisecond
)

// Pipe is the portable fallback backend: a detached supervisor process
// owns a live shell and relays commands through a named pipe, with all
// output accumulated in an append-only log. On platforms without named
// pipes every exec runs as a one-shot process instead.
type Pipe struct {
	store *store.Store
	log   *zap.Logger

	// exe overrides the supervisor re-exec target; empty means this
	// binary.
	exe string
}

func NewPipe(st *store.Store, log *zap.Logger) *Pipe {
	return &Pipe{store: st, log: log}
}

func (p *Pipe) Kind() string { return KindPipe }

func (p *Pipe) logPath(name string) string {
	return filepath.Join(p.store.SessionDir(name), supervisor.LogFile)
}

func (p *Pipe) pipePath(name string) string {
	return filepath.Join(p.store.SessionDir(name), supervisor.PipeFile)
}

func (p *Pipe) Create(name, shell string) (*store.Record, error) {
	if err := store.ValidateName(name); err != nil {
		return nil, err
	}
	if shell == "" {
		shell = DefaultShell
	}

	rec, err := p.store.Load(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	if rec != nil {
		if proc.Alive(rec.PID) {
			return nil, fmt.Errorf("%w: %q (pid %d)", ErrAlreadyExists, name, rec.PID)
		}
		// Stale record: owner is gone. Clear the record and the whole
		// session dir, or the dead owner's pid file would be read back
		// as the new session's liveness handle.
		p.log.Info("clearing stale session record",
			zap.String("session", name), zap.Int("pid", rec.PID))
		p.store.Delete(name)
		os.RemoveAll(p.store.SessionDir(name))
	}

	dir := p.store.SessionDir(name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("%w: create session dir: %v", ErrIO, err)
	}
	if err := os.WriteFile(p.logPath(name), nil, 0644); err != nil {
		return nil, fmt.Errorf("%w: create output log: %v", ErrIO, err)
	}

	pid := 0
	if supportsPipes() {
		pipePath := p.pipePath(name)
		os.Remove(pipePath)
		if err := mkfifo(pipePath); err != nil {
			return nil, fmt.Errorf("%w: create pipe: %v", ErrIO, err)
		}

		pid, err = p.spawnSupervisor(name, shell, dir)
		if err != nil {
			return nil, err
		}
	}

	rec = &store.Record{
		Name:      name,
		PID:       pid,
		Shell:     shell,
		Backend:   KindPipe,
		CreatedAt: time.Now(),
	}
	if err := p.store.Save(rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}

	p.log.Info("created pipe session",
		zap.String("session", name), zap.String("shell", shell), zap.Int("pid", pid))
	return rec, nil
}

// spawnSupervisor re-execs this binary as a detached supervisor and waits
// for it to persist its pid, which becomes the session's liveness handle.
func (p *Pipe) spawnSupervisor(name, shell, dir string) (int, error) {
	exe := p.exe
	if exe == "" {
		var err error
		exe, err = os.Executable()
		if err != nil {
			return 0, fmt.Errorf("%w: find executable: %v", ErrIO, err)
		}
	}

	cmd := exec.Command(exe, "supervisor", "--name", name, "--shell", shell, "--dir", dir)
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	detach(cmd)

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("%w: start supervisor: %v", ErrIO, err)
	}

	pidPath := filepath.Join(dir, supervisor.PidFile)
	deadline := time.Now().Add(spawnTimeout)
	for time.Now().Before(deadline) {
		if data, err := os.ReadFile(pidPath); err == nil {
			if pid, err := strconv.Atoi(strings.TrimSpace(string(data))); err == nil {
				return pid, nil
			}
		}
		time.Sleep(ExecPollInterval)
	}
	return cmd.Process.Pid, nil
}

func (p *Pipe) Exec(name, command string, timeout time.Duration) (*ExecResult, error) {
	rec, err := p.store.Load(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}

	logPath := p.logPath(name)
	before, err := fileSize(logPath)
	if err != nil {
		return nil, fmt.Errorf("%w: output log for %q: %v", ErrIO, name, err)
	}

	if !proc.Alive(rec.PID) {
		return p.execOneShot(rec, command, timeout, logPath)
	}

	if err := writePipeLine(p.pipePath(name), command); err != nil {
		// Pipe gone or reader missing: degrade to one-shot rather than fail.
		p.log.Warn("pipe write failed, falling back to one-shot",
			zap.String("session", name), zap.Error(err))
		return p.execOneShot(rec, command, timeout, logPath)
	}

	// The log has a single writer per session, so completion is inferred
	// from the size growing and then holding steady across two polls.
	deadline := time.Now().Add(timeout)
	grew := false
	for time.Now().Before(deadline) {
		time.Sleep(ExecPollInterval)
		cur, err := fileSize(logPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrIO, err)
		}
		if cur > before {
			time.Sleep(settleRecheck)
			final, err := fileSize(logPath)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrIO, err)
			}
			if final == cur {
				grew = true
				break
			}
		}
	}

	appended, err := readFrom(logPath, before)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}

	output := strings.TrimRight(appended, " \t\n")
	if output == "" && !grew {
		// The log never moved before the deadline: the command may still
		// be running, or it simply printed nothing. The caller can read
		// later.
		return &ExecResult{TimedOut: true}, nil
	}
	p.log.Info("executed command", zap.String("session", name), zap.String("cmd", command))
	return &ExecResult{Output: output}, nil
}

// execOneShot runs the command in a fresh shell process and appends its
// combined output to the session log, prefixed with the command text. The
// record is left in place but is inert for piping.
func (p *Pipe) execOneShot(rec *store.Record, command string, timeout time.Duration, logPath string) (*ExecResult, error) {
	shell := rec.Shell
	if shell == "" {
		shell = DefaultShell
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	argv := oneShotArgs(shell, command)
	out, err := exec.CommandContext(ctx, argv[0], argv[1:]...).CombinedOutput()
	if ctx.Err() == context.DeadlineExceeded {
		return &ExecResult{TimedOut: true}, nil
	}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("%w: run command: %v", ErrIO, err)
		}
		// Non-zero exit still produced output worth returning.
	}

	entry := fmt.Sprintf("$ %s\n%s\n", command, out)
	if f, ferr := os.OpenFile(logPath, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644); ferr == nil {
		f.WriteString(entry)
		f.Close()
	}

	p.log.Info("executed command via one-shot process",
		zap.String("session", rec.Name), zap.String("cmd", command))
	return &ExecResult{
		Output: strings.TrimRight(string(out), " \t\n"),
		Note:   "executed via one-shot process",
	}, nil
}

func (p *Pipe) Send(name, text string) error {
	rec, err := p.store.Load(name)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	if rec == nil {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}

	pipePath := p.pipePath(name)
	if _, err := os.Stat(pipePath); err != nil {
		return fmt.Errorf("%w: session %q has no command pipe", ErrBackendUnavailable, name)
	}
	if err := writePipeLine(pipePath, text); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	p.log.Info("sent text", zap.String("session", name), zap.Int("len", len(text)))
	return nil
}

func (p *Pipe) Read(name string, lines, maxChars int) (string, error) {
	data, err := os.ReadFile(p.logPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %q", ErrNotFound, name)
		}
		return "", fmt.Errorf("%w: %v", ErrIO, err)
	}

	all := strings.Split(string(data), "\n")
	if lines > 0 && lines < len(all) {
		all = all[len(all)-lines:]
	}
	output := strings.TrimRight(strings.Join(all, "\n"), " \t\n")
	return truncate(output, maxChars), nil
}

func (p *Pipe) List() ([]SessionInfo, error) {
	records, err := p.store.List()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}

	infos := make([]SessionInfo, 0, len(records))
	for _, rec := range records {
		infos = append(infos, SessionInfo{
			Name:    rec.Name,
			PID:     rec.PID,
			Shell:   rec.Shell,
			Created: rec.CreatedAt.Unix(),
			Alive:   proc.Alive(rec.PID),
		})
	}
	return infos, nil
}

func (p *Pipe) Close(name string) error {
	rec, err := p.store.Load(name)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	if rec == nil {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	p.closeSession(rec)
	return nil
}

func (p *Pipe) CloseAll() error {
	records, err := p.store.List()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	for _, rec := range records {
		p.closeSession(rec)
	}
	return nil
}

// closeSession asks the supervisor to exit via the sentinel, then signals
// it directly, then removes the record and the session's directory. Every
// step is best-effort: the record deletion is the authoritative signal
// that the session no longer exists.
func (p *Pipe) closeSession(rec *store.Record) {
	pipePath := p.pipePath(rec.Name)
	if _, err := os.Stat(pipePath); err == nil {
		if err := writePipeLine(pipePath, supervisor.ExitCommand); err == nil {
			time.Sleep(closeDrain)
		}
	}

	proc.Terminate(rec.PID)
	p.store.Delete(rec.Name)
	os.RemoveAll(p.store.SessionDir(rec.Name))
	p.log.Info("closed session", zap.String("session", rec.Name))
}

func fileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func readFrom(path string, offset int64) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if offset >= int64(len(data)) {
		return "", nil
	}
	return string(data[offset:]), nil
}
