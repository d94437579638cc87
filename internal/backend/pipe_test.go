//go:build !windows

package backend

import (
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/termkeep/termkeep/internal/proc"
	"github.com/termkeep/termkeep/internal/store"
	"github.com/termkeep/termkeep/internal/supervisor"
)

func newTestPipe(t *testing.T) (*Pipe, *store.Store) {
	t.Helper()
	st, err := store.New(filepath.Join(t.TempDir(), "sessions"))
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	return NewPipe(st, zap.NewNop()), st
}

// liveSession wires a real in-process supervisor to a session record, so
// exec and send exercise the FIFO path without re-execing the test binary.
func liveSession(t *testing.T, p *Pipe, st *store.Store, name string) chan error {
	t.Helper()

	dir := st.SessionDir(name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, supervisor.LogFile), nil, 0644); err != nil {
		t.Fatalf("create log: %v", err)
	}
	if err := syscall.Mkfifo(filepath.Join(dir, supervisor.PipeFile), 0600); err != nil {
		t.Fatalf("mkfifo: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- supervisor.Run(supervisor.Options{Dir: dir, Shell: "/bin/sh"})
	}()

	pidPath := filepath.Join(dir, supervisor.PidFile)
	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, err := os.Stat(pidPath); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("supervisor never became ready")
		}
		time.Sleep(10 * time.Millisecond)
	}

	rec := &store.Record{
		Name:      name,
		PID:       os.Getpid(), // the supervisor runs in this process
		Shell:     "/bin/sh",
		Backend:   KindPipe,
		CreatedAt: time.Now(),
	}
	if err := st.Save(rec); err != nil {
		t.Fatalf("save record: %v", err)
	}
	return done
}

func stopSession(t *testing.T, p *Pipe, name string, done chan error) {
	t.Helper()
	writePipeLine(p.pipePath(name), supervisor.ExitCommand)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("supervisor did not stop")
	}
}

func TestExecNotFound(t *testing.T) {
	p, _ := newTestPipe(t)

	_, err := p.Exec("ghost", "echo hi", time.Second)
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestExecRoundTrip(t *testing.T) {
	p, st := newTestPipe(t)
	done := liveSession(t, p, st, "s1")
	defer stopSession(t, p, "s1", done)

	er, err := p.Exec("s1", "echo round-trip", 5*time.Second)
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if er.TimedOut {
		t.Fatal("unexpected timeout")
	}
	if er.Output != "round-trip" {
		t.Errorf("output = %q, want %q", er.Output, "round-trip")
	}
}

func TestExecTimeoutThenReadCatchesUp(t *testing.T) {
	p, st := newTestPipe(t)
	done := liveSession(t, p, st, "s1")
	defer stopSession(t, p, "s1", done)

	er, err := p.Exec("s1", "sleep 2 && echo later", time.Second)
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if !er.TimedOut {
		t.Fatal("expected qualified timeout success")
	}
	if er.Output != "" {
		t.Errorf("timed-out output = %q, want empty", er.Output)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		out, err := p.Read("s1", 30, 0)
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		if strings.Contains(out, "later") {
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatal("command output never reached the log")
}

func TestSessionsDoNotIntermix(t *testing.T) {
	p, st := newTestPipe(t)
	doneA := liveSession(t, p, st, "a")
	defer stopSession(t, p, "a", doneA)
	doneB := liveSession(t, p, st, "b")
	defer stopSession(t, p, "b", doneB)

	if _, err := p.Exec("a", "echo only-in-a", 5*time.Second); err != nil {
		t.Fatalf("Exec a: %v", err)
	}
	if _, err := p.Exec("b", "echo only-in-b", 5*time.Second); err != nil {
		t.Fatalf("Exec b: %v", err)
	}

	outA, err := p.Read("a", 0, 0)
	if err != nil {
		t.Fatalf("Read a: %v", err)
	}
	outB, err := p.Read("b", 0, 0)
	if err != nil {
		t.Fatalf("Read b: %v", err)
	}
	if strings.Contains(outA, "only-in-b") || strings.Contains(outB, "only-in-a") {
		t.Errorf("session streams intermixed:\na=%q\nb=%q", outA, outB)
	}
}

// deadPID returns the pid of a process that has already exited.
func deadPID(t *testing.T) int {
	t.Helper()
	cmd := exec.Command("true")
	if err := cmd.Run(); err != nil {
		t.Fatalf("run true: %v", err)
	}
	return cmd.Process.Pid
}

func TestCreateAfterSupervisorCrash(t *testing.T) {
	p, st := newTestPipe(t)

	// Leftovers from a crashed owner: a record with a dead pid and the
	// old supervisor's pid file still sitting in the session dir.
	stale := deadPID(t)
	dir := st.SessionDir("s1")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	os.WriteFile(filepath.Join(dir, supervisor.PidFile), []byte(strconv.Itoa(stale)), 0644)
	os.WriteFile(filepath.Join(dir, supervisor.LogFile), []byte("old incarnation output\n"), 0644)
	st.Save(&store.Record{Name: "s1", PID: stale, Shell: "/bin/sh", Backend: KindPipe, CreatedAt: time.Now()})

	// Stand-in for the re-exec target: records its own pid and idles.
	stub := filepath.Join(t.TempDir(), "owner.sh")
	script := "#!/bin/sh\necho $$ > '" + filepath.Join(dir, supervisor.PidFile) + "'\nexec sleep 60\n"
	if err := os.WriteFile(stub, []byte(script), 0755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	p.exe = stub

	rec, err := p.Create("s1", "/bin/sh")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer proc.Terminate(rec.PID)

	if rec.PID == stale {
		t.Fatalf("recorded the dead owner's pid %d as the new liveness handle", stale)
	}
	if !proc.Alive(rec.PID) {
		t.Errorf("new owner pid %d does not probe alive", rec.PID)
	}

	out, err := p.Read("s1", 0, 0)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if strings.Contains(out, "old incarnation output") {
		t.Errorf("previous incarnation's output survived recreate: %q", out)
	}
}

func TestExecEmptyOutputIsNotTimeout(t *testing.T) {
	p, st := newTestPipe(t)
	done := liveSession(t, p, st, "s1")
	defer stopSession(t, p, "s1", done)

	// echo writes a lone newline: the log grows but the trimmed output
	// is empty. That is a completed command, not a timeout.
	er, err := p.Exec("s1", "echo", 5*time.Second)
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if er.TimedOut {
		t.Fatal("command with whitespace-only output reported as timed out")
	}
	if er.Output != "" {
		t.Errorf("output = %q, want empty", er.Output)
	}
}

func TestExecOneShotFallback(t *testing.T) {
	p, st := newTestPipe(t)

	// Record with a dead owner: exec must degrade to one-shot execution.
	dir := st.SessionDir("dead")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, supervisor.LogFile), nil, 0644); err != nil {
		t.Fatalf("create log: %v", err)
	}
	rec := &store.Record{Name: "dead", PID: 0, Shell: "/bin/sh", Backend: KindPipe, CreatedAt: time.Now()}
	if err := st.Save(rec); err != nil {
		t.Fatalf("save: %v", err)
	}

	er, err := p.Exec("dead", "echo one-shot", 5*time.Second)
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if er.Output != "one-shot" {
		t.Errorf("output = %q, want %q", er.Output, "one-shot")
	}
	if er.Note == "" {
		t.Error("expected a one-shot note")
	}

	// The log records the command with its output.
	data, err := os.ReadFile(p.logPath("dead"))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "$ echo one-shot") {
		t.Errorf("log missing command prefix: %q", data)
	}
}

func TestOneShotNonZeroExitStillReturnsOutput(t *testing.T) {
	p, st := newTestPipe(t)

	dir := st.SessionDir("dead")
	os.MkdirAll(dir, 0755)
	os.WriteFile(filepath.Join(dir, supervisor.LogFile), nil, 0644)
	st.Save(&store.Record{Name: "dead", PID: 0, Shell: "/bin/sh", Backend: KindPipe, CreatedAt: time.Now()})

	er, err := p.Exec("dead", "echo oops && exit 3", 5*time.Second)
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if er.Output != "oops" {
		t.Errorf("output = %q, want %q", er.Output, "oops")
	}
}

func TestReadTailAndTruncate(t *testing.T) {
	p, st := newTestPipe(t)

	dir := st.SessionDir("s1")
	os.MkdirAll(dir, 0755)
	var lines []string
	for i := 0; i < 50; i++ {
		lines = append(lines, strings.Repeat("x", 10))
	}
	os.WriteFile(filepath.Join(dir, supervisor.LogFile), []byte(strings.Join(lines, "\n")+"\n"), 0644)

	out, err := p.Read("s1", 5, 0)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got := len(strings.Split(out, "\n")); got > 5 {
		t.Errorf("expected at most 5 lines, got %d", got)
	}

	out, err = p.Read("s1", 0, 100)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !strings.HasSuffix(out, TruncationNotice) {
		t.Errorf("expected truncation notice, got %q", out)
	}
	if len(out) != 100+len(TruncationNotice) {
		t.Errorf("unexpected truncated length %d", len(out))
	}
}

func TestReadNotFound(t *testing.T) {
	p, _ := newTestPipe(t)

	if _, err := p.Read("ghost", 30, 2000); err == nil {
		t.Fatal("expected not-found error")
	}
}

func TestListReportsLiveness(t *testing.T) {
	p, st := newTestPipe(t)

	st.Save(&store.Record{Name: "alive", PID: os.Getpid(), CreatedAt: time.Now()})
	st.Save(&store.Record{Name: "dead", PID: 0, CreatedAt: time.Now()})

	infos, err := p.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	byName := map[string]SessionInfo{}
	for _, info := range infos {
		byName[info.Name] = info
	}
	if !byName["alive"].Alive {
		t.Error("own pid should probe alive")
	}
	if byName["dead"].Alive {
		t.Error("pid 0 must never probe alive")
	}
}

func TestCloseAbsentIsTypedFailure(t *testing.T) {
	p, _ := newTestPipe(t)

	err := p.Close("ghost")
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestCloseAllEmptyStore(t *testing.T) {
	p, _ := newTestPipe(t)

	if err := p.CloseAll(); err != nil {
		t.Fatalf("CloseAll on empty store: %v", err)
	}
}

func TestCloseStopsSupervisorAndDeletesEverything(t *testing.T) {
	p, st := newTestPipe(t)
	done := liveSession(t, p, st, "s1")

	// The supervisor runs inside the test binary, so neutralize the pid
	// before close signals the record's owner. The pipe sentinel still
	// reaches it.
	st.Save(&store.Record{Name: "s1", PID: 0, Shell: "/bin/sh", Backend: KindPipe, CreatedAt: time.Now()})

	if err := p.Close("s1"); err != nil {
		t.Fatalf("Close: %v", err)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("supervisor survived close")
	}

	rec, err := st.Load("s1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if rec != nil {
		t.Error("record survived close")
	}
	if _, err := os.Stat(st.SessionDir("s1")); !os.IsNotExist(err) {
		t.Error("session dir survived close")
	}

	infos, err := p.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	for _, info := range infos {
		if info.Name == "s1" {
			t.Error("closed session still listed")
		}
	}
}

func TestSendRequiresPipe(t *testing.T) {
	p, st := newTestPipe(t)

	st.Save(&store.Record{Name: "nopipe", PID: 0, CreatedAt: time.Now()})
	err := p.Send("nopipe", "hello")
	if err == nil || !strings.Contains(err.Error(), "no command pipe") {
		t.Fatalf("expected pipe-unavailable error, got %v", err)
	}
}

func TestSendDeliversWithoutMarkers(t *testing.T) {
	p, st := newTestPipe(t)
	done := liveSession(t, p, st, "s1")
	defer stopSession(t, p, "s1", done)

	// A command blocked on interactive input, then the credential.
	if err := p.Send("s1", "read REPLY && echo got:$REPLY"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if err := p.Send("s1", "mypassword"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		out, err := p.Read("s1", 0, 0)
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		if strings.Contains(out, "got:mypassword") {
			if strings.Contains(out, "__CMD_") {
				t.Errorf("marker text leaked into output: %q", out)
			}
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatal("sent text never reached the session")
}
