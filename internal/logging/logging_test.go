package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestOpenWritesTaggedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "debug.log")

	log := Open(path)
	log.Info("probe entry")
	log.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "probe entry") {
		t.Errorf("log missing entry: %q", data)
	}
	if !strings.Contains(string(data), "invocation") {
		t.Errorf("log lines not tagged with invocation id: %q", data)
	}
}

func TestOpenFallsBackToNop(t *testing.T) {
	// A regular file where the parent directory should be forces the
	// fallback path.
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, nil, 0644); err != nil {
		t.Fatalf("write blocker: %v", err)
	}

	log := Open(filepath.Join(blocker, "sub", "debug.log"))
	if log == nil {
		t.Fatal("expected a logger, got nil")
	}
	log.Info("must not panic")
}
