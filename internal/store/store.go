// Package store persists per-session metadata records on disk so that
// sessions survive across short-lived CLI invocations.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Record is the on-disk metadata for one session. Presence of a record is
// necessary but not sufficient for "session alive": liveness must be
// verified against the owning process or the multiplexer.
type Record struct {
	Name      string    `json:"name"`
	PID       int       `json:"pid"`
	Shell     string    `json:"shell"`
	Backend   string    `json:"backend"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is a directory of independent per-name record files. Operations on
// different names never contend.
type Store struct {
	dir string
}

// DefaultDir returns the per-working-directory session store location.
func DefaultDir() string {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	return filepath.Join(cwd, ".termkeep", "sessions")
}

// New opens (creating if needed) the store directory. Failure to create
// the directory is the only fatal store condition.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Dir() string {
	return s.dir
}

// SessionDir returns the per-session private directory used by the pipe
// backend for its output log and FIFO.
func (s *Store) SessionDir(name string) string {
	return filepath.Join(s.dir, name)
}

func (s *Store) recordPath(name string) string {
	return filepath.Join(s.dir, name+".json")
}

// Save writes or overwrites the record for rec.Name.
func (s *Store) Save(rec *Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	if err := os.WriteFile(s.recordPath(rec.Name), data, 0644); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}

// Load reads the record for name. A missing record is not an error; it
// returns (nil, nil).
func (s *Store) Load(name string) (*Record, error) {
	data, err := os.ReadFile(s.recordPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read record: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parse record: %w", err)
	}
	return &rec, nil
}

// Delete removes the record for name. Deleting an absent record succeeds.
func (s *Store) Delete(name string) error {
	if err := os.Remove(s.recordPath(name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete record: %w", err)
	}
	return nil
}

// List enumerates every persisted record.
func (s *Store) List() ([]*Record, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read store dir: %w", err)
	}

	var records []*Record
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		rec, err := s.Load(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil || rec == nil {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}
