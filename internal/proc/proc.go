//go:build !windows

// Package proc probes whether a recorded owning process still exists.
package proc

import "syscall"

// Alive sends signal 0 to pid. EPERM counts as alive: the process exists
// even though we may not signal it.
func Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := syscall.Kill(pid, 0)
	return err == nil || err == syscall.EPERM
}

// Terminate asks pid to exit. Best effort; the caller does not wait.
func Terminate(pid int) error {
	if pid <= 0 {
		return nil
	}
	return syscall.Kill(pid, syscall.SIGTERM)
}
