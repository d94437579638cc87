//go:build windows

package proc

// Windows sessions are recorded with no backing process (pid 0), so there
// is never a live owner to probe or terminate.

func Alive(pid int) bool {
	return false
}

func Terminate(pid int) error {
	return nil
}
