package backend

import "errors"

// Error taxonomy. Every failure an operation can surface wraps one of
// these so the CLI boundary can emit a typed failure result. Timeouts are
// deliberately absent: an exec that outlives its wait is a qualified
// success with a warning, because the command may still be running.
var (
	ErrNotFound           = errors.New("session not found")
	ErrAlreadyExists      = errors.New("session already exists")
	ErrBackendUnavailable = errors.New("no usable session backend")
	ErrIO                 = errors.New("session storage failure")
	ErrConfig             = errors.New("config lookup failed")
)
