// Package result defines the single structured object every operation
// emits on stdout. Failures are converted into it at the CLI boundary;
// nothing escapes as an unhandled fault.
package result

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/termkeep/termkeep/internal/backend"
)

type Result struct {
	Success    bool                  `json:"success"`
	Code       string                `json:"code,omitempty"`
	Error      string                `json:"error,omitempty"`
	Session    string                `json:"session,omitempty"`
	Backend    string                `json:"backend,omitempty"`
	Message    string                `json:"message,omitempty"`
	Output     *string               `json:"output,omitempty"`
	Warning    string                `json:"warning,omitempty"`
	Note       string                `json:"note,omitempty"`
	OutputFile string                `json:"output_file,omitempty"`
	LinesCount int                   `json:"lines_count,omitempty"`
	Sessions   []backend.SessionInfo `json:"sessions,omitempty"`
}

func Ok() *Result {
	return &Result{Success: true}
}

// Failure maps err onto the failure shape, with a stable code drawn from
// the backend error taxonomy.
func Failure(err error) *Result {
	return &Result{Success: false, Code: codeFor(err), Error: err.Error()}
}

func codeFor(err error) string {
	switch {
	case errors.Is(err, backend.ErrNotFound):
		return "not_found"
	case errors.Is(err, backend.ErrAlreadyExists):
		return "already_exists"
	case errors.Is(err, backend.ErrBackendUnavailable):
		return "backend_unavailable"
	case errors.Is(err, backend.ErrIO):
		return "io_error"
	case errors.Is(err, backend.ErrConfig):
		return "config_error"
	default:
		return "error"
	}
}

// Text wraps a string for the Output field. A pointer keeps empty output
// distinguishable from no output: a timed-out exec reports "" explicitly.
func Text(s string) *string {
	return &s
}

// Print writes the result as indented JSON to stdout.
func (r *Result) Print() {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		fmt.Printf("{\"success\": false, \"error\": %q}\n", err.Error())
		return
	}
	fmt.Println(string(data))
}
