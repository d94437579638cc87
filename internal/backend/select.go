package backend

import (
	"runtime"

	"go.uber.org/zap"

	"github.com/termkeep/termkeep/internal/store"
	"github.com/termkeep/termkeep/internal/tmux"
)

// Select chooses the backend for this invocation: tmux when the binary is
// discoverable (after a best-effort install attempt), otherwise the pipe
// fallback. The choice is made once per invocation and never revisited
// mid-operation.
func Select(st *store.Store, log *zap.Logger) Backend {
	if runtime.GOOS != "windows" {
		if tmux.Available() || tmux.Install(log) {
			return NewTmux(st, log)
		}
		log.Info("tmux unavailable, using pipe backend")
	}
	return NewPipe(st, log)
}
