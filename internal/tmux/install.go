package tmux

import (
	"context"
	"os/exec"
	"time"

	"go.uber.org/zap"
)

const installTimeout = 120 * time.Second

// installers in preference order. Each is attempted only when its package
// manager is on PATH.
var installers = [][]string{
	{"brew", "install", "tmux"},
	{"sudo", "apt-get", "install", "-y", "tmux"},
	{"sudo", "yum", "install", "-y", "tmux"},
}

// Install attempts a one-time best-effort install of tmux through a known
// package manager. Failure is not fatal; the caller falls back to the
// pipe backend.
func Install(log *zap.Logger) bool {
	for _, argv := range installers {
		if _, err := exec.LookPath(argv[0]); err != nil {
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), installTimeout)
		out, err := exec.CommandContext(ctx, argv[0], argv[1:]...).CombinedOutput()
		cancel()

		if err == nil && Available() {
			log.Info("installed tmux", zap.String("via", argv[0]))
			return true
		}
		log.Warn("tmux install attempt failed",
			zap.String("via", argv[0]),
			zap.Error(err),
			zap.ByteString("output", out))
	}
	return false
}
